package update

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/studycoach/internal/scheduler"
	"github.com/sandeepkv93/studycoach/internal/study"
	"github.com/sandeepkv93/studycoach/internal/views"
)

const rolloverEventID = "rollover"

func (m Model) Init() tea.Cmd {
	if m.Scheduler == nil {
		return nil
	}
	m.scheduleRollover()
	return waitForSchedulerCmd(m.Scheduler.C())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.preview.Width = typed.Width/2 - 6
		return m, nil
	case tea.KeyMsg:
		if m.Palette.Active {
			return m.handlePaletteKey(typed)
		}
		if m.Adapt.Active() {
			return m.handlePreviewKey(typed)
		}

		switch typed.String() {
		case "/":
			m.Palette.Active = true
			m.Palette.Input = ""
			m.commandInput.SetValue("")
			m.commandInput.Focus()
			m.Status = StatusBar{Text: "command palette active"}
			return m, nil
		case m.Keys.Help:
			m.HelpVisible = !m.HelpVisible
			if m.HelpVisible {
				m.Status = StatusBar{Text: "help shown"}
			} else {
				m.Status = StatusBar{Text: "help hidden"}
			}
			return m, nil
		case "ctrl+c", m.Keys.Quit:
			m.Quitting = true
			return m, tea.Quit
		case "j", "down":
			m.moveCursor(1)
			return m, nil
		case "k", "up":
			m.moveCursor(-1)
			return m, nil
		case "l", "right", "n":
			m.jumpDay(m.CursorDay + 1)
			return m, nil
		case "h", "left", "p":
			m.jumpDay(m.CursorDay - 1)
			return m, nil
		case m.Keys.Toggle, "enter", "x":
			return m.toggleSelected()
		}
		return m, nil
	case spinner.TickMsg:
		if m.Session != nil && m.Session.Saving() {
			var cmd tea.Cmd
			m.savingSpinner, cmd = m.savingSpinner.Update(typed)
			return m, cmd
		}
		return m, nil
	case ProgressSavedMsg:
		return m.onProgressSaved(typed)
	case AdaptedPlanMsg:
		return m.onAdaptedPlan(typed)
	case SchedulerEventMsg:
		return m.onSchedulerEvent(typed.Event)
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			m.log.Logf("[ERROR] %v", typed.Err)
		}
		return m, nil
	}
	return m, nil
}

func (m Model) onSchedulerEvent(ev scheduler.Event) (tea.Model, tea.Cmd) {
	switch ev.Kind {
	case scheduler.KindRollover:
		if m.Session != nil && m.Session.CheckRollover(context.Background()) {
			m.Status = StatusBar{Text: "new day: completed-today list reset"}
		}
		m.scheduleRollover()
	case scheduler.KindToastExpiry:
		m.dropToast(ev.ID)
	}
	if m.Scheduler != nil {
		return m, waitForSchedulerCmd(m.Scheduler.C())
	}
	return m, nil
}

func (m Model) scheduleRollover() {
	if m.Scheduler == nil {
		return
	}
	if err := m.Scheduler.After(scheduler.KindRollover, rolloverEventID, m.rolloverInterval); err != nil {
		m.log.Logf("[WARN] schedule rollover check: %v", err)
	}
}

func waitForSchedulerCmd(ch <-chan scheduler.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return SchedulerEventMsg{Event: ev}
	}
}

func (m Model) View() string {
	title := "(no plan)"
	if m.Session != nil {
		title = m.Session.Plan().Title
	}
	side := strings.TrimSpace(strings.Join([]string{
		m.renderCommandPalette(),
		m.renderAdaptPane(),
		m.renderHelpIfVisible(),
	}, "\n"))

	toasts := m.renderToasts()
	if m.Session != nil && m.Session.Saving() {
		toasts = strings.TrimSpace(toasts + "\nsaving: " + m.savingSpinner.View())
	}

	return views.RenderApp(views.AppData{
		Title:       title,
		PlanPane:    m.renderPlanPanel(),
		SidePane:    side,
		Status:      m.Status.Text,
		StatusError: m.Status.IsError,
		Toasts:      toasts,
		Footer:      "keys: j/k task | h/l day | space toggle | / cmd | ? help | q quit",
		Width:       m.width,
	})
}

func (m Model) toggleSelected() (tea.Model, tea.Cmd) {
	if m.Session == nil || !m.Session.Parsed() {
		return m, nil
	}
	return m.toggleTask(m.CursorDay, m.CursorTask)
}

func (m Model) toggleTask(dayIdx, taskIdx int) (tea.Model, tea.Cmd) {
	if m.Session.Saving() {
		m.Status = StatusBar{Text: "saving progress, please wait"}
		return m, nil
	}
	pending, err := m.Session.Stage(context.Background(), taskKey(dayIdx, taskIdx))
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	cmds := []tea.Cmd{saveProgressCmd(m.Session, pending), m.savingSpinner.Tick}
	for _, ev := range pending.Completions {
		cmds = append(cmds, m.pushToast(ev.Message, ToastSuccess))
	}
	m.Status = StatusBar{Text: "saving progress"}
	return m, tea.Batch(cmds...)
}

func saveProgressCmd(s *study.Session, pending study.Pending) tea.Cmd {
	return func() tea.Msg {
		return ProgressSavedMsg{Pending: pending, Err: s.Save(context.Background(), pending)}
	}
}

func (m Model) onProgressSaved(msg ProgressSavedMsg) (tea.Model, tea.Cmd) {
	if m.Session == nil {
		return m, nil
	}
	res := m.Session.Resolve(context.Background(), msg.Pending, msg.Err)
	if res.Outcome == study.RolledBack {
		m.LastError = res.Reason
		m.Status = StatusBar{Text: study.RollbackNotice, IsError: true}
		cmd := m.pushToast(study.RollbackNotice, ToastError)
		return m, cmd
	}
	m.Status = StatusBar{Text: fmt.Sprintf("saved: %d / %d tasks", res.Stats.Completed, res.Stats.Total)}
	return m, nil
}
