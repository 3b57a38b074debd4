package update

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/studycoach/internal/coach"
	"github.com/sandeepkv93/studycoach/internal/commands"
	"github.com/sandeepkv93/studycoach/internal/views"
)

var errNoPlan = errors.New("no plan loaded")

func (m Model) handlePaletteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closePalette()
		m.Status = StatusBar{Text: "command palette closed"}
		return m, nil
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand()
	default:
		if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
			if msg.Type == tea.KeySpace && len(msg.Runes) == 0 {
				m.commandInput.SetValue(m.commandInput.Value() + " ")
			}
			m.Palette.Input = m.commandInput.Value()
			return m, nil
		}
		var cmd tea.Cmd
		m.commandInput, cmd = m.commandInput.Update(msg)
		m.Palette.Input = m.commandInput.Value()
		return m, cmd
	}
}

func (m *Model) closePalette() {
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()
}

func (m Model) executePaletteCommand() (tea.Model, tea.Cmd) {
	raw := strings.TrimSpace(m.Palette.Input)
	m.closePalette()

	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}

	var follow tea.Cmd
	res, err := commands.Execute(cmd, commands.Handlers{
		Toggle: func(a commands.ToggleArgs) (commands.Result, error) {
			if m.Session == nil {
				return commands.Result{}, errNoPlan
			}
			m.CursorDay, m.CursorTask = a.Day, a.Task
			next, c := m.toggleTask(a.Day, a.Task)
			m = next.(Model)
			follow = c
			return commands.Result{Message: m.Status.Text}, statusErr(m.Status)
		},
		Export: func(a commands.ExportArgs) (commands.Result, error) {
			if m.Session == nil {
				return commands.Result{}, errNoPlan
			}
			path := a.Path
			if path == "" {
				path = filepath.Join(m.exportDir, a.Format.DefaultFileName())
			}
			if err := m.Session.ExportFile(string(a.Format), path); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("exported plan to %s", path)}, nil
		},
		Adapt: func(a commands.AdaptArgs) (commands.Result, error) {
			c, err := m.startAdapt(a.Feedback)
			if err != nil {
				return commands.Result{}, err
			}
			follow = c
			return commands.Result{Message: "asking the coach to adapt your plan"}, nil
		},
		Accept: func() (commands.Result, error) {
			c, err := m.acceptAdapted()
			if err != nil {
				return commands.Result{}, err
			}
			follow = c
			return commands.Result{Message: AdaptedNotice}, nil
		},
		Reject: func() (commands.Result, error) {
			if !m.Adapt.Active() {
				return commands.Result{}, errors.New("no adapted plan to reject")
			}
			m.Adapt = AdaptState{}
			return commands.Result{Message: "adapted plan discarded"}, nil
		},
		Day: func(a commands.DayArgs) (commands.Result, error) {
			if m.Session == nil || a.Day >= len(m.Session.Blocks()) {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("plan has no day %d", a.Day+1)}
			}
			m.jumpDay(a.Day)
			return commands.Result{Message: fmt.Sprintf("showing %s", m.Session.Blocks()[a.Day].Label(a.Day))}, nil
		},
	})
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, follow
	}
	m.Status = StatusBar{Text: res.Message}
	return m, follow
}

func statusErr(s StatusBar) error {
	if s.IsError {
		return errors.New(s.Text)
	}
	return nil
}

func (m *Model) startAdapt(feedback string) (tea.Cmd, error) {
	if m.Session == nil {
		return nil, errNoPlan
	}
	if m.adapter == nil {
		return nil, errors.New("coach service is not configured")
	}
	if m.Adapt.Loading {
		return nil, errors.New("an adaptation is already in progress")
	}
	doc := m.Session.Plan()
	startDate := ""
	if doc.StartDate != nil {
		startDate = doc.StartDate.Format("2006-01-02")
	}
	req := coach.AdaptRequest{
		Plan:      doc.Body,
		Progress:  doc.Progress,
		Feedback:  feedback,
		Goal:      doc.Goal,
		Days:      doc.Days,
		StartDate: startDate,
	}
	m.Adapt = AdaptState{Loading: true, Feedback: feedback}

	adapter, store, planID, log := m.adapter, m.feedback, doc.ID, m.log
	return func() tea.Msg {
		ctx := context.Background()
		if store != nil && strings.TrimSpace(feedback) != "" {
			if err := store.UpdateFeedback(ctx, planID, feedback); err != nil {
				log.Logf("[WARN] store feedback for plan %s: %v", planID, err)
			}
		}
		text, err := adapter.AdaptPlan(ctx, req)
		return AdaptedPlanMsg{Text: text, Err: err}
	}, nil
}

func (m Model) onAdaptedPlan(msg AdaptedPlanMsg) (tea.Model, tea.Cmd) {
	feedback := m.Adapt.Feedback
	if msg.Err != nil {
		m.Adapt = AdaptState{}
		m.LastError = msg.Err
		m.Status = StatusBar{Text: fmt.Sprintf("adapt plan: %v", msg.Err), IsError: true}
		cmd := m.pushToast("Failed to adapt plan.", ToastError)
		return m, cmd
	}
	m.Adapt = AdaptState{Feedback: feedback, Preview: msg.Text}
	m.preview.SetContent(views.RenderMarkdown(msg.Text, m.preview.Width))
	m.preview.GotoTop()
	m.Status = StatusBar{Text: "adapted plan ready: a accept, r reject"}
	return m, nil
}

func (m *Model) acceptAdapted() (tea.Cmd, error) {
	if !m.Adapt.Active() {
		return nil, errors.New("no adapted plan to accept")
	}
	if err := m.Session.ReplaceBody(context.Background(), m.Adapt.Preview); err != nil {
		return nil, err
	}
	m.Adapt = AdaptState{}
	m.CursorDay, m.CursorTask = 0, 0
	return m.pushToast(AdaptedNotice, ToastSuccess), nil
}

func (m Model) handlePreviewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "a", "enter":
		cmd, err := m.acceptAdapted()
		if err != nil {
			m.Status = StatusBar{Text: err.Error(), IsError: true}
			return m, nil
		}
		m.Status = StatusBar{Text: AdaptedNotice}
		return m, cmd
	case "r", "esc":
		m.Adapt = AdaptState{}
		m.Status = StatusBar{Text: "adapted plan discarded"}
		return m, nil
	case "ctrl+c":
		m.Quitting = true
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.preview, cmd = m.preview.Update(msg)
	return m, cmd
}
