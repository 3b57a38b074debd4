package update

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/studycoach/internal/plan"
	"github.com/sandeepkv93/studycoach/internal/scheduler"
)

func taskKey(dayIdx, taskIdx int) string {
	return plan.TaskKey(dayIdx, taskIdx)
}

// pushToast shows text and arranges for it to expire after the toast TTL.
func (m *Model) pushToast(text string, level ToastLevel) tea.Cmd {
	m.toastSeq++
	t := Toast{
		ID:    fmt.Sprintf("toast-%d", m.toastSeq),
		Text:  text,
		Level: level,
		At:    m.now().UTC(),
	}
	m.Toasts = append(m.Toasts, t)
	if len(m.Toasts) > maxToasts {
		m.Toasts = m.Toasts[len(m.Toasts)-maxToasts:]
	}
	if m.Scheduler == nil {
		return nil
	}
	if err := m.Scheduler.After(scheduler.KindToastExpiry, t.ID, m.toastTTL); err != nil {
		m.log.Logf("[WARN] schedule toast expiry: %v", err)
		return tea.Tick(m.toastTTL, func(time.Time) tea.Msg {
			return SchedulerEventMsg{Event: scheduler.Event{ID: t.ID, Kind: scheduler.KindToastExpiry}}
		})
	}
	return nil
}

func (m *Model) dropToast(id string) {
	kept := m.Toasts[:0]
	for _, t := range m.Toasts {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	m.Toasts = kept
}

// moveCursor steps through tasks in reading order, crossing day boundaries
// and skipping days without tasks.
func (m *Model) moveCursor(delta int) {
	if m.Session == nil {
		return
	}
	type pos struct{ day, task int }
	var positions []pos
	current := -1
	for d, block := range m.Session.Blocks() {
		for t := range block.Tasks {
			if current < 0 && (d > m.CursorDay || (d == m.CursorDay && t >= m.CursorTask)) {
				current = len(positions)
			}
			positions = append(positions, pos{d, t})
		}
	}
	if len(positions) == 0 {
		return
	}
	if current < 0 {
		current = len(positions) - 1
	}
	next := min(max(current+delta, 0), len(positions)-1)
	m.CursorDay, m.CursorTask = positions[next].day, positions[next].task
}

func (m *Model) jumpDay(day int) {
	if m.Session == nil {
		return
	}
	blocks := m.Session.Blocks()
	if len(blocks) == 0 {
		return
	}
	if day < 0 {
		day = 0
	}
	if day >= len(blocks) {
		day = len(blocks) - 1
	}
	m.CursorDay, m.CursorTask = day, 0
}
