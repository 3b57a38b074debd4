package update

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/sandeepkv93/studycoach/internal/plan"
	"github.com/sandeepkv93/studycoach/internal/views"
)

func (m Model) renderCommandPalette() string {
	return views.RenderCommandPalette(m.Palette.Active, m.Palette.Input)
}

func (m Model) renderPlanPanel() string {
	if m.Session == nil {
		return "no plan loaded"
	}
	doc := m.Session.Plan()
	data := views.PlanPanelData{
		Title:     doc.Title,
		Goal:      doc.Goal,
		StartDate: doc.StartDateLabel(),
		Parsed:    m.Session.Parsed(),
		Raw:       doc.Body,
	}
	if doc.StartDate != nil {
		data.StartedAgo = humanize.RelTime(*doc.StartDate, m.now(), "ago", "from now")
	}
	if !data.Parsed {
		return views.RenderPlanPanel(data)
	}

	stats := m.Session.Stats()
	data.Completed = stats.Completed
	data.Total = stats.Total
	data.Percent = stats.Percent()
	data.ProgressView = m.progressBar.ViewAs(stats.Ratio())

	blocks := m.Session.Blocks()
	tr := m.Session.Tracker()
	first, last := dayWindow(m.CursorDay, len(blocks))
	data.HiddenBefore = first
	data.HiddenAfter = len(blocks) - last
	for d := first; d < last; d++ {
		block := blocks[d]
		day := views.DayData{
			Header:         block.DisplayHeader(),
			Title:          block.Title,
			Complete:       m.Session.DayComplete(d),
			CompletedToday: tr != nil && tr.IsCompletedToday(d),
			Tasks:          make([]views.TaskData, 0, len(block.Tasks)),
		}
		for t, task := range block.Tasks {
			day.Tasks = append(day.Tasks, views.TaskData{
				Label:    plan.TaskLabel(task),
				Checked:  m.Session.Checked(d, t),
				Selected: d == m.CursorDay && t == m.CursorTask,
			})
		}
		data.Days = append(data.Days, day)
	}
	return views.RenderPlanPanel(data)
}

// dayWindow picks the range of days rendered around the cursor.
func dayWindow(cursor, total int) (int, int) {
	if total <= visibleDays {
		return 0, total
	}
	first := cursor - 1
	if first < 0 {
		first = 0
	}
	if first+visibleDays > total {
		first = total - visibleDays
	}
	return first, first + visibleDays
}

func (m Model) renderToasts() string {
	if len(m.Toasts) == 0 {
		return ""
	}
	lines := make([]string, 0, len(m.Toasts))
	for _, t := range m.Toasts {
		lines = append(lines, views.RenderNotification(string(t.Level), t.Text))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderAdaptPane() string {
	switch {
	case m.Adapt.Loading:
		feedback := m.Adapt.Feedback
		if feedback == "" {
			feedback = "(none)"
		}
		return fmt.Sprintf("adapting plan...\nfeedback: %s", feedback)
	case m.Adapt.Active():
		return views.RenderAdaptPreview(views.AdaptPreviewData{
			Feedback:     m.Adapt.Feedback,
			ViewportView: m.preview.View(),
		})
	default:
		return ""
	}
}
