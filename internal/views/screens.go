package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RawFallbackNotice precedes the raw text of a plan that has no day blocks.
const RawFallbackNotice = "Plan format not supported. Showing raw text:"

type TaskData struct {
	Label    string
	Checked  bool
	Selected bool
}

type DayData struct {
	Header         string
	Title          string
	Complete       bool
	CompletedToday bool
	Tasks          []TaskData
}

type PlanPanelData struct {
	Title        string
	Goal         string
	StartDate    string
	StartedAgo   string
	Parsed       bool
	Raw          string
	Completed    int
	Total        int
	Percent      int
	ProgressView string
	Days         []DayData
	HiddenBefore int
	HiddenAfter  int
}

type AdaptPreviewData struct {
	Feedback     string
	ViewportView string
}

type HelpPanelData struct {
	CurrentView string
	Bindings    []string
	HelpView    string
}

var (
	checkedStyle  = lipgloss.NewStyle().Strikethrough(true).Faint(true)
	selectedStyle = lipgloss.NewStyle().Bold(true)
	dayTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	completeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

func RenderPlanPanel(data PlanPanelData) string {
	var b strings.Builder
	if data.Goal != "" {
		b.WriteString(fmt.Sprintf("goal: %s\n", data.Goal))
	}
	b.WriteString(fmt.Sprintf("Start Date: %s", data.StartDate))
	if data.StartedAgo != "" {
		b.WriteString(fmt.Sprintf(" (%s)", data.StartedAgo))
	}
	b.WriteString("\n")

	if !data.Parsed {
		b.WriteString("\n" + warnStyle.Render(RawFallbackNotice) + "\n")
		b.WriteString(data.Raw)
		return strings.TrimSpace(b.String())
	}

	b.WriteString(fmt.Sprintf("Progress: %d / %d tasks\n", data.Completed, data.Total))
	if data.ProgressView != "" {
		b.WriteString(data.ProgressView + "\n")
	} else {
		b.WriteString(fmt.Sprintf("%d%%\n", data.Percent))
	}
	if data.HiddenBefore > 0 {
		b.WriteString(fmt.Sprintf("\n... %d earlier day(s)\n", data.HiddenBefore))
	}
	for _, day := range data.Days {
		renderDay(&b, day)
	}
	if data.HiddenAfter > 0 {
		b.WriteString(fmt.Sprintf("\n... %d more day(s)\n", data.HiddenAfter))
	}
	return strings.TrimSpace(b.String())
}

func renderDay(b *strings.Builder, day DayData) {
	b.WriteString("\n" + dayTitleStyle.Render(day.Header))
	if day.Title != "" {
		b.WriteString(" " + day.Title)
	}
	b.WriteString("\n")
	for _, task := range day.Tasks {
		cursor := " "
		if task.Selected {
			cursor = ">"
		}
		box := "[ ]"
		label := task.Label
		if task.Checked {
			box = "[x]"
			label = checkedStyle.Render(label)
		}
		line := fmt.Sprintf("%s %s %s", cursor, box, label)
		if task.Selected {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	if day.Complete {
		banner := "🎉 Day Complete!"
		if day.CompletedToday {
			banner += " (today)"
		}
		b.WriteString(completeStyle.Render(banner) + "\n")
	}
}

func RenderAdaptPreview(data AdaptPreviewData) string {
	var b strings.Builder
	b.WriteString("adapted plan preview:\n")
	if data.Feedback != "" {
		b.WriteString(fmt.Sprintf("feedback: %s\n", data.Feedback))
	}
	b.WriteString("keys: [a]accept [r]reject [j/k]scroll\n")
	b.WriteString(data.ViewportView)
	return strings.TrimSpace(b.String())
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: /%s", input)
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	line := fmt.Sprintf("notification: [%s] %s", strings.ToUpper(level), body)
	switch level {
	case "error":
		return errorStyle.Render(line)
	case "success":
		return successStyle.Render(line)
	default:
		return line
	}
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help:\n%s:\n%s\n%s",
		strings.ToLower(data.CurrentView),
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
}
