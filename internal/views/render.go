package views

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// DefaultWidth is used until the terminal reports its size.
const DefaultWidth = 120

type AppData struct {
	Title       string
	PlanPane    string
	SidePane    string
	Status      string
	StatusError bool
	Toasts      string
	Footer      string
	Width       int
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// RenderApp lays the plan next to the side pane (palette, adapt preview,
// help). The plan takes the full width when the side pane is empty.
func RenderApp(data AppData) string {
	width := data.Width
	if width <= 0 {
		width = DefaultWidth
	}
	// border and padding take four columns per panel
	body := panelStyle.Width(width - 4).Render(data.PlanPane)
	if strings.TrimSpace(data.SidePane) != "" {
		planWidth := width*3/5 - 4
		sideWidth := width - planWidth - 8
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			panelStyle.Width(planWidth).Render(data.PlanPane),
			panelStyle.Width(sideWidth).Render(data.SidePane),
		)
	}

	lines := []string{headerStyle.Render("studycoach | " + data.Title), body}
	if data.Status != "" {
		if data.StatusError {
			lines = append(lines, errorStyle.Render("error: "+data.Status))
		} else {
			lines = append(lines, statusStyle.Render(data.Status))
		}
	}
	if data.Toasts != "" {
		lines = append(lines, panelStyle.Render(data.Toasts))
	}
	if data.Footer != "" {
		lines = append(lines, footerStyle.Render(data.Footer))
	}
	return strings.Join(lines, "\n")
}

// RenderMarkdown renders plan text for the adapt preview, wrapped to width.
// The raw text is returned when glamour fails.
func RenderMarkdown(md string, width int) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	if width <= 0 {
		width = DefaultWidth / 2
	}
	r, err := glamour.NewTermRenderer(glamour.WithStandardStyle("dark"), glamour.WithWordWrap(width))
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}
