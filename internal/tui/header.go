package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/altinukshini/scale-tui/internal/ui"
)

// RenderHeader shows the backend host and the current location. The right
// side flags a read-only session and a paused scheduler.
func RenderHeader(host, location string, readOnly, schedulerPaused bool, width int) string {
	name := " scale-tui"
	if host != "" {
		name += " | " + host
	}
	left := lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.Color("#F9FAFB")).
		Render(name)
	loc := lipgloss.NewStyle().Foreground(ui.ColorInfo).Render("  " + location)

	right := ""
	if schedulerPaused {
		right += lipgloss.NewStyle().Bold(true).Foreground(ui.ColorFailure).Render("SCHEDULER PAUSED ")
	}
	if readOnly {
		right += lipgloss.NewStyle().Foreground(ui.ColorWarning).Render("[read-only] ")
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(loc) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	padding := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.NewStyle().
		Background(lipgloss.Color("#1F2937")).
		Width(width).
		Render(left + loc + padding + right)
}
