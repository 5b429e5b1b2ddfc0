package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/altinukshini/scale-tui/internal/ui"
)

// RenderStatusBar shows the last status line on the left and the key hints
// of the active screen on the right. Errors are drawn in red.
func RenderStatusBar(status, hints string, width int) string {
	color := ui.ColorMuted
	if strings.HasPrefix(status, "Error") {
		color = ui.ColorFailure
	}
	left := lipgloss.NewStyle().Foreground(color).Render("  " + status)

	help := lipgloss.NewStyle().Foreground(ui.ColorMuted).
		Render(hints + " ")

	// Hints give way to the status when both do not fit.
	if lipgloss.Width(left)+lipgloss.Width(help) > width {
		help = ""
	}
	gap := width - lipgloss.Width(left) - lipgloss.Width(help)
	if gap < 0 {
		gap = 0
	}
	padding := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.NewStyle().
		Background(lipgloss.Color("#111827")).
		Width(width).
		Render(left + padding + help)
}
