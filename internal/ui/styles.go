package ui

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
)

var (
	ColorPrimary   = lipgloss.Color("#7C3AED")
	ColorSuccess   = lipgloss.Color("#10B981")
	ColorFailure   = lipgloss.Color("#EF4444")
	ColorWarning   = lipgloss.Color("#F59E0B")
	ColorInfo      = lipgloss.Color("#3B82F6")
	ColorMuted     = lipgloss.Color("#6B7280")
	ColorBorder    = lipgloss.Color("#374151")
	ColorHighlight = lipgloss.Color("#1F2937")

	StylePaneFocused = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorPrimary)

	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess)
	StyleFailure = lipgloss.NewStyle().Foreground(ColorFailure)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning)
	StyleInfo    = lipgloss.NewStyle().Foreground(ColorInfo)
	StyleMuted   = lipgloss.NewStyle().Foreground(ColorMuted)
	StyleBold    = lipgloss.NewStyle().Bold(true)

	StyleMatch = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FCD34D")).
			Background(lipgloss.Color("#78350F"))
)

// StatusStyle colors a job, execution, ingest or node state.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case "COMPLETED", "INGESTED", "Online":
		return StyleSuccess
	case "FAILED", "ERRORED", "Offline", "High Failure Rate":
		return StyleFailure
	case "CANCELED", "BLOCKED", "DUPLICATE", "Paused":
		return StyleWarning
	case "PENDING", "QUEUED", "DEFERRED", "TRANSFERRED":
		return StyleMuted
	default:
		return StyleInfo
	}
}

// StatusIcon renders the glyph already chosen by the transformer in the
// color of its status.
func StatusIcon(status, glyph string) string {
	return StatusStyle(status).Render(glyph)
}

// ErrorText renders a widget error with its HTTP status code when there is
// one.
func ErrorText(msg string, code int) string {
	if code > 0 {
		return StyleFailure.Render(msg) + StyleMuted.Render(" (HTTP "+strconv.Itoa(code)+")")
	}
	return StyleFailure.Render(msg)
}
