package confirm

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type ResultMsg struct {
	Confirmed bool
	Action    string
	Data      interface{}
	// Input is the text typed into a dialog created WithInput.
	Input string
}

type Model struct {
	Title    string
	Message  string
	Action   string
	Data     interface{}
	active   bool
	selected bool // true = confirm selected
	input    textinput.Model
	hasInput bool
}

func New(title, message, action string, data interface{}) Model {
	return Model{
		Title:   title,
		Message: message,
		Action:  action,
		Data:    data,
		active:  true,
	}
}

// WithInput adds a focused single line input, e.g. a pause reason. While it
// has focus y and n are typed, not answered; enter confirms.
func (m Model) WithInput(placeholder, value string) Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 250
	in.Width = 40
	in.SetValue(value)
	in.Focus()
	m.input = in
	m.hasInput = true
	m.selected = true
	return m
}

func (m Model) IsActive() bool { return m.active }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) result(confirmed bool) tea.Cmd {
	res := ResultMsg{Confirmed: confirmed, Action: m.Action, Data: m.Data}
	if m.hasInput {
		res.Input = strings.TrimSpace(m.input.Value())
	}
	return func() tea.Msg { return res }
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.active {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.hasInput && m.input.Focused() {
			switch msg.String() {
			case "esc":
				m.active = false
				return m, m.result(false)
			case "enter":
				m.active = false
				return m, m.result(true)
			case "tab":
				m.input.Blur()
				return m, nil
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "y", "Y":
			m.active = false
			return m, m.result(true)
		case "n", "N", "esc":
			m.active = false
			return m, m.result(false)
		case "enter":
			m.active = false
			return m, m.result(m.selected)
		case "tab":
			if m.hasInput {
				m.input.Focus()
				return m, textinput.Blink
			}
			m.selected = !m.selected
		case "left", "right", "h", "l":
			m.selected = !m.selected
		}
	}
	return m, nil
}

func (m Model) View() string {
	if !m.active {
		return ""
	}

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#F59E0B")).
		Padding(1, 2).
		Width(56)

	title := lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.Color("#F59E0B")).
		Render(m.Title)

	yesStyle := lipgloss.NewStyle().Padding(0, 1)
	noStyle := lipgloss.NewStyle().Padding(0, 1)

	if m.selected {
		yesStyle = yesStyle.Bold(true).Background(lipgloss.Color("#10B981")).Foreground(lipgloss.Color("#F9FAFB"))
		noStyle = noStyle.Foreground(lipgloss.Color("#6B7280"))
	} else {
		yesStyle = yesStyle.Foreground(lipgloss.Color("#6B7280"))
		noStyle = noStyle.Bold(true).Background(lipgloss.Color("#EF4444")).Foreground(lipgloss.Color("#F9FAFB"))
	}

	body := m.Message
	hint := "y/n to confirm, esc to cancel"
	if m.hasInput {
		body += "\n\n" + m.input.View()
		if m.input.Focused() {
			hint = "enter to confirm, tab for buttons, esc to cancel"
		}
	}

	content := fmt.Sprintf("%s\n\n%s\n\n%s  %s\n\n%s",
		title, body,
		yesStyle.Render("Yes"), noStyle.Render("No"), hint)

	return style.Render(content)
}
