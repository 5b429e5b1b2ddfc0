package filteroverlay

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/altinukshini/scale-tui/internal/grid"
	"github.com/altinukshini/scale-tui/internal/ui"
	"github.com/altinukshini/scale-tui/internal/views"
	"github.com/altinukshini/scale-tui/internal/viewstate"
)

// ---------------------------------------------------------------------------
// Result message
// ---------------------------------------------------------------------------

// ResultMsg is emitted when the user applies or cancels the filter. Values
// holds every filter of the view; an empty list clears that filter.
type ResultMsg struct {
	Applied bool
	View    string
	Values  map[string][]string
}

// Summary is a short label of the active filters, e.g. for the tab bar.
func Summary(filters []views.Filter, p viewstate.Params) string {
	var parts []string
	for _, f := range filters {
		if v := p.Values(f.Key); len(v) > 0 {
			parts = append(parts, strings.ToLower(f.Label)+":"+strings.Join(v, ","))
		}
	}
	return strings.Join(parts, " ")
}

// ---------------------------------------------------------------------------
// Model
// ---------------------------------------------------------------------------

type field struct {
	filter views.Filter
	idx    int // option index, -1 = all
	input  textinput.Model
}

// Model is the filter overlay for one list view. Option filters cycle through
// their values; free filters take text.
type Model struct {
	active  bool
	view    string
	title   string
	fields  []field
	focused int
	width   int
	height  int
}

// New creates an overlay pre-populated from the view's current parameters.
// The overlay starts in the active state.
func New(v views.View, current viewstate.Params) Model {
	fields := make([]field, len(v.Filters))
	for i, f := range v.Filters {
		fl := field{filter: f, idx: -1}
		cur := current.Get(f.Key)
		if f.Free() {
			in := textinput.New()
			in.CharLimit = 128
			in.Width = 30
			in.Placeholder = placeholder(v, f)
			in.SetValue(cur)
			fl.input = in
		} else {
			for j, o := range f.Options {
				if o == cur {
					fl.idx = j
					break
				}
			}
		}
		fields[i] = fl
	}
	return Model{active: true, view: v.Name, title: v.Title, fields: fields}
}

func placeholder(v views.View, f views.Filter) string {
	if fd, ok := v.Schema.Field(f.Key); ok && fd.Kind == viewstate.Time {
		return "e.g. 2026-03-01T00:00:00Z"
	}
	return "any"
}

// IsActive reports whether the overlay is currently visible.
func (m Model) IsActive() bool { return m.active }

// SetSize stores terminal dimensions so the overlay can centre itself.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

func (m Model) Init() tea.Cmd { return nil }

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.active || len(m.fields) == 0 {
		return m, nil
	}
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	// A focused text input gets every key but navigation.
	if m.textFocused() {
		switch kmsg.String() {
		case "esc":
			m.active = false
			return m, m.emit(false)
		case "enter":
			m.blur()
			return m, nil
		case "up", "down", "tab", "shift+tab":
			m.blur()
			m.moveFocus(direction(kmsg.String()))
			if kmsg.String() == "tab" || kmsg.String() == "shift+tab" {
				return m, m.focusText()
			}
			return m, nil
		}
		var cmd tea.Cmd
		f := &m.fields[m.focused]
		f.input, cmd = f.input.Update(kmsg)
		return m, cmd
	}

	switch kmsg.String() {
	case "j", "down", "tab":
		m.moveFocus(1)
	case "k", "up", "shift+tab":
		m.moveFocus(-1)
	case "enter", "right", "l":
		f := &m.fields[m.focused]
		if f.filter.Free() {
			return m, m.focusText()
		}
		f.idx = cycleForward(f.idx, len(f.filter.Options))
	case "left", "h":
		f := &m.fields[m.focused]
		if !f.filter.Free() {
			f.idx = cycleBackward(f.idx, len(f.filter.Options))
		}
	case "a":
		m.active = false
		return m, m.emit(true)
	case "c":
		for i := range m.fields {
			m.fields[i].idx = -1
			if m.fields[i].filter.Free() {
				m.fields[i].input.SetValue("")
			}
		}
	case "esc":
		m.active = false
		return m, m.emit(false)
	}
	return m, nil
}

func direction(k string) int {
	if k == "up" || k == "shift+tab" {
		return -1
	}
	return 1
}

// Values is what applying the overlay would set.
func (m Model) Values() map[string][]string {
	out := make(map[string][]string, len(m.fields))
	for _, f := range m.fields {
		var v string
		if f.filter.Free() {
			v = strings.TrimSpace(f.input.Value())
		} else if f.idx >= 0 && f.idx < len(f.filter.Options) {
			v = f.filter.Options[f.idx]
		}
		if v == "" || v == grid.ViewAll {
			out[f.filter.Key] = nil
			continue
		}
		out[f.filter.Key] = []string{v}
	}
	return out
}

func (m Model) emit(applied bool) tea.Cmd {
	res := ResultMsg{Applied: applied, View: m.view}
	if applied {
		res.Values = m.Values()
	}
	return func() tea.Msg { return res }
}

// ---------------------------------------------------------------------------
// View
// ---------------------------------------------------------------------------

func (m Model) View() string {
	if !m.active {
		return ""
	}

	labelStyle := lipgloss.NewStyle().Width(16).Foreground(ui.ColorMuted)
	focusedLabelStyle := lipgloss.NewStyle().Width(16).Bold(true).Foreground(ui.ColorPrimary)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F9FAFB"))
	allStyle := lipgloss.NewStyle().Foreground(ui.ColorMuted).Italic(true)

	rows := make([]string, 0, len(m.fields))
	for i, f := range m.fields {
		ls := labelStyle
		cursor := "  "
		if i == m.focused {
			ls = focusedLabelStyle
			cursor = lipgloss.NewStyle().Foreground(ui.ColorPrimary).Render("> ")
		}
		var value string
		switch {
		case f.filter.Free():
			value = f.input.View()
		case f.idx < 0 || f.idx >= len(f.filter.Options) || f.filter.Options[f.idx] == grid.ViewAll:
			value = allStyle.Render("All")
		default:
			value = valueStyle.Render(f.filter.Options[f.idx])
		}
		rows = append(rows, fmt.Sprintf("%s%s %s", cursor, ls.Render(f.filter.Label+":"), value))
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(ui.ColorPrimary).
		MarginBottom(1).
		Render("Filter " + m.title)

	help := lipgloss.NewStyle().
		Foreground(ui.ColorMuted).
		MarginTop(1).
		Render("enter/←→: change  a: apply  c: clear  esc: cancel")

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.ColorPrimary).
		Padding(1, 2).
		Width(60).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(rows, "\n"), help))

	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (m *Model) moveFocus(delta int) {
	n := len(m.fields)
	m.focused = ((m.focused+delta)%n + n) % n
}

func (m Model) textFocused() bool {
	for _, f := range m.fields {
		if f.filter.Free() && f.input.Focused() {
			return true
		}
	}
	return false
}

func (m *Model) blur() {
	for i := range m.fields {
		if m.fields[i].filter.Free() {
			m.fields[i].input.Blur()
		}
	}
}

func (m *Model) focusText() tea.Cmd {
	f := &m.fields[m.focused]
	if !f.filter.Free() {
		return nil
	}
	return f.input.Focus()
}

// cycleForward advances the index by one. -1 means "all", 0..max-1 are the
// actual entries, and going past the last entry wraps back to -1 (all).
func cycleForward(idx, count int) int {
	if count == 0 {
		return -1
	}
	idx++
	if idx >= count {
		idx = -1
	}
	return idx
}

// cycleBackward is the reverse of cycleForward.
func cycleBackward(idx, count int) int {
	if count == 0 {
		return -1
	}
	idx--
	if idx < -1 {
		idx = count - 1
	}
	return idx
}
