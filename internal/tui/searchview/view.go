package searchview

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/altinukshini/scale-tui/internal/model"
	"github.com/altinukshini/scale-tui/internal/ui"
)

type Mode int

const (
	ModeInput Mode = iota
	ModeResults
)

// RunMsg asks the parent to search the open execution's streams.
type RunMsg struct {
	Query model.SearchQuery
}

// JumpMsg asks the parent to show a match in the log view.
type JumpMsg struct {
	Stream string
	Line   int
}

// ParseQuery reads the search input. "/expr/" is a regular expression, a
// leading "stream:NAME " limits the search to matching streams and a leading
// "case:" makes the match case sensitive.
func ParseQuery(input string) model.SearchQuery {
	var q model.SearchQuery
	s := strings.TrimSpace(input)
	for {
		switch {
		case strings.HasPrefix(s, "stream:"):
			rest := strings.TrimPrefix(s, "stream:")
			name, tail, _ := strings.Cut(rest, " ")
			q.StreamPattern = "^" + name + "$"
			s = strings.TrimSpace(tail)
			continue
		case strings.HasPrefix(s, "case:"):
			q.CaseSensitive = true
			s = strings.TrimSpace(strings.TrimPrefix(s, "case:"))
			continue
		}
		break
	}
	if len(s) > 2 && strings.HasPrefix(s, "/") && strings.HasSuffix(s, "/") {
		q.IsRegex = true
		s = s[1 : len(s)-1]
	}
	q.Pattern = s
	return q
}

type Model struct {
	input    textinput.Model
	viewport viewport.Model
	results  *model.SearchResults
	err      error
	mode     Mode
	cursor   int
	width    int
	height   int
	loading  bool
	active   bool
	ready    bool
}

func New() Model {
	ti := textinput.New()
	ti.Placeholder = "Search pattern (/regex/, stream:stderr, case:)"
	ti.CharLimit = 256

	return Model{
		input: ti,
	}
}

func (m *Model) Activate() {
	m.active = true
	m.mode = ModeInput
	m.input.Focus()
}

func (m *Model) Deactivate() {
	m.active = false
	m.input.Blur()
}

func (m Model) IsActive() bool {
	return m.active
}

// IsInputMode returns true when the search view is in input mode (typing a query).
func (m Model) IsInputMode() bool {
	return m.mode == ModeInput
}

// ActivateResults re-enters the search view in results mode,
// preserving existing results and cursor position.
func (m *Model) ActivateResults() {
	m.active = true
	m.mode = ModeResults
}

func (m Model) Query() string {
	return m.input.Value()
}

func (m Model) Results() *model.SearchResults {
	return m.results
}

func (m Model) SelectedMatch() *model.SearchResult {
	if m.results == nil || m.cursor >= len(m.results.Matches) {
		return nil
	}
	return &m.results.Matches[m.cursor]
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ui.SearchResultsMsg:
		m.loading = false
		m.err = msg.Err
		if msg.Err != nil {
			return m, nil
		}
		m.results = msg.Results
		m.cursor = 0
		m.mode = ModeResults
		m.input.Blur()
		if m.ready {
			m.viewport.SetContent(m.renderResults())
		}

	case tea.KeyMsg:
		if m.mode == ModeInput {
			switch msg.String() {
			case "enter":
				if strings.TrimSpace(m.input.Value()) != "" {
					m.loading = true
					q := ParseQuery(m.input.Value())
					return m, func() tea.Msg { return RunMsg{Query: q} }
				}
			case "esc":
				m.Deactivate()
				return m, nil
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}

		// Results mode
		switch {
		case key.Matches(msg, ui.Keys.Down):
			if m.results != nil && m.cursor < len(m.results.Matches)-1 {
				m.cursor++
				if m.ready {
					m.viewport.SetContent(m.renderResults())
				}
			}
			return m, nil
		case key.Matches(msg, ui.Keys.Up):
			if m.cursor > 0 {
				m.cursor--
				if m.ready {
					m.viewport.SetContent(m.renderResults())
				}
			}
			return m, nil
		case key.Matches(msg, ui.Keys.Enter):
			if sel := m.SelectedMatch(); sel != nil {
				jump := JumpMsg{Stream: sel.Stream, Line: sel.Line}
				m.Deactivate()
				return m, func() tea.Msg { return jump }
			}
			return m, nil
		case key.Matches(msg, ui.Keys.Search):
			m.mode = ModeInput
			return m, m.input.Focus()
		case key.Matches(msg, ui.Keys.Back):
			m.Deactivate()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 4
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}
		if m.results != nil {
			m.viewport.SetContent(m.renderResults())
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) renderResults() string {
	if m.results == nil || m.results.TotalCount == 0 {
		return "  No matches"
	}

	bold := lipgloss.NewStyle().Bold(true)
	highlight := lipgloss.NewStyle().Background(ui.ColorHighlight)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("  %d matches across %d streams\n",
		m.results.TotalCount, len(m.results.StreamCounts)))
	b.WriteString(ui.StyleMuted.Render("  enter:view log  j/k:navigate  /:new search  esc:close") + "\n\n")

	streams := make([]string, 0, len(m.results.StreamCounts))
	for name := range m.results.StreamCounts {
		streams = append(streams, name)
	}
	sort.Strings(streams)
	for _, name := range streams {
		b.WriteString(fmt.Sprintf("  %s: %d matches\n", name, m.results.StreamCounts[name]))
	}
	b.WriteString("\n")

	current := ""
	for i, match := range m.results.Matches {
		if match.Stream != current {
			current = match.Stream
			b.WriteString(fmt.Sprintf("  --- %s ---\n", bold.Render(current)))
		}

		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		line := fmt.Sprintf("%sL%d: %s", cursor, match.Line, match.Content)
		if i == m.cursor {
			line = highlight.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m Model) View() string {
	if !m.active {
		return ""
	}

	var b strings.Builder
	b.WriteString("  " + m.input.View() + "\n")

	switch {
	case m.loading:
		b.WriteString("\n  Searching...")
	case m.err != nil:
		b.WriteString("\n  " + ui.ErrorText("Search failed: "+m.err.Error(), 0))
	case m.ready:
		b.WriteString(m.viewport.View())
	}
	return b.String()
}
