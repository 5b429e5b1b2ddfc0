package details

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/altinukshini/scale-tui/internal/api"
	"github.com/altinukshini/scale-tui/internal/model"
	"github.com/altinukshini/scale-tui/internal/transform"
	"github.com/altinukshini/scale-tui/internal/ui"
	"github.com/altinukshini/scale-tui/internal/views"
)

// OpenLogMsg asks the app to open the log of one execution.
type OpenLogMsg struct {
	JobID       int64
	ExecutionID int64
}

// Section is a titled block of key/value pairs. Nested objects of a record
// become their own section, e.g. "job_type" or "configuration.monitor".
type Section struct {
	Title  string
	Fields [][2]string
}

// Sections flattens a record into sections. Scalars of the top level come
// first; lists are summarized by their length.
func Sections(rec transform.DisplayRecord) []Section {
	top := Section{}
	var nested []Section
	flatten(rec.Map(), "", &top, &nested)
	sort.Slice(top.Fields, func(i, j int) bool { return top.Fields[i][0] < top.Fields[j][0] })
	sort.Slice(nested, func(i, j int) bool { return nested[i].Title < nested[j].Title })
	return append([]Section{top}, nested...)
}

func flatten(row map[string]any, prefix string, into *Section, nested *[]Section) {
	for k, v := range row {
		if r, ok := v.(transform.Row); ok {
			v = map[string]any(r)
		}
		switch v := v.(type) {
		case map[string]any:
			s := Section{Title: prefix + k}
			flatten(v, prefix+k+".", &s, nested)
			sort.Slice(s.Fields, func(i, j int) bool { return s.Fields[i][0] < s.Fields[j][0] })
			if len(s.Fields) > 0 {
				*nested = append(*nested, s)
			}
		case []any:
			into.Fields = append(into.Fields, [2]string{prefix + k, fmt.Sprintf("[%d items]", len(v))})
		default:
			into.Fields = append(into.Fields, [2]string{prefix + k, transform.Stringify(v)})
		}
	}
}

type Model struct {
	view     views.View
	id       string
	record   *transform.DisplayRecord
	job      *model.Job
	sections []Section
	viewport viewport.Model
	cursor   int
	width    int
	height   int
	loading  bool
	ready    bool
	err      error
	code     int
	now      func() time.Time
}

func New() Model {
	return Model{now: time.Now}
}

// SetTarget points the view at one record and marks it loading.
func (m *Model) SetTarget(v views.View, id string) {
	m.view = v
	m.id = id
	m.record = nil
	m.job = nil
	m.sections = nil
	m.err = nil
	m.code = 0
	m.cursor = 0
	m.loading = true
}

// Path is the API path of the shown record.
func (m Model) Path() string {
	if m.view.Record == nil {
		return ""
	}
	return m.view.Record(m.id)
}

func (m Model) ID() string {
	return m.id
}

func (m Model) ViewName() string {
	return m.view.Name
}

func (m Model) Job() *model.Job {
	return m.job
}

// SelectedExecution is the execution under the cursor of a job record.
func (m Model) SelectedExecution() (model.JobExecution, bool) {
	if m.job == nil || m.cursor < 0 || m.cursor >= len(m.job.Executions) {
		return model.JobExecution{}, false
	}
	return m.job.Executions[m.cursor], true
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ui.RecordLoadedMsg:
		if msg.Path != m.Path() {
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			m.code = api.StatusCode(msg.Err)
			return m, nil
		}
		rec := m.view.Transformer().Transform(msg.Record)
		m.record = &rec
		m.job = msg.Job
		m.sections = Sections(rec)
		if m.job != nil && m.cursor >= len(m.job.Executions) {
			m.cursor = 0
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		n := 0
		if m.job != nil {
			n = len(m.job.Executions)
		}
		switch {
		case key.Matches(msg, ui.Keys.Down) && n > 0:
			if m.cursor < n-1 {
				m.cursor++
				m.refresh()
			}
			return m, nil
		case key.Matches(msg, ui.Keys.Up) && n > 0:
			if m.cursor > 0 {
				m.cursor--
				m.refresh()
			}
			return m, nil
		case key.Matches(msg, ui.Keys.Enter), key.Matches(msg, ui.Keys.Log):
			exe, ok := m.SelectedExecution()
			if !ok {
				return m, nil
			}
			jobID := m.job.ID
			return m, func() tea.Msg { return OpenLogMsg{JobID: jobID, ExecutionID: exe.ID} }
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-1)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 1
		}
		m.refresh()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) refresh() {
	if m.ready {
		m.viewport.SetContent(m.render())
	}
}

func (m Model) render() string {
	bold := lipgloss.NewStyle().Bold(true)
	label := lipgloss.NewStyle().Width(28).Foreground(ui.ColorMuted)
	highlight := lipgloss.NewStyle().Background(ui.ColorHighlight)

	var b strings.Builder
	if m.job != nil {
		b.WriteString(m.renderJobSummary())
	}
	for _, s := range m.sections {
		if s.Title != "" {
			b.WriteString("\n  " + bold.Render(s.Title) + "\n")
		}
		for _, f := range s.Fields {
			b.WriteString("  " + label.Render(lastSegment(f[0])) + " " + f[1] + "\n")
		}
	}
	if m.job == nil {
		return b.String()
	}

	b.WriteString("\n  " + bold.Render("Executions") + "\n")
	if len(m.job.Executions) == 0 {
		b.WriteString(ui.StyleMuted.Render("  No executions yet") + "\n")
	}
	now := m.now()
	for i, exe := range m.job.Executions {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		icon := ui.StatusIcon(string(exe.Status), views.JobStatusIcons.Lookup(string(exe.Status)))
		node := "-"
		if exe.Node != nil {
			node = exe.Node.Hostname
		}
		started := "-"
		if exe.Started != nil {
			started = transform.FormatTime(*exe.Started)
		}
		line := fmt.Sprintf("%s%s #%d  %-10s %-16s %s  %s",
			cursor, icon, exe.ID, exe.Status, node, started,
			transform.FormatDuration(exe.Duration(now).Truncate(time.Second)))
		if exe.Error != nil {
			line += "  " + ui.StyleFailure.Render(exe.Error.Title)
		}
		if i == m.cursor {
			line = highlight.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m Model) renderJobSummary() string {
	j := m.job
	var b strings.Builder
	icon := ui.StatusIcon(string(j.Status), views.JobStatusIcons.Lookup(string(j.Status)))
	b.WriteString(fmt.Sprintf("  %s %s  %s  tries %d/%d  priority %d\n",
		icon, lipgloss.NewStyle().Bold(true).Render(j.JobType.Label()),
		ui.StatusStyle(string(j.Status)).Render(string(j.Status)),
		j.NumExes, j.MaxTries, j.Priority))
	if j.Error != nil {
		b.WriteString("  " + ui.StyleFailure.Render(j.Error.Category+": "+j.Error.Title) + "\n")
		if j.Error.Description != "" {
			b.WriteString("  " + ui.StyleMuted.Render(j.Error.Description) + "\n")
		}
	}
	return b.String()
}

func lastSegment(k string) string {
	if i := strings.LastIndex(k, "."); i >= 0 {
		return k[i+1:]
	}
	return k
}

func (m Model) View() string {
	if m.loading {
		return "\n  Loading " + strings.ToLower(strings.TrimSuffix(m.view.Title, "s")) + " " + m.id + "..."
	}
	if m.err != nil {
		return "\n  " + ui.ErrorText("Error: "+m.err.Error(), m.code)
	}
	if m.record == nil {
		return "\n  Nothing selected"
	}
	title := strings.TrimSuffix(m.view.Title, "s")
	if _, err := strconv.ParseInt(m.id, 10, 64); err == nil {
		title += " #" + m.id
	} else {
		title += " " + m.id
	}
	return lipgloss.NewStyle().Bold(true).Render(" "+title) + "\n" + m.viewport.View()
}

func (m Model) ShortHelp() []key.Binding {
	if m.job != nil {
		return []key.Binding{ui.Keys.Up, ui.Keys.Down, ui.Keys.Enter, ui.Keys.Cancel, ui.Keys.Requeue, ui.Keys.Back}
	}
	return []key.Binding{ui.Keys.Refresh, ui.Keys.Back}
}
