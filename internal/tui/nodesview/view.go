package nodesview

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/altinukshini/scale-tui/internal/api"
	"github.com/altinukshini/scale-tui/internal/model"
	"github.com/altinukshini/scale-tui/internal/poll"
	"github.com/altinukshini/scale-tui/internal/transform"
	"github.com/altinukshini/scale-tui/internal/ui"
)

// Target is the poll target name used in tick messages.
const Target = "nodes-status"

// Source reads nodes/status/.
type Source interface {
	GetNodeStatus(ctx context.Context, q url.Values) (*model.NodeStatusResponse, error)
}

// PauseMsg asks the app to pause or resume a node.
type PauseMsg struct {
	Node  model.Node
	Pause bool
}

type nodeItem struct {
	status model.NodeStatus
}

func (n nodeItem) Title() string {
	state := n.status.State()
	dot := ui.StatusStyle(state).Render("●")

	running := ""
	if c := len(n.status.JobExesRunning); c > 0 {
		running = ui.StyleInfo.Render(fmt.Sprintf(" [%d running]", c))
	}
	return fmt.Sprintf("%s %s%s  %s", dot, n.status.Node.Hostname, running, ui.StatusStyle(state).Render(state))
}

func (n nodeItem) Description() string {
	parts := []string{
		fmt.Sprintf("%d completed", n.status.Completed()),
		fmt.Sprintf("%d failed", n.status.Failed()),
	}
	if n.status.Node.PauseReason != "" {
		parts = append(parts, "paused: "+n.status.Node.PauseReason)
	}
	return strings.Join(parts, " | ")
}

func (n nodeItem) FilterValue() string {
	return n.status.Node.Hostname + " " + n.status.State()
}

type Options struct {
	Source   Source
	Interval time.Duration
	ReadOnly bool
	Logger   *zap.Logger
}

// Model is the node health view.
type Model struct {
	list     list.Model
	source   Source
	interval time.Duration
	readOnly bool
	logger   *zap.Logger
	handle   *poll.Handle
	nodes    []model.NodeStatus
	width    int
	height   int
	loading  bool
	err      error
	code     int
}

func New(opts Options) Model {
	delegate := list.NewDefaultDelegate()
	delegate.SetHeight(2)
	delegate.SetSpacing(0)

	l := list.New(nil, delegate, 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.KeyMap.Filter = key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter"))
	l.DisableQuitKeybindings()

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return Model{
		list:     l,
		source:   opts.Source,
		interval: opts.Interval,
		readOnly: opts.ReadOnly,
		logger:   logger,
		handle:   poll.NewHandle(),
		loading:  true,
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Nodes() []model.NodeStatus {
	return m.nodes
}

func (m Model) Activate() (Model, tea.Cmd) {
	gen := m.handle.Start()
	return m, tea.Batch(m.fetch(), m.tick(gen))
}

func (m Model) Deactivate() Model {
	m.handle.Stop()
	return m
}

func (m Model) SetInterval(d time.Duration) Model {
	m.interval = d
	return m
}

func (m Model) Refresh() (Model, tea.Cmd) {
	return m, m.fetch()
}

func (m Model) fetch() tea.Cmd {
	ticket := m.handle.Begin()
	src := m.source
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		nodes, err := src.GetNodeStatus(ctx, nil)
		return ui.NodeStatusLoadedMsg{Ticket: ticket, Nodes: nodes, Err: err}
	}
}

func (m Model) tick(gen uint64) tea.Cmd {
	if m.interval <= 0 {
		return nil
	}
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return ui.PollTickMsg{Target: Target, Gen: gen}
	})
}

// Selected returns the highlighted node.
func (m Model) Selected() (model.NodeStatus, bool) {
	item, ok := m.list.SelectedItem().(nodeItem)
	if !ok {
		return model.NodeStatus{}, false
	}
	return item.status, true
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ui.NodeStatusLoadedMsg:
		if !m.handle.Accept(msg.Ticket) {
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			m.code = api.StatusCode(msg.Err)
			m.logger.Warn("node status fetch failed", zap.Error(msg.Err))
			return m, nil
		}
		m.err = nil
		m.code = 0
		m.nodes = nil
		if msg.Nodes != nil {
			m.nodes = msg.Nodes.Results
		}
		items := make([]list.Item, len(m.nodes))
		for i, n := range m.nodes {
			items[i] = nodeItem{status: n}
		}
		return m, m.list.SetItems(items)

	case ui.PollTickMsg:
		if msg.Target != Target || !m.handle.Current(msg.Gen) {
			return m, nil
		}
		return m, tea.Batch(m.fetch(), m.tick(msg.Gen))

	case tea.KeyMsg:
		if m.IsFiltering() {
			break
		}
		switch {
		case key.Matches(msg, ui.Keys.Refresh):
			return m.Refresh()
		case key.Matches(msg, ui.Keys.Pause):
			if m.readOnly {
				return m, nil
			}
			sel, ok := m.Selected()
			if !ok {
				return m, nil
			}
			req := PauseMsg{Node: sel.Node, Pause: !sel.Node.IsPaused}
			return m, func() tea.Msg { return req }
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Reserve one line for the header.
		m.list.SetSize(msg.Width, msg.Height-1)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.loading {
		return "\n  Loading nodes..."
	}
	if m.err != nil && len(m.nodes) == 0 {
		return "\n  " + ui.ErrorText("Error: "+m.err.Error(), m.code)
	}
	if len(m.nodes) == 0 {
		return "\n  No nodes have registered with the scheduler."
	}

	online, paused, running := 0, 0, 0
	for _, n := range m.nodes {
		if n.IsOnline {
			online++
		}
		if n.Node.IsPaused {
			paused++
		}
		running += len(n.JobExesRunning)
	}
	hint := "r: refresh  f: filter"
	if !m.readOnly {
		hint += "  p: pause/resume"
	}
	header := ui.StyleMuted.Render(fmt.Sprintf("  %d nodes | %d online | %d paused | %d running | %s",
		len(m.nodes), online, paused, running, hint))
	if m.err != nil {
		header += "  " + ui.ErrorText(m.err.Error(), m.code)
	}
	return header + "\n" + m.list.View()
}

// IsFiltering returns true when the filter input is active.
func (m Model) IsFiltering() bool {
	return m.list.FilterState() == list.Filtering
}

// Summary is a one-line health summary used by the CLI.
func Summary(nodes []model.NodeStatus) string {
	counts := map[string]int{}
	for _, n := range nodes {
		counts[n.State()]++
	}
	var parts []string
	for _, state := range []string{"Online", "Paused", "High Failure Rate", "Offline"} {
		if c := counts[state]; c > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", c, strings.ToLower(state)))
		}
	}
	if len(parts) == 0 {
		return "no nodes"
	}
	return strings.Join(parts, ", ")
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{ui.Keys.Refresh, ui.Keys.Filter}
	if !m.readOnly {
		keys = append(keys, ui.Keys.Pause)
	}
	return keys
}

// FormatPause is the confirm prompt for a pause request.
func FormatPause(req PauseMsg) string {
	if req.Pause {
		return fmt.Sprintf("Pause node %s? Running executions finish; no new work is scheduled.", req.Node.Hostname)
	}
	msg := fmt.Sprintf("Resume node %s?", req.Node.Hostname)
	if req.Node.PauseReason != "" {
		msg += " It was paused: " + req.Node.PauseReason
	}
	if !req.Node.LastModified.IsZero() {
		msg += " (since " + transform.FormatTime(req.Node.LastModified) + ")"
	}
	return msg
}
