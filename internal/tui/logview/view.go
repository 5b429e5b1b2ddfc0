package logview

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/altinukshini/scale-tui/internal/api"
	"github.com/altinukshini/scale-tui/internal/cache"
	"github.com/altinukshini/scale-tui/internal/model"
	"github.com/altinukshini/scale-tui/internal/poll"
	"github.com/altinukshini/scale-tui/internal/search"
	"github.com/altinukshini/scale-tui/internal/ui"
	"github.com/altinukshini/scale-tui/internal/viewstate"
)

// Source downloads jobs and execution logs.
type Source interface {
	GetJob(ctx context.Context, jobID int64) (*model.Job, error)
	GetExecutionLog(ctx context.Context, exeID int64, stream, since string) (string, error)
}

// ClientSource adapts the API client, whose since is a time.
type ClientSource struct {
	Client *api.Client
}

func (s ClientSource) GetJob(ctx context.Context, jobID int64) (*model.Job, error) {
	return s.Client.GetJob(ctx, jobID)
}

func (s ClientSource) GetExecutionLog(ctx context.Context, exeID int64, stream, since string) (string, error) {
	t, _ := time.Parse(time.RFC3339, since)
	return s.Client.GetExecutionLog(ctx, exeID, stream, t)
}

// Target is the poll target name used in tick messages.
const Target = "log"

type jobLoadedMsg struct {
	jobID int64
	job   *model.Job
	err   error
}

type Options struct {
	Source   Source
	Cache    *cache.LogCache
	Router   *viewstate.Router
	Interval time.Duration
	Logger   *zap.Logger
}

type Model struct {
	source   Source
	cache    *cache.LogCache
	router   *viewstate.Router
	interval time.Duration
	logger   *zap.Logger
	handle   *poll.Handle
	engine   *search.Engine

	viewport viewport.Model
	content  string
	job      *model.Job
	jobID    int64
	exe      model.JobExecution
	stream   string
	since    string
	width    int
	height   int
	ready    bool
	loading  bool
	err      error
	code     int
	cached   bool

	// In-log search
	searchInput textinput.Model
	searching   bool
	searchQuery string
	matchLines  []int // 0-based line indices of matches
	matchIndex  int   // current match position
	matchTotal  int

	// Jump highlight (from cross-log search result)
	jumpLine int // 0-based line to highlight, -1 = none

	// Live tailing for running executions
	tailing bool
}

func New(opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "Search in log..."
	ti.CharLimit = 256
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return Model{
		source:      opts.Source,
		cache:       opts.Cache,
		router:      opts.Router,
		interval:    opts.Interval,
		logger:      logger,
		handle:      poll.NewHandle(),
		engine:      search.New(),
		searchInput: ti,
		jumpLine:    -1,
		stream:      "combined",
	}
}

// Route is the location of an execution log.
func Route(jobID, exeID int64, stream string) string {
	q := []string{}
	if exeID > 0 {
		q = append(q, "exe="+strconv.FormatInt(exeID, 10))
	}
	if stream != "" {
		q = append(q, "stream="+stream)
	}
	route := fmt.Sprintf("jobs/%d/logs", jobID)
	if len(q) > 0 {
		route += "?" + strings.Join(q, "&")
	}
	return route
}

// Open starts loading the log of an execution of jobID. exeID 0 means the
// latest execution.
func (m Model) Open(jobID, exeID int64, stream string) (Model, tea.Cmd) {
	m.handle.Stop()
	m.jobID = jobID
	m.exe = model.JobExecution{ID: exeID}
	if stream != "" {
		m.stream = stream
	}
	m.job = nil
	m.content = ""
	m.since = ""
	m.err = nil
	m.code = 0
	m.cached = false
	m.tailing = false
	m.loading = true
	m.searchQuery = ""
	m.matchLines = nil
	m.jumpLine = -1
	src := m.source
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		job, err := src.GetJob(ctx, jobID)
		return jobLoadedMsg{jobID: jobID, job: job, err: err}
	}
}

// Close stops tailing.
func (m Model) Close() Model {
	m.handle.Stop()
	m.tailing = false
	return m
}

// SetInterval changes the tail interval from the next tick on.
func (m Model) SetInterval(d time.Duration) Model {
	m.interval = d
	return m
}

func (m Model) JobID() int64       { return m.jobID }
func (m Model) ExecutionID() int64 { return m.exe.ID }
func (m Model) Stream() string     { return m.stream }
func (m Model) Content() string    { return m.content }

// Logs returns every stream of the open execution that is available without
// a download: the shown one plus whatever the cache holds.
func (m Model) Logs() map[string]string {
	out := map[string]string{}
	if m.cache != nil && m.exe.ID > 0 {
		if all, err := m.cache.GetAll(m.exe.ID); err == nil {
			out = all
		}
	}
	if m.content != "" {
		out[m.stream] = m.content
	}
	return out
}

func (m Model) fetch(full bool) tea.Cmd {
	ticket := m.handle.Begin()
	src, exeID, stream := m.source, m.exe.ID, m.stream
	since := ""
	if !full {
		since = m.since
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		content, err := src.GetExecutionLog(ctx, exeID, stream, since)
		return ui.LogLoadedMsg{ExecutionID: exeID, Stream: stream, Content: content, Append: !full, Ticket: ticket, Err: err}
	}
}

func (m Model) tick(gen uint64) tea.Cmd {
	if m.interval <= 0 || !m.tailing {
		return nil
	}
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return ui.PollTickMsg{Target: Target, Gen: gen}
	})
}

// load shows the current stream, from the cache when the execution finished
// and its log was stored before.
func (m Model) load() (Model, tea.Cmd) {
	m.loading = true
	m.content = ""
	m.since = ""
	m.cached = false
	m.tailing = !m.exe.Status.Terminal()
	gen := m.handle.Start()
	if m.router != nil {
		m.router.ReplaceQuery(viewstate.ParseQuery("exe=" + strconv.FormatInt(m.exe.ID, 10) + "&stream=" + m.stream))
	}
	if !m.tailing && m.cache != nil && m.cache.Has(m.exe.ID, m.stream) {
		if content, err := m.cache.Get(m.exe.ID, m.stream); err == nil {
			m.handle.Stop()
			m.loading = false
			m.cached = true
			m.setContent(content)
			return m, nil
		}
	}
	return m, tea.Batch(m.fetch(true), m.tick(gen))
}

func (m Model) store(content string) {
	if m.cache == nil || m.tailing || m.job == nil {
		return
	}
	if err := m.cache.Store(m.exe.ID, m.stream, content); err != nil {
		m.logger.Warn("cache log", zap.Int64("exe", m.exe.ID), zap.Error(err))
		return
	}
	meta := cache.CacheMeta{
		ExecutionID: m.exe.ID,
		JobID:       m.job.ID,
		JobType:     m.job.JobType.Label(),
		Status:      string(m.exe.Status),
		StoredAt:    time.Now().UTC(),
	}
	if m.exe.Node != nil {
		meta.Node = m.exe.Node.Hostname
	}
	if m.exe.Ended != nil {
		meta.Ended = *m.exe.Ended
	}
	if err := m.cache.WriteMeta(meta); err != nil {
		m.logger.Warn("cache meta", zap.Int64("exe", m.exe.ID), zap.Error(err))
	}
}

func (m *Model) setContent(content string) {
	m.content = content
	m.matchLines = nil
	m.matchTotal = 0
	m.matchIndex = 0
	if m.searchQuery != "" {
		m.findMatches()
	}
	if m.ready {
		m.viewport.SetContent(m.applyHighlights())
		if m.tailing {
			m.viewport.GotoBottom()
		} else {
			m.viewport.GotoTop()
		}
	}
}

func (m *Model) GotoLine(line int) {
	if line > 0 {
		m.jumpLine = line - 1 // convert 1-based to 0-based
		m.viewport.SetContent(m.applyHighlights())
		m.viewport.SetYOffset(line - 1)
	}
}

// appendContent adds freshly tailed lines while preserving scroll position.
// If the viewport was at the bottom (following), it auto-scrolls to bottom.
func (m *Model) appendContent(more string) {
	if more == "" {
		return
	}
	if m.content != "" && !strings.HasSuffix(m.content, "\n") {
		m.content += "\n"
	}
	m.content += more
	if m.searchQuery != "" {
		m.findMatches()
	}
	if !m.ready {
		return
	}

	wasAtBottom := m.viewport.AtBottom()
	prevOffset := m.viewport.YOffset

	m.viewport.SetContent(m.applyHighlights())

	if wasAtBottom {
		m.viewport.GotoBottom()
	} else {
		maxOffset := m.viewport.TotalLineCount() - m.viewport.VisibleLineCount()
		if maxOffset < 0 {
			maxOffset = 0
		}
		if prevOffset > maxOffset {
			m.viewport.GotoBottom()
		} else {
			m.viewport.SetYOffset(prevOffset)
		}
	}
}

func (m Model) IsTailing() bool {
	return m.tailing
}

func (m Model) IsSearching() bool {
	return m.searching
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case jobLoadedMsg:
		if msg.jobID != m.jobID {
			return m, nil
		}
		if msg.err != nil {
			m.loading = false
			m.err = msg.err
			m.code = api.StatusCode(msg.err)
			return m, nil
		}
		m.job = msg.job
		exe, ok := pickExecution(msg.job, m.exe.ID)
		if !ok {
			m.loading = false
			m.err = fmt.Errorf("job %d has no execution to show", msg.jobID)
			return m, nil
		}
		m.exe = exe
		return m.load()

	case ui.LogLoadedMsg:
		if msg.ExecutionID != m.exe.ID || msg.Stream != m.stream || !m.handle.Accept(msg.Ticket) {
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			m.code = api.StatusCode(msg.Err)
			m.logger.Warn("log fetch failed", zap.Int64("exe", msg.ExecutionID), zap.Error(msg.Err))
			return m, nil
		}
		m.err = nil
		m.since = time.Now().UTC().Format(time.RFC3339)
		if msg.Append {
			m.appendContent(msg.Content)
		} else {
			m.setContent(msg.Content)
			m.store(msg.Content)
		}
		if !m.tailing {
			m.handle.Stop()
		}
		return m, nil

	case ui.PollTickMsg:
		if msg.Target != Target || !m.handle.Current(msg.Gen) {
			return m, nil
		}
		return m, tea.Batch(m.fetch(false), m.tick(msg.Gen))

	case tea.KeyMsg:
		if m.searching {
			switch msg.String() {
			case "enter":
				query := m.searchInput.Value()
				if query != "" {
					m.searchQuery = query
					m.findMatches()
					m.viewport.SetContent(m.applyHighlights())
					if len(m.matchLines) > 0 {
						m.matchIndex = 0
						m.viewport.SetYOffset(m.matchLines[0])
					}
				}
				m.searching = false
				m.searchInput.Blur()
				return m, nil
			case "esc":
				m.searching = false
				m.searchInput.Blur()
				return m, nil
			}
			var cmd tea.Cmd
			m.searchInput, cmd = m.searchInput.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "/":
			m.searching = true
			m.jumpLine = -1
			m.searchInput.SetValue("")
			m.searchInput.Focus()
			return m, textinput.Blink
		case "n":
			if len(m.matchLines) > 0 {
				m.matchIndex = (m.matchIndex + 1) % len(m.matchLines)
				m.viewport.SetContent(m.applyHighlights())
				m.viewport.SetYOffset(m.matchLines[m.matchIndex])
			}
			return m, nil
		case "N":
			if len(m.matchLines) > 0 {
				m.matchIndex = (m.matchIndex - 1 + len(m.matchLines)) % len(m.matchLines)
				m.viewport.SetContent(m.applyHighlights())
				m.viewport.SetYOffset(m.matchLines[m.matchIndex])
			}
			return m, nil
		case "t":
			if m.exe.ID == 0 || m.loading {
				return m, nil
			}
			m.stream = nextStream(m.stream)
			return m.load()
		case "r":
			if m.exe.ID == 0 {
				return m, nil
			}
			if m.cache != nil && m.cached {
				_ = m.cache.DeleteEntry(m.exe.ID)
			}
			return m.load()
		case "g":
			m.viewport.GotoTop()
			return m, nil
		case "G":
			m.viewport.GotoBottom()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerH := 1
		if m.searching {
			headerH = 2
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerH)
			m.ready = true
			if m.content != "" {
				m.viewport.SetContent(m.applyHighlights())
			}
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerH
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func pickExecution(job *model.Job, exeID int64) (model.JobExecution, bool) {
	if job == nil {
		return model.JobExecution{}, false
	}
	if exeID == 0 {
		return job.LatestExecution()
	}
	for _, e := range job.Executions {
		if e.ID == exeID {
			return e, true
		}
	}
	return model.JobExecution{}, false
}

func nextStream(s string) string {
	for i, name := range model.LogStreams {
		if name == s {
			return model.LogStreams[(i+1)%len(model.LogStreams)]
		}
	}
	return model.LogStreams[0]
}

func (m *Model) findMatches() {
	m.matchLines = nil
	m.matchTotal = 0
	if m.searchQuery == "" || m.content == "" {
		return
	}
	lines, err := m.engine.MatchLines(m.content, model.SearchQuery{Pattern: m.searchQuery})
	if err != nil {
		return
	}
	m.matchLines = lines
	m.matchTotal = len(lines)
}

// applyHighlights returns the content with matching lines and jump line highlighted.
func (m Model) applyHighlights() string {
	hasSearch := m.searchQuery != "" && len(m.matchLines) > 0
	hasJump := m.jumpLine >= 0

	if !hasSearch && !hasJump {
		return m.content
	}

	matchSet := make(map[int]bool)
	for _, idx := range m.matchLines {
		matchSet[idx] = true
	}

	currentMatchLine := -1
	if m.matchIndex >= 0 && m.matchIndex < len(m.matchLines) {
		currentMatchLine = m.matchLines[m.matchIndex]
	}

	highlight := lipgloss.NewStyle().Background(lipgloss.Color("#374151"))
	current := ui.StyleMatch

	lines := strings.Split(m.content, "\n")
	for i, line := range lines {
		if i == currentMatchLine {
			lines[i] = current.Render(line)
		} else if hasJump && i == m.jumpLine {
			lines[i] = current.Render(line)
		} else if matchSet[i] {
			lines[i] = highlight.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) title() string {
	name := fmt.Sprintf("job %d", m.jobID)
	if m.job != nil {
		name = m.job.JobType.Label() + " #" + strconv.FormatInt(m.jobID, 10)
	}
	return fmt.Sprintf("%s exe %d [%s]", name, m.exe.ID, m.stream)
}

func (m Model) View() string {
	if m.err != nil {
		return "\n  " + ui.ErrorText("Error: "+m.err.Error(), m.code)
	}
	if m.loading {
		return "\n  Loading " + m.title() + "..."
	}

	// Header line
	tag := ""
	switch {
	case m.tailing:
		tag = lipgloss.NewStyle().Bold(true).Foreground(ui.ColorSuccess).Render(" [LIVE]")
	case m.cached:
		tag = ui.StyleMuted.Render(" [cached]")
	}
	headerParts := fmt.Sprintf(" %s%s  %3.f%%", m.title(), tag, m.viewport.ScrollPercent()*100)
	if m.searchQuery != "" && m.matchTotal > 0 {
		headerParts += fmt.Sprintf("  [%d/%d matches]", m.matchIndex+1, m.matchTotal)
	} else if m.searchQuery != "" {
		headerParts += "  [no matches]"
	}
	hints := ui.StyleMuted.Render("  /:search  n/N:match  t:stream  g/G:top/bot  esc:back")
	header := lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.Color("#F9FAFB")).
		Render(headerParts) + hints

	body := m.viewport.View()
	if m.content == "" {
		body = ui.StyleMuted.Render("  No log output yet")
	}
	if m.searching {
		return header + "\n  /" + m.searchInput.View() + "\n" + body
	}
	return header + "\n" + body
}
