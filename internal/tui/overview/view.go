package overview

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/altinukshini/scale-tui/internal/api"
	"github.com/altinukshini/scale-tui/internal/model"
	"github.com/altinukshini/scale-tui/internal/poll"
	"github.com/altinukshini/scale-tui/internal/transform"
	"github.com/altinukshini/scale-tui/internal/ui"
)

// Target is the poll target name used in tick messages.
const Target = "overview"

type TimeWindow struct {
	Label    string
	Duration time.Duration
}

func (w TimeWindow) String() string {
	return w.Label
}

// Windows are the load windows [ and ] switch between.
var Windows = []TimeWindow{
	{Label: "6h", Duration: 6 * time.Hour},
	{Label: "24h", Duration: 24 * time.Hour},
	{Label: "3d", Duration: 72 * time.Hour},
	{Label: "7d", Duration: 7 * 24 * time.Hour},
}

// Source reads the cluster-wide status endpoints.
type Source interface {
	GetStatus(ctx context.Context) (*model.SystemStatus, error)
	GetQueueStatus(ctx context.Context) (*model.QueueStatus, error)
	GetJobLoad(ctx context.Context, q url.Values) (*model.JobLoad, error)
	GetRunningJobs(ctx context.Context) (*model.RunningStatus, error)
	GetJobTypeStatus(ctx context.Context, q url.Values) (*model.JobTypeStatusList, error)
}

// ToggleSchedulerMsg asks the app to pause or resume the scheduler.
type ToggleSchedulerMsg struct {
	Pause bool
}

type Metrics struct {
	Buckets       int
	PeakLoad      int
	MeanRunning   float64
	MedianRunning float64
	P95Running    float64
	MeanQueued    float64
	P95Queued     float64
	Queued        int
	LongestQueued time.Duration
	PausedTypes   int
	CPUUsage      float64 // percent of total
	MemUsage      float64
	DiskUsage     float64
	TopQueued     []QueueStat
	Running       int
	TopRunning    []RunningStat
	Failed        int
	Finished      int
	FailureRates  []FailureStat
}

type QueueStat struct {
	Name     string
	Count    int
	Priority int
	Paused   bool
	Waiting  time.Duration
}

type RunningStat struct {
	Name    string
	Count   int
	Longest time.Duration
}

// FailureStat is the share of one job type's finished jobs that failed in
// the load window.
type FailureStat struct {
	Name       string
	Failed     int
	Total      int
	Categories map[string]int
}

func (f FailureStat) Rate() float64 {
	if f.Total == 0 {
		return 0
	}
	return float64(f.Failed) / float64(f.Total) * 100
}

// AddTypeActivity adds the running jobs by type and the failure rate of
// each job type. Types with no finished jobs have no failure rate.
func (m *Metrics) AddTypeActivity(running *model.RunningStatus, types *model.JobTypeStatusList, now time.Time) {
	if running != nil {
		for _, e := range running.Results {
			m.Running += e.Count
			rs := RunningStat{Name: e.JobType.Label(), Count: e.Count}
			if e.LongestRunning != nil {
				rs.Longest = now.Sub(*e.LongestRunning)
			}
			m.TopRunning = append(m.TopRunning, rs)
		}
		sort.SliceStable(m.TopRunning, func(i, j int) bool {
			return m.TopRunning[i].Count > m.TopRunning[j].Count
		})
		if len(m.TopRunning) > 5 {
			m.TopRunning = m.TopRunning[:5]
		}
	}
	if types != nil {
		for _, t := range types.Results {
			byCategory, failed, total := t.Failures()
			m.Failed += failed
			m.Finished += total
			if total == 0 {
				continue
			}
			m.FailureRates = append(m.FailureRates, FailureStat{Name: t.JobType.Label(), Failed: failed, Total: total, Categories: byCategory})
		}
		sort.SliceStable(m.FailureRates, func(i, j int) bool {
			a, b := m.FailureRates[i], m.FailureRates[j]
			if a.Rate() != b.Rate() {
				return a.Rate() > b.Rate()
			}
			return a.Total > b.Total
		})
		if len(m.FailureRates) > 5 {
			m.FailureRates = m.FailureRates[:5]
		}
	}
}

// ComputeMetrics summarizes the load buckets, the queue and the resource
// usage. now measures how long the oldest job has been queued.
func ComputeMetrics(status *model.SystemStatus, queue *model.QueueStatus, load *model.JobLoad, now time.Time) Metrics {
	m := Metrics{}
	if load != nil {
		m.Buckets = len(load.Results)
		m.PeakLoad = load.Peak()
		var running, queued []float64
		for _, p := range load.Results {
			running = append(running, float64(p.RunningCount))
			queued = append(queued, float64(p.QueuedCount))
		}
		sort.Float64s(running)
		sort.Float64s(queued)
		m.MeanRunning = mean(running)
		m.MedianRunning = percentile(running, 50)
		m.P95Running = percentile(running, 95)
		m.MeanQueued = mean(queued)
		m.P95Queued = percentile(queued, 95)
	}

	entries := []model.QueueEntry(nil)
	if queue != nil {
		entries = queue.Results
	} else if status != nil {
		entries = status.Queue
	}
	for _, e := range entries {
		m.Queued += e.Count
		if e.IsJobTypePaused {
			m.PausedTypes++
		}
		qs := QueueStat{Name: e.JobType.Label(), Count: e.Count, Priority: e.HighestPriority, Paused: e.IsJobTypePaused}
		if e.LongestQueued != nil {
			qs.Waiting = now.Sub(*e.LongestQueued)
			if qs.Waiting > m.LongestQueued {
				m.LongestQueued = qs.Waiting
			}
		}
		m.TopQueued = append(m.TopQueued, qs)
	}
	sort.SliceStable(m.TopQueued, func(i, j int) bool {
		return m.TopQueued[i].Count > m.TopQueued[j].Count
	})
	if len(m.TopQueued) > 5 {
		m.TopQueued = m.TopQueued[:5]
	}

	if status != nil {
		total, used := status.Resources.Total, status.Resources.Scheduled
		m.CPUUsage = ratio(used.CPUs, total.CPUs)
		m.MemUsage = ratio(used.Mem, total.Mem)
		m.DiskUsage = ratio(used.Disk, total.Disk)
	}
	return m
}

func ratio(used, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return used / total * 100
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))
	if lower == upper {
		return sorted[lower]
	}
	frac := idx - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

type Options struct {
	Source   Source
	Interval time.Duration
	ReadOnly bool
	Logger   *zap.Logger
	Now      func() time.Time
}

type Model struct {
	source   Source
	interval time.Duration
	readOnly bool
	logger   *zap.Logger
	handle   *poll.Handle
	now      func() time.Time

	status    *model.SystemStatus
	queue     *model.QueueStatus
	load      *model.JobLoad
	running   *model.RunningStatus
	types     *model.JobTypeStatusList
	metrics   *Metrics
	windowIdx int
	viewport  viewport.Model
	width     int
	height    int
	loading   bool
	ready     bool
	err       error
	code      int
	updated   time.Time
}

func New(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return Model{
		source:    opts.Source,
		interval:  opts.Interval,
		readOnly:  opts.ReadOnly,
		logger:    logger,
		handle:    poll.NewHandle(),
		now:       now,
		windowIdx: 1, // 24h
		loading:   true,
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Window() TimeWindow {
	if m.windowIdx >= 0 && m.windowIdx < len(Windows) {
		return Windows[m.windowIdx]
	}
	return Windows[1]
}

// SchedulerPaused reports the last known scheduler state.
func (m Model) SchedulerPaused() bool {
	return m.status != nil && m.status.Scheduler.IsPaused
}

func (m Model) Metrics() *Metrics {
	return m.metrics
}

// Activate starts polling.
func (m Model) Activate() (Model, tea.Cmd) {
	gen := m.handle.Start()
	m.loading = m.metrics == nil
	return m, tea.Batch(m.fetch(), m.tick(gen))
}

// Deactivate stops polling.
func (m Model) Deactivate() Model {
	m.handle.Stop()
	return m
}

func (m Model) SetInterval(d time.Duration) Model {
	m.interval = d
	return m
}

// Refresh refetches now.
func (m Model) Refresh() (Model, tea.Cmd) {
	return m, m.fetch()
}

func (m Model) fetch() tea.Cmd {
	ticket := m.handle.Begin()
	src := m.source
	logger := m.logger
	ended := m.now().UTC()
	started := ended.Add(-m.Window().Duration)
	q := url.Values{
		"started": {started.Format(time.RFC3339)},
		"ended":   {ended.Format(time.RFC3339)},
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		msg := ui.OverviewLoadedMsg{Ticket: ticket}
		if msg.Status, msg.Err = src.GetStatus(ctx); msg.Err != nil {
			return msg
		}
		if msg.Queue, msg.Err = src.GetQueueStatus(ctx); msg.Err != nil {
			return msg
		}
		if msg.Load, msg.Err = src.GetJobLoad(ctx, q); msg.Err != nil {
			return msg
		}
		// The activity widgets are optional: older servers lack the
		// endpoints.
		var err error
		if msg.Running, err = src.GetRunningJobs(ctx); err != nil {
			logger.Debug("running jobs unavailable", zap.Error(err))
		}
		if msg.Types, err = src.GetJobTypeStatus(ctx, q); err != nil {
			logger.Debug("job type status unavailable", zap.Error(err))
		}
		return msg
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

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ui.OverviewLoadedMsg:
		if !m.handle.Accept(msg.Ticket) {
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			m.code = api.StatusCode(msg.Err)
			m.logger.Warn("overview fetch failed", zap.Error(msg.Err))
			return m, nil
		}
		m.err = nil
		m.code = 0
		m.status, m.queue, m.load = msg.Status, msg.Queue, msg.Load
		m.running, m.types = msg.Running, msg.Types
		met := ComputeMetrics(m.status, m.queue, m.load, m.now())
		met.AddTypeActivity(m.running, m.types, m.now())
		m.metrics = &met
		m.updated = m.now()
		if m.ready {
			m.viewport.SetContent(m.render())
		}
		return m, nil

	case ui.PollTickMsg:
		if msg.Target != Target || !m.handle.Current(msg.Gen) {
			return m, nil
		}
		return m, tea.Batch(m.fetch(), m.tick(msg.Gen))

	case tea.KeyMsg:
		newIdx := -1
		switch {
		case msg.String() == "[":
			if m.windowIdx > 0 {
				newIdx = m.windowIdx - 1
			}
		case msg.String() == "]":
			if m.windowIdx < len(Windows)-1 {
				newIdx = m.windowIdx + 1
			}
		case key.Matches(msg, ui.Keys.Pause):
			if m.readOnly || m.status == nil {
				return m, nil
			}
			pause := !m.status.Scheduler.IsPaused
			return m, func() tea.Msg { return ToggleSchedulerMsg{Pause: pause} }
		case key.Matches(msg, ui.Keys.Refresh):
			return m.Refresh()
		}
		if newIdx >= 0 && newIdx != m.windowIdx {
			m.windowIdx = newIdx
			m.loading = true
			// New window, new generation: a slow response for the old window
			// must not overwrite the new one.
			gen := m.handle.Restart()
			return m, tea.Batch(m.fetch(), m.tick(gen))
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-2)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 2
		}
		if m.metrics != nil {
			m.viewport.SetContent(m.render())
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func bar(value, max float64, width int) string {
	n := 0
	if max > 0 {
		n = int(value / max * float64(width))
	}
	if value > 0 && n < 1 {
		n = 1
	}
	if n > width {
		n = width
	}
	return strings.Repeat("█", n) + strings.Repeat("░", width-n)
}

func usageStyle(pct float64) lipgloss.Style {
	switch {
	case pct >= 90:
		return ui.StyleFailure
	case pct >= 70:
		return ui.StyleWarning
	default:
		return ui.StyleSuccess
	}
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

// categories lists a failure's error categories, most frequent first.
func categories(f FailureStat) string {
	names := make([]string, 0, len(f.Categories))
	for c := range f.Categories {
		names = append(names, c)
	}
	sort.Slice(names, func(i, j int) bool {
		if f.Categories[names[i]] != f.Categories[names[j]] {
			return f.Categories[names[i]] > f.Categories[names[j]]
		}
		return names[i] < names[j]
	})
	parts := make([]string, len(names))
	for i, c := range names {
		parts[i] = fmt.Sprintf("%s %d", strings.ToLower(c), f.Categories[c])
	}
	return strings.Join(parts, ", ")
}

func (m Model) render() string {
	if m.metrics == nil {
		return "  No data"
	}
	met := m.metrics
	bold := lipgloss.NewStyle().Bold(true)
	muted := ui.StyleMuted

	var b strings.Builder

	// ── Scheduler ────────────────────────────────────────────────────
	b.WriteString(bold.Render("  Scheduler") + "\n\n")
	if st := m.status; st != nil {
		state := ui.StyleSuccess.Render("running")
		if st.Scheduler.IsPaused {
			state = ui.StyleWarning.Render("PAUSED")
		}
		if !st.Scheduler.IsOnline {
			state = ui.StyleFailure.Render("offline")
		}
		b.WriteString(fmt.Sprintf("  State:      %s  %s\n", state, muted.Render(st.Scheduler.Hostname)))
		master := ui.StyleSuccess.Render("online")
		if !st.Master.IsOnline {
			master = ui.StyleFailure.Render("offline")
		}
		b.WriteString(fmt.Sprintf("  Master:     %s  %s\n\n", master, muted.Render(fmt.Sprintf("%s:%d", st.Master.Hostname, st.Master.Port))))

		// ── Resources ────────────────────────────────────────────────
		b.WriteString(bold.Render("  Resources") + "\n\n")
		res := []struct {
			name  string
			pct   float64
			used  string
			total string
		}{
			{"CPU", met.CPUUsage, fmt.Sprintf("%.1f", st.Resources.Scheduled.CPUs), fmt.Sprintf("%.1f", st.Resources.Total.CPUs)},
			{"Memory", met.MemUsage, transform.FormatBytes(st.Resources.Scheduled.Mem * 1024 * 1024), transform.FormatBytes(st.Resources.Total.Mem * 1024 * 1024)},
			{"Disk", met.DiskUsage, transform.FormatBytes(st.Resources.Scheduled.Disk * 1024 * 1024), transform.FormatBytes(st.Resources.Total.Disk * 1024 * 1024)},
		}
		for _, r := range res {
			b.WriteString(fmt.Sprintf("  %-8s %s %s  %s\n",
				r.name,
				usageStyle(r.pct).Render(bar(r.pct, 100, 20)),
				usageStyle(r.pct).Render(fmt.Sprintf("%5.1f%%", r.pct)),
				muted.Render(r.used+" / "+r.total)))
		}
		b.WriteString("\n")
	}

	// ── Queue ────────────────────────────────────────────────────────
	b.WriteString(bold.Render("  Queue") + "\n\n")
	b.WriteString(fmt.Sprintf("  Queued jobs:    %s\n", bold.Render(fmt.Sprintf("%d", met.Queued))))
	if met.LongestQueued > 0 {
		b.WriteString(fmt.Sprintf("  Longest wait:   %s\n", ui.StyleWarning.Render(transform.FormatDuration(met.LongestQueued.Truncate(time.Second)))))
	}
	if met.PausedTypes > 0 {
		b.WriteString(fmt.Sprintf("  Paused types:   %s\n", ui.StyleWarning.Render(fmt.Sprintf("%d", met.PausedTypes))))
	}
	for i, q := range met.TopQueued {
		name := truncate(q.Name, 36)
		paused := ""
		if q.Paused {
			paused = ui.StyleWarning.Render(" paused")
		}
		b.WriteString(fmt.Sprintf("  %d. %-36s %s  %s%s\n",
			i+1, name,
			bold.Render(fmt.Sprintf("%4d", q.Count)),
			muted.Render(fmt.Sprintf("priority %d", q.Priority)),
			paused))
	}
	b.WriteString("\n")

	// ── Running ──────────────────────────────────────────────────────
	if m.running != nil {
		b.WriteString(bold.Render("  Running") + "\n\n")
		b.WriteString(fmt.Sprintf("  Running jobs:   %s\n", bold.Render(fmt.Sprintf("%d", met.Running))))
		for i, r := range met.TopRunning {
			longest := ""
			if r.Longest > 0 {
				longest = muted.Render("longest " + transform.FormatDuration(r.Longest.Truncate(time.Second)))
			}
			b.WriteString(fmt.Sprintf("  %d. %-36s %s  %s\n",
				i+1, truncate(r.Name, 36),
				bold.Render(fmt.Sprintf("%4d", r.Count)),
				longest))
		}
		b.WriteString("\n")
	}

	// ── Failure rates ────────────────────────────────────────────────
	if m.types != nil {
		b.WriteString(bold.Render(fmt.Sprintf("  Failure Rates (%s)", m.Window().Label)) + "\n\n")
		overall := 0.0
		if met.Finished > 0 {
			overall = float64(met.Failed) / float64(met.Finished) * 100
		}
		b.WriteString(fmt.Sprintf("  Failed:         %s  %s\n",
			usageStyle(overall).Render(fmt.Sprintf("%d / %d", met.Failed, met.Finished)),
			muted.Render(fmt.Sprintf("%.1f%%", overall))))
		for i, f := range met.FailureRates {
			b.WriteString(fmt.Sprintf("  %d. %-36s %s %s  %s\n",
				i+1, truncate(f.Name, 36),
				usageStyle(f.Rate()).Render(bar(f.Rate(), 100, 10)),
				usageStyle(f.Rate()).Render(fmt.Sprintf("%5.1f%%", f.Rate())),
				muted.Render(categories(f))))
		}
		b.WriteString("\n")
	}

	// ── Load ─────────────────────────────────────────────────────────
	b.WriteString(bold.Render(fmt.Sprintf("  Job Load (%s)", m.Window().Label)) + "\n\n")
	b.WriteString(fmt.Sprintf("  Running:  mean %.1f / median %.1f / p95 %.1f\n", met.MeanRunning, met.MedianRunning, met.P95Running))
	b.WriteString(fmt.Sprintf("  Queued:   mean %.1f / p95 %.1f    peak %d\n\n", met.MeanQueued, met.P95Queued, met.PeakLoad))
	if m.load != nil {
		peak := float64(met.PeakLoad)
		points := m.load.Results
		// Keep the most recent buckets that fit.
		if rows := m.height - 30; rows > 4 && len(points) > rows {
			points = points[len(points)-rows:]
		}
		for _, p := range points {
			b.WriteString(fmt.Sprintf("  %s  %s%s%s  %s\n",
				muted.Render(p.Time.UTC().Format("01-02 15:04")),
				ui.StyleInfo.Render(strings.TrimRight(bar(float64(p.RunningCount), peak, 30), "░")),
				ui.StyleWarning.Render(strings.TrimRight(bar(float64(p.QueuedCount), peak, 30), "░")),
				muted.Render(strings.TrimRight(bar(float64(p.PendingCount), peak, 30), "░")),
				muted.Render(fmt.Sprintf("%d", p.Total()))))
		}
		b.WriteString("  " + ui.StyleInfo.Render("█ running") + "  " + ui.StyleWarning.Render("█ queued") + "  " + muted.Render("█ pending") + "\n")
	}
	return b.String()
}

func (m Model) View() string {
	if m.err != nil && m.metrics == nil {
		return "\n  " + ui.ErrorText("Error: "+m.err.Error(), m.code)
	}
	if m.loading && m.metrics == nil {
		return "\n  Loading cluster status..."
	}

	muted := ui.StyleMuted
	active := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F9FAFB"))

	var parts []string
	for i, w := range Windows {
		if i == m.windowIdx {
			parts = append(parts, active.Render(w.Label))
		} else {
			parts = append(parts, muted.Render(w.Label))
		}
	}
	hint := "press [ or ] to switch"
	if !m.readOnly {
		hint += ", p to pause/resume the scheduler"
	}
	tabs := "  " + strings.Join(parts, "  ") + "    " + muted.Render(hint)
	if m.err != nil {
		tabs += "  " + ui.ErrorText(m.err.Error(), m.code)
	} else if !m.updated.IsZero() {
		tabs += "  " + muted.Render("updated "+m.updated.Format("15:04:05"))
	}

	if m.ready {
		return tabs + "\n" + m.viewport.View()
	}
	return tabs + "\n  Initializing..."
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{ui.Keys.Refresh}
	if !m.readOnly {
		keys = append(keys, ui.Keys.Pause)
	}
	return keys
}
