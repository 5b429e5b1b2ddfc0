// Package listview is the generic paged grid every list view is built from.
// It wires a table to the view's parameter store, fetches through the view's
// endpoint and refreshes on the view's poll interval.
package listview

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/altinukshini/scale-tui/internal/api"
	"github.com/altinukshini/scale-tui/internal/grid"
	"github.com/altinukshini/scale-tui/internal/model"
	"github.com/altinukshini/scale-tui/internal/poll"
	"github.com/altinukshini/scale-tui/internal/transform"
	"github.com/altinukshini/scale-tui/internal/ui"
	"github.com/altinukshini/scale-tui/internal/views"
	"github.com/altinukshini/scale-tui/internal/viewstate"
)

// Fetcher reads one page of a list endpoint.
type Fetcher interface {
	List(ctx context.Context, path string, q url.Values) (*api.Page, error)
}

// Row actions a list can request from the app.
const (
	ActionCancel  = "cancel"
	ActionRequeue = "requeue"
	ActionLog     = "log"
	ActionPause   = "pause"
)

// ActionRequestMsg asks the app to run an in-row action on Record.
type ActionRequestMsg struct {
	View   string
	Action string
	Record transform.DisplayRecord
}

// OpenFilterMsg asks the app to show the filter overlay for View.
type OpenFilterMsg struct {
	View string
}

// PageSizes are the sizes +/- step through.
var PageSizes = []int{10, 25, 50, 100}

const fetchTimeout = 30 * time.Second

type Options struct {
	View     views.View
	Store    *viewstate.Store
	Router   *viewstate.Router
	Fetcher  Fetcher
	Interval time.Duration
	ReadOnly bool
	Logger   *zap.Logger
	// Now overrides the transformer clock.
	Now func() time.Time
}

type Model struct {
	view        views.View
	store       *viewstate.Store
	binding     *grid.Binding
	handle      *poll.Handle
	fetcher     Fetcher
	interval    time.Duration
	transformer transform.Transformer
	readOnly    bool
	logger      *zap.Logger

	table   table.Model
	spinner spinner.Model
	records []transform.DisplayRecord
	count   int
	loading bool
	err     error
	code    int
	updated time.Time
	width   int
	height  int
}

func New(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	router := opts.Router
	binding := grid.NewBinding(opts.Store, opts.View.DetailRoute, func(route string) {
		if router != nil {
			router.Navigate(viewstate.ParseLocation(route))
		}
	})

	km := table.DefaultKeyMap()
	// f, b, d and u belong to the app; the grid pages with pgup/pgdown only.
	km.PageDown = key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down"))
	km.PageUp = key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up"))
	km.HalfPageDown = key.NewBinding(key.WithKeys("ctrl+d"))
	km.HalfPageUp = key.NewBinding(key.WithKeys("ctrl+u"))

	t := table.New(
		table.WithColumns(columns(opts.View)),
		table.WithFocused(true),
		table.WithKeyMap(km),
	)
	st := table.DefaultStyles()
	st.Header = st.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ui.ColorBorder).
		BorderBottom(true).
		Bold(true)
	st.Selected = st.Selected.
		Foreground(lipgloss.Color("#F9FAFB")).
		Background(ui.ColorHighlight).
		Bold(false)
	t.SetStyles(st)

	tr := opts.View.Transformer()
	if opts.Now != nil {
		tr.Now = opts.Now
	}

	return Model{
		view:        opts.View,
		store:       opts.Store,
		binding:     binding,
		handle:      poll.NewHandle(),
		fetcher:     opts.Fetcher,
		interval:    opts.Interval,
		transformer: tr,
		readOnly:    opts.ReadOnly,
		logger:      logger.With(zap.String("view", opts.View.Name)),
		table:       t,
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(ui.StyleInfo)),
		loading:     true,
	}
}

func columns(v views.View) []table.Column {
	cols := make([]table.Column, len(v.Columns))
	for i, c := range v.Columns {
		cols[i] = table.Column{Title: c.Title, Width: c.Width}
	}
	return cols
}

// Name is the view name.
func (m Model) Name() string {
	return m.view.Name
}

// Definition is the view declaration the list was built from.
func (m Model) Definition() views.View {
	return m.view
}

func (m Model) Store() *viewstate.Store {
	return m.store
}

func (m Model) Params() viewstate.Params {
	return m.store.Params()
}

// Handle exposes the poll handle so the app can stop it on leave.
func (m Model) Handle() *poll.Handle {
	return m.handle
}

func (m Model) Records() []transform.DisplayRecord {
	return m.records
}

// Count is the backend's total for the current filters.
func (m Model) Count() int {
	return m.count
}

func (m Model) Err() error {
	return m.err
}

func (m Model) Loading() bool {
	return m.loading
}

// Selected returns the record under the cursor.
func (m Model) Selected() (transform.DisplayRecord, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.records) {
		return transform.DisplayRecord{}, false
	}
	return m.records[i], true
}

func (m Model) pageSize() int {
	size := m.store.Params().IntOr("page_size", 0)
	if size <= 0 {
		size = m.view.Endpoint.PageSize
	}
	if size <= 0 {
		size = PageSizes[1]
	}
	return size
}

func (m Model) page() int {
	p := m.store.Params().IntOr("page", 1)
	if p < 1 {
		return 1
	}
	return p
}

// Pages is the number of pages for the current page size.
func (m Model) Pages() int {
	return api.Page{Count: m.count}.Pages(m.pageSize())
}

// Activate starts polling and fetches the first page. The store is synced so
// the location shows the restored state.
func (m Model) Activate() (Model, tea.Cmd) {
	m.store.Sync()
	gen := m.handle.Start()
	m.loading = true
	m.logger.Debug("list activated", zap.String("handle", m.handle.ID()), zap.Uint64("gen", gen))
	return m, tea.Batch(m.fetch(), m.tick(gen), m.spinner.Tick)
}

// Deactivate stops polling. Responses still in flight are dropped.
func (m Model) Deactivate() Model {
	m.handle.Stop()
	m.loading = false
	return m
}

// SetInterval changes the poll interval from the next tick on.
func (m Model) SetInterval(d time.Duration) Model {
	m.interval = d
	return m
}

// SetParams replaces the parameters, e.g. from an edited location, and
// refetches when anything changed.
func (m Model) SetParams(p viewstate.Params) (Model, tea.Cmd) {
	return m.changed(m.store.Set(p))
}

// ApplyFilters sets several filters with a single page reset.
func (m Model) ApplyFilters(filters map[string][]string) (Model, tea.Cmd) {
	return m.changed(m.binding.FiltersChanged(filters))
}

// Refresh refetches without opening a new generation.
func (m Model) Refresh() (Model, tea.Cmd) {
	m.loading = true
	return m, tea.Batch(m.fetch(), m.spinner.Tick)
}

// changed restarts polling after a parameter change so responses for the old
// parameters are rejected.
func (m Model) changed(keys []string) (Model, tea.Cmd) {
	if len(keys) == 0 || m.handle.State() != poll.Polling {
		return m, nil
	}
	gen := m.handle.Restart()
	m.loading = true
	m.logger.Debug("params changed", zap.Strings("keys", keys), zap.Uint64("gen", gen))
	return m, tea.Batch(m.fetch(), m.tick(gen), m.spinner.Tick)
}

func (m Model) fetch() tea.Cmd {
	ticket := m.handle.Begin()
	q := m.view.Endpoint.Build(m.store.Params())
	name, path, fetcher := m.view.Name, m.view.Endpoint.Path, m.fetcher
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		page, err := fetcher.List(ctx, path, q)
		return ui.PageLoadedMsg{View: name, Ticket: ticket, Page: page, Err: err}
	}
}

func (m Model) tick(gen uint64) tea.Cmd {
	if m.interval <= 0 {
		return nil
	}
	name := m.view.Name
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return ui.PollTickMsg{Target: name, Gen: gen}
	})
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ui.PageLoadedMsg:
		if msg.View != m.view.Name || !m.handle.Accept(msg.Ticket) {
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			// Keep the previous rows; the error shows above them.
			m.err = msg.Err
			m.code = api.StatusCode(msg.Err)
			m.logger.Warn("list fetch failed", zap.Error(msg.Err), zap.Int("status", m.code))
			return m, nil
		}
		m.err = nil
		m.code = 0
		m.count = msg.Page.Count
		m.records = m.transformer.TransformAll(msg.Page.Rows)
		m.updated = time.Now()
		m.table.SetRows(m.rows())
		if m.table.Cursor() >= len(m.records) {
			m.table.SetCursor(max(0, len(m.records)-1))
		}
		return m, nil

	case ui.PollTickMsg:
		if msg.Target != m.view.Name || !m.handle.Current(msg.Gen) {
			return m, nil
		}
		return m, tea.Batch(m.fetch(), m.tick(msg.Gen))

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width)
		m.table.SetHeight(max(3, msg.Height-2))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, ui.Keys.Enter):
		rec, ok := m.Selected()
		if !ok {
			return m, nil
		}
		if m.binding.RowSelectionChanged(rec.ID()) {
			return m, func() tea.Msg { return ui.NavigatedMsg{} }
		}
		return m, nil

	case key.Matches(msg, ui.Keys.Sort):
		return m.cycleSort()

	case key.Matches(msg, ui.Keys.Reverse):
		spec := m.store.Params().Sort("order")
		primary, ok := spec.Primary()
		if !ok {
			return m, nil
		}
		return m.changed(m.binding.SortChanged(toColumns(spec.WithPrimary(primary.Field, !primary.Desc))))

	case key.Matches(msg, ui.Keys.PrevPage):
		if m.page() <= 1 {
			return m, nil
		}
		return m.changed(m.binding.PaginationChanged(m.page()-1, m.pageSize()))

	case key.Matches(msg, ui.Keys.NextPage):
		if m.page() >= m.Pages() {
			return m, nil
		}
		return m.changed(m.binding.PaginationChanged(m.page()+1, m.pageSize()))

	case key.Matches(msg, ui.Keys.Grow):
		return m.stepPageSize(1)

	case key.Matches(msg, ui.Keys.Shrink):
		return m.stepPageSize(-1)

	case key.Matches(msg, ui.Keys.Filter):
		if len(m.view.Filters) == 0 {
			return m, nil
		}
		name := m.view.Name
		return m, func() tea.Msg { return OpenFilterMsg{View: name} }

	case key.Matches(msg, ui.Keys.Refresh):
		return m.Refresh()

	case key.Matches(msg, ui.Keys.Cancel):
		return m.rowAction(ActionCancel, func(r transform.DisplayRecord) bool {
			return m.view.Name == "jobs" && !m.readOnly && model.JobStatus(r.Get("status")).Cancelable()
		})

	case key.Matches(msg, ui.Keys.Requeue):
		return m.rowAction(ActionRequeue, func(r transform.DisplayRecord) bool {
			s := model.JobStatus(r.Get("status"))
			return m.view.Name == "jobs" && !m.readOnly && (s == model.StatusFailed || s == model.StatusCanceled)
		})

	case key.Matches(msg, ui.Keys.Log):
		return m.rowAction(ActionLog, func(r transform.DisplayRecord) bool {
			return m.view.Name == "jobs" && r.Get("status") != string(model.StatusPending)
		})

	case key.Matches(msg, ui.Keys.Pause):
		return m.rowAction(ActionPause, func(transform.DisplayRecord) bool {
			return m.view.Name == "nodes" && !m.readOnly
		})
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// rowAction fires an in-row action. The row's own selection event that the
// action key also produces is swallowed by the binding.
func (m Model) rowAction(action string, allowed func(transform.DisplayRecord) bool) (Model, tea.Cmd) {
	rec, ok := m.Selected()
	if !ok || !allowed(rec) {
		return m, nil
	}
	m.binding.BeginAction()
	m.binding.RowSelectionChanged(rec.ID())
	name := m.view.Name
	return m, func() tea.Msg { return ActionRequestMsg{View: name, Action: action, Record: rec} }
}

func (m Model) cycleSort() (Model, tea.Cmd) {
	var sortable []string
	for _, c := range m.view.Columns {
		if c.Sort != "" {
			sortable = append(sortable, c.Sort)
		}
	}
	if len(sortable) == 0 {
		return m, nil
	}
	spec := m.store.Params().Sort("order")
	next := sortable[0]
	desc := false
	if primary, ok := spec.Primary(); ok {
		desc = primary.Desc
		for i, f := range sortable {
			if f == primary.Field {
				next = sortable[(i+1)%len(sortable)]
				break
			}
		}
	}
	return m.changed(m.binding.SortChanged(toColumns(spec.WithPrimary(next, desc))))
}

func (m Model) stepPageSize(dir int) (Model, tea.Cmd) {
	cur := m.pageSize()
	idx := -1
	for i, s := range PageSizes {
		if s == cur {
			idx = i
			break
		}
	}
	switch {
	case idx < 0 && dir > 0:
		idx = len(PageSizes) - 1
	case idx < 0:
		idx = 0
	default:
		idx += dir
	}
	if idx < 0 || idx >= len(PageSizes) || PageSizes[idx] == cur {
		return m, nil
	}
	return m.changed(m.binding.PaginationChanged(1, PageSizes[idx]))
}

func toColumns(spec viewstate.SortSpec) []grid.ColumnSort {
	out := make([]grid.ColumnSort, len(spec))
	for i, k := range spec {
		out[i] = grid.ColumnSort{Field: k.Field, Desc: k.Desc}
	}
	return out
}

func (m Model) rows() []table.Row {
	rows := make([]table.Row, len(m.records))
	for i, rec := range m.records {
		row := make(table.Row, len(m.view.Columns))
		for j, c := range m.view.Columns {
			row[j] = rec.Get(c.Key)
		}
		rows[i] = row
	}
	return rows
}

// Indicator is the "Page 2/7" line under the grid.
func (m Model) Indicator() string {
	parts := []string{fmt.Sprintf("Page %d/%d", m.page(), m.Pages())}
	parts = append(parts, fmt.Sprintf("%d total", m.count))
	parts = append(parts, fmt.Sprintf("%d per page", m.pageSize()))
	if primary, ok := m.store.Params().Sort("order").Primary(); ok {
		dir := "↑"
		if primary.Desc {
			dir = "↓"
		}
		parts = append(parts, "sort "+primary.Field+" "+dir)
	}
	if !m.updated.IsZero() {
		parts = append(parts, "updated "+m.updated.Format("15:04:05"))
	}
	return strings.Join(parts, " · ")
}

func (m Model) View() string {
	var b strings.Builder
	switch {
	case m.loading:
		b.WriteString(" " + m.spinner.View() + " " + ui.StyleMuted.Render("Loading "+strings.ToLower(m.view.Title)+"..."))
	case m.err != nil:
		b.WriteString(" " + ui.ErrorText("Error: "+m.err.Error(), m.code))
	}
	b.WriteString("\n")
	if len(m.records) == 0 && !m.loading && m.err == nil {
		b.WriteString(ui.StyleMuted.Render("  No " + strings.ToLower(m.view.Title) + " match the current filters."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.table.View())
		b.WriteString("\n")
	}
	b.WriteString(ui.StyleMuted.Render(" " + m.Indicator()))
	return b.String()
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{ui.Keys.Enter, ui.Keys.Filter, ui.Keys.Sort, ui.Keys.Reverse, ui.Keys.PrevPage, ui.Keys.NextPage}
	switch m.view.Name {
	case "jobs":
		if !m.readOnly {
			keys = append(keys, ui.Keys.Cancel, ui.Keys.Requeue)
		}
		keys = append(keys, ui.Keys.Log)
	case "nodes":
		if !m.readOnly {
			keys = append(keys, ui.Keys.Pause)
		}
	}
	return keys
}
