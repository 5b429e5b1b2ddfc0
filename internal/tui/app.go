package tui

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/altinukshini/scale-tui/internal/api"
	"github.com/altinukshini/scale-tui/internal/cache"
	"github.com/altinukshini/scale-tui/internal/config"
	"github.com/altinukshini/scale-tui/internal/model"
	"github.com/altinukshini/scale-tui/internal/search"
	"github.com/altinukshini/scale-tui/internal/tui/confirm"
	"github.com/altinukshini/scale-tui/internal/tui/details"
	"github.com/altinukshini/scale-tui/internal/tui/draftsview"
	"github.com/altinukshini/scale-tui/internal/tui/editor"
	"github.com/altinukshini/scale-tui/internal/tui/filteroverlay"
	"github.com/altinukshini/scale-tui/internal/tui/listview"
	"github.com/altinukshini/scale-tui/internal/tui/logview"
	"github.com/altinukshini/scale-tui/internal/tui/nodesview"
	"github.com/altinukshini/scale-tui/internal/tui/overview"
	"github.com/altinukshini/scale-tui/internal/tui/searchview"
	"github.com/altinukshini/scale-tui/internal/ui"
	"github.com/altinukshini/scale-tui/internal/views"
	"github.com/altinukshini/scale-tui/internal/viewstate"
)

type Screen int

const (
	ScreenOverview Screen = iota
	ScreenList
	ScreenDetail
	ScreenLog
	ScreenNodes
	ScreenEditor
	ScreenDrafts
)

type tab struct {
	title string
	route string
}

// Tabs are switched with 1-9 and 0 in this order.
var tabs = []tab{
	{"Overview", overview.Target},
	{"Jobs", "jobs"},
	{"Recipes", "recipes"},
	{"Ingests", "ingests"},
	{"Sources", "sources"},
	{"Nodes", nodesview.Target},
	{"Batches", "batches"},
	{"Strikes", "strikes"},
	{"Workspaces", "workspaces"},
	{"Drafts", draftsRoute},
}

const draftsRoute = "drafts"

// ConfigReloadedMsg carries a configuration that changed on disk.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// Deps is everything the app needs from main.
type Deps struct {
	Config   *config.Config
	Client   *api.Client
	LogCache *cache.LogCache
	Drafts   *cache.DraftStore
	Shared   *viewstate.SharedStore
	Logger   *zap.Logger
	// Start is the initial location, e.g. "jobs?status=FAILED".
	Start string
	Now   func() time.Time
}

type App struct {
	cfg      *config.Config
	client   *api.Client
	logCache *cache.LogCache
	drafts   *cache.DraftStore
	shared   *viewstate.SharedStore
	logger   *zap.Logger
	router   *viewstate.Router
	search   *search.Engine
	now      func() time.Time
	readOnly bool

	// Views
	lists         map[string]listview.Model
	overviewView  overview.Model
	nodesView     nodesview.Model
	detailsView   details.Model
	logView       logview.Model
	searchView    searchview.Model
	editorView    editor.Model
	draftsView    draftsview.Model
	confirmDialog confirm.Model
	filterOverlay filteroverlay.Model

	// Location bar
	location        textinput.Model
	editingLocation bool

	// State
	screen   Screen
	listName string
	width    int
	height   int
	status   string
	showHelp bool
	initCmd  tea.Cmd

	// A cross-stream search result waiting for its stream to load.
	pendingJump *searchview.JumpMsg
}

func NewApp(d Deps) *App {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	cfg := d.Config
	if cfg == nil {
		cfg = config.Default()
	}
	shared := d.Shared
	if shared == nil {
		shared = viewstate.NewSharedStore()
	}
	start := d.Start
	if start == "" {
		start = cfg.StartView
	}
	if start == "" {
		start = overview.Target
	}
	router := viewstate.NewRouter(viewstate.ParseLocation(start))
	readOnly := !cfg.Admin()

	loc := textinput.New()
	loc.Prompt = ":"
	loc.CharLimit = 512

	a := &App{
		cfg:      cfg,
		client:   d.Client,
		logCache: d.LogCache,
		drafts:   d.Drafts,
		shared:   shared,
		logger:   logger,
		router:   router,
		search:   search.New(),
		now:      now,
		readOnly: readOnly,
		lists:    map[string]listview.Model{},
		overviewView: overview.New(overview.Options{
			Source:   d.Client,
			Interval: cfg.Interval(config.PollOverview),
			ReadOnly: readOnly,
			Logger:   logger,
			Now:      now,
		}),
		nodesView: nodesview.New(nodesview.Options{
			Source:   d.Client,
			Interval: cfg.Interval(config.PollNodes),
			ReadOnly: readOnly,
			Logger:   logger,
		}),
		detailsView: details.New(),
		logView: logview.New(logview.Options{
			Source:   logview.ClientSource{Client: d.Client},
			Cache:    d.LogCache,
			Router:   router,
			Interval: cfg.Interval(config.PollLogs),
			Logger:   logger,
		}),
		searchView: searchview.New(),
		editorView: editor.New(editor.Options{
			Kinds:    []editor.Kind{editor.Strikes(d.Client), editor.Workspaces(d.Client)},
			Drafts:   d.Drafts,
			ReadOnly: readOnly,
			Logger:   logger,
		}),
		draftsView: draftsview.New(d.Drafts, d.LogCache),
		location:   loc,
	}
	a.initCmd = a.enter()
	return a
}

func (a App) Init() tea.Cmd {
	return a.initCmd
}

// Router exposes the location history, mainly for tests.
func (a App) Router() *viewstate.Router {
	return a.router
}

func (a App) Screen() Screen {
	return a.screen
}

func (a App) Status() string {
	return a.status
}

// List returns the list view named name if it was opened.
func (a App) List(name string) (listview.Model, bool) {
	m, ok := a.lists[name]
	return m, ok
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Handle confirm dialog result (arrives AFTER dialog deactivates itself)
	if result, ok := msg.(confirm.ResultMsg); ok {
		if result.Confirmed {
			cmds = append(cmds, a.confirmed(result))
		}
		return &a, tea.Batch(cmds...)
	}

	// Handle confirmation dialog input (key events while dialog is showing)
	if a.confirmDialog.IsActive() {
		if _, ok := msg.(tea.KeyMsg); ok {
			var cmd tea.Cmd
			a.confirmDialog, cmd = a.confirmDialog.Update(msg)
			return &a, cmd
		}
	}

	// Handle filter overlay result
	if result, ok := msg.(filteroverlay.ResultMsg); ok {
		if result.Applied {
			if m, ok := a.lists[result.View]; ok {
				var cmd tea.Cmd
				m, cmd = m.ApplyFilters(result.Values)
				a.lists[result.View] = m
				cmds = append(cmds, cmd)
			}
		}
		return &a, tea.Batch(cmds...)
	}

	// Handle filter overlay input (key events while overlay is showing)
	if a.filterOverlay.IsActive() {
		if _, ok := msg.(tea.KeyMsg); ok {
			var cmd tea.Cmd
			a.filterOverlay, cmd = a.filterOverlay.Update(msg)
			return &a, cmd
		}
	}

	if a.editingLocation {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			return a.updateLocation(keyMsg)
		}
	}

	// Search requests are answered here, before the search view sees them.
	switch msg := msg.(type) {
	case searchview.RunMsg:
		return &a, a.runSearch(msg.Query)
	case searchview.JumpMsg:
		return &a, a.jump(msg)
	}

	// Handle search input/results mode
	if a.searchView.IsActive() {
		switch msg.(type) {
		case tea.KeyMsg, ui.SearchResultsMsg:
			var cmd tea.Cmd
			a.searchView, cmd = a.searchView.Update(msg)
			return &a, cmd
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.propagateSize()
		return &a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case ConfigReloadedMsg:
		a.applyConfig(msg.Config)
		return &a, nil

	case ui.NavigatedMsg:
		// A widget already pushed the new location.
		a.leaveScreen()
		return &a, a.enter()

	case ui.StatusMsg:
		a.status = msg.Text
		return &a, nil

	case ui.ActionResultMsg:
		if msg.Err != nil {
			a.status = "Error: " + msg.Err.Error()
			a.logger.Warn("action failed", zap.String("action", msg.Action), zap.String("target", msg.Target), zap.Error(msg.Err))
		} else {
			a.status = msg.Message
			a.logger.Info("action done", zap.String("action", msg.Action), zap.String("target", msg.Target))
		}
		return &a, a.refreshActive()

	case listview.ActionRequestMsg:
		return &a, a.requestAction(msg)

	case listview.OpenFilterMsg:
		if m, ok := a.lists[msg.View]; ok {
			a.filterOverlay = filteroverlay.New(m.Definition(), m.Params())
			a.filterOverlay.SetSize(a.width-4, a.contentHeight())
		}
		return &a, nil

	case details.OpenLogMsg:
		return &a, a.navigate(logview.Route(msg.JobID, msg.ExecutionID, ""))

	case overview.ToggleSchedulerMsg:
		a.askScheduler(msg.Pause)
		return &a, nil

	case nodesview.PauseMsg:
		a.askPause(msg)
		return &a, nil

	case draftsview.OpenMsg:
		return &a, a.navigate(msg.Route)

	case draftsview.DeleteMsg:
		a.confirmDialog = confirm.New("Delete", msg.Prompt(), "delete-drafts", msg)
		return &a, nil

	case editor.CloseMsg:
		if a.router.Depth() < 2 {
			return &a, a.replace(msg.Collection)
		}
		return &a, a.back()

	// Fetch results go to their owner whatever is on screen; stale ones are
	// rejected by the owner's poll handle.
	case ui.PageLoadedMsg:
		if m, ok := a.lists[msg.View]; ok {
			var cmd tea.Cmd
			a.lists[msg.View], cmd = m.Update(msg)
			return &a, cmd
		}
		return &a, nil

	case ui.PollTickMsg:
		return &a, a.routeTick(msg)

	case ui.OverviewLoadedMsg:
		var cmd tea.Cmd
		a.overviewView, cmd = a.overviewView.Update(msg)
		return &a, cmd

	case ui.NodeStatusLoadedMsg:
		var cmd tea.Cmd
		a.nodesView, cmd = a.nodesView.Update(msg)
		return &a, cmd

	case ui.RecordLoadedMsg:
		var cmd tea.Cmd
		a.detailsView, cmd = a.detailsView.Update(msg)
		return &a, cmd

	case ui.LogLoadedMsg:
		var cmd tea.Cmd
		a.logView, cmd = a.logView.Update(msg)
		a.applyPendingJump()
		return &a, cmd

	case ui.DocumentLoadedMsg, ui.DocumentValidatedMsg, ui.DocumentSavedMsg:
		var cmd tea.Cmd
		a.editorView, cmd = a.editorView.Update(msg)
		return &a, cmd

	case ui.DraftsLoadedMsg:
		var cmd tea.Cmd
		a.draftsView, cmd = a.draftsView.Update(msg)
		return &a, cmd
	}

	return &a, a.updateActive(msg)
}

// capturing reports whether the active screen takes every key, e.g. while
// typing into an editor or a filter input.
func (a App) capturing() bool {
	switch a.screen {
	case ScreenEditor:
		return true
	case ScreenLog:
		return a.logView.IsSearching()
	case ScreenNodes:
		return a.nodesView.IsFiltering()
	case ScreenDrafts:
		return a.draftsView.IsFiltering()
	}
	return false
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.showHelp {
		a.showHelp = false
		return &a, nil
	}
	if msg.String() == "ctrl+c" {
		a.leaveScreen()
		return &a, tea.Quit
	}
	if a.capturing() {
		return &a, a.updateActive(msg)
	}

	switch {
	case key.Matches(msg, ui.Keys.Quit):
		a.leaveScreen()
		return &a, tea.Quit

	case key.Matches(msg, ui.Keys.Help):
		a.showHelp = true
		return &a, nil

	case key.Matches(msg, ui.Keys.Location):
		a.editingLocation = true
		a.location.SetValue(a.router.Current().String())
		a.location.CursorEnd()
		return &a, a.location.Focus()

	case key.Matches(msg, ui.Keys.Back):
		return &a, a.back()

	case key.Matches(msg, ui.Keys.Tab):
		return &a, a.switchTab((a.activeTab() + 1) % len(tabs))

	case key.Matches(msg, ui.Keys.ShiftTab):
		i := a.activeTab() - 1
		if i < 0 {
			i = len(tabs) - 1
		}
		return &a, a.switchTab(i)
	}

	if i, ok := tabIndex(msg.String()); ok {
		return &a, a.switchTab(i)
	}

	switch a.screen {
	case ScreenLog:
		if msg.String() == "F" && a.logView.ExecutionID() > 0 {
			a.searchView.Activate()
			return &a, textinput.Blink
		}

	case ScreenList:
		if a.editorView.Handles(a.listName) {
			switch {
			case key.Matches(msg, ui.Keys.New):
				return &a, a.navigate(a.listName + "/new")
			case key.Matches(msg, ui.Keys.Edit):
				if rec, ok := a.lists[a.listName].Selected(); ok {
					return &a, a.navigate(a.listName + "/" + rec.ID() + "/edit")
				}
				return &a, nil
			}
		}

	case ScreenDetail:
		if cmd, ok := a.detailKey(msg); ok {
			return &a, cmd
		}
	}

	return &a, a.updateActive(msg)
}

// detailKey handles the control keys of a record view.
func (a *App) detailKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch a.detailsView.ViewName() {
	case "jobs":
		job := a.detailsView.Job()
		if job == nil || a.readOnly {
			return nil, false
		}
		switch {
		case key.Matches(msg, ui.Keys.Cancel):
			if job.Status.Cancelable() {
				a.askCancel(job.ID, job.JobType.Label())
			}
			return nil, true
		case key.Matches(msg, ui.Keys.Requeue):
			if job.Failed() || job.Status == model.StatusCanceled {
				a.askRequeue(job.ID, job.JobType.Label())
			}
			return nil, true
		}
	default:
		if key.Matches(msg, ui.Keys.Edit) && a.editorView.Handles(a.detailsView.ViewName()) {
			return a.navigate(a.detailsView.ViewName() + "/" + a.detailsView.ID() + "/edit"), true
		}
	}
	return nil, false
}

// tabIndex maps the digit keys to tabs: 1-9 are the first nine, 0 the
// tenth.
func tabIndex(s string) (int, bool) {
	if len(s) != 1 || s[0] < '0' || s[0] > '9' {
		return 0, false
	}
	i := int(s[0]-'0') - 1
	if i < 0 {
		i = 9
	}
	return i, i < len(tabs)
}

func (a App) updateLocation(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.editingLocation = false
		a.location.Blur()
		target := strings.TrimSpace(a.location.Value())
		if target == "" {
			return &a, nil
		}
		return &a, a.navigate(target)
	case "esc":
		a.editingLocation = false
		a.location.Blur()
		return &a, nil
	}
	var cmd tea.Cmd
	a.location, cmd = a.location.Update(msg)
	return &a, cmd
}

// updateActive forwards msg to the screen on display.
func (a *App) updateActive(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.screen {
	case ScreenOverview:
		a.overviewView, cmd = a.overviewView.Update(msg)
	case ScreenList:
		if m, ok := a.lists[a.listName]; ok {
			a.lists[a.listName], cmd = m.Update(msg)
		}
	case ScreenDetail:
		a.detailsView, cmd = a.detailsView.Update(msg)
	case ScreenLog:
		a.logView, cmd = a.logView.Update(msg)
		a.applyPendingJump()
	case ScreenNodes:
		a.nodesView, cmd = a.nodesView.Update(msg)
	case ScreenEditor:
		a.editorView, cmd = a.editorView.Update(msg)
	case ScreenDrafts:
		a.draftsView, cmd = a.draftsView.Update(msg)
	}
	return cmd
}

func (a *App) routeTick(msg ui.PollTickMsg) tea.Cmd {
	var cmd tea.Cmd
	switch msg.Target {
	case overview.Target:
		a.overviewView, cmd = a.overviewView.Update(msg)
	case nodesview.Target:
		a.nodesView, cmd = a.nodesView.Update(msg)
	case logview.Target:
		a.logView, cmd = a.logView.Update(msg)
	default:
		if m, ok := a.lists[msg.Target]; ok {
			a.lists[msg.Target], cmd = m.Update(msg)
		}
	}
	return cmd
}

// refreshActive refetches the screen on display after an action.
func (a *App) refreshActive() tea.Cmd {
	var cmd tea.Cmd
	switch a.screen {
	case ScreenOverview:
		a.overviewView, cmd = a.overviewView.Refresh()
	case ScreenList:
		if m, ok := a.lists[a.listName]; ok {
			a.lists[a.listName], cmd = m.Refresh()
		}
	case ScreenDetail:
		v, ok := views.Lookup(a.detailsView.ViewName())
		if ok {
			cmd = a.fetchRecord(v, a.detailsView.ID())
		}
	case ScreenNodes:
		a.nodesView, cmd = a.nodesView.Refresh()
	case ScreenDrafts:
		cmd = a.draftsView.Load()
	}
	return cmd
}

func (a *App) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	a.cfg = cfg
	for name, m := range a.lists {
		a.lists[name] = m.SetInterval(a.interval(m.Definition().Poll))
	}
	a.overviewView = a.overviewView.SetInterval(cfg.Interval(config.PollOverview))
	a.nodesView = a.nodesView.SetInterval(cfg.Interval(config.PollNodes))
	a.logView = a.logView.SetInterval(cfg.Interval(config.PollLogs))
	a.status = "Configuration reloaded"
	a.logger.Info("configuration reloaded")
}

// interval is the refresh interval of a view's Poll key; 0 disables polling.
func (a App) interval(poll string) time.Duration {
	if poll == "" {
		return 0
	}
	return a.cfg.Interval(poll)
}

func (a App) contentHeight() int {
	// header(1) + tabs(1) + status(1) + pane border(2)
	if h := a.height - 5; h > 0 {
		return h
	}
	return 1
}

func (a App) contentSize() tea.WindowSizeMsg {
	return tea.WindowSizeMsg{Width: a.width - 4, Height: a.contentHeight()}
}

func (a *App) propagateSize() {
	size := a.contentSize()
	for name, m := range a.lists {
		a.lists[name], _ = m.Update(size)
	}
	a.overviewView, _ = a.overviewView.Update(size)
	a.nodesView, _ = a.nodesView.Update(size)
	a.detailsView, _ = a.detailsView.Update(size)
	a.logView, _ = a.logView.Update(size)
	a.searchView, _ = a.searchView.Update(size)
	a.editorView, _ = a.editorView.Update(size)
	a.draftsView, _ = a.draftsView.Update(size)
	a.filterOverlay.SetSize(size.Width, size.Height)
	a.location.Width = a.width - 10
}

// --- View ---

func (a App) View() string {
	loc := "/" + a.router.Current().String()
	if a.editingLocation {
		loc = a.location.View()
	}
	header := RenderHeader(a.host(), loc, a.readOnly, a.overviewView.SchedulerPaused(), a.width)
	tabs := a.renderTabs()

	var content string
	switch {
	case a.showHelp:
		content = a.renderHelp()
	case a.confirmDialog.IsActive():
		content = a.confirmDialog.View()
	case a.filterOverlay.IsActive():
		content = a.filterOverlay.View()
	default:
		style := ui.StylePaneFocused.Width(a.width - 2).Height(a.contentHeight())
		content = style.Render(a.screenView())
	}

	statusBar := RenderStatusBar(a.status, a.contextHints(), a.width)

	// Hard clamp: ensure content never overflows the terminal.
	// header(1) + tabs(1) + statusbar(1) = 3 lines of chrome.
	maxContentLines := a.height - 3
	if maxContentLines > 0 {
		lines := strings.Split(content, "\n")
		if len(lines) > maxContentLines {
			lines = lines[:maxContentLines]
			content = strings.Join(lines, "\n")
		}
	}

	return header + "\n" + tabs + "\n" + content + "\n" + statusBar
}

func (a App) screenView() string {
	if a.searchView.IsActive() {
		return a.searchView.View()
	}
	switch a.screen {
	case ScreenOverview:
		return a.overviewView.View()
	case ScreenList:
		if m, ok := a.lists[a.listName]; ok {
			return m.View()
		}
	case ScreenDetail:
		return a.detailsView.View()
	case ScreenLog:
		return a.logView.View()
	case ScreenNodes:
		return a.nodesView.View()
	case ScreenEditor:
		return a.editorView.View()
	case ScreenDrafts:
		return a.draftsView.View()
	}
	return ""
}

func (a App) host() string {
	if a.client == nil {
		return ""
	}
	base := a.client.BaseURL()
	base = strings.TrimPrefix(base, "https://")
	base = strings.TrimPrefix(base, "http://")
	host, _, _ := strings.Cut(base, "/")
	return host
}

// activeTab is the tab owning the current location, or -1.
func (a App) activeTab() int {
	path := a.router.Current().Path
	first, _, _ := strings.Cut(path, "/")
	for i, t := range tabs {
		if t.route == first || (i == 0 && path == "") {
			return i
		}
	}
	return -1
}

func (a App) renderTabs() string {
	tabStyle := lipgloss.NewStyle().Padding(0, 1)
	activeTab := tabStyle.Bold(true).Foreground(ui.ColorPrimary)
	inactiveTab := tabStyle.Foreground(ui.ColorMuted)

	current := a.activeTab()
	rendered := make([]string, len(tabs))
	for i, t := range tabs {
		label := "[" + strconv.Itoa((i+1)%10) + "] " + t.title
		if m, ok := a.lists[t.route]; ok {
			if summary := filteroverlay.Summary(m.Definition().Filters, m.Params()); summary != "" {
				label += " (" + summary + ")"
			}
		}
		if i == current {
			rendered[i] = activeTab.Render(label)
		} else {
			rendered[i] = inactiveTab.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (a App) contextHints() string {
	var bindings []key.Binding
	switch {
	case a.editingLocation:
		return "enter: go  esc: cancel"
	case a.searchView.IsActive():
		return "enter: search/jump  esc: close"
	case a.screen == ScreenOverview:
		bindings = a.overviewView.ShortHelp()
	case a.screen == ScreenList:
		if m, ok := a.lists[a.listName]; ok {
			bindings = m.ShortHelp()
		}
		if a.editorView.Handles(a.listName) {
			bindings = append(bindings, ui.Keys.Edit, ui.Keys.New)
		}
	case a.screen == ScreenDetail:
		bindings = a.detailsView.ShortHelp()
	case a.screen == ScreenLog:
		return "/: find  F: search streams  t: stream  n/N: match  g/G: top/bottom  esc: back"
	case a.screen == ScreenNodes:
		bindings = a.nodesView.ShortHelp()
	case a.screen == ScreenEditor:
		bindings = a.editorView.ShortHelp()
	case a.screen == ScreenDrafts:
		bindings = a.draftsView.ShortHelp()
	}
	bindings = append(bindings, ui.Keys.Location, ui.Keys.Help)
	return hints(bindings)
}

func hints(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		if h.Key == "" {
			continue
		}
		parts = append(parts, h.Key+": "+h.Desc)
	}
	return strings.Join(parts, "  ")
}

func (a App) renderHelp() string {
	bold := lipgloss.NewStyle().Bold(true)
	key := lipgloss.NewStyle().Foreground(ui.ColorPrimary).Bold(true).Width(14)
	desc := lipgloss.NewStyle().Foreground(lipgloss.Color("#D1D5DB"))

	row := func(k, d string) string {
		return "  " + key.Render(k) + desc.Render(d) + "\n"
	}

	var b strings.Builder
	b.WriteString("\n" + bold.Render("  Navigation") + "\n\n")
	b.WriteString(row("1-9, 0", "Overview, Jobs, Recipes, Ingests, Sources, Nodes, Batches, Strikes, Workspaces, Drafts"))
	b.WriteString(row("tab", "Next tab"))
	b.WriteString(row(":", "Edit location, e.g. jobs?status=FAILED&page=2"))
	b.WriteString(row("esc", "Back"))
	b.WriteString(row("enter", "Open record"))
	b.WriteString(row("q", "Quit"))

	b.WriteString("\n" + bold.Render("  Lists") + "\n\n")
	b.WriteString(row("h / l", "Previous / next page"))
	b.WriteString(row("+ / -", "Page size"))
	b.WriteString(row("s / o", "Sort column / sort order"))
	b.WriteString(row("f", "Filter"))
	b.WriteString(row("r", "Refresh"))

	b.WriteString("\n" + bold.Render("  Jobs") + "\n\n")
	b.WriteString(row("L", "Latest log"))
	if !a.readOnly {
		b.WriteString(row("C", "Cancel job"))
		b.WriteString(row("R", "Requeue job"))
	}

	b.WriteString("\n" + bold.Render("  Logs") + "\n\n")
	b.WriteString(row("/", "Find in this stream"))
	b.WriteString(row("F", "Search every stream"))
	b.WriteString(row("t", "Next stream"))
	b.WriteString(row("n / N", "Next / previous match"))
	b.WriteString(row("g / G", "Top / bottom"))

	b.WriteString("\n" + bold.Render("  Overview and nodes") + "\n\n")
	b.WriteString(row("[ / ]", "Load window"))
	if !a.readOnly {
		b.WriteString(row("p", "Pause / resume scheduler or node"))
	}

	b.WriteString("\n" + bold.Render("  Strikes and workspaces") + "\n\n")
	b.WriteString(row("e / n", "Edit / new record"))
	b.WriteString(row("ctrl+s", "Save"))
	b.WriteString(row("ctrl+t", "Validate"))
	b.WriteString(row("ctrl+r", "Discard draft"))

	b.WriteString("\n" + lipgloss.NewStyle().Foreground(ui.ColorMuted).Render("  Press any key to close") + "\n")

	style := ui.StylePaneFocused.Width(a.width - 2).Height(a.contentHeight())
	return style.Render(b.String())
}
