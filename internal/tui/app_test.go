package tui

import (
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/altinukshini/scale-tui/internal/api"
	"github.com/altinukshini/scale-tui/internal/cache"
	"github.com/altinukshini/scale-tui/internal/config"
	"github.com/altinukshini/scale-tui/internal/model"
	"github.com/altinukshini/scale-tui/internal/stub"
	"github.com/altinukshini/scale-tui/internal/ui"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestApp(t *testing.T, start string, admin bool) (*App, *stub.Server) {
	t.Helper()
	s, err := stub.New(nil, testNow)
	if err != nil {
		t.Fatalf("stub: %v", err)
	}
	srv := httptest.NewServer(s.Routes())
	t.Cleanup(srv.Close)
	client, err := api.NewClient(api.Options{BaseURL: srv.URL + stub.Prefix, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	drafts, err := cache.NewDraftStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	logs, err := cache.NewLogCache(t.TempDir(), 10, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.APIURL = srv.URL + stub.Prefix
	if admin {
		cfg.Token = "secret"
	}
	app := NewApp(Deps{
		Config:   cfg,
		Client:   client,
		LogCache: logs,
		Drafts:   drafts,
		Start:    start,
		Now:      func() time.Time { return testNow },
	})
	m, _ := app.Update(tea.WindowSizeMsg{Width: 160, Height: 40})
	app = m.(*App)
	return run(t, app, app.Init()), s
}

// run executes cmd and every command it leads to, feeding the messages back
// into the app. Timers (poll ticks, spinners, cursor blinks) never fire.
func run(t *testing.T, app *App, cmd tea.Cmd) *App {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for round := 0; len(queue) > 0; round++ {
		if round > 50 {
			t.Fatal("commands did not settle")
		}
		msgs := execAll(queue)
		queue = nil
		for _, msg := range msgs {
			switch msg := msg.(type) {
			case nil, spinner.TickMsg, ui.PollTickMsg:
				continue
			case tea.BatchMsg:
				queue = append(queue, msg...)
				continue
			}
			m, next := app.Update(msg)
			app = m.(*App)
			if next != nil {
				queue = append(queue, next)
			}
		}
	}
	return app
}

func execAll(cmds []tea.Cmd) []tea.Msg {
	type result struct {
		i   int
		msg tea.Msg
	}
	done := make(chan result, len(cmds))
	for i, c := range cmds {
		if c == nil {
			done <- result{i: i}
			continue
		}
		go func(i int, c tea.Cmd) { done <- result{i: i, msg: c()} }(i, c)
	}
	out := make([]tea.Msg, len(cmds))
	deadline := time.After(300 * time.Millisecond)
	for range cmds {
		select {
		case r := <-done:
			out[r.i] = r.msg
		case <-deadline:
			// Everything still running is a timer.
			return out
		}
	}
	return out
}

func press(app *App, keys ...string) (*App, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		var m tea.Model
		m, cmd = app.Update(msg)
		app = m.(*App)
	}
	return app, cmd
}

func TestListParamsSurviveTabSwitch(t *testing.T) {
	app, s := newTestApp(t, "jobs", false)
	if app.Screen() != ScreenList {
		t.Fatalf("screen = %v", app.Screen())
	}
	jobs, _ := app.List("jobs")
	if jobs.Count() == 0 || len(jobs.Records()) == 0 {
		t.Fatalf("no jobs loaded: err=%v", jobs.Err())
	}
	if q, _ := s.LastQuery("/jobs/"); q.Get("page_size") != "25" {
		t.Errorf("query = %v", q)
	}

	app, cmd := press(app, "l")
	app = run(t, app, cmd)
	if got := app.Router().Current().Query.Get("page"); got != "2" {
		t.Fatalf("page = %q after next page", got)
	}

	app, cmd = press(app, "1")
	app = run(t, app, cmd)
	if app.Screen() != ScreenOverview || app.Router().Current().Path != "overview" {
		t.Fatalf("screen = %v at %s", app.Screen(), app.Router().Current())
	}

	app, cmd = press(app, "2")
	app = run(t, app, cmd)
	if got := app.Router().Current().Query.Get("page"); got != "2" {
		t.Errorf("page = %q after coming back, want 2", got)
	}
	if q, _ := s.LastQuery("/jobs/"); q.Get("page") != "2" {
		t.Errorf("refetch query = %v", q)
	}
}

func TestOpenRecordAndBack(t *testing.T) {
	app, _ := newTestApp(t, "jobs", false)
	jobs, _ := app.List("jobs")
	rec, ok := jobs.Selected()
	if !ok {
		t.Fatal("no row selected")
	}

	app, cmd := press(app, "enter")
	app = run(t, app, cmd)
	if app.Screen() != ScreenDetail || app.Router().Current().Path != "jobs/"+rec.ID() {
		t.Fatalf("screen = %v at %s", app.Screen(), app.Router().Current())
	}
	if job := app.detailsView.Job(); job == nil || strconv.FormatInt(job.ID, 10) != rec.ID() {
		t.Errorf("job = %+v, want id %s", job, rec.ID())
	}

	app, cmd = press(app, "esc")
	app = run(t, app, cmd)
	if app.Screen() != ScreenList || app.Router().Current().Path != "jobs" {
		t.Errorf("screen = %v at %s", app.Screen(), app.Router().Current())
	}
}

func TestLocationBar(t *testing.T) {
	app, s := newTestApp(t, "overview", false)
	app, _ = press(app, ":")
	if !app.editingLocation {
		t.Fatal("location bar not open")
	}
	app.location.SetValue("jobs?status=FAILED")
	app, cmd := press(app, "enter")
	app = run(t, app, cmd)

	jobs, ok := app.List("jobs")
	if !ok || jobs.Params().Get("status") != "FAILED" {
		t.Fatalf("params = %v", jobs.Params())
	}
	if q, _ := s.LastQuery("/jobs/"); q.Get("status") != "FAILED" {
		t.Errorf("query = %v", q)
	}
	for _, r := range jobs.Records() {
		if r.Get("status") != "FAILED" {
			t.Errorf("row %s has status %s", r.ID(), r.Get("status"))
		}
	}
	if !strings.Contains(app.View(), "status=FAILED") {
		t.Error("header does not show the location")
	}
}

func TestUnknownLocationFallsBack(t *testing.T) {
	app, _ := newTestApp(t, "nope/1/2", false)
	if app.Screen() != ScreenOverview || app.Router().Current().Path != "overview" {
		t.Errorf("screen = %v at %s", app.Screen(), app.Router().Current())
	}
	if !strings.Contains(app.Status(), "Unknown location") {
		t.Errorf("status = %q", app.Status())
	}
	if app.Router().Depth() != 1 {
		t.Errorf("depth = %d", app.Router().Depth())
	}
}

func TestCancelJobFromDetail(t *testing.T) {
	// Job 120 is the newest and still running.
	app, _ := newTestApp(t, "jobs/120", true)
	if job := app.detailsView.Job(); job == nil || job.Status != model.StatusRunning {
		t.Fatalf("job = %+v", job)
	}

	app, _ = press(app, "C")
	if !app.confirmDialog.IsActive() {
		t.Fatal("no confirm dialog")
	}
	app, cmd := press(app, "y")
	app = run(t, app, cmd)

	if !strings.HasPrefix(app.Status(), "Canceled job 120") {
		t.Errorf("status = %q", app.Status())
	}
	if job := app.detailsView.Job(); job == nil || job.Status != model.StatusCanceled {
		t.Errorf("job after cancel = %+v", job)
	}
}

func TestReadOnlyBlocksActions(t *testing.T) {
	app, s := newTestApp(t, "jobs/120", false)
	app, _ = press(app, "C")
	if app.confirmDialog.IsActive() {
		t.Error("read-only session offered to cancel")
	}
	if !strings.Contains(app.View(), "[read-only]") {
		t.Error("header does not flag read-only")
	}
	for _, r := range s.Requests() {
		if r.Method != "GET" {
			t.Errorf("unexpected %s %s", r.Method, r.Path)
		}
	}
}

func TestPauseScheduler(t *testing.T) {
	app, _ := newTestApp(t, "overview", true)
	if app.overviewView.SchedulerPaused() {
		t.Fatal("scheduler starts paused")
	}
	app, cmd := press(app, "p")
	app = run(t, app, cmd)
	if !app.confirmDialog.IsActive() {
		t.Fatal("no confirm dialog")
	}
	app, cmd = press(app, "y")
	app = run(t, app, cmd)

	if app.Status() != "Scheduler paused" {
		t.Errorf("status = %q", app.Status())
	}
	if !app.overviewView.SchedulerPaused() || !strings.Contains(app.View(), "SCHEDULER PAUSED") {
		t.Error("overview did not pick up the paused scheduler")
	}
}

func TestEditorCloseAtRoot(t *testing.T) {
	app, _ := newTestApp(t, "strikes/new", true)
	if app.Screen() != ScreenEditor {
		t.Fatalf("screen = %v", app.Screen())
	}
	// Digits are typed, not tab switches.
	app, _ = press(app, "1")
	if app.Screen() != ScreenEditor {
		t.Fatal("editor lost a key to the tab bar")
	}
	app, cmd := press(app, "esc")
	app = run(t, app, cmd)
	if app.Screen() != ScreenList || app.Router().Current().Path != "strikes" {
		t.Errorf("screen = %v at %s", app.Screen(), app.Router().Current())
	}
	if !app.drafts.Has("strike0") {
		t.Error("closing the editor dropped the unsaved text")
	}
}

func TestWorkspaceEditor(t *testing.T) {
	app, _ := newTestApp(t, "workspaces", true)
	if app.Screen() != ScreenList || app.listName != "workspaces" {
		t.Fatalf("screen = %v list = %q", app.Screen(), app.listName)
	}

	app, cmd := press(app, "e")
	app = run(t, app, cmd)
	if app.Screen() != ScreenEditor || app.editorView.Collection() != "workspaces" || app.editorView.ID() == 0 {
		t.Fatalf("screen = %v at %s", app.Screen(), app.Router().Current())
	}
	if !strings.Contains(app.editorView.Text(), `"broker"`) {
		t.Errorf("text = %s", app.editorView.Text())
	}
	app, cmd = press(app, "esc")
	app = run(t, app, cmd)

	app, cmd = press(app, "n")
	app = run(t, app, cmd)
	if app.Router().Current().Path != "workspaces/new" || !strings.Contains(app.View(), "New workspace") {
		t.Fatalf("at %s", app.Router().Current())
	}
	app, _ = press(app, "x")
	app, cmd = press(app, "esc")
	app = run(t, app, cmd)
	if app.Screen() != ScreenList || app.Router().Current().Path != "workspaces" {
		t.Errorf("screen = %v at %s", app.Screen(), app.Router().Current())
	}
	if !app.drafts.Has("workspace0") {
		t.Error("closing the editor dropped the unsaved text")
	}

	// 0 is the tenth tab.
	app, cmd = press(app, "0")
	app = run(t, app, cmd)
	if app.Screen() != ScreenDrafts || !strings.Contains(app.View(), "workspace0") {
		t.Errorf("screen = %v view:\n%s", app.Screen(), app.View())
	}
}

func TestTabIndex(t *testing.T) {
	tests := map[string]struct {
		want int
		ok   bool
	}{
		"1": {0, true},
		"9": {8, true},
		"0": {9, true},
		"a": {0, false},
		"":  {0, false},
	}
	for in, tt := range tests {
		got, ok := tabIndex(in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("tabIndex(%q) = %d, %v; want %d, %v", in, got, ok, tt.want, tt.ok)
		}
	}
	if tabs[9].route != draftsRoute {
		t.Errorf("tenth tab = %s", tabs[9].route)
	}
}

func TestSearchAcrossStreams(t *testing.T) {
	// Job 110 completed after fifteen minutes; its stderr carries only the
	// WARN lines.
	app, _ := newTestApp(t, "jobs/110/logs", false)
	if app.Screen() != ScreenLog || app.logView.Content() == "" {
		t.Fatalf("screen = %v, log empty = %v", app.Screen(), app.logView.Content() == "")
	}

	app, _ = press(app, "F")
	if !app.searchView.IsActive() {
		t.Fatal("search not open")
	}
	app, cmd := press(app, "WARN", "enter")
	app = run(t, app, cmd)

	res := app.searchView.Results()
	if res == nil || res.StreamCounts["stderr"] != 6 || res.StreamCounts["combined"] != 6 || res.StreamCounts["stdout"] != 0 {
		t.Fatalf("results = %+v", res)
	}

	// Matches are grouped by stream name: combined, then stderr.
	for i := 0; i < 6; i++ {
		app, _ = press(app, "down")
	}
	app, cmd = press(app, "enter")
	app = run(t, app, cmd)

	if app.logView.Stream() != "stderr" {
		t.Errorf("stream = %s", app.logView.Stream())
	}
	if app.pendingJump != nil {
		t.Error("jump still pending")
	}
	if got := app.Router().Current().Query.Get("stream"); got != "stderr" {
		t.Errorf("location stream = %q", got)
	}
}
