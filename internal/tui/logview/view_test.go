package logview

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/altinukshini/scale-tui/internal/cache"
	"github.com/altinukshini/scale-tui/internal/model"
	"github.com/altinukshini/scale-tui/internal/ui"
	"github.com/altinukshini/scale-tui/internal/viewstate"
)

type call struct {
	exeID  int64
	stream string
	since  string
}

type fakeSource struct {
	jobs  map[int64]*model.Job
	calls []call
}

func (f *fakeSource) GetJob(_ context.Context, id int64) (*model.Job, error) {
	if j, ok := f.jobs[id]; ok {
		return j, nil
	}
	return nil, fmt.Errorf("job %d not found", id)
}

func (f *fakeSource) GetExecutionLog(_ context.Context, exeID int64, stream, since string) (string, error) {
	f.calls = append(f.calls, call{exeID, stream, since})
	if since != "" {
		return "tail line", nil
	}
	return fmt.Sprintf("%s line 1\nERROR %s line 2", stream, stream), nil
}

func newSource() *fakeSource {
	ended := time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)
	return &fakeSource{jobs: map[int64]*model.Job{
		10: {ID: 10, Status: model.StatusFailed, NumExes: 1, Executions: []model.JobExecution{
			{ID: 101, Status: model.StatusFailed, Ended: &ended},
		}},
		20: {ID: 20, Status: model.StatusRunning, NumExes: 1, Executions: []model.JobExecution{
			{ID: 201, Status: model.StatusRunning},
		}},
		30: {ID: 30, Status: model.StatusQueued},
	}}
}

// drive runs cmd and feeds every resulting message back into the model,
// skipping timer commands.
func drive(m Model, cmd tea.Cmd) Model {
	if cmd == nil {
		return m
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			m = drive(m, c)
		}
		return m
	}
	var next tea.Cmd
	m, next = m.Update(msg)
	return drive(m, next)
}

func newModel(t *testing.T, src *fakeSource) (Model, *cache.LogCache, *viewstate.Router) {
	t.Helper()
	lc, err := cache.NewLogCache(t.TempDir(), 10, time.Hour)
	if err != nil {
		t.Fatalf("NewLogCache: %v", err)
	}
	router := viewstate.NewRouter(viewstate.ParseLocation("jobs/10/logs"))
	m := New(Options{Source: src, Cache: lc, Router: router})
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	return m, lc, router
}

func TestFinishedLogIsCached(t *testing.T) {
	src := newSource()
	m, lc, router := newModel(t, src)

	m, cmd := m.Open(10, 0, "")
	m = drive(m, cmd)
	if !strings.Contains(m.Content(), "combined line 1") {
		t.Fatalf("content = %q", m.Content())
	}
	if m.IsTailing() {
		t.Error("finished execution is tailing")
	}
	if !lc.Has(101, "combined") {
		t.Error("log was not cached")
	}
	if got := router.Current().Query.Get("exe"); got != "101" {
		t.Errorf("location exe = %q", got)
	}

	n := len(src.calls)
	m, cmd = m.Open(10, 101, "combined")
	m = drive(m, cmd)
	if len(src.calls) != n {
		t.Error("cached log was downloaded again")
	}
	if !strings.Contains(m.View(), "[cached]") {
		t.Errorf("view:\n%s", m.View())
	}
}

func TestStreamSwitch(t *testing.T) {
	src := newSource()
	m, _, router := newModel(t, src)
	m, cmd := m.Open(10, 101, "stdout")
	m = drive(m, cmd)

	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")})
	m = drive(m, cmd)
	if m.Stream() != "stderr" {
		t.Fatalf("stream = %s", m.Stream())
	}
	if !strings.Contains(m.Content(), "stderr line 1") {
		t.Errorf("content = %q", m.Content())
	}
	if got := router.Current().Query.Get("stream"); got != "stderr" {
		t.Errorf("location stream = %q", got)
	}
}

func TestRunningLogTails(t *testing.T) {
	src := newSource()
	m, lc, _ := newModel(t, src)
	m.interval = time.Minute

	m, cmd := m.Open(20, 0, "")
	// The first fetch is driven by hand so the tick timer is not awaited.
	msg := cmd()
	m, cmd = m.Update(msg)
	batch, ok := cmd().(tea.BatchMsg)
	if !ok || len(batch) != 2 {
		t.Fatalf("load cmd = %#v", batch)
	}
	m, _ = m.Update(batch[0]())
	if !m.IsTailing() {
		t.Fatal("running execution not tailing")
	}
	if lc.Has(201, "combined") {
		t.Error("running log was cached")
	}

	gen := m.handle.Generation()
	m, cmd = m.Update(ui.PollTickMsg{Target: Target, Gen: gen})
	batch = cmd().(tea.BatchMsg)
	m, _ = m.Update(batch[0]())
	if last := src.calls[len(src.calls)-1]; last.since == "" {
		t.Error("tail fetch did not pass since")
	}
	if !strings.HasSuffix(m.Content(), "tail line") {
		t.Errorf("content = %q", m.Content())
	}

	m = m.Close()
	if _, cmd := m.Update(ui.PollTickMsg{Target: Target, Gen: gen}); cmd != nil {
		t.Error("closed log kept polling")
	}
}

func TestNoExecution(t *testing.T) {
	m, _, _ := newModel(t, newSource())
	m, cmd := m.Open(30, 0, "")
	m = drive(m, cmd)
	if !strings.Contains(m.View(), "no execution") {
		t.Errorf("view:\n%s", m.View())
	}
}

func TestSearchHighlightsMatches(t *testing.T) {
	m, _, _ := newModel(t, newSource())
	m, cmd := m.Open(10, 0, "")
	m = drive(m, cmd)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	for _, r := range "error" {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.matchTotal != 1 || m.matchLines[0] != 1 {
		t.Errorf("matches = %v", m.matchLines)
	}
	if !strings.Contains(m.View(), "[1/1 matches]") {
		t.Errorf("view:\n%s", m.View())
	}
}

func TestRoute(t *testing.T) {
	if got := Route(12, 121, "stderr"); got != "jobs/12/logs?exe=121&stream=stderr" {
		t.Errorf("route = %s", got)
	}
	if got := Route(12, 0, ""); got != "jobs/12/logs" {
		t.Errorf("route = %s", got)
	}
}
