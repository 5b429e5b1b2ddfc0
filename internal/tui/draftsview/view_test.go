package draftsview

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/altinukshini/scale-tui/internal/cache"
	"github.com/altinukshini/scale-tui/internal/ui"
)

func setup(t *testing.T) (Model, *cache.DraftStore, *cache.LogCache) {
	t.Helper()
	ds, err := cache.NewDraftStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	lc, err := cache.NewLogCache(t.TempDir(), 10, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if err := ds.Save("strike7", map[string]string{"name": "landsat"}); err != nil {
		t.Fatal(err)
	}
	if err := lc.Store(55, "stderr", "boom"); err != nil {
		t.Fatal(err)
	}
	if err := lc.WriteMeta(cache.CacheMeta{ExecutionID: 55, JobID: 5, JobType: "ingest 1.0", Status: "FAILED"}); err != nil {
		t.Fatal(err)
	}

	m := New(ds, lc)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	m, _ = m.Update(m.Load()())
	return m, ds, lc
}

func TestListsDraftsAndLogs(t *testing.T) {
	m, _, _ := setup(t)
	if len(m.Entries()) != 2 {
		t.Fatalf("entries = %d", len(m.Entries()))
	}
	routes := map[string]bool{}
	for _, e := range m.Entries() {
		routes[e.Route()] = true
	}
	for _, want := range []string{"strikes/7/edit", "jobs/5/logs?exe=55"} {
		if !routes[want] {
			t.Errorf("missing route %s in %v", want, routes)
		}
	}
	if !strings.Contains(m.View(), "1 drafts | 1 cached logs") {
		t.Errorf("view:\n%s", m.View())
	}
}

func TestEnterOpensEntry(t *testing.T) {
	m, _, _ := setup(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	open, ok := cmd().(OpenMsg)
	if !ok || open.Route != m.Entries()[0].Route() {
		t.Errorf("open = %#v", open)
	}
}

func TestDeleteSelection(t *testing.T) {
	m, ds, lc := setup(t)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace})
	if m.SelectionCount() != 2 {
		t.Fatalf("selected = %d", m.SelectionCount())
	}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	req, ok := cmd().(DeleteMsg)
	if !ok || len(req.Drafts) != 1 || len(req.Logs) != 1 {
		t.Fatalf("req = %#v", req)
	}
	if req.Prompt() != "Delete 1 draft(s) and 1 cached log(s)?" {
		t.Errorf("prompt = %s", req.Prompt())
	}

	res := m.Delete(req)().(ui.ActionResultMsg)
	if res.Err != nil || res.Message != "Deleted 1 draft(s) and 1 cached log(s)" {
		t.Errorf("res = %#v", res)
	}
	if ds.Has("strike7") || lc.Has(55, "stderr") {
		t.Error("entries survived delete")
	}
	m, _ = m.Update(m.Load()())
	if len(m.Entries()) != 0 {
		t.Errorf("entries = %d", len(m.Entries()))
	}
}

func TestClearAll(t *testing.T) {
	m, ds, _ := setup(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	req := cmd().(DeleteMsg)
	if !req.All {
		t.Fatalf("req = %#v", req)
	}
	res := m.Delete(req)().(ui.ActionResultMsg)
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if drafts, _ := ds.List(""); len(drafts) != 0 {
		t.Errorf("drafts = %v", drafts)
	}
}

func TestDraftRoutes(t *testing.T) {
	tests := map[string]string{
		"strike0":    "strikes/new",
		"strike":     "strikes/new",
		"strike12":   "strikes/12/edit",
		"workspace0": "workspaces/new",
		"workspace3": "workspaces/3/edit",
		"strikeabc":  "",
		"unknown7":   "",
	}
	for k, want := range tests {
		if got := (Entry{Draft: &cache.Draft{Key: k}}).Route(); got != want {
			t.Errorf("Route(%s) = %s, want %s", k, got, want)
		}
	}
}
