package editor

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/altinukshini/scale-tui/internal/cache"
	"github.com/altinukshini/scale-tui/internal/model"
	"github.com/altinukshini/scale-tui/internal/ui"
)

type fakeSource struct {
	strikes    map[int64]model.Strike
	workspaces map[int64]model.Workspace
	saved      []model.Strike
	savedWS    []model.Workspace
	saveErr    error
}

func (f *fakeSource) GetStrike(_ context.Context, id int64) (*model.Strike, error) {
	s, ok := f.strikes[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &s, nil
}

func (f *fakeSource) SaveStrike(_ context.Context, s model.Strike) (*model.Strike, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.saved = append(f.saved, s)
	if s.ID == 0 {
		s.ID = 99
	}
	return &s, nil
}

func (f *fakeSource) ValidateStrike(context.Context, model.Strike) (*model.ValidationResult, error) {
	return &model.ValidationResult{Warnings: []model.ValidationWarning{{ID: "w", Details: "no recipe"}}}, nil
}

func (f *fakeSource) GetWorkspace(_ context.Context, id int64) (*model.Workspace, error) {
	w, ok := f.workspaces[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &w, nil
}

func (f *fakeSource) SaveWorkspace(_ context.Context, w model.Workspace) (*model.Workspace, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.savedWS = append(f.savedWS, w)
	if w.ID == 0 {
		w.ID = 7
	}
	return &w, nil
}

func (f *fakeSource) ValidateWorkspace(context.Context, model.Workspace) (*model.ValidationResult, error) {
	return &model.ValidationResult{}, nil
}

func existing() model.Strike {
	return model.Strike{
		ID:   4,
		Name: "landsat",
		Configuration: model.StrikeConfiguration{
			Version:       model.StrikeConfigurationVersion,
			Workspace:     "raw",
			Monitor:       model.StrikeMonitor{Type: "s3", SQSName: "landsat-queue"},
			FilesToIngest: []model.StrikeFile{{FilenameRegex: `.*\.tif`}},
		},
	}
}

func editor(src *fakeSource, ds *cache.DraftStore, readOnly bool) Model {
	return New(Options{Kinds: []Kind{Strikes(src), Workspaces(src)}, Drafts: ds, ReadOnly: readOnly})
}

func open(t *testing.T, src *fakeSource, ds *cache.DraftStore, collection string, id int64) Model {
	t.Helper()
	m := editor(src, ds, false)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m, cmd := m.Open(collection, id)
	m, _ = m.Update(cmd())
	return m
}

func newStore(t *testing.T) *cache.DraftStore {
	t.Helper()
	ds, err := cache.NewDraftStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return ds
}

func press(s string) tea.KeyMsg {
	switch s {
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+t":
		return tea.KeyMsg{Type: tea.KeyCtrlT}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func text(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestNewStrikeNeedsWorkspace(t *testing.T) {
	src := &fakeSource{}
	m := open(t, src, newStore(t), "strikes", 0)
	if !strings.Contains(m.Text(), `"new-strike"`) {
		t.Fatalf("text = %s", m.Text())
	}
	m, cmd := m.Update(press("ctrl+s"))
	if cmd != nil {
		t.Fatal("invalid strike was sent")
	}
	if len(m.Problems()) == 0 || !strings.Contains(m.Problems()[0], "Workspace") {
		t.Errorf("problems = %v", m.Problems())
	}
}

func TestEditsAreKeptAsDraft(t *testing.T) {
	src := &fakeSource{strikes: map[int64]model.Strike{4: existing()}}
	ds := newStore(t)
	m := open(t, src, ds, "strikes", 4)
	if m.FromDraft() {
		t.Fatal("fresh strike opened as a draft")
	}
	if strings.Contains(m.Text(), `"created"`) {
		t.Errorf("server owned fields are editable:\n%s", m.Text())
	}

	m, cmd := m.Update(press("x"))
	if !m.Dirty() || cmd == nil {
		t.Fatal("typing did not mark the strike dirty")
	}
	// A newer edit supersedes the pending autosave.
	m, _ = m.Update(autosaveMsg{seq: m.seq - 1})
	if ds.Has("strike4") {
		t.Fatal("stale autosave wrote a draft")
	}
	m, _ = m.Update(autosaveMsg{seq: m.seq})
	if !ds.Has("strike4") {
		t.Fatal("autosave did not write a draft")
	}

	again := open(t, src, ds, "strikes", 4)
	if !again.FromDraft() || again.Text() != m.Text() {
		t.Errorf("reopened text = %q, want draft %q", again.Text(), m.Text())
	}
	if !strings.Contains(again.View(), "[draft]") {
		t.Errorf("view:\n%s", again.View())
	}

	// The trailing x makes the text invalid.
	again, cmd = again.Update(press("ctrl+s"))
	if cmd != nil || len(again.Problems()) == 0 {
		t.Errorf("problems = %v", again.Problems())
	}

	again, cmd = again.Update(press("ctrl+r"))
	again, _ = again.Update(cmd())
	if again.FromDraft() || ds.Has("strike4") {
		t.Error("discard kept the draft")
	}
}

func TestSaveDropsDraft(t *testing.T) {
	src := &fakeSource{}
	ds := newStore(t)
	m := open(t, src, ds, "strikes", 0)
	s := StrikeTemplate()
	s.Configuration.Workspace = "raw"
	m.area.SetValue(text(t, s))
	m.dirty = true
	m = m.Flush()
	if !ds.Has("strike0") {
		t.Fatal("flush did not write a draft")
	}

	m, cmd := m.Update(press("ctrl+s"))
	if cmd == nil {
		t.Fatalf("save not sent: %v", m.Problems())
	}
	m, cmd = m.Update(cmd())
	if m.ID() != 99 || m.Dirty() {
		t.Errorf("id = %d dirty = %v", m.ID(), m.Dirty())
	}
	if ds.Has("strike0") {
		t.Error("draft survived a successful save")
	}
	if res, ok := cmd().(ui.ActionResultMsg); !ok || res.Err != nil || res.Target != "strike new-strike" {
		t.Errorf("result = %#v", res)
	}
	if len(src.saved) != 1 || src.saved[0].Configuration.Workspace != "raw" {
		t.Errorf("saved = %+v", src.saved)
	}
}

func TestFailedSaveKeepsDraft(t *testing.T) {
	src := &fakeSource{strikes: map[int64]model.Strike{4: existing()}, saveErr: errors.New("conflict")}
	ds := newStore(t)
	m := open(t, src, ds, "strikes", 4)
	m.dirty = true
	m = m.Flush()

	m, cmd := m.Update(press("ctrl+s"))
	m, _ = m.Update(cmd())
	if !ds.Has("strike4") {
		t.Error("draft lost after a failed save")
	}
	if !strings.Contains(m.View(), "conflict") {
		t.Errorf("view:\n%s", m.View())
	}
}

func TestValidateShowsWarnings(t *testing.T) {
	src := &fakeSource{strikes: map[int64]model.Strike{4: existing()}}
	m := open(t, src, newStore(t), "strikes", 4)
	m, cmd := m.Update(press("ctrl+t"))
	if cmd == nil {
		t.Fatalf("validate not sent: %v", m.Problems())
	}
	m, _ = m.Update(cmd())
	if m.Status() != "Valid with 1 warning(s)" || !strings.Contains(m.View(), "no recipe") {
		t.Errorf("status = %q view:\n%s", m.Status(), m.View())
	}
}

func TestReadOnly(t *testing.T) {
	src := &fakeSource{strikes: map[int64]model.Strike{4: existing()}}
	m := editor(src, nil, true)
	m, cmd := m.Open("strikes", 4)
	m, _ = m.Update(cmd())
	before := m.Text()
	m, _ = m.Update(press("x"))
	m, cmd = m.Update(press("ctrl+s"))
	if cmd != nil || m.Text() != before {
		t.Error("read-only editor accepted changes")
	}
	if _, cmd := m.Update(press("esc")); cmd == nil {
		t.Error("esc did not close")
	} else if msg, ok := cmd().(CloseMsg); !ok || msg.Collection != "strikes" {
		t.Errorf("close = %#v", msg)
	}
}

func TestNewWorkspaceDraft(t *testing.T) {
	src := &fakeSource{}
	ds := newStore(t)
	m := open(t, src, ds, "workspaces", 0)
	if !strings.Contains(m.View(), "New workspace") || !strings.Contains(m.Text(), `"new-workspace"`) {
		t.Fatalf("view:\n%s", m.View())
	}

	// A host broker needs a host path.
	m, cmd := m.Update(press("ctrl+s"))
	if cmd != nil || len(m.Problems()) == 0 || !strings.Contains(m.Problems()[0], "HostPath") {
		t.Fatalf("problems = %v", m.Problems())
	}

	w := WorkspaceTemplate()
	w.Configuration.Broker.HostPath = "/scale/input"
	m.area.SetValue(text(t, w))
	m.dirty = true
	m, cmd = m.Update(press("esc"))
	if !ds.Has("workspace0") {
		t.Fatal("closing did not keep the draft")
	}
	if msg, ok := cmd().(CloseMsg); !ok || msg.Collection != "workspaces" {
		t.Errorf("close = %#v", msg)
	}

	m = open(t, src, ds, "workspaces", 0)
	if !m.FromDraft() {
		t.Fatal("draft not restored")
	}
	m, cmd = m.Update(press("ctrl+s"))
	if cmd == nil {
		t.Fatalf("save not sent: %v", m.Problems())
	}
	m, _ = m.Update(cmd())
	if m.ID() != 7 || ds.Has("workspace0") {
		t.Errorf("id = %d draft kept = %v", m.ID(), ds.Has("workspace0"))
	}
	if len(src.savedWS) != 1 || src.savedWS[0].Configuration.Broker.HostPath != "/scale/input" {
		t.Errorf("saved = %+v", src.savedWS)
	}
	if !strings.Contains(m.View(), "Workspace #7") {
		t.Errorf("view:\n%s", m.View())
	}
}

func TestUnknownFieldsRejected(t *testing.T) {
	src := &fakeSource{}
	m := open(t, src, nil, "workspaces", 0)
	m.area.SetValue(`{"name": "w", "broker": {}}`)
	m, cmd := m.Update(press("ctrl+t"))
	if cmd != nil || len(m.Problems()) == 0 || !strings.Contains(m.Problems()[0], "unknown field") {
		t.Errorf("problems = %v", m.Problems())
	}
}

func TestStaleDocumentDropped(t *testing.T) {
	src := &fakeSource{strikes: map[int64]model.Strike{4: existing()}}
	m := open(t, src, nil, "workspaces", 0)
	before := m.Text()
	m, _ = m.Update(ui.DocumentLoadedMsg{Collection: "strikes", ID: 4, Text: "{}"})
	m, _ = m.Update(ui.DocumentSavedMsg{Collection: "strikes", ID: 4, Text: "{}"})
	if m.Text() != before || m.ID() != 0 {
		t.Errorf("stale reply applied: id = %d text = %s", m.ID(), m.Text())
	}
}

func TestUnknownCollection(t *testing.T) {
	m := editor(&fakeSource{}, nil, false)
	if m.Handles("jobs") || !m.Handles("workspaces") {
		t.Fatal("handles")
	}
	m, cmd := m.Open("jobs", 1)
	if cmd != nil || !strings.Contains(m.View(), "jobs cannot be edited") {
		t.Errorf("view:\n%s", m.View())
	}
}
