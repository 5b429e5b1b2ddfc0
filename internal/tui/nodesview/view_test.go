package nodesview

import (
	"context"
	"net/url"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/altinukshini/scale-tui/internal/model"
	"github.com/altinukshini/scale-tui/internal/ui"
)

type fakeSource struct {
	calls int
}

func (f *fakeSource) GetNodeStatus(context.Context, url.Values) (*model.NodeStatusResponse, error) {
	f.calls++
	return &model.NodeStatusResponse{Count: 3, Results: []model.NodeStatus{
		{Node: model.Node{ID: 1, Hostname: "node-1"}, IsOnline: true,
			JobExeCounts:   []model.StatusCount{{Status: model.StatusCompleted, Count: 40}, {Status: model.StatusFailed, Count: 2}},
			JobExesRunning: []model.JobExecution{{ID: 9}}},
		{Node: model.Node{ID: 2, Hostname: "node-2", IsPaused: true, PauseReason: "disk swap"}, IsOnline: true},
		{Node: model.Node{ID: 3, Hostname: "node-3"}},
	}}, nil
}

func load(t *testing.T, readOnly bool) (Model, *fakeSource) {
	t.Helper()
	src := &fakeSource{}
	m := New(Options{Source: src, ReadOnly: readOnly})
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m, cmd := m.Activate()
	m, _ = m.Update(cmd())
	if len(m.Nodes()) != 3 {
		t.Fatalf("nodes = %d", len(m.Nodes()))
	}
	return m, src
}

func TestHeaderCounts(t *testing.T) {
	m, _ := load(t, false)
	view := m.View()
	if !strings.Contains(view, "3 nodes | 2 online | 1 paused | 1 running") {
		t.Errorf("view:\n%s", view)
	}
	if !strings.Contains(view, "High") && !strings.Contains(view, "Offline") {
		t.Errorf("offline node not shown:\n%s", view)
	}
}

func TestPauseRequest(t *testing.T) {
	m, _ := load(t, false)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	req, ok := cmd().(PauseMsg)
	if !ok || req.Node.ID != 1 || !req.Pause {
		t.Fatalf("req = %#v", req)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	req = cmd().(PauseMsg)
	if req.Node.ID != 2 || req.Pause {
		t.Errorf("req = %#v", req)
	}
	if !strings.Contains(FormatPause(req), "disk swap") {
		t.Errorf("prompt = %s", FormatPause(req))
	}
}

func TestReadOnlyCannotPause(t *testing.T) {
	m, _ := load(t, true)
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")}); cmd != nil {
		t.Error("read-only view issued a pause")
	}
}

func TestDeactivatedDropsResponse(t *testing.T) {
	src := &fakeSource{}
	m := New(Options{Source: src})
	m, cmd := m.Activate()
	msg := cmd()
	m = m.Deactivate()
	m, _ = m.Update(msg)
	if len(m.Nodes()) != 0 {
		t.Error("response accepted after deactivate")
	}
	if _, cmd := m.Update(ui.PollTickMsg{Target: Target, Gen: m.handle.Generation()}); cmd != nil {
		t.Error("stopped view polled")
	}
}

func TestSummary(t *testing.T) {
	src := &fakeSource{}
	resp, _ := src.GetNodeStatus(context.Background(), nil)
	if got := Summary(resp.Results); got != "1 online, 1 paused, 1 offline" {
		t.Errorf("summary = %q", got)
	}
	if got := Summary(nil); got != "no nodes" {
		t.Errorf("summary = %q", got)
	}
}
