package overview

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/altinukshini/scale-tui/internal/model"
	"github.com/altinukshini/scale-tui/internal/ui"
)

var now = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type fakeSource struct {
	paused     bool
	loadQ      []url.Values
	typesQ     []url.Values
	failAll    bool
	noActivity bool
}

func (f *fakeSource) GetStatus(context.Context) (*model.SystemStatus, error) {
	if f.failAll {
		return nil, errors.New("boom")
	}
	st := &model.SystemStatus{}
	st.Master = model.MasterStatus{IsOnline: true, Hostname: "master", Port: 5050}
	st.Scheduler.IsOnline = true
	st.Scheduler.IsPaused = f.paused
	st.Resources.Total = model.Resources{CPUs: 100, Mem: 1024, Disk: 2048}
	st.Resources.Scheduled = model.Resources{CPUs: 95, Mem: 512, Disk: 0}
	return st, nil
}

func (f *fakeSource) GetQueueStatus(context.Context) (*model.QueueStatus, error) {
	oldest := now.Add(-90 * time.Minute)
	return &model.QueueStatus{Results: []model.QueueEntry{
		{JobType: model.JobType{Name: "small", Version: "1.0"}, Count: 3, HighestPriority: 100},
		{JobType: model.JobType{Name: "big", Title: "Big", Version: "2.0"}, Count: 12, LongestQueued: &oldest, IsJobTypePaused: true},
	}}, nil
}

func (f *fakeSource) GetJobLoad(_ context.Context, q url.Values) (*model.JobLoad, error) {
	f.loadQ = append(f.loadQ, q)
	return &model.JobLoad{Results: []model.LoadPoint{
		{Time: now.Add(-2 * time.Hour), RunningCount: 2, QueuedCount: 1},
		{Time: now.Add(-time.Hour), RunningCount: 4, QueuedCount: 3, PendingCount: 1},
		{Time: now, RunningCount: 6, QueuedCount: 5},
	}}, nil
}

func (f *fakeSource) GetRunningJobs(context.Context) (*model.RunningStatus, error) {
	if f.noActivity {
		return nil, errors.New("not found")
	}
	started := now.Add(-3 * time.Hour)
	return &model.RunningStatus{Results: []model.RunningEntry{
		{JobType: model.JobType{Name: "small", Version: "1.0"}, Count: 1},
		{JobType: model.JobType{Name: "big", Title: "Big", Version: "2.0"}, Count: 4, LongestRunning: &started},
	}}, nil
}

func (f *fakeSource) GetJobTypeStatus(_ context.Context, q url.Values) (*model.JobTypeStatusList, error) {
	if f.noActivity {
		return nil, errors.New("not found")
	}
	f.typesQ = append(f.typesQ, q)
	return &model.JobTypeStatusList{Results: []model.JobTypeStatus{
		{JobType: model.JobType{Name: "small", Version: "1.0"}, JobCounts: []model.StatusCount{
			{Status: model.StatusCompleted, Count: 9},
			{Status: model.StatusFailed, Count: 1, Category: "SYSTEM"},
		}},
		{JobType: model.JobType{Name: "big", Title: "Big", Version: "2.0"}, JobCounts: []model.StatusCount{
			{Status: model.StatusCompleted, Count: 2},
			{Status: model.StatusFailed, Count: 1, Category: "DATA"},
			{Status: model.StatusFailed, Count: 1, Category: "ALGORITHM"},
			{Status: model.StatusRunning, Count: 4},
		}},
		{JobType: model.JobType{Name: "idle", Version: "1.0"}, JobCounts: []model.StatusCount{
			{Status: model.StatusQueued, Count: 2},
		}},
	}}, nil
}

func newModel(src *fakeSource, readOnly bool) (Model, tea.Cmd) {
	m := New(Options{Source: src, ReadOnly: readOnly, Now: func() time.Time { return now }})
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 60})
	return m.Activate()
}

// first runs the fetch command of an Activate or Restart batch. With no
// interval the batch holds the fetch alone.
func first(cmd tea.Cmd) tea.Msg {
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			if c != nil {
				return c()
			}
		}
	}
	return msg
}

func TestComputeMetrics(t *testing.T) {
	src := &fakeSource{}
	st, _ := src.GetStatus(context.Background())
	q, _ := src.GetQueueStatus(context.Background())
	load, _ := src.GetJobLoad(context.Background(), nil)

	met := ComputeMetrics(st, q, load, now)
	if met.Queued != 15 || met.PausedTypes != 1 {
		t.Errorf("queued = %d paused = %d", met.Queued, met.PausedTypes)
	}
	if met.LongestQueued != 90*time.Minute {
		t.Errorf("longest = %s", met.LongestQueued)
	}
	if met.TopQueued[0].Name != "Big 2.0" {
		t.Errorf("top = %+v", met.TopQueued)
	}
	if met.PeakLoad != 11 || met.MeanRunning != 4 || met.MedianRunning != 4 {
		t.Errorf("peak = %d mean = %v median = %v", met.PeakLoad, met.MeanRunning, met.MedianRunning)
	}
	if met.CPUUsage != 95 || met.MemUsage != 50 || met.DiskUsage != 0 {
		t.Errorf("usage = %v %v %v", met.CPUUsage, met.MemUsage, met.DiskUsage)
	}
}

func TestTypeActivity(t *testing.T) {
	src := &fakeSource{}
	running, _ := src.GetRunningJobs(context.Background())
	types, _ := src.GetJobTypeStatus(context.Background(), nil)

	var met Metrics
	met.AddTypeActivity(running, types, now)
	if met.Running != 5 || met.TopRunning[0].Name != "Big 2.0" || met.TopRunning[0].Longest != 3*time.Hour {
		t.Errorf("running = %d top = %+v", met.Running, met.TopRunning)
	}
	if met.Failed != 3 || met.Finished != 14 {
		t.Errorf("failed = %d of %d", met.Failed, met.Finished)
	}
	// idle never finished a job, so it has no rate.
	if len(met.FailureRates) != 2 {
		t.Fatalf("rates = %+v", met.FailureRates)
	}
	top := met.FailureRates[0]
	if top.Name != "Big 2.0" || top.Rate() != 50 || top.Categories["DATA"] != 1 {
		t.Errorf("top = %+v rate = %v", top, top.Rate())
	}
	if got := categories(top); got != "algorithm 1, data 1" {
		t.Errorf("categories = %q", got)
	}
}

func TestPercentile(t *testing.T) {
	tests := []struct {
		in   []float64
		p    float64
		want float64
	}{
		{nil, 50, 0},
		{[]float64{7}, 95, 7},
		{[]float64{1, 2, 3, 4}, 50, 2.5},
		{[]float64{0, 10}, 95, 9.5},
	}
	for _, tt := range tests {
		if got := percentile(tt.in, tt.p); got != tt.want {
			t.Errorf("percentile(%v, %v) = %v, want %v", tt.in, tt.p, got, tt.want)
		}
	}
}

func TestRendersStatus(t *testing.T) {
	src := &fakeSource{}
	m, cmd := newModel(src, false)
	m, _ = m.Update(first(cmd))

	view := m.View()
	for _, want := range []string{"running", "Queued jobs:", "Big 2.0", "Job Load (24h)", "01h, 30m, 00s"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if got := src.loadQ[0].Get("started"); got != now.Add(-24*time.Hour).Format(time.RFC3339) {
		t.Errorf("started = %s", got)
	}
	for _, want := range []string{"Running jobs:", "longest 03h", "Failure Rates (24h)", "3 / 14", "50.0%", "system 1"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if got := src.typesQ[0].Get("started"); got != src.loadQ[0].Get("started") {
		t.Errorf("failure window started = %s", got)
	}
}

func TestActivityOptional(t *testing.T) {
	m, cmd := newModel(&fakeSource{noActivity: true}, false)
	m, _ = m.Update(first(cmd))
	view := m.View()
	if strings.Contains(view, "Error") || strings.Contains(view, "Failure Rates") {
		t.Errorf("view:\n%s", view)
	}
	if !strings.Contains(view, "Queued jobs:") {
		t.Errorf("view:\n%s", view)
	}
}

func TestWindowSwitchDropsOldResponse(t *testing.T) {
	src := &fakeSource{}
	m, cmd := newModel(src, false)
	stale := first(cmd)

	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("]")})
	if m.Window().Label != "3d" {
		t.Fatalf("window = %s", m.Window())
	}
	fresh := first(cmd)

	m, _ = m.Update(stale)
	if m.Metrics() != nil {
		t.Fatal("response for the old window was applied")
	}
	m, _ = m.Update(fresh)
	if m.Metrics() == nil {
		t.Fatal("response for the new window was dropped")
	}
	if got := src.loadQ[1].Get("started"); got != now.Add(-72*time.Hour).Format(time.RFC3339) {
		t.Errorf("started = %s", got)
	}
}

func TestPauseToggle(t *testing.T) {
	src := &fakeSource{paused: true}
	m, cmd := newModel(src, false)
	m, _ = m.Update(first(cmd))
	if !m.SchedulerPaused() {
		t.Fatal("scheduler not paused")
	}
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	if msg, ok := cmd().(ToggleSchedulerMsg); !ok || msg.Pause {
		t.Errorf("toggle = %#v", msg)
	}

	ro, cmd := newModel(src, true)
	ro, _ = ro.Update(first(cmd))
	if _, cmd := ro.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")}); cmd != nil {
		t.Error("read-only overview offered a scheduler toggle")
	}
}

func TestErrorBeforeData(t *testing.T) {
	m, cmd := newModel(&fakeSource{failAll: true}, false)
	m, _ = m.Update(first(cmd))
	if !strings.Contains(m.View(), "Error: boom") {
		t.Errorf("view:\n%s", m.View())
	}
}

func TestStaleTickIgnored(t *testing.T) {
	m, _ := newModel(&fakeSource{}, false)
	gen := m.handle.Generation()
	m = m.Deactivate()
	if _, cmd := m.Update(ui.PollTickMsg{Target: Target, Gen: gen}); cmd != nil {
		t.Error("tick after deactivate refetched")
	}
}
