package details

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/altinukshini/scale-tui/internal/model"
	"github.com/altinukshini/scale-tui/internal/transform"
	"github.com/altinukshini/scale-tui/internal/ui"
	"github.com/altinukshini/scale-tui/internal/views"
)

func TestSectionsGroupNestedObjects(t *testing.T) {
	rec := transform.DisplayRecord{Raw: transform.Row{
		"id":     json.Number("7"),
		"status": "FAILED",
		"job_type": map[string]any{
			"name":  "landsat-parse",
			"title": "Landsat Parse",
		},
		"job_exes": []any{map[string]any{"id": json.Number("71")}},
	}, Derived: map[string]string{"status_icon": "✗"}}

	secs := Sections(rec)
	if len(secs) != 2 {
		t.Fatalf("sections = %+v", secs)
	}
	top := secs[0]
	want := [][2]string{{"id", "7"}, {"job_exes", "[1 items]"}, {"status", "FAILED"}, {"status_icon", "✗"}}
	if len(top.Fields) != len(want) {
		t.Fatalf("top fields = %v", top.Fields)
	}
	for i := range want {
		if top.Fields[i] != want[i] {
			t.Errorf("field %d = %v, want %v", i, top.Fields[i], want[i])
		}
	}
	if secs[1].Title != "job_type" || secs[1].Fields[0] != [2]string{"job_type.name", "landsat-parse"} {
		t.Errorf("nested = %+v", secs[1])
	}
}

func TestSectionsKeepFullPath(t *testing.T) {
	rec := transform.DisplayRecord{Raw: transform.Row{
		"name": "landsat-raw",
		"configuration": transform.Row{
			"version": "7",
			"broker": map[string]any{
				"type":      "host",
				"host_path": "/scale/raw",
			},
		},
	}}

	secs := Sections(rec)
	if len(secs) != 3 {
		t.Fatalf("sections = %+v", secs)
	}
	if secs[1].Title != "configuration" || secs[1].Fields[0] != [2]string{"configuration.version", "7"} {
		t.Errorf("configuration = %+v", secs[1])
	}
	want := [][2]string{{"configuration.broker.host_path", "/scale/raw"}, {"configuration.broker.type", "host"}}
	if secs[2].Title != "configuration.broker" || len(secs[2].Fields) != 2 || secs[2].Fields[0] != want[0] || secs[2].Fields[1] != want[1] {
		t.Errorf("broker = %+v", secs[2])
	}
}

func TestJobRecordListsExecutions(t *testing.T) {
	v, _ := views.Lookup("jobs")
	m := New()
	m.SetTarget(v, "12")
	m, _ = m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	started := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	job := &model.Job{
		ID: 12, Status: model.StatusFailed, NumExes: 2, MaxTries: 3,
		JobType: model.JobType{Title: "Landsat Parse", Version: "1.0"},
		Executions: []model.JobExecution{
			{ID: 122, Status: model.StatusFailed, Started: &started},
			{ID: 121, Status: model.StatusFailed, Started: &started},
		},
	}
	// A response for another record is ignored.
	m, _ = m.Update(ui.RecordLoadedMsg{Path: "jobs/13/", Record: transform.Row{"id": json.Number("13")}})
	if !strings.Contains(m.View(), "Loading") {
		t.Fatal("foreign record was shown")
	}

	m, _ = m.Update(ui.RecordLoadedMsg{Path: "jobs/12/", Record: transform.Row{"id": json.Number("12"), "status": "FAILED"}, Job: job})
	out := m.View()
	if !strings.Contains(out, "Job #12") || !strings.Contains(out, "#122") || !strings.Contains(out, "Landsat Parse 1.0") {
		t.Errorf("view:\n%s", out)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	open, ok := cmd().(OpenLogMsg)
	if !ok || open.JobID != 12 || open.ExecutionID != 121 {
		t.Errorf("open = %#v", open)
	}
}
