package ops

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/altinukshini/scale-tui/internal/model"
	"github.com/altinukshini/scale-tui/internal/transform"
	"github.com/altinukshini/scale-tui/internal/viewstate"
)

func record(id int64, jobType, status, category string, created time.Time) transform.DisplayRecord {
	row := transform.Row{
		"id":       id,
		"status":   status,
		"created":  created.Format(time.RFC3339),
		"job_type": map[string]any{"name": jobType, "title": jobType},
	}
	if category != "" {
		row["error"] = map[string]any{"category": category}
	}
	return transform.New(transform.Rules{}).Transform(row)
}

func TestFilterJobs(t *testing.T) {
	now := time.Now()
	jobs := []transform.DisplayRecord{
		record(1, "ingest", "FAILED", "SYSTEM", now.Add(-48*time.Hour)),
		record(2, "ingest", "COMPLETED", "", now.Add(-1*time.Hour)),
		record(3, "landsat", "FAILED", "DATA", now.Add(-72*time.Hour)),
	}

	tests := []struct {
		name   string
		filter JobFilter
		want   int
	}{
		{name: "by job type", filter: JobFilter{JobType: "ingest"}, want: 2},
		{name: "by status", filter: JobFilter{Status: "failed"}, want: 2},
		{name: "by age", filter: JobFilter{OlderThan: 24 * time.Hour}, want: 2},
		{name: "combined", filter: JobFilter{JobType: "ingest", Status: "FAILED"}, want: 1},
		{name: "by error category", filter: JobFilter{ErrorCategory: "DATA"}, want: 1},
		{name: "no match", filter: JobFilter{JobType: "nonexistent"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterJobs(jobs, tt.filter)
			if len(got) != tt.want {
				t.Errorf("FilterJobs() returned %d jobs, want %d", len(got), tt.want)
			}
		})
	}
}

type fakeCanceler struct {
	calls []int64
	fail  map[int64]bool
}

func (f *fakeCanceler) CancelJob(ctx context.Context, id int64) (*model.Job, error) {
	f.calls = append(f.calls, id)
	if f.fail[id] {
		return nil, errors.New("409 job already completed")
	}
	return &model.Job{ID: id, Status: model.StatusCanceled}, nil
}

func TestBulkCancelReportsProgress(t *testing.T) {
	batchPause = 0
	t.Cleanup(func() { batchPause = 2 * time.Second })

	c := &fakeCanceler{fail: map[int64]bool{2: true}}
	var progress []int
	res, err := BulkCancel(context.Background(), c, []int64{1, 2, 3}, func(done, total int) {
		if total != 3 {
			t.Errorf("total = %d", total)
		}
		progress = append(progress, done)
	})
	if err != nil {
		t.Fatalf("BulkCancel: %v", err)
	}
	if res.Completed != 2 || res.Failed != 1 || len(res.Errors) != 1 {
		t.Errorf("result = %+v", res)
	}
	if len(progress) != 3 || progress[2] != 3 {
		t.Errorf("progress = %v", progress)
	}
}

func TestBulkCancelStopsOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := &fakeCanceler{}
	_, err := BulkCancel(ctx, c, []int64{1, 2}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
	if len(c.calls) != 0 {
		t.Errorf("calls after cancel: %v", c.calls)
	}
}

func TestRequeueFromParams(t *testing.T) {
	p := viewstate.Params{
		"started":        {"2016-03-03T00:00:00Z"},
		"status":         {"failed"},
		"error_category": {"SYSTEM", ""},
		"job_type_id":    {"4", "x"},
		"page":           {"3"},
	}
	req := RequeueFromParams(p)
	if req.Started == nil || req.Started.Day() != 3 {
		t.Errorf("started = %v", req.Started)
	}
	if req.Ended != nil {
		t.Error("unset ended should be omitted")
	}
	if req.Status != model.StatusFailed {
		t.Errorf("status = %q", req.Status)
	}
	if len(req.ErrorCategories) != 1 || len(req.JobTypeIDs) != 1 || req.JobTypeIDs[0] != 4 {
		t.Errorf("req = %+v", req)
	}
	if !RequeueFromParams(viewstate.Params{}).Empty() {
		t.Error("no filters should give an empty request")
	}
}

func TestParseIDs(t *testing.T) {
	ids, err := ParseIDs([]string{"1,2", " 3 "})
	if err != nil || len(ids) != 3 || ids[2] != 3 {
		t.Errorf("ParseIDs = %v, %v", ids, err)
	}
	if _, err := ParseIDs([]string{"abc"}); err == nil {
		t.Error("non numeric id accepted")
	}
}
