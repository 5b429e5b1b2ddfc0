package ops

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/altinukshini/scale-tui/internal/model"
	"github.com/altinukshini/scale-tui/internal/transform"
	"github.com/altinukshini/scale-tui/internal/viewstate"
)

// JobFilter narrows a page of job rows before a bulk action.
type JobFilter struct {
	JobType       string
	Status        string
	ErrorCategory string
	OlderThan     time.Duration
}

func FilterJobs(jobs []transform.DisplayRecord, filter JobFilter) []transform.DisplayRecord {
	var matched []transform.DisplayRecord
	now := time.Now()

	for _, j := range jobs {
		if filter.JobType != "" && !strings.EqualFold(j.Get("job_type.name"), filter.JobType) &&
			!strings.EqualFold(j.Get("job_type.title"), filter.JobType) {
			continue
		}
		if filter.Status != "" && !strings.EqualFold(j.Get("status"), filter.Status) {
			continue
		}
		if filter.ErrorCategory != "" && !strings.EqualFold(j.Get("error.category"), filter.ErrorCategory) {
			continue
		}
		if filter.OlderThan > 0 {
			created, ok := transform.ParseTime(j.Get("created"))
			if !ok || now.Sub(created) < filter.OlderThan {
				continue
			}
		}
		matched = append(matched, j)
	}
	return matched
}

// JobCanceler is the part of the API client bulk cancel needs.
type JobCanceler interface {
	CancelJob(ctx context.Context, jobID int64) (*model.Job, error)
}

type BulkResult struct {
	Completed int
	Failed    int
	Errors    []error
}

// batchPause throttles bulk requests after every ten calls.
var batchPause = 2 * time.Second

// BulkCancel cancels jobs one by one, reporting progress after each.
// Failures are collected and do not stop the run; cancelling ctx does.
func BulkCancel(ctx context.Context, client JobCanceler, jobIDs []int64, onProgress func(completed, total int)) (*BulkResult, error) {
	result := &BulkResult{}
	total := len(jobIDs)

	for i, id := range jobIDs {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		_, err := client.CancelJob(ctx, id)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Errorf("job %d: %w", id, err))
		} else {
			result.Completed++
		}

		if onProgress != nil {
			onProgress(i+1, total)
		}

		if (i+1)%10 == 0 && batchPause > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(batchPause):
			}
		}
	}

	return result, nil
}

// RequeueFromParams builds a requeue-all request from a jobs view's current
// filters. Unset and empty filters are left out.
func RequeueFromParams(p viewstate.Params) model.RequeueRequest {
	var req model.RequeueRequest
	if t, ok := p.Time("started"); ok {
		req.Started = &t
	}
	if t, ok := p.Time("ended"); ok {
		req.Ended = &t
	}
	req.Status = model.JobStatus(strings.ToUpper(p.Get("status")))
	req.ErrorCategories = nonEmpty(p.Values("error_category"))
	req.JobTypeNames = nonEmpty(p.Values("job_type_name"))
	req.JobTypeCategories = nonEmpty(p.Values("job_type_category"))
	for _, v := range p.Values("job_type_id") {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.JobTypeIDs = append(req.JobTypeIDs, id)
		}
	}
	if n, ok := p.Int("priority"); ok {
		req.Priority = &n
	}
	return req
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ParseIDs parses job ids given as arguments or a comma separated list.
func ParseIDs(args []string) ([]int64, error) {
	var ids []int64
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil || id <= 0 {
				return nil, fmt.Errorf("invalid job id %q", part)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
