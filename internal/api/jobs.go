package api

import (
	"context"
	"fmt"

	"github.com/altinukshini/scale-tui/internal/model"
)

func (c *Client) GetJob(ctx context.Context, jobID int64) (*model.Job, error) {
	var job model.Job
	if err := c.Get(ctx, fmt.Sprintf("jobs/%d/", jobID), nil, &job); err != nil {
		return nil, fmt.Errorf("get job %d: %w", jobID, err)
	}
	return &job, nil
}

// CancelJob asks Scale to cancel a job. Jobs that already finished come back
// unchanged.
func (c *Client) CancelJob(ctx context.Context, jobID int64) (*model.Job, error) {
	var job model.Job
	body := model.JobUpdate{Status: model.StatusCanceled}
	if err := c.Patch(ctx, fmt.Sprintf("jobs/%d/", jobID), body, &job); err != nil {
		return nil, fmt.Errorf("cancel job %d: %w", jobID, err)
	}
	return &job, nil
}

// RequeueJobs requeues every failed or canceled job matching the request.
func (c *Client) RequeueJobs(ctx context.Context, req model.RequeueRequest) error {
	if err := c.Post(ctx, "queue/requeue-jobs/", req, nil); err != nil {
		return fmt.Errorf("requeue jobs: %w", err)
	}
	return nil
}

// RequeueJob requeues a single job.
func (c *Client) RequeueJob(ctx context.Context, jobID int64) error {
	return c.RequeueJobs(ctx, model.RequeueRequest{JobIDs: []int64{jobID}})
}
