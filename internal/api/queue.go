package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/altinukshini/scale-tui/internal/model"
)

func (c *Client) GetQueueStatus(ctx context.Context) (*model.QueueStatus, error) {
	var resp model.QueueStatus
	if err := c.Get(ctx, "queue/status/", nil, &resp); err != nil {
		return nil, fmt.Errorf("queue status: %w", err)
	}
	return &resp, nil
}

// GetJobLoad returns pending/queued/running counts bucketed over time.
func (c *Client) GetJobLoad(ctx context.Context, q url.Values) (*model.JobLoad, error) {
	var resp model.JobLoad
	if err := c.Get(ctx, "load/", q, &resp); err != nil {
		return nil, fmt.Errorf("job load: %w", err)
	}
	return &resp, nil
}

// GetRunningJobs counts the running jobs of every job type.
func (c *Client) GetRunningJobs(ctx context.Context) (*model.RunningStatus, error) {
	var resp model.RunningStatus
	if err := c.Get(ctx, "job-types/running/", nil, &resp); err != nil {
		return nil, fmt.Errorf("running jobs: %w", err)
	}
	return &resp, nil
}

// GetJobTypeStatus counts the jobs of every job type by status over the
// started/ended window in q.
func (c *Client) GetJobTypeStatus(ctx context.Context, q url.Values) (*model.JobTypeStatusList, error) {
	var resp model.JobTypeStatusList
	if err := c.Get(ctx, "job-types/status/", q, &resp); err != nil {
		return nil, fmt.Errorf("job type status: %w", err)
	}
	return &resp, nil
}

// GetProfile returns the user the token belongs to.
func (c *Client) GetProfile(ctx context.Context) (*model.User, error) {
	var resp model.User
	if err := c.Get(ctx, "accounts/profile/", nil, &resp); err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	return &resp, nil
}

func (c *Client) GetStatus(ctx context.Context) (*model.SystemStatus, error) {
	var resp model.SystemStatus
	if err := c.Get(ctx, "status/", nil, &resp); err != nil {
		return nil, fmt.Errorf("system status: %w", err)
	}
	return &resp, nil
}

func (c *Client) GetScheduler(ctx context.Context) (*model.Scheduler, error) {
	var resp model.Scheduler
	if err := c.Get(ctx, "scheduler/", nil, &resp); err != nil {
		return nil, fmt.Errorf("get scheduler: %w", err)
	}
	return &resp, nil
}

// UpdateScheduler pauses or resumes scheduling cluster wide.
func (c *Client) UpdateScheduler(ctx context.Context, paused bool) (*model.Scheduler, error) {
	var resp model.Scheduler
	if err := c.Patch(ctx, "scheduler/", model.Scheduler{IsPaused: paused}, &resp); err != nil {
		return nil, fmt.Errorf("update scheduler: %w", err)
	}
	return &resp, nil
}
