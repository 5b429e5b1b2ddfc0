package model

import "time"

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	StatusPending   JobStatus = "PENDING"
	StatusBlocked   JobStatus = "BLOCKED"
	StatusQueued    JobStatus = "QUEUED"
	StatusRunning   JobStatus = "RUNNING"
	StatusCompleted JobStatus = "COMPLETED"
	StatusFailed    JobStatus = "FAILED"
	StatusCanceled  JobStatus = "CANCELED"
)

// JobStatuses lists every status in the order the filter overlay shows them.
var JobStatuses = []JobStatus{
	StatusCompleted, StatusBlocked, StatusQueued, StatusRunning,
	StatusFailed, StatusCanceled, StatusPending,
}

// Terminal reports whether a job in this state can no longer change.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCanceled
}

// Cancelable reports whether a cancel request makes sense for the status.
func (s JobStatus) Cancelable() bool {
	return !s.Terminal()
}

// ErrorCategories are the error categories Scale assigns to failures.
var ErrorCategories = []string{"SYSTEM", "ALGORITHM", "DATA"}

type ErrorInfo struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type JobType struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Version       string `json:"version"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Category      string `json:"category"`
	Author        string `json:"author_name"`
	IsSystem      bool   `json:"is_system"`
	IsLongRun     bool   `json:"is_long_running"`
	IsActive      bool   `json:"is_active"`
	IsOperational bool   `json:"is_operational"`
	IsPaused      bool   `json:"is_paused"`
	IconCode      string `json:"icon_code"`
	Priority      int    `json:"priority"`
	MaxTries      int    `json:"max_tries"`
}

// Label is the "title version" text shown for a job type.
func (t JobType) Label() string {
	name := t.Title
	if name == "" {
		name = t.Name
	}
	if t.Version == "" {
		return name
	}
	return name + " " + t.Version
}

type JobExecution struct {
	ID           int64      `json:"id"`
	Status       JobStatus  `json:"status"`
	Command      string     `json:"command_arguments"`
	Timeout      int        `json:"timeout"`
	Created      time.Time  `json:"created"`
	Queued       *time.Time `json:"queued"`
	Started      *time.Time `json:"started"`
	Ended        *time.Time `json:"ended"`
	LastModified time.Time  `json:"last_modified"`
	Node         *NodeRef   `json:"node"`
	Error        *ErrorInfo `json:"error"`
}

// Duration is the run time of the execution; running executions are measured
// up to now.
func (e JobExecution) Duration(now time.Time) time.Duration {
	if e.Started == nil {
		return 0
	}
	end := now
	if e.Ended != nil {
		end = *e.Ended
	}
	if end.Before(*e.Started) {
		return 0
	}
	return end.Sub(*e.Started)
}

type NodeRef struct {
	ID       int64  `json:"id"`
	Hostname string `json:"hostname"`
}

type Job struct {
	ID               int64          `json:"id"`
	JobType          JobType        `json:"job_type"`
	Status           JobStatus      `json:"status"`
	Priority         int            `json:"priority"`
	NumExes          int            `json:"num_exes"`
	MaxTries         int            `json:"max_tries"`
	Timeout          int            `json:"timeout"`
	CPUsRequired     float64        `json:"cpus_required"`
	MemRequired      float64        `json:"mem_required"`
	DiskInRequired   float64        `json:"disk_in_required"`
	DiskOutRequired  float64        `json:"disk_out_required"`
	Error            *ErrorInfo     `json:"error"`
	Created          time.Time      `json:"created"`
	Queued           *time.Time     `json:"queued"`
	Started          *time.Time     `json:"started"`
	Ended            *time.Time     `json:"ended"`
	LastStatusChange *time.Time     `json:"last_status_change"`
	LastModified     time.Time      `json:"last_modified"`
	Executions       []JobExecution `json:"job_exes"`
}

// Duration runs from creation to the last modification, the way the job
// details page computes it.
func (j Job) Duration() time.Duration {
	if j.Created.IsZero() || j.LastModified.Before(j.Created) {
		return 0
	}
	return j.LastModified.Sub(j.Created)
}

func (j Job) Failed() bool {
	return j.Status == StatusFailed
}

// LatestExecution returns the newest execution. Scale lists executions newest
// first.
func (j Job) LatestExecution() (JobExecution, bool) {
	if j.NumExes == 0 || len(j.Executions) == 0 {
		return JobExecution{}, false
	}
	return j.Executions[0], true
}

// JobUpdate is the PATCH body for jobs/{id}/.
type JobUpdate struct {
	Status JobStatus `json:"status"`
}
