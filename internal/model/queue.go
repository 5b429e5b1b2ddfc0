package model

import "time"

// QueueEntry is one job type's share of the queue.
type QueueEntry struct {
	JobType         JobType    `json:"job_type"`
	Count           int        `json:"count"`
	LongestQueued   *time.Time `json:"longest_queued"`
	HighestPriority int        `json:"highest_priority"`
	IsJobTypePaused bool       `json:"is_job_type_paused"`
}

type QueueStatus struct {
	Count   int          `json:"count"`
	Results []QueueEntry `json:"results"`
}

// Total sums the queued jobs over every job type.
func (q QueueStatus) Total() int {
	n := 0
	for _, e := range q.Results {
		n += e.Count
	}
	return n
}

// LoadPoint is one bucket of load/.
type LoadPoint struct {
	Time         time.Time `json:"time"`
	PendingCount int       `json:"pending_count"`
	QueuedCount  int       `json:"queued_count"`
	RunningCount int       `json:"running_count"`
}

func (p LoadPoint) Total() int {
	return p.PendingCount + p.QueuedCount + p.RunningCount
}

type JobLoad struct {
	Count   int         `json:"count"`
	Results []LoadPoint `json:"results"`
}

// Peak returns the largest bucket total, used to scale load bars.
func (l JobLoad) Peak() int {
	peak := 0
	for _, p := range l.Results {
		if t := p.Total(); t > peak {
			peak = t
		}
	}
	return peak
}

// Scheduler is the cluster-wide scheduler switch.
type Scheduler struct {
	IsPaused bool `json:"is_paused"`
}

type Resources struct {
	CPUs float64 `json:"cpus"`
	Mem  float64 `json:"mem"`
	Disk float64 `json:"disk"`
}

type MasterStatus struct {
	IsOnline bool   `json:"is_online"`
	Hostname string `json:"hostname"`
	Port     int    `json:"port"`
}

// SystemStatus is the payload of status/.
type SystemStatus struct {
	Master    MasterStatus `json:"master"`
	Scheduler struct {
		IsOnline bool   `json:"is_online"`
		IsPaused bool   `json:"is_paused"`
		Hostname string `json:"hostname"`
	} `json:"scheduler"`
	Queue     []QueueEntry `json:"queue_depth_by_job_type"`
	Resources struct {
		Total     Resources `json:"total"`
		Scheduled Resources `json:"scheduled"`
	} `json:"resources"`
}

// RunningEntry is one job type's share of the running jobs.
type RunningEntry struct {
	JobType        JobType    `json:"job_type"`
	Count          int        `json:"count"`
	LongestRunning *time.Time `json:"longest_running"`
}

// RunningStatus is the payload of job-types/running/.
type RunningStatus struct {
	Count   int            `json:"count"`
	Results []RunningEntry `json:"results"`
}

func (r RunningStatus) Total() int {
	n := 0
	for _, e := range r.Results {
		n += e.Count
	}
	return n
}

// StatusCount is the number of jobs of one type in one status. Failed
// counts are split by error category.
type StatusCount struct {
	Status     JobStatus  `json:"status"`
	Count      int        `json:"count"`
	MostRecent *time.Time `json:"most_recent"`
	Category   string     `json:"category"`
}

type JobTypeStatus struct {
	JobType   JobType       `json:"job_type"`
	JobCounts []StatusCount `json:"job_counts"`
}

// Failures sums the failed jobs by error category. total counts every
// job that finished, failed or not.
func (s JobTypeStatus) Failures() (byCategory map[string]int, failed, total int) {
	byCategory = map[string]int{}
	for _, c := range s.JobCounts {
		switch c.Status {
		case StatusFailed:
			byCategory[c.Category] += c.Count
			failed += c.Count
			total += c.Count
		case StatusCompleted, StatusCanceled:
			total += c.Count
		}
	}
	return byCategory, failed, total
}

// JobTypeStatusList is the payload of job-types/status/.
type JobTypeStatusList struct {
	Count   int             `json:"count"`
	Results []JobTypeStatus `json:"results"`
}

// User is the account behind the API token.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsStaff  bool   `json:"is_staff"`
}
