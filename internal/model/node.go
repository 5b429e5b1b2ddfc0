package model

import "time"

// Node is a cluster host that runs job executions.
type Node struct {
	ID             int64      `json:"id"`
	Hostname       string     `json:"hostname"`
	Port           int        `json:"port"`
	SlaveID        string     `json:"slave_id"`
	PauseReason    string     `json:"pause_reason"`
	IsPaused       bool       `json:"is_paused"`
	IsPausedErrors bool       `json:"is_paused_errors"`
	IsActive       bool       `json:"is_active"`
	Archived       *time.Time `json:"archived"`
	Created        time.Time  `json:"created"`
	LastModified   time.Time  `json:"last_modified"`
}

// NodeUpdate is the PATCH body that pauses or resumes a node.
type NodeUpdate struct {
	IsPaused    bool   `json:"is_paused"`
	PauseReason string `json:"pause_reason"`
}

// NodeStatus is one entry of nodes/status/.
type NodeStatus struct {
	Node           Node           `json:"node"`
	IsOnline       bool           `json:"is_online"`
	JobExeCounts   []StatusCount  `json:"job_exe_counts"`
	JobExesRunning []JobExecution `json:"job_exes_running"`
}

func (s NodeStatus) count(status JobStatus) int {
	for _, c := range s.JobExeCounts {
		if c.Status == status {
			return c.Count
		}
	}
	return 0
}

func (s NodeStatus) Completed() int { return s.count(StatusCompleted) }
func (s NodeStatus) Failed() int    { return s.count(StatusFailed) }

// State is the label the node grid shows.
func (s NodeStatus) State() string {
	switch {
	case !s.IsOnline:
		return "Offline"
	case s.Node.IsPausedErrors:
		return "High Failure Rate"
	case s.Node.IsPaused:
		return "Paused"
	default:
		return "Online"
	}
}

type NodeStatusResponse struct {
	Count   int          `json:"count"`
	Results []NodeStatus `json:"results"`
}
