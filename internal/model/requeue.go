package model

import "time"

// RequeueRequest is the body of queue/requeue-jobs/. Every field is a filter;
// an empty request requeues every failed or canceled job.
type RequeueRequest struct {
	Started           *time.Time `json:"started,omitempty"`
	Ended             *time.Time `json:"ended,omitempty"`
	Status            JobStatus  `json:"status,omitempty"`
	ErrorCategories   []string   `json:"error_categories,omitempty"`
	JobIDs            []int64    `json:"job_ids,omitempty"`
	JobTypeIDs        []int64    `json:"job_type_ids,omitempty"`
	JobTypeNames      []string   `json:"job_type_names,omitempty"`
	JobTypeCategories []string   `json:"job_type_categories,omitempty"`
	Priority          *int       `json:"priority,omitempty"`
}

// Empty reports whether no filter is set.
func (r RequeueRequest) Empty() bool {
	return r.Started == nil && r.Ended == nil && r.Status == "" &&
		len(r.ErrorCategories) == 0 && len(r.JobIDs) == 0 && len(r.JobTypeIDs) == 0 &&
		len(r.JobTypeNames) == 0 && len(r.JobTypeCategories) == 0 && r.Priority == nil
}
