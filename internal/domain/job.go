package domain

import "time"

// Job is the observable state of one background ingestion run.
type Job struct {
	ID          string     `json:"id"`
	RepoID      string     `json:"repo_id"`
	SourceURL   string     `json:"source_url"`
	Status      string     `json:"status"` // running, complete, failed
	Step        string     `json:"step,omitempty"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Job status constants.
const (
	JobStatusRunning  = "running"
	JobStatusComplete = "complete"
	JobStatusFailed   = "failed"
)

// Done reports whether the job reached a terminal status.
func (j *Job) Done() bool {
	return j.Status == JobStatusComplete || j.Status == JobStatusFailed
}
