package model

import "time"

// RunStatus represents the state of a pipeline run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run records a single pipeline execution for observability and the
// refresh endpoint's status report.
type Run struct {
	ID         string    `json:"id"`
	Status     RunStatus `json:"status"`
	LeadsTotal int       `json:"leads_total"`
	LeadsKept  int       `json:"leads_kept"`
	Message    string    `json:"message,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}
