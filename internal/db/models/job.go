package models

import (
	"fmt"
	"time"
)

// JobStatus represents the current state of an automation job as reported by
// the provider. The value is carried verbatim: statuses outside the known set
// are persisted as-is so an unexpected upstream value never wedges a record.
type JobStatus string

// Job status constants
const (
	// JobStatusNew indicates the job has been submitted but not picked up yet
	JobStatusNew JobStatus = "New"
	// JobStatusActivating indicates the job is being activated by the provider
	JobStatusActivating JobStatus = "Activating"
	// JobStatusRunning indicates the job is currently executing
	JobStatusRunning JobStatus = "Running"
	// JobStatusCompleted indicates the job has finished successfully
	JobStatusCompleted JobStatus = "Completed"
	// JobStatusFailed indicates the job has failed
	JobStatusFailed JobStatus = "Failed"
)

// String returns the string representation of the job status
func (s JobStatus) String() string {
	return string(s)
}

// Known reports whether the status is one of the recognized provider statuses
func (s JobStatus) Known() bool {
	switch s {
	case JobStatusNew, JobStatusActivating, JobStatusRunning, JobStatusCompleted, JobStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status means the job will receive no further
// updates and tracking can stop
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// JobRecord is the unit of tracked work: one in-flight automation job plus the
// submission metadata needed to render chat updates for it.
type JobRecord struct {
	JobID             string    `json:"jobId"`
	Runbook           string    `json:"runbook"`
	Channel           string    `json:"channel"`
	RequestedBy       string    `json:"requestedBy"`
	PostedAt          time.Time `json:"posted"`
	Status            JobStatus `json:"status"`
	ProvisioningState string    `json:"provisioningState,omitempty"`
}

// Validate ensures that the record data is valid
func (r *JobRecord) Validate() error {
	if r.JobID == "" {
		return fmt.Errorf("job id cannot be empty")
	}
	if r.Runbook == "" {
		return fmt.Errorf("runbook cannot be empty")
	}
	return nil
}
