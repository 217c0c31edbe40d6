// ABOUTME: RunRecord model describing one ingestion job invocation.
// ABOUTME: Persisted so the last success and last error survive between runs.
package models

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of an ingestion run.
type RunStatus string

const (
	RunRunning RunStatus = "running"
	RunSuccess RunStatus = "success"
	RunFailed  RunStatus = "failed"
)

// RunRecord is the persisted outcome of one `oura fetch`.
type RunRecord struct {
	ID          uuid.UUID      `json:"id"`
	StartedAt   time.Time      `json:"startedAt"`
	FinishedAt  *time.Time     `json:"finishedAt,omitempty"`
	Status      RunStatus      `json:"status"`
	StartDate   string         `json:"startDate"`
	EndDate     string         `json:"endDate"`
	Error       *string        `json:"error,omitempty"`
	FailureKind *string        `json:"failureKind,omitempty"`
	Counts      map[string]int `json:"counts"`
}

// NewRunRecord creates a running record for the given window.
func NewRunRecord(startDate, endDate string) *RunRecord {
	return &RunRecord{
		ID:        uuid.New(),
		StartedAt: time.Now(),
		Status:    RunRunning,
		StartDate: startDate,
		EndDate:   endDate,
		Counts:    make(map[string]int),
	}
}

// Succeed marks the run finished without error.
func (r *RunRecord) Succeed(at time.Time) *RunRecord {
	r.FinishedAt = &at
	r.Status = RunSuccess
	return r
}

// Fail marks the run finished with the given error and failure kind.
func (r *RunRecord) Fail(at time.Time, err error, kind string) *RunRecord {
	r.FinishedAt = &at
	r.Status = RunFailed
	if err != nil {
		msg := err.Error()
		r.Error = &msg
	}
	if kind != "" {
		r.FailureKind = &kind
	}
	return r
}

// Duration returns how long the run took, or zero while it is running.
func (r *RunRecord) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
