// ============================================================================
// Chronoqueue Core Type Definitions
// ============================================================================
//
// Package: pkg/job
// Purpose: Core domain model — the scheduled unit of work and its lifecycle
//
// Design Principles:
//   1. Domain-Driven Design (DDD) - Business concepts as types
//   2. Type Safety - Custom types prevent primitive obsession
//   3. JSON Serialization - Full serialization support
//
// Status Lifecycle:
//   Pending --dispatch--> Running --ok--> Success
//                            |
//                            +--err--> (retry_count < max_retries) --> Pending
//                                      (retry_count = max_retries) --> Failed
//
// Timestamps:
//   Unix seconds for cross-platform compatibility and JSON portability.
//
// ============================================================================

package job

import (
	"time"

	"github.com/google/uuid"
)

// ID uniquely identifies a Job.
type ID string

// Status represents a Job's position in its lifecycle.
type Status string

// Job status constants.
const (
	StatusPending Status = "Pending"
	StatusRunning Status = "Running"
	StatusSuccess Status = "Success"
	StatusFailed  Status = "Failed"
)

// Job is a unit of work tagged with an execution time, a priority, and a
// symbolic function name resolved against the worker registry at dispatch.
type Job struct {
	ID            ID     `json:"id"`
	ExecutionTime int64  `json:"execution_time"` // absolute instant, whole seconds, UTC epoch
	Priority      int    `json:"priority"`       // 0-255, higher preferred
	Description   string `json:"description"`
	Function      string `json:"function"`
	Status        Status `json:"status"`
	MaxRetries    int    `json:"max_retries"`
	RetryCount    int    `json:"retry_count"`

	// DispatchedAt is stamped by the engine immediately before a job is sent
	// to the worker. Not persisted: it exists only to let the worker compute
	// dispatch-to-terminal-outcome latency for metrics.
	DispatchedAt time.Time `json:"-"`
}

// New constructs a Pending job. execTime is interpreted by the caller: values
// >= 1e9 are absolute Unix timestamps, values < 1e9 are offsets in seconds
// from now (see ResolveExecutionTime, which internal/cli applies to input).
func New(execTime int64, priority int, description, function string, maxRetries int) Job {
	return Job{
		ID:            ID(uuid.NewString()),
		ExecutionTime: execTime,
		Priority:      priority,
		Description:   description,
		Function:      function,
		Status:        StatusPending,
		MaxRetries:    maxRetries,
	}
}

// MarkRunning transitions a Pending job to Running. Calling it on a job
// outside that transition is a programmer error and panics, so tests can
// catch state-machine violations immediately.
func (j *Job) MarkRunning() {
	if j.Status != StatusPending {
		panic("job: MarkRunning called on job not in Pending status")
	}
	j.Status = StatusRunning
}

// MarkSuccess transitions a Running job to the terminal Success status.
func (j *Job) MarkSuccess() {
	if j.Status != StatusRunning {
		panic("job: MarkSuccess called on job not in Running status")
	}
	j.Status = StatusSuccess
}

// MarkFailed transitions a Running job to the terminal Failed status.
func (j *Job) MarkFailed() {
	if j.Status != StatusRunning {
		panic("job: MarkFailed called on job not in Running status")
	}
	j.Status = StatusFailed
}

// MarkPendingForRetry transitions a Running job back to Pending after a
// failed attempt that still has retries left. Callers must check
// ShouldRetry() first.
func (j *Job) MarkPendingForRetry() {
	if j.Status != StatusRunning {
		panic("job: MarkPendingForRetry called on job not in Running status")
	}
	j.Status = StatusPending
}

// ShouldRetry reports whether the job has retry budget left.
func (j *Job) ShouldRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry bumps the retry counter. Callers must not exceed MaxRetries.
func (j *Job) IncrementRetry() {
	j.RetryCount++
}

// ResolveExecutionTime interprets a raw time field per spec: values >= 1e9
// are absolute Unix timestamps in seconds, values < 1e9 are offsets in
// seconds from now.
func ResolveExecutionTime(raw int64, now time.Time) int64 {
	const absoluteThreshold = 1_000_000_000
	if raw >= absoluteThreshold {
		return raw
	}
	return now.Unix() + raw
}
