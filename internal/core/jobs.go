// Package core defines the ports between the relay's HTTP surface, the job
// store, and the upstream analysis client. The core owns the interfaces;
// internal/data and internal/upstream provide the implementations.
package core

import (
	"context"

	"github.com/reviewgate/reviewgate/internal/domain/model"
)

// JobStore is the single shared-mutable-state boundary for job records.
// All record access is mediated through it; no component holds a long-lived
// reference to a record and mutates it directly.
type JobStore interface {
	// Create inserts a new record. Duplicate ids are rejected with a
	// conflict error.
	Create(ctx context.Context, job *model.Job) error

	// Get returns a deep-copied snapshot of the record, or
	// data.ErrJobNotFound for unknown ids.
	Get(ctx context.Context, id string) (*model.Job, error)

	// Update applies fn to the record under exclusive access. Unknown ids
	// are a silent no-op. Once a record is terminal, status, result, and
	// error are immutable; log appends still land.
	Update(ctx context.Context, id string, fn func(*model.Job)) error

	// Cancel marks the record cancelled unless it is already terminal.
	// Idempotent; unknown ids are a no-op.
	Cancel(ctx context.Context, id string) error
}

// SubmitRequest carries everything needed to relay a spooled upload to the
// analysis service's submit endpoint.
type SubmitRequest struct {
	// RequestID is the gateway job id, propagated as X-Request-ID.
	RequestID string
	// SpoolPath is the transient on-disk copy of the upload.
	SpoolPath string

	// Auxiliary context fields collected at ingestion time. Always
	// forwarded, even when empty.
	GitLog      string
	GitDiff     string
	ForceReview string
}

// UpstreamStatus is the poll response of the analysis service.
type UpstreamStatus struct {
	Status model.JobStatus   `json:"status"`
	Logs   []string          `json:"logs,omitempty"`
	Result *model.ScanResult `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// AnalysisClient is the outbound contract the relay depends on.
type AnalysisClient interface {
	// Submit streams the spooled upload to the analysis service and
	// returns the upstream-assigned job id. Failures are never retried.
	Submit(ctx context.Context, req *SubmitRequest) (string, error)

	// Status fetches the upstream job's current state.
	Status(ctx context.Context, upstreamID, requestID string) (*UpstreamStatus, error)
}
