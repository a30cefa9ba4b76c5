// Package data provides job store implementations behind the core.JobStore port.
package data

import (
	"context"
	"fmt"
	"sync"

	"github.com/reviewgate/reviewgate/internal/domain/model"
)

// MemoryJobStore is an in-memory job registry protected by a reader/writer
// lock. Records live for the life of the process. It is the default backend;
// RedisJobStore offers the same contract with external retention.
type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]*model.Job
}

// NewMemoryJobStore creates an empty in-memory job store.
func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{jobs: make(map[string]*model.Job)}
}

// Create inserts a new record, rejecting duplicate ids.
func (s *MemoryJobStore) Create(_ context.Context, job *model.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID]; ok {
		return fmt.Errorf("create job %s: %w", job.ID, ErrJobExists)
	}
	s.jobs[job.ID] = job.Clone()
	return nil
}

// Get returns a deep-copied snapshot so concurrent readers never observe a
// torn record and callers cannot mutate store state.
func (s *MemoryJobStore) Get(_ context.Context, id string) (*model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("get job %s: %w", id, ErrJobNotFound)
	}
	return job.Clone(), nil
}

// Update applies fn under the write lock. Unknown ids are a silent no-op;
// the job may have been evicted in a longer-lived deployment.
func (s *MemoryJobStore) Update(_ context.Context, id string, fn func(*model.Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil
	}
	applyGuarded(job, fn)
	return nil
}

// Cancel marks the record cancelled unless already terminal. Idempotent.
func (s *MemoryJobStore) Cancel(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil
	}
	cancelJob(job)
	return nil
}

// applyGuarded runs fn against the record while enforcing the terminal
// invariant: once a job is completed, failed, or cancelled, its status,
// result, and error never change again. Log appends still land, and id and
// creation time are immutable throughout.
func applyGuarded(job *model.Job, fn func(*model.Job)) {
	id, createdAt := job.ID, job.CreatedAt
	status, result, errMsg := job.Status, job.Result, job.Error

	fn(job)

	job.ID = id
	job.CreatedAt = createdAt
	if status.Terminal() {
		job.Status = status
		job.Result = result
		job.Error = errMsg
	}
}

func cancelJob(job *model.Job) {
	if job.Status.Terminal() {
		return
	}
	job.Status = model.JobStatusCancelled
	job.AppendLog("Job cancelled by user")
}
