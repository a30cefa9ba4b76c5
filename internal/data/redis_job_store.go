package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/reviewgate/reviewgate/internal/domain/model"
)

const redisJobKeyPrefix = "reviewgate:job:"

// RedisJobStore keeps job records in Redis behind the same core.JobStore
// contract as MemoryJobStore, so the backend can be swapped without touching
// callers. Records carry a TTL so finished jobs age out instead of
// accumulating forever.
//
// Mutations are serialized by an in-process mutex. Each job has a single
// writer (its worker goroutine, plus the cancel path), so cross-process
// coordination is not needed here.
type RedisJobStore struct {
	client redis.UniversalClient
	ttl    time.Duration
	mu     sync.Mutex
}

// RedisJobStoreOptions groups dependencies for NewRedisJobStore.
type RedisJobStoreOptions struct {
	Client redis.UniversalClient
	// TTL bounds record retention. Zero means no expiry.
	TTL time.Duration
}

// NewRedisJobStore creates a Redis-backed job store.
func NewRedisJobStore(opts RedisJobStoreOptions) (*RedisJobStore, error) {
	if opts.Client == nil {
		return nil, errors.New("redis client is required")
	}
	return &RedisJobStore{client: opts.Client, ttl: opts.TTL}, nil
}

// Create inserts a new record, rejecting duplicate ids atomically via SETNX.
func (s *RedisJobStore) Create(ctx context.Context, job *model.Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", job.ID, err)
	}

	ok, err := s.client.SetNX(ctx, redisJobKey(job.ID), raw, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("create job %s: %w", job.ID, err)
	}
	if !ok {
		return fmt.Errorf("create job %s: %w", job.ID, ErrJobExists)
	}
	return nil
}

// Get returns the stored record. Unmarshalling yields a fresh copy, so the
// snapshot semantics match MemoryJobStore.
func (s *RedisJobStore) Get(ctx context.Context, id string) (*model.Job, error) {
	raw, err := s.client.Get(ctx, redisJobKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get job %s: %w", id, ErrJobNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}

	var job model.Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &job, nil
}

// Update applies fn through a read-modify-write cycle under the store mutex.
// Unknown (or expired) ids are a silent no-op.
func (s *RedisJobStore) Update(ctx context.Context, id string, fn func(*model.Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutate(ctx, id, func(job *model.Job) {
		applyGuarded(job, fn)
	})
}

// Cancel marks the record cancelled unless already terminal. Idempotent.
func (s *RedisJobStore) Cancel(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutate(ctx, id, cancelJob)
}

func (s *RedisJobStore) mutate(ctx context.Context, id string, fn func(*model.Job)) error {
	job, err := s.Get(ctx, id)
	if errors.Is(err, ErrJobNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	fn(job)

	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", id, err)
	}
	if err := s.client.Set(ctx, redisJobKey(id), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("store job %s: %w", id, err)
	}
	return nil
}

func redisJobKey(id string) string {
	return redisJobKeyPrefix + id
}
