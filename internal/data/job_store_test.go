package data

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewgate/reviewgate/internal/domain/model"
)

func newJob(id string, status model.JobStatus) *model.Job {
	return &model.Job{
		ID:        id,
		Status:    status,
		Logs:      []string{"Job created"},
		CreatedAt: time.Now(),
	}
}

func TestMemoryJobStore_CreateAndGet(t *testing.T) {
	store := NewMemoryJobStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newJob("job-1", model.JobStatusPending)))

	got, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "job-1", got.ID)
	assert.Equal(t, model.JobStatusPending, got.Status)
	assert.Equal(t, []string{"Job created"}, got.Logs)
}

func TestMemoryJobStore_Create_RejectsDuplicate(t *testing.T) {
	store := NewMemoryJobStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newJob("job-1", model.JobStatusPending)))

	err := store.Create(ctx, newJob("job-1", model.JobStatusPending))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrJobExists)
}

func TestMemoryJobStore_Get_NotFound(t *testing.T) {
	store := NewMemoryJobStore()

	_, err := store.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestMemoryJobStore_Get_SnapshotIsolation(t *testing.T) {
	store := NewMemoryJobStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newJob("job-1", model.JobStatusPending)))

	snap, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	snap.Status = model.JobStatusFailed
	snap.Logs[0] = "mutated"

	fresh, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusPending, fresh.Status)
	assert.Equal(t, "Job created", fresh.Logs[0])
}

func TestMemoryJobStore_Update(t *testing.T) {
	store := NewMemoryJobStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newJob("job-1", model.JobStatusPending)))

	err := store.Update(ctx, "job-1", func(j *model.Job) {
		j.Status = model.JobStatusRunning
		j.AppendLog("Forwarding workspace to analysis service...")
	})
	require.NoError(t, err)

	got, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusRunning, got.Status)
	assert.Len(t, got.Logs, 2)
}

func TestMemoryJobStore_Update_UnknownIDIsNoop(t *testing.T) {
	store := NewMemoryJobStore()

	called := false
	err := store.Update(context.Background(), "missing", func(j *model.Job) {
		called = true
	})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestMemoryJobStore_Update_TerminalGuard(t *testing.T) {
	store := NewMemoryJobStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newJob("job-1", model.JobStatusPending)))
	require.NoError(t, store.Cancel(ctx, "job-1"))

	// A late worker completion must not overwrite the cancelled state.
	err := store.Update(ctx, "job-1", func(j *model.Job) {
		j.Status = model.JobStatusCompleted
		j.Result = &model.ScanResult{Findings: []model.Finding{{File: "a.go"}}}
		j.Error = "should not land"
		j.AppendLog("Analysis completed")
	})
	require.NoError(t, err)

	got, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCancelled, got.Status)
	assert.Nil(t, got.Result)
	assert.Empty(t, got.Error)
	// Log appends still land on terminal records.
	assert.Equal(t, "Analysis completed", got.LastLog())
}

func TestMemoryJobStore_Update_IdentityImmutable(t *testing.T) {
	store := NewMemoryJobStore()
	ctx := context.Background()

	job := newJob("job-1", model.JobStatusPending)
	createdAt := job.CreatedAt
	require.NoError(t, store.Create(ctx, job))

	err := store.Update(ctx, "job-1", func(j *model.Job) {
		j.ID = "hijacked"
		j.CreatedAt = time.Time{}
	})
	require.NoError(t, err)

	got, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "job-1", got.ID)
	assert.WithinDuration(t, createdAt, got.CreatedAt, time.Millisecond)
}

func TestMemoryJobStore_Cancel(t *testing.T) {
	store := NewMemoryJobStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newJob("job-1", model.JobStatusRunning)))
	require.NoError(t, store.Cancel(ctx, "job-1"))

	got, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCancelled, got.Status)
	assert.Equal(t, "Job cancelled by user", got.LastLog())
}

func TestMemoryJobStore_Cancel_Idempotent(t *testing.T) {
	store := NewMemoryJobStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newJob("job-1", model.JobStatusRunning)))
	require.NoError(t, store.Cancel(ctx, "job-1"))
	require.NoError(t, store.Cancel(ctx, "job-1"))

	got, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCancelled, got.Status)
	// Only one cancellation log line despite two calls.
	count := 0
	for _, line := range got.Logs {
		if line == "Job cancelled by user" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestMemoryJobStore_Cancel_DoesNotOverrideCompleted(t *testing.T) {
	store := NewMemoryJobStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newJob("job-1", model.JobStatusPending)))
	require.NoError(t, store.Update(ctx, "job-1", func(j *model.Job) {
		j.Status = model.JobStatusCompleted
	}))

	require.NoError(t, store.Cancel(ctx, "job-1"))

	got, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, got.Status)
}

func TestMemoryJobStore_Cancel_UnknownIDIsNoop(t *testing.T) {
	store := NewMemoryJobStore()
	require.NoError(t, store.Cancel(context.Background(), "missing"))
}

func TestMemoryJobStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryJobStore()
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("job-%d", n)
			assert.NoError(t, store.Create(ctx, newJob(id, model.JobStatusPending)))
			for k := 0; k < 50; k++ {
				_ = store.Update(ctx, id, func(j *model.Job) {
					j.AppendLog("tick")
				})
				_, _ = store.Get(ctx, id)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		got, err := store.Get(ctx, fmt.Sprintf("job-%d", i))
		require.NoError(t, err)
		assert.Len(t, got.Logs, 51)
	}
}
