// Package service contains the relay orchestration: upload ingestion and the
// per-job poll-bridge workers that mirror upstream analysis progress into the
// job store.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/reviewgate/reviewgate/config"
	"github.com/reviewgate/reviewgate/internal/core"
	"github.com/reviewgate/reviewgate/internal/domain/model"
	apperrors "github.com/reviewgate/reviewgate/internal/errors"
	"github.com/reviewgate/reviewgate/internal/observability/metrics"
	"github.com/reviewgate/reviewgate/internal/observability/statsd"
	"github.com/reviewgate/reviewgate/internal/upstream"
)

// RelayServiceOptions groups dependencies for RelayService.
type RelayServiceOptions struct {
	Store    core.JobStore       // Required: job record registry
	Upstream core.AnalysisClient // Required: analysis service client
	Config   config.RelayConfig
	Logger   *slog.Logger // Optional: structured logger
	Metrics  statsd.Sink  // Optional: metrics sink (StatsD-compatible)
}

// RelayService accepts workspace uploads, spools them to transient local
// storage, and runs one poll-bridge worker per job. Workers are the sole
// writers of their job's record; the cancel path only ever flips a record to
// cancelled through the store.
type RelayService struct {
	store    core.JobStore
	upstream core.AnalysisClient
	cfg      config.RelayConfig
	spoolDir string
	logger   *slog.Logger
	metrics  statsd.Sink

	// slots bounds concurrent active relays; excess jobs wait in pending.
	slots *semaphore.Weighted

	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup
}

// NewRelayService constructs a new RelayService.
func NewRelayService(opts RelayServiceOptions) (*RelayService, error) {
	if opts.Store == nil {
		return nil, errors.New("JobStore is required")
	}
	if opts.Upstream == nil {
		return nil, errors.New("AnalysisClient is required")
	}

	cfg := opts.Config
	cfg.Sanitize()

	spoolDir := cfg.SpoolDir
	if spoolDir == "" {
		spoolDir = os.TempDir()
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, stop := context.WithCancel(context.Background())
	return &RelayService{
		store:    opts.Store,
		upstream: opts.Upstream,
		cfg:      cfg,
		spoolDir: spoolDir,
		logger:   logger.With("component", "relay_service"),
		metrics:  opts.Metrics,
		slots:    semaphore.NewWeighted(cfg.MaxActive),
		baseCtx:  ctx,
		stop:     stop,
	}, nil
}

// EnqueueParams carries a parsed upload into the relay.
type EnqueueParams struct {
	File     io.Reader
	Filename string
	Size     int64

	GitLog      string
	GitDiff     string
	ForceReview string
}

// Enqueue persists the upload to the spool, creates the job record, and
// schedules the poll-bridge worker. It returns as soon as the record exists;
// all later errors surface through the record, never through the caller.
func (s *RelayService) Enqueue(ctx context.Context, p EnqueueParams) (string, error) {
	if p.File == nil {
		return "", apperrors.Validation("file is required")
	}

	jobID := uuid.New().String()
	spoolPath := filepath.Join(s.spoolDir, jobID+".zip")

	size, err := s.spool(spoolPath, p.File)
	if err != nil {
		return "", err
	}
	if p.Size > 0 {
		size = p.Size
	}

	job := &model.Job{
		ID:     jobID,
		Status: model.JobStatusPending,
		Logs: []string{
			"Job created",
			fmt.Sprintf("Received file: %s (%d bytes)", p.Filename, size),
		},
		CreatedAt: time.Now(),
	}
	if err := s.store.Create(ctx, job); err != nil {
		if rerr := os.Remove(spoolPath); rerr != nil {
			s.logger.ErrorContext(ctx, "remove spool after create failure", "job_id", jobID, "error", rerr)
		}
		return "", err
	}

	s.logger.InfoContext(ctx, "upload accepted",
		"job_id", jobID, "filename", p.Filename, "size", size, "spool_path", spoolPath)

	s.wg.Add(1)
	go s.runJob(jobID, spoolPath, p)

	return jobID, nil
}

func (s *RelayService) spool(path string, src io.Reader) (int64, error) {
	out, err := os.Create(path)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrCodeInternal, "create spool file")
	}

	written, err := io.Copy(out, src)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if rerr := os.Remove(path); rerr != nil {
			s.logger.Error("remove partial spool file", "path", path, "error", rerr)
		}
		return 0, apperrors.Wrap(err, apperrors.ErrCodeInternal, "persist upload")
	}
	return written, nil
}

// Snapshot returns the current job record snapshot.
func (s *RelayService) Snapshot(ctx context.Context, id string) (*model.Job, error) {
	return s.store.Get(ctx, id)
}

// Cancel cooperatively cancels a job. The worker observes the flag before its
// next poll tick, so cancellation latency is bounded by the poll interval.
// Cancelling a finished or unknown job is a no-op.
func (s *RelayService) Cancel(ctx context.Context, id string) error {
	if err := s.store.Cancel(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "job cancel requested", "job_id", id)
	return nil
}

// Shutdown stops accepting new transitions and waits for in-flight workers
// to observe the stop signal, up to the context deadline.
func (s *RelayService) Shutdown(ctx context.Context) error {
	s.stop()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("relay shutdown: %w", ctx.Err())
	}
}

// runJob is the per-job worker: submitting -> polling -> terminal.
// Exactly one terminal transition occurs; the store's terminal guard makes a
// late upstream "completed" after a cancel a no-op.
func (s *RelayService) runJob(jobID, spoolPath string, p EnqueueParams) {
	defer s.wg.Done()
	defer func() {
		if err := os.Remove(spoolPath); err != nil && !os.IsNotExist(err) {
			s.logger.Error("remove spool file", "job_id", jobID, "error", err)
		}
	}()

	ctx := s.baseCtx

	if err := s.slots.Acquire(ctx, 1); err != nil {
		s.fail(jobID, apperrors.Canceled("gateway shutting down"))
		return
	}
	defer s.slots.Release(1)

	if s.finished(jobID) {
		return
	}

	s.update(jobID, func(j *model.Job) {
		j.Status = model.JobStatusRunning
		j.AppendLog("Forwarding workspace to analysis service...")
	})

	upstreamID, err := s.upstream.Submit(ctx, &core.SubmitRequest{
		RequestID:   jobID,
		SpoolPath:   spoolPath,
		GitLog:      p.GitLog,
		GitDiff:     p.GitDiff,
		ForceReview: p.ForceReview,
	})
	if err != nil {
		s.fail(jobID, err)
		return
	}

	s.logger.Info("analysis service accepted job", "job_id", jobID, "upstream_id", upstreamID)
	s.update(jobID, func(j *model.Job) {
		j.AppendLog(fmt.Sprintf("Analysis started (upstream job %s). Polling for results...", upstreamID))
	})

	s.poll(ctx, jobID, upstreamID)
}

func (s *RelayService) poll(ctx context.Context, jobID, upstreamID string) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	deadline := time.NewTimer(s.cfg.PollTimeout)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			s.fail(jobID, apperrors.Canceled("gateway shutting down"))
			return

		case <-deadline.C:
			s.fail(jobID, apperrors.Timeoutf("analysis timed out after %s", s.cfg.PollTimeout))
			return

		case <-ticker.C:
			if s.finished(jobID) {
				s.logger.Info("job cancelled, stopping poll", "job_id", jobID, "upstream_id", upstreamID)
				s.emit("cancelled", metrics.ResultSuccess, nil, 0)
				return
			}

			status, err := s.upstream.Status(ctx, upstreamID, jobID)
			if err != nil {
				if errors.Is(err, upstream.ErrInvalidStatusPayload) {
					s.fail(jobID, err)
					return
				}
				// Transient transport errors never terminate the job;
				// the poll ceiling bounds how long we keep trying.
				s.logger.Warn("poll failed, will retry", "job_id", jobID, "upstream_id", upstreamID, "error", err)
				continue
			}

			switch status.Status {
			case model.JobStatusCompleted:
				s.complete(jobID, status)
				return
			case model.JobStatusFailed:
				msg := status.Error
				if msg == "" {
					msg = "analysis service reported failure"
				}
				s.fail(jobID, apperrors.Upstreamf("%s", msg))
				return
			default:
				s.update(jobID, func(j *model.Job) {
					mergeLastLog(j, status.Logs)
					j.Status = model.JobStatusRunning
				})
			}
		}
	}
}

func (s *RelayService) complete(jobID string, status *core.UpstreamStatus) {
	var createdAt time.Time
	s.update(jobID, func(j *model.Job) {
		createdAt = j.CreatedAt
		mergeLastLog(j, status.Logs)
		j.Result = status.Result
		j.Status = model.JobStatusCompleted
		j.AppendLog("Analysis completed")
	})

	s.logger.Info("job completed", "job_id", jobID)
	s.emit("completed", metrics.ResultSuccess, nil, sinceCreated(createdAt))
}

func (s *RelayService) fail(jobID string, cause error) {
	var createdAt time.Time
	s.update(jobID, func(j *model.Job) {
		createdAt = j.CreatedAt
		j.Status = model.JobStatusFailed
		j.Error = cause.Error()
		j.AppendLog("Analysis failed: " + cause.Error())
	})

	s.logger.Error("job failed", "job_id", jobID, "error", cause)
	s.emit("failed", metrics.ResultError, cause, sinceCreated(createdAt))
}

func (s *RelayService) update(jobID string, fn func(*model.Job)) {
	if err := s.store.Update(context.Background(), jobID, fn); err != nil {
		s.logger.Error("update job record", "job_id", jobID, "error", err)
	}
}

// finished reports whether the record has reached a terminal state (or no
// longer exists), meaning the worker should stop without further writes.
func (s *RelayService) finished(jobID string) bool {
	snap, err := s.store.Get(context.Background(), jobID)
	if err != nil {
		return true
	}
	return snap.Status.Terminal()
}

func (s *RelayService) emit(transition, result string, err error, duration time.Duration) {
	metrics.EmitJobLifecycle(s.metrics, metrics.JobMetric{
		Transition: transition,
		Result:     result,
		Duration:   duration,
		Err:        err,
	})
}

// sinceCreated guards against records whose mutator never ran (unknown id).
func sinceCreated(createdAt time.Time) time.Duration {
	if createdAt.IsZero() {
		return 0
	}
	return time.Since(createdAt)
}

// mergeLastLog appends the upstream's most recent log line when it differs
// from the record's last line, so repeated polls don't spam duplicates.
func mergeLastLog(j *model.Job, upstreamLogs []string) {
	if len(upstreamLogs) == 0 {
		return
	}
	last := upstreamLogs[len(upstreamLogs)-1]
	if j.LastLog() != last {
		j.AppendLog(last)
	}
}
