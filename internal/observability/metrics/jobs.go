// Package metrics provides helpers for emitting relay job lifecycle metrics.
package metrics

import (
	"time"

	apperrors "github.com/reviewgate/reviewgate/internal/errors"
	"github.com/reviewgate/reviewgate/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// JobMetric captures details about a job lifecycle event for metric emission.
type JobMetric struct {
	// Transition is the terminal state reached: completed, failed, cancelled.
	Transition string
	Result     string
	// Duration is the time from job creation to the terminal transition.
	Duration time.Duration
	Err      error
}

// EmitJobLifecycle emits standardised job lifecycle metrics. A nil sink is a no-op.
func EmitJobLifecycle(sink statsd.Sink, in JobMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"transition": in.Transition,
		"result":     in.Result,
	}
	if in.Err != nil && in.Result == ResultError {
		if code := apperrors.GetCode(in.Err); code != "" {
			tags["error_class"] = string(code)
		}
	}

	sink.Count("job.transition", 1, tags)
	if in.Duration > 0 {
		sink.Timing("job.duration", in.Duration, tags)
	}
}
