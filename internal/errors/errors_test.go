package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without cause",
			err: &AppError{
				Code:    ErrCodeNotFound,
				Message: "job not found",
			},
			want: "job not found",
		},
		{
			name: "error with cause",
			err: &AppError{
				Code:    ErrCodeUpstream,
				Message: "analysis service unreachable",
				Cause:   errors.New("connection refused"),
			},
			want: "analysis service unreachable: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(cause, ErrCodeInternal, "wrapped error")

	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(Wrap(cause), cause) = false, want true")
	}
}

func TestWrap_NilIsNil(t *testing.T) {
	if err := Wrap(nil, ErrCodeInternal, "ignored"); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
	if err := Wrapf(nil, ErrCodeInternal, "ignored %d", 1); err != nil {
		t.Errorf("Wrapf(nil) = %v, want nil", err)
	}
}

func TestCodePredicates(t *testing.T) {
	tests := []struct {
		err   error
		check func(error) bool
		want  bool
	}{
		{NotFoundf("job %s not found", "x"), IsNotFound, true},
		{Conflictf("job %s exists", "x"), IsConflict, true},
		{Validation("file is required"), IsValidation, true},
		{Upstreamf("analysis service error (%d)", 502), IsUpstream, true},
		{Timeoutf("analysis timed out after %s", "10m"), IsTimeout, true},
		{Canceled("gateway shutting down"), IsCanceled, true},
		{errors.New("plain"), IsUpstream, false},
		{nil, IsNotFound, false},
	}

	for i, tt := range tests {
		if got := tt.check(tt.err); got != tt.want {
			t.Errorf("case %d: predicate(%v) = %v, want %v", i, tt.err, got, tt.want)
		}
	}
}

func TestCodePredicates_WrappedChains(t *testing.T) {
	err := fmt.Errorf("poll job: %w", Upstreamf("analysis service status returned %d", 503))
	if !IsUpstream(err) {
		t.Errorf("IsUpstream(wrapped) = false, want true")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(Timeoutf("deadline")); got != ErrCodeTimeout {
		t.Errorf("GetCode() = %v, want %v", got, ErrCodeTimeout)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %v, want empty", got)
	}
	if got := GetCode(nil); got != "" {
		t.Errorf("GetCode(nil) = %v, want empty", got)
	}
}
