// Package httpx provides the HTTP surface of the reviewgate relay.
package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/reviewgate/reviewgate/internal/data"
	apperrors "github.com/reviewgate/reviewgate/internal/errors"
	"github.com/reviewgate/reviewgate/internal/service"
)

// JobHandlers provides HTTP handlers for relay job operations.
type JobHandlers struct {
	Svc *service.RelayService
	// MaxUploadBytes caps the inbound multipart body size.
	MaxUploadBytes int64
	Logger         *slog.Logger
}

// Submit handles multipart workspace uploads. It responds with the job id as
// soon as the upload is spooled and the record exists; it never waits for
// downstream processing. Any error after this response is surfaced through
// the job record and discovered by polling.
func (h *JobHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)

	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_form", Err: err})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_file",
			Err:     errors.New("missing 'file' in form data"),
		})
		return
	}
	defer file.Close()

	jobID, err := h.Svc.Enqueue(r.Context(), service.EnqueueParams{
		File:        file,
		Filename:    header.Filename,
		Size:        header.Size,
		GitLog:      r.FormValue("git_log"),
		GitDiff:     r.FormValue("git_diff"),
		ForceReview: r.FormValue("force_review"),
	})
	if err != nil {
		if apperrors.IsValidation(err) {
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_upload", Err: err})
			return
		}
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "enqueue_failed", Err: err})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"job_id": jobID})
}

// Status returns the full current job record snapshot. Idempotent and
// side-effect-free; clients poll it until a terminal status appears.
func (h *JobHandlers) Status(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("job id is required")},
		)
		return
	}

	job, err := h.Svc.Snapshot(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, data.ErrJobNotFound) {
			WriteError(
				w,
				ErrorParams{Code: http.StatusNotFound, ErrCode: "job_not_found", Err: errors.New("job not found")},
			)
			return
		}
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "get_status_failed", Err: err})
		return
	}

	WriteJSON(w, http.StatusOK, job)
}

// Cancel cooperatively cancels a job. Always returns 200: cancelling a
// finished or unknown job is a no-op, not an error.
func (h *JobHandlers) Cancel(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("job id is required")},
		)
		return
	}

	if err := h.Svc.Cancel(r.Context(), jobID); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "cancel_failed", Err: err})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
