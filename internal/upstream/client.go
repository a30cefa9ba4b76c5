// Package upstream implements the HTTP client for the analysis service the
// relay submits work to and polls for results.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/reviewgate/reviewgate/internal/core"
	apperrors "github.com/reviewgate/reviewgate/internal/errors"
)

const (
	submitPath = "/submit"
	statusPath = "/status/"

	// errorBodySnippetLimit bounds how much of an upstream error body is
	// carried into job logs and error messages.
	errorBodySnippetLimit = 800
)

// ErrInvalidStatusPayload marks a poll response whose body could not be
// decoded. Callers treat it as terminal, unlike transport errors which are
// retried on the next tick.
var ErrInvalidStatusPayload = errors.New("invalid status payload")

// Config describes how to reach the analysis service.
type Config struct {
	// BaseURL is the analysis service root, e.g. "http://ai-core:3000".
	BaseURL string
	// SubmitTimeout bounds the streaming submit call.
	SubmitTimeout time.Duration
	// StatusTimeout bounds a single poll request.
	StatusTimeout time.Duration
	Logger        *slog.Logger
}

// Client talks to the analysis service. Safe for concurrent use.
type Client struct {
	baseURL      string
	submitClient *http.Client
	statusClient *http.Client
	logger       *slog.Logger
}

var _ core.AnalysisClient = (*Client)(nil)

// NewClient creates an analysis service client from the given config.
func NewClient(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	submitTimeout := cfg.SubmitTimeout
	if submitTimeout <= 0 {
		submitTimeout = 5 * time.Minute
	}
	statusTimeout := cfg.StatusTimeout
	if statusTimeout <= 0 {
		statusTimeout = 15 * time.Second
	}

	return &Client{
		baseURL:      strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		submitClient: &http.Client{Timeout: submitTimeout},
		statusClient: &http.Client{Timeout: statusTimeout},
		logger:       logger.With("component", "upstream_client"),
	}
}

// Submit streams the spooled upload to the analysis service as a multipart
// request and returns the upstream-assigned job id. The body is produced
// through a pipe so the archive is never materialized in memory. Failures
// are reported once and never retried; a retry here could silently submit
// the same workspace twice.
func (c *Client) Submit(ctx context.Context, req *core.SubmitRequest) (string, error) {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		err := writeSubmitBody(writer, req)
		if cerr := writer.Close(); err == nil {
			err = cerr
		}
		// CloseWithError makes a half-written body fail the request
		// instead of delivering a truncated archive upstream.
		pw.CloseWithError(err)
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+submitPath, pr)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "build submit request")
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("X-Request-ID", req.RequestID)

	c.logger.InfoContext(ctx, "submitting workspace to analysis service",
		"request_id", req.RequestID, "url", c.baseURL+submitPath)

	resp, err := c.submitClient.Do(httpReq)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeUpstream, "analysis service unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet := readBodySnippet(resp.Body)
		c.logger.ErrorContext(ctx, "analysis service rejected submit",
			"request_id", req.RequestID, "status", resp.StatusCode, "body", snippet)
		return "", apperrors.Upstreamf("analysis service error (%d): %s", resp.StatusCode, snippet)
	}

	var submitResp struct {
		JobID string `json:"job_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&submitResp); err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeUpstream, "invalid submit response from analysis service")
	}
	if submitResp.JobID == "" {
		return "", apperrors.Upstreamf("analysis service returned no job id")
	}

	return submitResp.JobID, nil
}

// writeSubmitBody mirrors the inbound upload shape: the auxiliary context
// fields first (always present, even when empty, so the upstream sees ""
// instead of missing form defaults), then the archive part streamed from
// the spool file.
func writeSubmitBody(writer *multipart.Writer, req *core.SubmitRequest) error {
	fields := []struct{ name, value string }{
		{"git_log", req.GitLog},
		{"git_diff", req.GitDiff},
		{"force_review", req.ForceReview},
	}
	for _, f := range fields {
		if err := writer.WriteField(f.name, f.value); err != nil {
			return fmt.Errorf("write field %s: %w", f.name, err)
		}
	}

	part, err := writer.CreateFormFile("file", "repo.zip")
	if err != nil {
		return fmt.Errorf("create file part: %w", err)
	}

	spool, err := os.Open(req.SpoolPath)
	if err != nil {
		return fmt.Errorf("open spooled upload: %w", err)
	}
	defer spool.Close()

	if _, err := io.Copy(part, spool); err != nil {
		return fmt.Errorf("stream spooled upload: %w", err)
	}
	return nil
}

// Status fetches the current state of an upstream job.
func (c *Client) Status(ctx context.Context, upstreamID, requestID string) (*core.UpstreamStatus, error) {
	statusURL := c.baseURL + statusPath + url.PathEscape(upstreamID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "build status request")
	}
	httpReq.Header.Set("X-Request-ID", requestID)

	resp, err := c.statusClient.Do(httpReq)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUpstream, "poll analysis service")
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, apperrors.Upstreamf("analysis service status returned %d", resp.StatusCode)
	}

	var status core.UpstreamStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode status for upstream job %s: %w", upstreamID, errors.Join(ErrInvalidStatusPayload, err))
	}
	return &status, nil
}

func readBodySnippet(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, errorBodySnippetLimit+1))
	if err != nil {
		return fmt.Sprintf("(unreadable body: %v)", err)
	}
	return truncate(string(raw), errorBodySnippetLimit)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "...(truncated)"
}
