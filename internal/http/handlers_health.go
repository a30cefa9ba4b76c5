package httpx

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"
)

const healthResponse = `{"status":"ok"}`

// healthHandler returns a simple 200 OK status for readiness/liveness checks.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.WriteString(w, healthResponse); err != nil {
		// Nothing more to do if the client connection is gone.
		return
	}
}

// ServiceStatus describes the reachability of a dependent service.
type ServiceStatus struct {
	Name       string `json:"name"`
	URL        string `json:"url"`
	Configured bool   `json:"configured"`
	Reachable  bool   `json:"reachable"`
	StatusCode int    `json:"status_code,omitempty"`
	Error      string `json:"error,omitempty"`
}

// StatusHandlers reports gateway introspection: upstream configuration and
// reachability plus the capability list clients feature-detect against.
type StatusHandlers struct {
	UpstreamURL  string
	ProbeTimeout time.Duration
}

// Status handles GET /status.
func (h *StatusHandlers) Status(w http.ResponseWriter, r *http.Request) {
	upstream := checkService(r.Context(), "analysis_service", h.UpstreamURL, h.ProbeTimeout)

	WriteJSON(w, http.StatusOK, map[string]any{
		"gateway": map[string]any{
			"reachable": true,
		},
		"services": []ServiceStatus{upstream},
		"capabilities": []string{
			"workspace_upload_async",
			"job_status_polling",
			"job_cancel_supported",
		},
	})
}

// checkService probes a dependent service's /health endpoint with a bounded
// timeout. Reachable means the remote endpoint responded; the exact status
// varies by service.
func checkService(ctx context.Context, name, baseURL string, timeout time.Duration) ServiceStatus {
	url := strings.TrimSpace(baseURL)
	status := ServiceStatus{
		Name:       name,
		URL:        url,
		Configured: url != "",
	}
	if url == "" {
		return status
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(url, "/")+"/health", nil)
	if err != nil {
		status.Error = err.Error()
		return status
	}

	resp, err := (&http.Client{Timeout: timeout}).Do(req)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	defer resp.Body.Close()

	status.StatusCode = resp.StatusCode
	status.Reachable = true
	return status
}
