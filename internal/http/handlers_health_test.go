package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusHandlers_UpstreamReachable(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	h := &StatusHandlers{UpstreamURL: upstream.URL, ProbeTimeout: time.Second}

	r := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	h.Status(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		Services     []ServiceStatus `json:"services"`
		Capabilities []string        `json:"capabilities"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got.Services, 1)
	assert.True(t, got.Services[0].Configured)
	assert.True(t, got.Services[0].Reachable)
	assert.Equal(t, http.StatusOK, got.Services[0].StatusCode)
	assert.Contains(t, got.Capabilities, "job_cancel_supported")
}

func TestStatusHandlers_UpstreamDown(t *testing.T) {
	// A server that is immediately closed yields a connection error.
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := upstream.URL
	upstream.Close()

	h := &StatusHandlers{UpstreamURL: url, ProbeTimeout: time.Second}

	r := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	h.Status(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		Services []ServiceStatus `json:"services"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got.Services, 1)
	assert.True(t, got.Services[0].Configured)
	assert.False(t, got.Services[0].Reachable)
	assert.NotEmpty(t, got.Services[0].Error)
}

func TestStatusHandlers_UpstreamNotConfigured(t *testing.T) {
	h := &StatusHandlers{}

	r := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	h.Status(w, r)

	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		Services []ServiceStatus `json:"services"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got.Services, 1)
	assert.False(t, got.Services[0].Configured)
	assert.False(t, got.Services[0].Reachable)
}

func TestHealthHandler_Head(t *testing.T) {
	r := httptest.NewRequest(http.MethodHead, "/healthz", nil)
	w := httptest.NewRecorder()
	healthHandler(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}
