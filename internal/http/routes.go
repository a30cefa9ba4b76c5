package httpx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/reviewgate/reviewgate/internal/service"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Relay *service.RelayService

	MaxUploadBytes      int64
	UpstreamURL         string
	UpstreamHealthProbe time.Duration

	Logger *slog.Logger
}

// NewRouter creates and configures the relay's HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	jobHandlers := &JobHandlers{
		Svc:            services.Relay,
		MaxUploadBytes: services.MaxUploadBytes,
		Logger:         services.Logger,
	}
	statusHandlers := &StatusHandlers{
		UpstreamURL:  services.UpstreamURL,
		ProbeTimeout: services.UpstreamHealthProbe,
	}

	mux.Handle("POST /jobs", http.HandlerFunc(jobHandlers.Submit))
	mux.Handle("GET /jobs/{id}/status", http.HandlerFunc(jobHandlers.Status))
	mux.Handle("POST /jobs/{id}/cancel", http.HandlerFunc(jobHandlers.Cancel))

	mux.Handle("GET /status", http.HandlerFunc(statusHandlers.Status))
	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	return mux
}
