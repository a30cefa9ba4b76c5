package bootstrap

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/reviewgate/reviewgate/config"
	httpx "github.com/reviewgate/reviewgate/internal/http"
)

const shutdownWaitTimeout = 10 * time.Second

// HTTPServerConfig contains configuration for the HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
	// ErrCh receives the listener error if the server fails to serve.
	ErrCh chan<- error
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) *http.Server {
	if cfg == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	router := httpx.NewRouter(httpx.RouterServices{
		Relay:               cfg.Services.Relay,
		MaxUploadBytes:      appCfg.Relay.MaxUploadBytes,
		UpstreamURL:         appCfg.Upstream.URL,
		UpstreamHealthProbe: appCfg.Upstream.HealthTimeout,
		Logger:              logger,
	})

	// Order: Recover -> Logging -> Router
	handler := httpx.Recover(logger)(httpx.Logging(logger)(router))

	return startServer(logger, handler, appCfg.HTTP.Addr, cfg.ErrCh)
}

func startServer(logger *slog.Logger, handler http.Handler, addr string, errCh chan<- error) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			if errCh != nil {
				errCh <- err
			}
		}
	}()

	return server
}

// ShutdownConfig contains dependencies for graceful shutdown.
type ShutdownConfig struct {
	Context  context.Context
	Server   *http.Server
	Services ServiceContainer
	Logger   *slog.Logger
}

// Shutdown gracefully stops the HTTP server, waits for in-flight relay
// workers, and closes shared clients.
func Shutdown(cfg ShutdownConfig) error {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	shutdownCtx, cancel := context.WithTimeout(cfg.Context, shutdownWaitTimeout)
	defer cancel()

	if cfg.Server != nil {
		logger.Info("shutting down HTTP server")
		if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		logger.Info("HTTP server stopped")
	}

	if cfg.Services.Relay != nil {
		if err := cfg.Services.Relay.Shutdown(shutdownCtx); err != nil {
			logger.Warn("timeout waiting for relay workers to stop", "error", err)
		} else {
			logger.Info("relay workers stopped")
		}
	}

	cfg.Services.Close(logger)
	return nil
}
