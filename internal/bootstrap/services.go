package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/reviewgate/reviewgate/config"
	"github.com/reviewgate/reviewgate/internal/core"
	"github.com/reviewgate/reviewgate/internal/data"
	"github.com/reviewgate/reviewgate/internal/observability/statsd"
	"github.com/reviewgate/reviewgate/internal/service"
	"github.com/reviewgate/reviewgate/internal/upstream"
)

// ServiceContainer holds all application services and shared clients.
type ServiceContainer struct {
	Relay       *service.RelayService
	Store       core.JobStore
	Metrics     *statsd.Client
	RedisClient redis.UniversalClient
}

// Close releases shared clients. Safe to call with partially built containers.
func (c ServiceContainer) Close(logger *slog.Logger) {
	if c.Metrics != nil {
		if err := c.Metrics.Close(); err != nil && logger != nil {
			logger.Error("close statsd client failed", "error", err)
		}
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil && logger != nil {
			logger.Error("close redis failed", "error", err)
		}
	}
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config *config.AppConfig
	Logger *slog.Logger
}

// NewServices builds the job store, upstream client, metrics sink, and relay
// service from configuration.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	container := ServiceContainer{
		Metrics: buildMetricsSink(logger, cfg.Observability.Metrics),
	}

	store, redisClient, err := buildJobStore(cfg.Store)
	if err != nil {
		container.Close(logger)
		return ServiceContainer{}, err
	}
	container.Store = store
	container.RedisClient = redisClient

	client := upstream.NewClient(upstream.Config{
		BaseURL:       cfg.Upstream.URL,
		SubmitTimeout: cfg.Upstream.SubmitTimeout,
		StatusTimeout: cfg.Upstream.StatusTimeout,
		Logger:        logger,
	})

	relay, err := service.NewRelayService(service.RelayServiceOptions{
		Store:    store,
		Upstream: client,
		Config:   cfg.Relay,
		Logger:   logger,
		Metrics:  container.Metrics,
	})
	if err != nil {
		container.Close(logger)
		return ServiceContainer{}, fmt.Errorf("build relay service: %w", err)
	}
	container.Relay = relay

	return container, nil
}

func buildMetricsSink(logger *slog.Logger, cfg config.ObservabilityMetricsConfig) *statsd.Client {
	if !cfg.IsEnabled() {
		return nil
	}
	client, err := statsd.NewClient(statsd.Config{
		Enabled: true,
		Address: cfg.StatsdAddress,
		Prefix:  "reviewgate",
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return nil
	}
	return client
}

// buildJobStore selects the configured job store backend. The returned redis
// client, if any, is owned by the caller's container.
//
//nolint:ireturn // the store port hides backend selection from callers.
func buildJobStore(cfg config.StoreConfig) (core.JobStore, redis.UniversalClient, error) {
	switch cfg.Backend {
	case config.StoreBackendMemory:
		return data.NewMemoryJobStore(), nil, nil
	case config.StoreBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store, err := data.NewRedisJobStore(data.RedisJobStoreOptions{
			Client: client,
			TTL:    cfg.TTL,
		})
		if err != nil {
			if cerr := client.Close(); cerr != nil {
				err = errors.Join(err, fmt.Errorf("close redis: %w", cerr))
			}
			return nil, nil, fmt.Errorf("build redis job store: %w", err)
		}
		return store, client, nil
	default:
		return nil, nil, fmt.Errorf("unknown job store backend %q", cfg.Backend)
	}
}

// RunConfig groups dependencies for the service runtime.
type RunConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// RunWithShutdown starts the HTTP server and blocks until a shutdown signal
// arrives or the listener fails, then stops everything gracefully.
func RunWithShutdown(cfg *RunConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("run config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	errCh := make(chan error, 1)
	server := StartHTTPServer(&HTTPServerConfig{
		Config:   cfg.Config,
		Services: cfg.Services,
		Logger:   logger,
		ErrCh:    errCh,
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	shutdown := func() error {
		return Shutdown(ShutdownConfig{
			Context:  context.Background(),
			Server:   server,
			Services: cfg.Services,
			Logger:   logger,
		})
	}

	select {
	case <-quit:
		logger.Info("shutting down services...")
		return shutdown()
	case err := <-errCh:
		logger.Error("service error", "error", err)
		if stopErr := shutdown(); stopErr != nil {
			logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}
