package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/reviewgate/reviewgate/config"
	"github.com/reviewgate/reviewgate/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	logStartupInfo(ctx, logger, &cfg)

	cfgPtr := &cfg
	if err = bootstrap.ValidateConfig(cfgPtr); err != nil {
		return err
	}

	services, err := bootstrap.NewServices(&bootstrap.ServiceDeps{
		Config: cfgPtr,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	return bootstrap.RunWithShutdown(&bootstrap.RunConfig{
		Config:   cfgPtr,
		Services: services,
		Logger:   logger,
	})
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting reviewgate gateway",
		"addr", cfg.HTTP.Addr,
		"upstream_url", cfg.Upstream.URL,
		"store_backend", cfg.Store.Backend,
		"max_active_relays", cfg.Relay.MaxActive)
}
