// Package config defines the environment-driven configuration for the
// reviewgate relay.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config files for
// the available variables:
//   - http.go: HTTP server configuration
//   - upstream.go: analysis service endpoint configuration
//   - relay.go: ingestion and poll-bridge worker configuration
//   - store.go: job store backend configuration
//   - observability.go: metrics configuration
package config

import (
	"os"
	"strings"
)

// AppConfig composes domain-specific configuration from separate files.
type AppConfig struct {
	// IsDev controls development mode behavior.
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// HTTP server configuration
	HTTP HTTPConfig

	// Upstream analysis service configuration
	Upstream UpstreamConfig

	// Relay worker configuration
	Relay RelayConfig

	// Job store configuration
	Store StoreConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Upstream.Sanitize()
	c.Relay.Sanitize()
	c.Store.Sanitize()
	c.Observability.Sanitize()

	c.detectDevMode()
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}
