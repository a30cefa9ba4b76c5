package config

import (
	"strings"
	"time"
)

// UpstreamConfig describes the analysis service the relay forwards work to.
type UpstreamConfig struct {
	// URL is the analysis service base URL.
	URL string `env:"UPSTREAM_URL" envDefault:"http://ai-core:3000"`

	// SubmitTimeout bounds the streaming submit call. Generous because the
	// whole archive is uploaded within it.
	SubmitTimeout time.Duration `env:"UPSTREAM_SUBMIT_TIMEOUT" envDefault:"5m"`

	// StatusTimeout bounds a single poll request.
	StatusTimeout time.Duration `env:"UPSTREAM_STATUS_TIMEOUT" envDefault:"15s"`

	// HealthTimeout bounds the /status introspection probe.
	HealthTimeout time.Duration `env:"UPSTREAM_HEALTH_TIMEOUT" envDefault:"3s"`
}

// Sanitize applies guardrails to upstream configuration values.
func (u *UpstreamConfig) Sanitize() {
	u.URL = strings.TrimRight(strings.TrimSpace(u.URL), "/")
	if u.SubmitTimeout <= 0 {
		u.SubmitTimeout = 5 * time.Minute
	}
	if u.StatusTimeout <= 0 {
		u.StatusTimeout = 15 * time.Second
	}
	if u.HealthTimeout <= 0 {
		u.HealthTimeout = 3 * time.Second
	}
}
