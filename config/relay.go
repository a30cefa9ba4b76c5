package config

import (
	"strings"
	"time"
)

const defaultMaxUploadBytes = 50 << 20 // 50 MiB, matching the client cap

// RelayConfig controls upload ingestion and the per-job poll-bridge workers.
type RelayConfig struct {
	// PollInterval is the delay between status polls against the upstream.
	PollInterval time.Duration `env:"RELAY_POLL_INTERVAL" envDefault:"2s"`

	// PollTimeout is the hard ceiling on a job's polling loop. A
	// permanently hung upstream fails the job instead of leaking a worker.
	PollTimeout time.Duration `env:"RELAY_POLL_TIMEOUT" envDefault:"10m"`

	// MaxActive bounds the number of jobs relayed concurrently. Excess
	// jobs wait in pending until a slot frees up.
	MaxActive int64 `env:"RELAY_MAX_ACTIVE" envDefault:"32"`

	// MaxUploadBytes caps the inbound multipart body size.
	MaxUploadBytes int64 `env:"RELAY_MAX_UPLOAD_BYTES" envDefault:"52428800"`

	// SpoolDir is where uploads are persisted while being relayed.
	// Empty selects the OS temp directory.
	SpoolDir string `env:"RELAY_SPOOL_DIR"`
}

// Sanitize applies guardrails to relay configuration values.
func (r *RelayConfig) Sanitize() {
	if r.PollInterval <= 0 {
		r.PollInterval = 2 * time.Second
	}
	if r.PollTimeout <= 0 {
		r.PollTimeout = 10 * time.Minute
	}
	if r.MaxActive <= 0 {
		r.MaxActive = 32
	}
	if r.MaxUploadBytes <= 0 {
		r.MaxUploadBytes = defaultMaxUploadBytes
	}
	r.SpoolDir = strings.TrimSpace(r.SpoolDir)
}
