package config

import (
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppConfig_Defaults(t *testing.T) {
	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Sanitize()

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "http://ai-core:3000", cfg.Upstream.URL)
	assert.Equal(t, 5*time.Minute, cfg.Upstream.SubmitTimeout)
	assert.Equal(t, 15*time.Second, cfg.Upstream.StatusTimeout)
	assert.Equal(t, 2*time.Second, cfg.Relay.PollInterval)
	assert.Equal(t, 10*time.Minute, cfg.Relay.PollTimeout)
	assert.Equal(t, int64(32), cfg.Relay.MaxActive)
	assert.Equal(t, int64(50<<20), cfg.Relay.MaxUploadBytes)
	assert.Equal(t, StoreBackendMemory, cfg.Store.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Store.TTL)
	assert.False(t, cfg.Observability.Metrics.IsEnabled())
}

func TestUpstreamConfig_Sanitize(t *testing.T) {
	cfg := UpstreamConfig{URL: " http://ai-core:3000/ "}
	cfg.Sanitize()

	assert.Equal(t, "http://ai-core:3000", cfg.URL)
	assert.Equal(t, 5*time.Minute, cfg.SubmitTimeout)
	assert.Equal(t, 15*time.Second, cfg.StatusTimeout)
	assert.Equal(t, 3*time.Second, cfg.HealthTimeout)
}

func TestRelayConfig_Sanitize_ClampsInvalidValues(t *testing.T) {
	cfg := RelayConfig{
		PollInterval:   -time.Second,
		PollTimeout:    0,
		MaxActive:      -5,
		MaxUploadBytes: 0,
		SpoolDir:       "  /var/spool  ",
	}
	cfg.Sanitize()

	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 10*time.Minute, cfg.PollTimeout)
	assert.Equal(t, int64(32), cfg.MaxActive)
	assert.Equal(t, int64(50<<20), cfg.MaxUploadBytes)
	assert.Equal(t, "/var/spool", cfg.SpoolDir)
}

func TestStoreConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		cfg         StoreConfig
		expectError bool
	}{
		{
			name: "memory backend",
			cfg:  StoreConfig{Backend: StoreBackendMemory},
		},
		{
			name: "redis backend with addr",
			cfg:  StoreConfig{Backend: StoreBackendRedis, Redis: RedisConfig{Addr: "127.0.0.1:6379"}},
		},
		{
			name:        "redis backend without addr",
			cfg:         StoreConfig{Backend: StoreBackendRedis},
			expectError: true,
		},
		{
			name:        "unknown backend",
			cfg:         StoreConfig{Backend: "postgres"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStoreConfig_Sanitize_NormalizesBackend(t *testing.T) {
	cfg := StoreConfig{Backend: " Redis ", TTL: -time.Hour, Redis: RedisConfig{Addr: " 127.0.0.1:6379 "}}
	cfg.Sanitize()

	assert.Equal(t, StoreBackendRedis, cfg.Backend)
	assert.Equal(t, time.Duration(0), cfg.TTL)
	assert.Equal(t, "127.0.0.1:6379", cfg.Redis.Addr)
}

func TestObservabilityMetricsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityMetricsConfig{Enabled: true, StatsdAddress: "   "}
	cfg.Sanitize()

	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.IsEnabled())

	cfg = ObservabilityMetricsConfig{Enabled: true, StatsdAddress: "127.0.0.1:8125"}
	cfg.Sanitize()
	assert.True(t, cfg.IsEnabled())
}
