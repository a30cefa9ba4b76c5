package config

import (
	"fmt"
	"strings"
	"time"
)

// StoreBackend selects the job store implementation.
type StoreBackend string

const (
	// StoreBackendMemory keeps job records in process memory (default).
	StoreBackendMemory StoreBackend = "memory"
	// StoreBackendRedis keeps job records in Redis with bounded retention.
	StoreBackendRedis StoreBackend = "redis"
)

// StoreConfig selects and configures the job store backend.
type StoreConfig struct {
	// Backend is "memory" or "redis".
	Backend StoreBackend `env:"JOB_STORE" envDefault:"memory"`

	// TTL bounds Redis record retention. Ignored by the memory backend,
	// which retains records for the life of the process.
	TTL time.Duration `env:"JOB_STORE_TTL" envDefault:"24h"`

	Redis RedisConfig `envPrefix:"REDIS_"`
}

// RedisConfig contains Redis connection configuration.
type RedisConfig struct {
	Addr     string `env:"ADDR"     envDefault:"127.0.0.1:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB"       envDefault:"0"`
}

// Sanitize normalizes store configuration values.
func (s *StoreConfig) Sanitize() {
	s.Backend = StoreBackend(strings.ToLower(strings.TrimSpace(string(s.Backend))))
	if s.TTL < 0 {
		s.TTL = 0
	}
	s.Redis.Addr = strings.TrimSpace(s.Redis.Addr)
}

// Validate checks that the configured backend is usable.
func (s *StoreConfig) Validate() error {
	switch s.Backend {
	case StoreBackendMemory:
		return nil
	case StoreBackendRedis:
		if s.Redis.Addr == "" {
			return fmt.Errorf("job store backend %q requires REDIS_ADDR", s.Backend)
		}
		return nil
	default:
		return fmt.Errorf("unknown job store backend %q", s.Backend)
	}
}
