// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, roster engine) via constructors.
  - Optional Backends: An empty DATABASE_URL selects the in-memory session store and
    an empty REDIS_URL disables the notification stream sink.
*/
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the gymroster API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL). Empty selects the in-memory store.
	DatabaseURL string `env:"DATABASE_URL"`
	DBMaxConns  int32  `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns  int32  `env:"DB_MIN_CONNS" envDefault:"5"`

	// MigrationPath overrides the embedded SQL migrations with a directory on disk.
	MigrationPath string `env:"MIGRATION_PATH"`

	// Key-Value Store (Redis). Empty disables the roster event stream.
	RedisURL      string `env:"REDIS_URL"`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"10"`

	// Public key of the identity provider that issues member tokens
	JWTPubKeyPath string `env:"JWT_PUBLIC_KEY_PATH,required,notEmpty"`

	// Per-IP token bucket
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS"   envDefault:"100"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"150"`

	// MetricsEnabled exposes Prometheus collectors on /metrics.
	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`

	// Cross-Origin Resource Sharing
	AllowedOriginSuffix string `env:"ALLOWED_ORIGIN_SUFFIX" envDefault:"gymroster.app"`

	// Roster engine
	Roster RosterConfig `envPrefix:"ROSTER_"`

	// Notification dispatch
	Notify NotifyConfig `envPrefix:"NOTIFY_"`
}

// RosterConfig tunes the optimistic commit loop of the roster engine.
type RosterConfig struct {
	// MaxCommitAttempts bounds the compare-and-save retries per mutation.
	MaxCommitAttempts int `env:"MAX_COMMIT_ATTEMPTS" envDefault:"5"`

	// RetryBackoff is the base delay between two commit attempts (jittered).
	RetryBackoff time.Duration `env:"RETRY_BACKOFF" envDefault:"10ms"`
}

// NotifyConfig tunes the asynchronous roster event dispatcher.
type NotifyConfig struct {
	BufferSize   int    `env:"BUFFER_SIZE"   envDefault:"1024"`
	Workers      int    `env:"WORKERS"       envDefault:"2"`
	Stream       string `env:"STREAM"        envDefault:"training:roster_events"`
	StreamMaxLen int64  `env:"STREAM_MAXLEN" envDefault:"100000"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate rejects values that would make the roster engine misbehave.
func (c *Config) validate() error {
	if c.Roster.MaxCommitAttempts < 1 {
		return fmt.Errorf("config: ROSTER_MAX_COMMIT_ATTEMPTS must be at least 1, got %d", c.Roster.MaxCommitAttempts)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		return fmt.Errorf("config: RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive, got %v/%d", c.RateLimitRPS, c.RateLimitBurst)
	}
	if c.Notify.BufferSize < 1 {
		return fmt.Errorf("config: NOTIFY_BUFFER_SIZE must be at least 1, got %d", c.Notify.BufferSize)
	}
	if c.Notify.Workers < 1 {
		return fmt.Errorf("config: NOTIFY_WORKERS must be at least 1, got %d", c.Notify.Workers)
	}
	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// OriginSuffix returns the domain suffix trusted by CORS outside development.
func (c *Config) OriginSuffix() string {
	return c.AllowedOriginSuffix
}

// UsesPostgres reports whether a relational session store is configured.
func (c *Config) UsesPostgres() bool {
	return c.DatabaseURL != ""
}

// UsesRedis reports whether the roster event stream is configured.
func (c *Config) UsesRedis() bool {
	return c.RedisURL != ""
}
