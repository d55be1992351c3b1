// Package server provides configuration loading for the ChatFlow service,
// driven by environment variables with sanitized defaults.
package server

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// RateLimitConfig defines the parameters for per-connection message rate
// limiting.
type RateLimitConfig struct {
	Burst          int           `env:"RATE_LIMIT_BURST, default=5"`
	RefillInterval time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL, default=1s"`
}

// HistoryConfig controls the message history replay shown to new joiners.
type HistoryConfig struct {
	ShowToNewUsers bool `env:"SHOW_HISTORY_TO_NEW_USERS, default=false"`
	MaxForNewUsers int  `env:"MAX_HISTORY_FOR_NEW_USERS, default=50"`
}

// Config holds the server configuration settings including security controls.
type Config struct {
	Port            string        `env:"SERVER_PORT, default=:8080"`
	LogLevel        string        `env:"LOG_LEVEL, default=info"`
	LogPretty       bool          `env:"LOG_PRETTY, default=false"`
	AllowedOrigins  []string      `env:"ALLOWED_ORIGINS, default=http://localhost:8080"`
	MaxMessageSize  int64         `env:"MAX_MESSAGE_SIZE, default=512"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=10s"`

	RateLimit RateLimitConfig
	History   HistoryConfig
}

// Load reads the configuration from environment variables using go-envconfig,
// falling back to defaults for anything unset, and clamps invalid values.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, err
	}
	sanitizeConfig(&cfg)
	return &cfg, nil
}

// NewConfig creates a Config instance populated with default values for all
// settings. Used by tests that want a known baseline without touching the
// environment.
func NewConfig() *Config {
	return &Config{
		Port:            ":8080",
		LogLevel:        "info",
		AllowedOrigins:  []string{"http://localhost:8080"},
		MaxMessageSize:  512,
		ShutdownTimeout: 10 * time.Second,
		RateLimit: RateLimitConfig{
			Burst:          5,
			RefillInterval: time.Second,
		},
		History: HistoryConfig{
			MaxForNewUsers: 50,
		},
	}
}

func sanitizeConfig(cfg *Config) {
	if cfg.Port == "" {
		cfg.Port = ":8080"
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 512
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = 5
	}
	if cfg.RateLimit.RefillInterval <= 0 {
		cfg.RateLimit.RefillInterval = time.Second
	}
	if cfg.History.MaxForNewUsers <= 0 {
		cfg.History.MaxForNewUsers = 50
	}
}
