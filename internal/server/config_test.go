package server

import (
	"context"
	"testing"
	"time"
)

// TestLoadDefaults verifies that loading with no environment overrides
// yields the documented defaults, including the privacy-first history
// setting.
func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != ":8080" {
		t.Errorf("Port = %q, want :8080", cfg.Port)
	}
	if cfg.MaxMessageSize != 512 {
		t.Errorf("MaxMessageSize = %d, want 512", cfg.MaxMessageSize)
	}
	if cfg.RateLimit.Burst != 5 || cfg.RateLimit.RefillInterval != time.Second {
		t.Errorf("RateLimit = %+v, want burst 5 refill 1s", cfg.RateLimit)
	}
	if cfg.History.ShowToNewUsers {
		t.Error("History replay should be disabled by default")
	}
	if cfg.History.MaxForNewUsers != 50 {
		t.Errorf("History.MaxForNewUsers = %d, want 50", cfg.History.MaxForNewUsers)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://localhost:8080" {
		t.Errorf("AllowedOrigins = %v, want [http://localhost:8080]", cfg.AllowedOrigins)
	}
}

// TestLoadFromEnv verifies that every setting can be overridden through its
// environment variable.
func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", ":9999")
	t.Setenv("ALLOWED_ORIGINS", "http://a.example,http://b.example")
	t.Setenv("MAX_MESSAGE_SIZE", "1024")
	t.Setenv("RATE_LIMIT_BURST", "10")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("SHOW_HISTORY_TO_NEW_USERS", "true")
	t.Setenv("MAX_HISTORY_FOR_NEW_USERS", "10")
	t.Setenv("SHUTDOWN_TIMEOUT", "5s")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != ":9999" {
		t.Errorf("Port = %q, want :9999", cfg.Port)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.example" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if cfg.MaxMessageSize != 1024 {
		t.Errorf("MaxMessageSize = %d, want 1024", cfg.MaxMessageSize)
	}
	if cfg.RateLimit.Burst != 10 || cfg.RateLimit.RefillInterval != 2*time.Second {
		t.Errorf("RateLimit = %+v", cfg.RateLimit)
	}
	if !cfg.History.ShowToNewUsers || cfg.History.MaxForNewUsers != 10 {
		t.Errorf("History = %+v", cfg.History)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 5s", cfg.ShutdownTimeout)
	}
}

// TestSanitizeClampsInvalidValues verifies that out-of-range settings fall
// back to safe defaults instead of breaking the server.
func TestSanitizeClampsInvalidValues(t *testing.T) {
	cfg := &Config{
		Port:            "",
		MaxMessageSize:  -1,
		ShutdownTimeout: -time.Second,
		RateLimit: RateLimitConfig{
			Burst:          0,
			RefillInterval: 0,
		},
		History: HistoryConfig{
			MaxForNewUsers: -5,
		},
	}

	sanitizeConfig(cfg)

	if cfg.Port != ":8080" {
		t.Errorf("Port = %q, want :8080", cfg.Port)
	}
	if cfg.MaxMessageSize != 512 {
		t.Errorf("MaxMessageSize = %d, want 512", cfg.MaxMessageSize)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 10s", cfg.ShutdownTimeout)
	}
	if cfg.RateLimit.Burst != 5 || cfg.RateLimit.RefillInterval != time.Second {
		t.Errorf("RateLimit = %+v, want burst 5 refill 1s", cfg.RateLimit)
	}
	if cfg.History.MaxForNewUsers != 50 {
		t.Errorf("History.MaxForNewUsers = %d, want 50", cfg.History.MaxForNewUsers)
	}
}
