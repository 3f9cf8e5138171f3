package config

import (
	"testing"
	"time"

	"github.com/GB163/student-led-initiative-sub002/internal/storage"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level info, got %s", cfg.LogLevel)
	}
	if cfg.WSReadTimeout != 60*time.Second {
		t.Errorf("expected 60s read timeout, got %s", cfg.WSReadTimeout)
	}
	if cfg.WSWriteTimeout != 10*time.Second {
		t.Errorf("expected 10s write timeout, got %s", cfg.WSWriteTimeout)
	}
	if cfg.HeartbeatWindow != 90*time.Second {
		t.Errorf("expected 90s heartbeat window, got %s", cfg.HeartbeatWindow)
	}
	if cfg.SweepInterval != 30*time.Second {
		t.Errorf("expected 30s sweep interval, got %s", cfg.SweepInterval)
	}
	if cfg.RedisAddr != "" {
		t.Errorf("expected presence disabled by default, got %s", cfg.RedisAddr)
	}
	if cfg.AuthIssuerURL != "" {
		t.Errorf("expected auth disabled by default, got %s", cfg.AuthIssuerURL)
	}
	if cfg.Storage.Backend != storage.BackendMemory {
		t.Errorf("expected memory backend by default, got %s", cfg.Storage.Backend)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("WS_READ_TIMEOUT", "120")
	t.Setenv("HEARTBEAT_WINDOW", "45")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("POSTGRES_DSN", "postgres://db:5432/hub")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("expected port 9000, got %s", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.LogLevel)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example.com" {
		t.Errorf("expected trimmed origins, got %v", cfg.AllowedOrigins)
	}
	if cfg.WSReadTimeout != 120*time.Second {
		t.Errorf("expected 120s read timeout, got %s", cfg.WSReadTimeout)
	}
	if cfg.HeartbeatWindow != 45*time.Second {
		t.Errorf("expected 45s heartbeat window, got %s", cfg.HeartbeatWindow)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("expected redis addr, got %s", cfg.RedisAddr)
	}
	if cfg.Storage.Backend != storage.BackendPostgres {
		t.Errorf("expected postgres backend, got %s", cfg.Storage.Backend)
	}
	if cfg.Storage.PostgresDSN != "postgres://db:5432/hub" {
		t.Errorf("unexpected dsn: %s", cfg.Storage.PostgresDSN)
	}
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	t.Setenv("WS_READ_TIMEOUT", "not-a-number")

	if _, err := Load(); err == nil {
		t.Error("expected error for non-numeric timeout")
	}
}

func TestUnknownStorageBackendFallsBack(t *testing.T) {
	t.Setenv("STORE_BACKEND", "etcd")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Storage.Backend != storage.BackendMemory {
		t.Errorf("expected fallback to memory backend, got %s", cfg.Storage.Backend)
	}
}
