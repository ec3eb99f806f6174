package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "prod" {
		t.Fatalf("expected App.Env to be prod, got %q", cfg.App.Env)
	}
	if cfg.Upstream.BaseURL != "http://localhost:8000" {
		t.Fatalf("unexpected upstream base url %q", cfg.Upstream.BaseURL)
	}
	if cfg.Redis.URL != "redis://localhost:6379/0" {
		t.Fatalf("unexpected Redis URL: %q", cfg.Redis.URL)
	}
	if got := cfg.Cart.SyncDebounce; got != 1500*time.Millisecond {
		t.Fatalf("expected default cart debounce 1.5s, got %v", got)
	}
	if got := cfg.Notify.TTL; got != 4*time.Second {
		t.Fatalf("expected default notify ttl 4s, got %v", got)
	}
	if got := cfg.Notify.Cap; got != 3 {
		t.Fatalf("expected default notify cap 3, got %d", got)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_RejectsNonPositiveDebounce(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvCartDebounce, "0s")

	if _, err := Load(); err == nil {
		t.Fatal("expected zero debounce to return an error")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "prod")
	t.Setenv(EnvAppPort, "8081")
	t.Setenv(EnvUpstreamBaseURL, "http://localhost:8000")
	t.Setenv(EnvBotToken, "12345:test-token")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
}
