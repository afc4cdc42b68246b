package config

import (
	"log/slog"
	"os"
	"testing"
	"time"
)

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)
	for _, key := range []string{"PORT", "STORAGE_BACKEND", "TEXT_PROVIDER", "ADVENTURE_TTL", "LOCK_TTL", "LOG_LEVEL", "GENERATION_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Port)
	}
	if cfg.StorageBackend != StorageRedis {
		t.Errorf("expected redis backend, got %s", cfg.StorageBackend)
	}
	if cfg.TextProvider != ProviderGemini {
		t.Errorf("expected gemini provider, got %s", cfg.TextProvider)
	}
	if cfg.AdventureTTL != 24*time.Hour || cfg.LockTTL != 5*time.Minute || cfg.GenerationTimeout != 3*time.Minute {
		t.Errorf("unexpected durations %s %s %s", cfg.AdventureTTL, cfg.LockTTL, cfg.GenerationTimeout)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("expected info level, got %v", cfg.LogLevel)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("PORT", "")
	os.Unsetenv("PORT")
	if err := os.WriteFile(".env", []byte("PORT=9090\nSTORAGE_BACKEND=sqlite\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STORAGE_BACKEND", "")
	os.Unsetenv("STORAGE_BACKEND")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("expected port from .env, got %s", cfg.Port)
	}
	if cfg.StorageBackend != StorageSQLite {
		t.Errorf("expected sqlite from .env, got %s", cfg.StorageBackend)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad backend", "STORAGE_BACKEND", "postgres"},
		{"bad provider", "TEXT_PROVIDER", "llama"},
		{"bad duration", "ADVENTURE_TTL", "forever"},
		{"zero lock ttl", "LOCK_TTL", "0s"},
		{"lock shorter than generation", "LOCK_TTL", "1m"},
		{"lock equal to generation", "LOCK_TTL", "3m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdirTemp(t)
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
