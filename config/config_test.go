package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SYNC_INTERVAL", "30s")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("STORE_MAX_BYTES", "not-a-number")

	cfg := Load()
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Sync.Interval != 30*time.Second {
		t.Errorf("expected 30s interval, got %s", cfg.Sync.Interval)
	}
	if cfg.RateLimit.Enabled {
		t.Error("expected rate limiting disabled")
	}
	if cfg.LocalStore.MaxBytes != 5<<20 {
		t.Errorf("expected default max bytes for a bad value, got %d", cfg.LocalStore.MaxBytes)
	}
}

func TestLogConfig_SlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := (LogConfig{Level: tt.level}).SlogLevel(); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestLocalStoreConfig_Location(t *testing.T) {
	if loc := (LocalStoreConfig{Timezone: "Nowhere/Atlantis"}).Location(); loc != time.UTC {
		t.Errorf("expected UTC fallback, got %s", loc)
	}
	if loc := (LocalStoreConfig{Timezone: "UTC"}).Location(); loc.String() != "UTC" {
		t.Errorf("expected UTC, got %s", loc)
	}
}

func TestLoadProfile_FileOverridesEnv(t *testing.T) {
	t.Setenv("SYNC_REMOTE_URL", "http://env.example")
	t.Setenv("SYNC_PROFILE", "work")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "remote_url: http://file.example\nsync_interval: 2m\ndevice_id: laptop\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write profile: %v", err)
	}

	p, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.RemoteURL != "http://file.example" || p.DeviceID != "laptop" {
		t.Errorf("expected file values, got %+v", p)
	}
	if p.SyncInterval != 2*time.Minute {
		t.Errorf("expected 2m interval, got %s", p.SyncInterval)
	}
	if p.Namespace != "lifeos:work" {
		t.Errorf("expected namespace from env profile, got %q", p.Namespace)
	}
}

func TestLoadProfile_MissingFile(t *testing.T) {
	p, err := LoadProfile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.RedisURL == "" || p.Namespace == "" {
		t.Errorf("expected defaults, got %+v", p)
	}
}

func TestSaveTokens_KeepsSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("device_id: phone\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := SaveTokens(path, "access-1", "refresh-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.AccessToken != "access-1" || p.RefreshToken != "refresh-1" || p.DeviceID != "phone" {
		t.Errorf("unexpected profile after save: %+v", p)
	}
}
