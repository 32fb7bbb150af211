package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Profile is the device configuration of the lifeos CLI. Values come from
// the environment (see Load) and are overridden by the YAML profile file.
type Profile struct {
	RemoteURL    string        `mapstructure:"remote_url"`
	AccessToken  string        `mapstructure:"access_token"`
	RefreshToken string        `mapstructure:"refresh_token"`
	DeviceID     string        `mapstructure:"device_id"`
	RedisURL     string        `mapstructure:"redis_url"`
	Namespace    string        `mapstructure:"namespace"`
	MaxBytes     int           `mapstructure:"max_bytes"`
	Timezone     string        `mapstructure:"timezone"`
	SyncInterval time.Duration `mapstructure:"sync_interval"`
	AutoResume   bool          `mapstructure:"auto_resume"`
}

// Location returns the timezone of the profile, falling back to UTC.
func (p *Profile) Location() *time.Location {
	return LocalStoreConfig{Timezone: p.Timezone}.Location()
}

// DefaultProfilePath returns ~/.lifeos/config.yaml.
func DefaultProfilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".lifeos", "config.yaml")
	}
	return filepath.Join(home, ".lifeos", "config.yaml")
}

// LoadProfile reads the profile at path over the environment defaults. A
// missing file is not an error.
func LoadProfile(path string) (*Profile, error) {
	cfg := Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("remote_url", cfg.Sync.RemoteURL)
	v.SetDefault("access_token", cfg.Sync.AccessToken)
	v.SetDefault("refresh_token", cfg.Sync.RefreshToken)
	v.SetDefault("device_id", cfg.Sync.DeviceID)
	v.SetDefault("redis_url", cfg.Redis.URL)
	v.SetDefault("namespace", cfg.LocalStore.Prefix+":"+cfg.Sync.Profile)
	v.SetDefault("max_bytes", cfg.LocalStore.MaxBytes)
	v.SetDefault("timezone", cfg.LocalStore.Timezone)
	v.SetDefault("sync_interval", cfg.Sync.Interval)
	v.SetDefault("auto_resume", cfg.Sync.AutoResume)

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read profile %s: %w", path, err)
	}

	var p Profile
	if err := v.Unmarshal(&p); err != nil {
		return nil, fmt.Errorf("failed to decode profile %s: %w", path, err)
	}
	return &p, nil
}

// SaveTokens stores a new credential pair in the profile at path, keeping
// its other settings.
func SaveTokens(path, accessToken, refreshToken string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read profile %s: %w", path, err)
	}

	v.Set("access_token", accessToken)
	v.Set("refresh_token", refreshToken)

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write profile %s: %w", path, err)
	}
	return os.Chmod(path, 0o600)
}
