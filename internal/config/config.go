// Package config handles Classline configuration loading and validation.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/classline/classline/internal/models"
)

// Config is the root configuration structure for Classline.
type Config struct {
	// API settings for the platform backend.
	API APIConfig `yaml:"api" mapstructure:"api"`

	// Sync settings for the conversation synchronization engine.
	Sync SyncConfig `yaml:"sync" mapstructure:"sync"`

	// Cache settings for the local snapshot store.
	Cache CacheConfig `yaml:"cache" mapstructure:"cache"`

	// Logging settings.
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// APIConfig contains platform API connection settings.
type APIConfig struct {
	// BaseURL is the platform API root.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Token is the bearer token for the signed-in user.
	Token string `yaml:"token" mapstructure:"token"`

	// UserID is the signed-in user's id, used to tell own messages
	// from incoming ones when rendering threads.
	UserID string `yaml:"user_id" mapstructure:"user_id"`

	// Timeout bounds each API request.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// SyncConfig contains synchronization engine settings.
type SyncConfig struct {
	// PageSize is the fixed page size for list and thread pagination.
	PageSize int `yaml:"page_size" mapstructure:"page_size"`

	// ListInterval is how often the conversation list is reset.
	ListInterval time.Duration `yaml:"list_interval" mapstructure:"list_interval"`

	// ThreadInterval is how often the open thread is refreshed.
	ThreadInterval time.Duration `yaml:"thread_interval" mapstructure:"thread_interval"`
}

// CacheConfig contains snapshot cache settings.
type CacheConfig struct {
	// Enabled toggles the local snapshot cache.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Path is the SQLite cache file path.
	Path string `yaml:"path" mapstructure:"path"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console, auto).
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	dataDir := defaultDataDir()
	return &Config{
		API: APIConfig{
			Timeout: 15 * time.Second,
		},
		Sync: SyncConfig{
			PageSize:       30,
			ListInterval:   30 * time.Second,
			ThreadInterval: 15 * time.Second,
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    filepath.Join(dataDir, "classline.db"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "classline")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "classline")
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	validation := &models.ValidationErrors{}
	if c.API.BaseURL == "" {
		validation.AddMessage("api.base_url", "required")
	}
	if c.Sync.PageSize <= 0 {
		validation.AddMessage("sync.page_size", "must be positive")
	}
	if c.Sync.ListInterval <= 0 {
		validation.AddMessage("sync.list_interval", "must be positive")
	}
	if c.Sync.ThreadInterval <= 0 {
		validation.AddMessage("sync.thread_interval", "must be positive")
	}
	if c.Cache.Enabled && c.Cache.Path == "" {
		validation.AddMessage("cache.path", "required when cache is enabled")
	}
	return validation.Err()
}
