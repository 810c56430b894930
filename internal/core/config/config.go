// Package config handles configuration loading and validation for taskdeck.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Known theme names accepted by the set-theme command and config.
var knownThemes = map[string]bool{
	"default": true,
	"dark":    true,
	"light":   true,
}

// IsKnownTheme reports whether name is a supported theme.
func IsKnownTheme(name string) bool {
	return knownThemes[name]
}

// Config holds the application configuration.
type Config struct {
	History  HistoryConfig  `yaml:"history"`
	Database DatabaseConfig `yaml:"database"`
	Sync     SyncConfig     `yaml:"sync"`
	Theme    string         `yaml:"theme"`
	Actor    string         `yaml:"actor"` // attributed on task change entries
	DataDir  string         `yaml:"-"`     // set by caller, not from config file
}

// HistoryConfig bounds the undo/redo stacks.
type HistoryConfig struct {
	MaxDepth int `yaml:"max_depth"`
}

// DatabaseConfig holds SQLite tuning options.
type DatabaseConfig struct {
	MaxOpenConns int `yaml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns"`
	BusyTimeout  int `yaml:"busy_timeout_ms"`
}

// SyncConfig controls optimistic confirmation behavior.
type SyncConfig struct {
	// Timeout bounds a single confirmation call. Rejection and timeout
	// follow the same rollback path.
	Timeout time.Duration `yaml:"timeout"`
	// FailureTTL is how long rolled-back mutations stay in the failure log.
	FailureTTL time.Duration `yaml:"failure_ttl"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		History: HistoryConfig{MaxDepth: 100},
		Database: DatabaseConfig{
			MaxOpenConns: 10,
			MaxIdleConns: 5,
			BusyTimeout:  5000,
		},
		Sync: SyncConfig{
			Timeout:    10 * time.Second,
			FailureTTL: 24 * time.Hour,
		},
		Theme: "default",
	}
}

// Load reads the config file (if present), merges it over the defaults,
// and validates the result.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	// Apply defaults for zero values
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.History.MaxDepth == 0 {
		c.History.MaxDepth = defaults.History.MaxDepth
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = defaults.Database.BusyTimeout
	}
	if c.Sync.Timeout == 0 {
		c.Sync.Timeout = defaults.Sync.Timeout
	}
	if c.Sync.FailureTTL == 0 {
		c.Sync.FailureTTL = defaults.Sync.FailureTTL
	}
	if c.Theme == "" {
		c.Theme = defaults.Theme
	}
}

// SnapshotFile returns the path to the state snapshot JSON file.
func (c *Config) SnapshotFile() string {
	return filepath.Join(c.DataDir, "state.json")
}
