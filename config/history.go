package config

import (
	"fmt"

	"github.com/kilianp07/mineplan/core/history"
)

// HistoryConfig defines settings for schedule history storage and rotation.
type HistoryConfig struct {
	// Backend selects the store type: "jsonl" or "sqlite".
	Backend string `json:"backend"`
	// Path is the file location of the store.
	Path string `json:"path"`
	// MaxSizeMB triggers rotation of the jsonl file. Zero disables rotation.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *HistoryConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = history.BackendJSONL
	}
	if c.Path == "" {
		if c.Backend == history.BackendSQLite {
			c.Path = "schedules.db"
		} else {
			c.Path = "schedules.jsonl"
		}
	}
}

// Validate checks mandatory fields.
func (c HistoryConfig) Validate() error {
	if c.Backend != history.BackendJSONL && c.Backend != history.BackendSQLite {
		return fmt.Errorf("history: unknown backend %s", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("history: path is required")
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmt.Errorf("history: rotation settings must not be negative")
	}
	return nil
}

// Store returns the history store configuration.
func (c HistoryConfig) Store() history.Config {
	return history.Config{
		Backend:    c.Backend,
		Path:       c.Path,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
	}
}
