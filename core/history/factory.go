package history

import (
	"fmt"
	"time"
)

// Backends understood by Open.
const (
	BackendJSONL  = "jsonl"
	BackendSQLite = "sqlite"
)

// Config selects and tunes the history backend.
type Config struct {
	Backend string `json:"backend"`
	Path    string `json:"path"`
	// Rotation applies to the jsonl backend. MaxSizeMB of zero disables it.
	MaxSizeMB  int `json:"max_size_mb"`
	MaxBackups int `json:"max_backups"`
	MaxAgeDays int `json:"max_age_days"`
}

// Open returns the store for backend located at path.
func Open(backend, path string) (Store, error) {
	return OpenConfig(Config{Backend: backend, Path: path})
}

// OpenConfig returns the store described by cfg.
func OpenConfig(cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendJSONL, "":
		if cfg.MaxSizeMB > 0 {
			return NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
		}
		return NewJSONLStore(cfg.Path)
	case BackendSQLite:
		return NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown history backend %s", cfg.Backend)
	}
}

func unixNano(ns int64) time.Time { return time.Unix(0, ns).UTC() }
