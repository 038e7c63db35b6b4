package config

import "fmt"

// SentryConfig defines settings for reporting generation faults to Sentry.
// Reporting is off while DSN is empty.
type SentryConfig struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	Release          string  `json:"release"`
	ServerName       string  `json:"server_name"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
	FlushTimeoutMS   int     `json:"flush_timeout_ms"`
}

// Enabled reports whether a DSN is configured.
func (c SentryConfig) Enabled() bool { return c.DSN != "" }

// SetDefaults applies sane defaults.
func (c *SentryConfig) SetDefaults() {
	if c.Environment == "" {
		c.Environment = "production"
	}
	if c.FlushTimeoutMS <= 0 {
		c.FlushTimeoutMS = 2000
	}
}

// Validate checks the sample rate.
func (c SentryConfig) Validate() error {
	if c.TracesSampleRate < 0 || c.TracesSampleRate > 1 {
		return fmt.Errorf("sentry: traces_sample_rate must be between 0 and 1")
	}
	return nil
}
