package config

import (
	"fmt"
	"time"
)

// HTTPConfig defines the API listener.
type HTTPConfig struct {
	Address string `json:"address"`
	// Token enables bearer authentication when set.
	Token string `json:"token"`
	// RateLimit is the number of generate requests allowed per second.
	// Zero disables throttling.
	RateLimit float64 `json:"rate_limit"`
	RateBurst int     `json:"rate_burst"`
	// ReadTimeoutSeconds bounds reading a request.
	ReadTimeoutSeconds int `json:"read_timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *HTTPConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.RateLimit > 0 && c.RateBurst <= 0 {
		c.RateBurst = 1
	}
	if c.ReadTimeoutSeconds <= 0 {
		c.ReadTimeoutSeconds = 15
	}
}

// Validate checks the rate settings.
func (c HTTPConfig) Validate() error {
	if c.RateLimit < 0 {
		return fmt.Errorf("http: rate_limit must not be negative")
	}
	return nil
}

// ReadTimeout returns the read timeout as a duration.
func (c HTTPConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}
