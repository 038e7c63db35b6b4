package mqtt

import "errors"

var (
	// ErrNotConnected is returned when publishing before a connection exists.
	ErrNotConnected = errors.New("mqtt client not connected")
	// ErrNoTopic is returned when no schedule topic is configured.
	ErrNoTopic = errors.New("mqtt schedule topic not configured")
)
