// This file validates configuration values and returns descriptive errors.

package config

import "fmt"

// Validate checks that all configuration values are within acceptable ranges.
// Returns an error describing the first validation failure found.
func (c *Config) Validate() error {
	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("session config: %w", err)
	}
	if err := c.Diagnostics.Validate(); err != nil {
		return fmt.Errorf("diagnostics config: %w", err)
	}
	return nil
}

// Validate checks session configuration values.
func (s *SessionConfig) Validate() error {
	if s.ConnectTimeoutMS <= 0 {
		return fmt.Errorf("connect_timeout_ms must be positive, got %d", s.ConnectTimeoutMS)
	}
	if s.ReadTimeoutMS <= 0 {
		return fmt.Errorf("read_timeout_ms must be positive, got %d", s.ReadTimeoutMS)
	}
	if s.CommandTimeoutMS <= 0 {
		return fmt.Errorf("command_timeout_ms must be positive, got %d", s.CommandTimeoutMS)
	}
	if s.KeepaliveIntervalMS <= 0 {
		return fmt.Errorf("keepalive_interval_ms must be positive, got %d", s.KeepaliveIntervalMS)
	}
	if s.MaxMissedPings <= 0 {
		return fmt.Errorf("max_missed_pings must be positive, got %d", s.MaxMissedPings)
	}
	if s.OutChunkSize <= 0 || s.OutChunkSize > 16777215 {
		return fmt.Errorf("out_chunk_size must be between 1 and 16777215, got %d", s.OutChunkSize)
	}
	if s.WindowAckSize <= 0 {
		return fmt.Errorf("window_ack_size must be positive, got %d", s.WindowAckSize)
	}
	if s.MaxVideoQueue <= 0 {
		return fmt.Errorf("max_video_queue must be positive, got %d", s.MaxVideoQueue)
	}
	if s.MaxAudioQueue <= 0 {
		return fmt.Errorf("max_audio_queue must be positive, got %d", s.MaxAudioQueue)
	}
	switch s.Verbosity {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("verbosity must be one of trace|debug|info|warn|error, got %q", s.Verbosity)
	}
	return nil
}

// Validate checks diagnostics configuration values.
func (d *DiagnosticsConfig) Validate() error {
	if !d.Enabled {
		return nil
	}
	if d.Port <= 0 || d.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", d.Port)
	}
	return nil
}
