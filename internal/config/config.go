// This file defines the configuration structure for the
// publishing client. It uses strict YAML decoding and explicit defaults.

package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the complete client configuration.
// All fields must have explicit defaults or be required.
type Config struct {
	Session     SessionConfig     `yaml:"session"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
}

// SessionConfig controls the RTMP session's timing and framing behavior.
type SessionConfig struct {
	ConnectTimeoutMS    int `yaml:"connect_timeout_ms"`
	ReadTimeoutMS       int `yaml:"read_timeout_ms"`
	CommandTimeoutMS    int `yaml:"command_timeout_ms"`
	KeepaliveIntervalMS int `yaml:"keepalive_interval_ms"`
	MaxMissedPings      int `yaml:"max_missed_pings"`
	OutChunkSize        int `yaml:"out_chunk_size"`
	WindowAckSize       int `yaml:"window_ack_size"`
	MaxVideoQueue       int `yaml:"max_video_queue"`
	MaxAudioQueue       int `yaml:"max_audio_queue"`
	Verbosity           string `yaml:"verbosity"`
}

// DiagnosticsConfig controls the optional local HTTP surface exposing
// health and telemetry for the running session (not part of the RTMP
// wire protocol itself).
type DiagnosticsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads configuration from a YAML file.
// Returns an error if the file cannot be read or decoded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields

	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

// setDefaults applies explicit default values to unset fields.
func (c *Config) setDefaults() {
	if c.Session.ConnectTimeoutMS == 0 {
		c.Session.ConnectTimeoutMS = 5000
	}
	if c.Session.ReadTimeoutMS == 0 {
		c.Session.ReadTimeoutMS = 5000
	}
	if c.Session.CommandTimeoutMS == 0 {
		c.Session.CommandTimeoutMS = 5000
	}
	if c.Session.KeepaliveIntervalMS == 0 {
		c.Session.KeepaliveIntervalMS = 30000
	}
	if c.Session.MaxMissedPings == 0 {
		c.Session.MaxMissedPings = 2
	}
	if c.Session.OutChunkSize == 0 {
		c.Session.OutChunkSize = 4096
	}
	if c.Session.WindowAckSize == 0 {
		c.Session.WindowAckSize = 2500000
	}
	if c.Session.MaxVideoQueue == 0 {
		c.Session.MaxVideoQueue = 4
	}
	if c.Session.MaxAudioQueue == 0 {
		c.Session.MaxAudioQueue = 8
	}
	if c.Session.Verbosity == "" {
		c.Session.Verbosity = "info"
	}
	if c.Diagnostics.Port == 0 {
		c.Diagnostics.Port = 8080
	}
}
