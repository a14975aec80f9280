// Package config defines the application configuration and its loading from
// files, environment variables, and command-line flags.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/MeKo-Tech/camlock/internal/tracker"
)

// Config represents the complete configuration for the camlock application:
// the tracker tunables, telemetry server settings, and replay options.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Camera tracker tunables
	Tracker tracker.Config `mapstructure:"tracker" yaml:"tracker" json:"tracker"`

	// Telemetry server settings (replay --serve)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`

	// Trace replay settings
	Replay ReplayConfig `mapstructure:"replay" yaml:"replay" json:"replay"`
}

// ServerConfig contains telemetry HTTP server settings.
type ServerConfig struct {
	Host       string `mapstructure:"host" yaml:"host" json:"host"`
	Port       int    `mapstructure:"port" yaml:"port" json:"port"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ReplayConfig contains trace replay settings.
type ReplayConfig struct {
	// FrameDelayMs paces replayed frames; zero replays as fast as possible.
	FrameDelayMs int `mapstructure:"frame_delay_ms" yaml:"frame_delay_ms" json:"frame_delay_ms"`
}

// DefaultConfig returns a configuration with all defaults applied.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Tracker:  tracker.DefaultConfig(),
		Server: ServerConfig{
			Host:       "localhost",
			Port:       8970,
			TimeoutSec: 30,
		},
		Replay: ReplayConfig{FrameDelayMs: 0},
	}
}

// Validate checks the configuration for invalid values and returns a
// descriptive error for the first problem found.
func (c *Config) Validate() error {
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if err := c.Tracker.Validate(); err != nil {
		return fmt.Errorf("tracker: %w", err)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be in [0, 65535], got %d", c.Server.Port)
	}
	if c.Server.TimeoutSec < 1 {
		return fmt.Errorf("server timeout must be at least 1s, got %d", c.Server.TimeoutSec)
	}
	if c.Replay.FrameDelayMs < 0 {
		return fmt.Errorf("replay frame delay must not be negative, got %d", c.Replay.FrameDelayMs)
	}
	return nil
}

// SlogLevel translates the configured log level into a slog level. Verbose
// forces debug regardless of the configured level.
func (c *Config) SlogLevel() (slog.Level, error) {
	if c.Verbose {
		return slog.LevelDebug, nil
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", c.LogLevel)
	}
}
