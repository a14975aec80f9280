package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "camlock"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "CAMLOCK"
)

// Loader handles loading configuration from various sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	// Use the global viper instance to ensure flag bindings work
	return &Loader{v: viper.GetViper()}
}

// Load loads configuration from files, environment variables, and defaults,
// then validates it.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	l.addConfigPaths()
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env vars apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return l.unmarshal()
}

// LoadWithFile loads configuration from a specific file path.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}

	l.v.SetConfigFile(configFile)
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}

	return l.unmarshal()
}

func (l *Loader) unmarshal() (*Config, error) {
	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

// GetConfigFileUsed returns the path of the config file used.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper returns the underlying viper instance for advanced usage.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// addConfigPaths adds the standard configuration search paths.
func (l *Loader) addConfigPaths() {
	// Current directory
	l.v.AddConfigPath(".")

	// User's home directory
	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
	}

	// System-wide configuration
	l.v.AddConfigPath("/etc/camlock")

	// XDG config directory
	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		l.v.AddConfigPath(filepath.Join(configDir, "camlock"))
	} else if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(filepath.Join(home, ".config", "camlock"))
	}
}

// setupEnvironmentVariables configures environment variable handling, e.g.
// CAMLOCK_TRACKER_LOCK_FRAMES overrides tracker.lock_frames.
func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()
}

// setDefaults seeds viper with the default configuration so partial files
// and env vars overlay a complete config.
func (l *Loader) setDefaults() {
	def := DefaultConfig()

	l.v.SetDefault("log_level", def.LogLevel)
	l.v.SetDefault("verbose", def.Verbose)

	l.v.SetDefault("tracker.watched_slot", def.Tracker.WatchedSlot)
	l.v.SetDefault("tracker.lock_frames", def.Tracker.LockFrames)
	l.v.SetDefault("tracker.lock_delta", def.Tracker.LockDelta)
	l.v.SetDefault("tracker.min_lock_score", def.Tracker.MinLockScore)
	l.v.SetDefault("tracker.world_depth_min", def.Tracker.WorldDepthMin)
	l.v.SetDefault("tracker.near_clip", def.Tracker.NearClip)
	l.v.SetDefault("tracker.far_clip", def.Tracker.FarClip)
	l.v.SetDefault("tracker.aspect", def.Tracker.Aspect)
	l.v.SetDefault("tracker.diagnostic_frames", def.Tracker.DiagnosticFrames)
	l.v.SetDefault("tracker.status_interval", def.Tracker.StatusInterval)

	l.v.SetDefault("tracker.score.forward_min", def.Tracker.Score.ForwardMin)
	l.v.SetDefault("tracker.score.forward_max", def.Tracker.Score.ForwardMax)
	l.v.SetDefault("tracker.score.forward_unit_slack", def.Tracker.Score.ForwardUnitSlack)
	l.v.SetDefault("tracker.score.scale_min", def.Tracker.Score.ScaleMin)
	l.v.SetDefault("tracker.score.scale_max", def.Tracker.Score.ScaleMax)
	l.v.SetDefault("tracker.score.min_camera_distance", def.Tracker.Score.MinCameraDistance)

	l.v.SetDefault("server.host", def.Server.Host)
	l.v.SetDefault("server.port", def.Server.Port)
	l.v.SetDefault("server.timeout_sec", def.Server.TimeoutSec)

	l.v.SetDefault("replay.frame_delay_ms", def.Replay.FrameDelayMs)
}
