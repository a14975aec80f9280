package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIsolatedLoader() *Loader {
	return &Loader{v: viper.New()}
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 3, cfg.Tracker.LockFrames)
	assert.InDelta(t, 0.01, float64(cfg.Tracker.LockDelta), 1e-6)
	assert.InDelta(t, 10.0, float64(cfg.Tracker.NearClip), 1e-6)
	assert.InDelta(t, 100000.0, float64(cfg.Tracker.FarClip), 1e-1)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tracker.LockFrames = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Server.Port = 70000
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.LogLevel = "chatty"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Replay.FrameDelayMs = -1
	assert.Error(t, cfg.Validate())
}

func TestSlogLevel(t *testing.T) {
	cfg := DefaultConfig()
	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)

	cfg.LogLevel = "warn"
	level, err = cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	// Verbose wins over the configured level.
	cfg.Verbose = true
	level, err = cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	l := newIsolatedLoader()
	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 3, cfg.Tracker.LockFrames)
	assert.InDelta(t, 0.3, float64(cfg.Tracker.Score.ScaleMin), 1e-6)
}

func TestLoadWithFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "camlock.yaml")
	content := []byte(`
log_level: debug
tracker:
  lock_frames: 5
  near_clip: 1.0
  far_clip: 5000
server:
  port: 9001
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := newIsolatedLoader().LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5, cfg.Tracker.LockFrames)
	assert.InDelta(t, 1.0, float64(cfg.Tracker.NearClip), 1e-6)
	assert.Equal(t, 9001, cfg.Server.Port)
	// Unset keys fall back to defaults.
	assert.InDelta(t, 0.01, float64(cfg.Tracker.LockDelta), 1e-6)
}

func TestLoadWithMissingFile(t *testing.T) {
	_, err := newIsolatedLoader().LoadWithFile("/nonexistent/camlock.yaml")
	assert.Error(t, err)
}

func TestLoadWithInvalidFileValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "camlock.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tracker:\n  lock_frames: 0\n"), 0o600))

	_, err := newIsolatedLoader().LoadWithFile(path)
	assert.Error(t, err)
}

func TestServerAddr(t *testing.T) {
	s := ServerConfig{Host: "0.0.0.0", Port: 8970}
	assert.Equal(t, "0.0.0.0:8970", s.Addr())
}
