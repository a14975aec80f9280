package trace

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/camlock/internal/tracker"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	orig := Synthesize(DefaultSynthConfig())
	path := filepath.Join(t.TempDir(), "fly.yaml")
	require.NoError(t, orig.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Len(t, loaded.Frames, len(orig.Frames))
	assert.Equal(t, orig.Uploads(), loaded.Uploads())
	assert.InDeltaSlice(t,
		toF64(orig.Frames[0].Uploads[0].Data),
		toF64(loaded.Frames[0].Uploads[0].Data), 1e-6)
}

func toF64(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

func TestLoadRejectsRaggedPayload(t *testing.T) {
	tr := &Trace{Frames: []Frame{{Uploads: []Upload{{Slot: 0, Data: []float32{1, 2, 3}}}}}}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, tr.Save(path))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/trace.yaml")
	assert.Error(t, err)
}

func TestReplaySyntheticFlyThroughLocks(t *testing.T) {
	sink := &tracker.RecordingSink{}
	tr, err := tracker.New(tracker.DefaultConfig(), sink)
	require.NoError(t, err)

	frames := 0
	Replay(tr, Synthesize(DefaultSynthConfig()), func(int) { frames++ })

	assert.Equal(t, 30, frames)
	assert.Equal(t, tracker.StateLocked, tr.State())

	snap := tr.Snapshot()
	assert.True(t, snap.HasCamera)
	// Locks on the third frame of continuous movement.
	assert.Equal(t, 2, snap.LockFrame)
	assert.NotEmpty(t, sink.Worlds, "object draws must produce world transforms")
	// Camera recommits once per frame after the lock.
	assert.Equal(t, snap.CameraCommits, uint64(frames-snap.LockFrame))
}

func TestReplayWithDecoysStillLocksOnCamera(t *testing.T) {
	cfg := DefaultSynthConfig()
	cfg.WithStaticDecoy = true
	cfg.WithHalfResPass = true

	sink := &tracker.RecordingSink{}
	tr, err := tracker.New(tracker.DefaultConfig(), sink)
	require.NoError(t, err)
	Replay(tr, Synthesize(cfg), nil)

	require.Equal(t, tracker.StateLocked, tr.State())
	snap := tr.Snapshot()
	// The locked camera is the moving fly-through, not the static decoy:
	// the decoy sits 5 units from the origin, the camera hundreds.
	assert.Greater(t, float64(snap.Eye[2]), 100.0)
	assert.Positive(t, snap.WorldsIdentity, "half-res passes produce identity worlds")
}

func TestSynthesizeShape(t *testing.T) {
	cfg := DefaultSynthConfig()
	cfg.Frames = 4
	cfg.ObjectsPerFrame = 3
	tr := Synthesize(cfg)
	require.Len(t, tr.Frames, 4)
	assert.Equal(t, 4*(1+3), tr.Uploads())
	require.NoError(t, tr.Validate())
}
