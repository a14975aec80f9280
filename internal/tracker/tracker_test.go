package tracker

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/camlock/internal/mat"
)

const (
	testGameA = float32(4.34)
	testGameB = float32(-930.0)
)

func testView(eyeZ float32) mgl32.Mat4 {
	return mat.ViewFromBasis(
		mgl32.Vec3{1, 0, 0},
		mgl32.Vec3{0, 1, 0},
		mgl32.Vec3{0, 0, 1},
		mgl32.Vec3{120, 40, eyeZ},
	)
}

func testProj() mgl32.Mat4 {
	return mat.Projection(1.45, 2.32, testGameA, testGameB)
}

// vpUpload composes a camera view-projection block for an eye at depth eyeZ,
// as the float payload of a 4-register upload.
func vpUpload(eyeZ float32) []float32 {
	block := mat.BlockOf(testProj().Mul4(testView(eyeZ)))
	return block[:]
}

func newTestTracker(t *testing.T) (*Tracker, *RecordingSink) {
	t.Helper()
	sink := &RecordingSink{}
	tr, err := New(DefaultConfig(), sink)
	require.NoError(t, err)
	return tr, sink
}

// lockTracker drives a tracker through three frames of camera movement so it
// locks, returning the view of the final (locked-on) frame.
func lockTracker(t *testing.T, tr *Tracker) mgl32.Mat4 {
	t.Helper()
	for i := 0; i < 3; i++ {
		tr.HandleConstantUpload(0, vpUpload(500+float32(i)*25))
		tr.HandleFrameBoundary()
	}
	require.Equal(t, StateLocked, tr.State())
	return testView(550)
}

func TestNewValidatesConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FarClip = cfg.NearClip
	_, err := New(cfg, &RecordingSink{})
	assert.Error(t, err)

	_, err = New(DefaultConfig(), nil)
	assert.Error(t, err)
}

func TestLocksAfterThreeMovingFrames(t *testing.T) {
	tr, sink := newTestTracker(t)

	tr.HandleConstantUpload(0, vpUpload(500))
	tr.HandleFrameBoundary()
	assert.Equal(t, StateScanning, tr.State())

	tr.HandleConstantUpload(0, vpUpload(510))
	tr.HandleFrameBoundary()
	assert.Equal(t, StateScanning, tr.State())

	tr.HandleConstantUpload(0, vpUpload(520))
	tr.HandleFrameBoundary()
	assert.Equal(t, StateLocked, tr.State())

	// Lock committed the frame's best candidate immediately.
	require.Len(t, sink.Views, 1)
	require.Len(t, sink.Projs, 1)
	assert.True(t, sink.Views[0].ApproxEqualThreshold(testView(520), 1e-3))

	snap := tr.Snapshot()
	assert.Equal(t, "locked", snap.State)
	assert.Equal(t, 2, snap.LockFrame)
	assert.True(t, snap.HasCamera)
}

func TestStaticDepthNeverLocks(t *testing.T) {
	tr, sink := newTestTracker(t)

	// The first frame always differs from the zero-initialized previous
	// depth; every frame after that is still, so the counter stalls at 1.
	for i := 0; i < 50; i++ {
		tr.HandleConstantUpload(0, vpUpload(500))
		tr.HandleFrameBoundary()
	}
	assert.Equal(t, StateScanning, tr.State())
	assert.Empty(t, sink.Views)
	assert.Equal(t, 1, tr.Snapshot().Consecutive)
}

func TestCounterSurvivesCandidateFreeFrames(t *testing.T) {
	tr, _ := newTestTracker(t)

	depths := []float32{500, 510, 520}
	for i, d := range depths {
		tr.HandleConstantUpload(0, vpUpload(d))
		tr.HandleFrameBoundary()
		if i < len(depths)-1 {
			// Gap frames without any candidate; the counter must not reset.
			tr.HandleFrameBoundary()
			tr.HandleFrameBoundary()
		}
	}
	assert.Equal(t, StateLocked, tr.State())
}

func TestLockIsPermanent(t *testing.T) {
	tr, _ := newTestTracker(t)
	lockTracker(t, tr)

	bad := make([]float32, 16)
	bad[3] = float32(math.NaN())
	for i := 0; i < 20; i++ {
		tr.HandleConstantUpload(0, bad)
		tr.HandleConstantUpload(0, make([]float32, 16))
		tr.HandleFrameBoundary()
	}
	assert.Equal(t, StateLocked, tr.State())
	assert.True(t, tr.Snapshot().HasCamera, "hasCamera is monotonic")
}

func TestIgnoresUploadsOutsideWatchedWindow(t *testing.T) {
	tr, _ := newTestTracker(t)

	// Starts past the window.
	tr.HandleConstantUpload(4, vpUpload(500))
	// Too short to cover all four registers.
	tr.HandleConstantUpload(0, vpUpload(500)[:12])
	tr.HandleFrameBoundary()

	assert.Zero(t, tr.Snapshot().Uploads)
	assert.Zero(t, tr.Snapshot().Consecutive)
}

func TestExtractsBlockAtWindowOffset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WatchedSlot = 2
	sink := &RecordingSink{}
	tr, err := New(cfg, sink)
	require.NoError(t, err)

	// Upload covering registers 0..7; the watched block sits at offset 8.
	payload := make([]float32, 32)
	copy(payload[8:24], vpUpload(500))
	tr.HandleConstantUpload(0, payload)
	tr.HandleFrameBoundary()

	snap := tr.Snapshot()
	assert.Equal(t, uint64(1), snap.Uploads)
	assert.Equal(t, uint64(1), snap.Candidates)
	assert.Equal(t, 1, snap.Consecutive)
}

func TestLastQualifyingUploadWinsWithinFrame(t *testing.T) {
	tr, sink := newTestTracker(t)
	lockTracker(t, tr)
	committed := len(sink.Views)

	// Two qualifying camera uploads in one frame: only the second survives
	// to the boundary commit.
	tr.HandleConstantUpload(0, vpUpload(600))
	tr.HandleConstantUpload(0, vpUpload(700))
	tr.HandleFrameBoundary()

	require.Len(t, sink.Views, committed+1)
	require.Len(t, sink.Projs, committed+1)
	assert.True(t, sink.Views[committed].ApproxEqualThreshold(testView(700), 1e-3),
		"boundary must commit the later upload")
	assert.Equal(t, uint64(1), tr.Snapshot().PendingDropped)
}

func TestHalfResolutionUploadProducesIdentityWorld(t *testing.T) {
	tr, sink := newTestTracker(t)
	lockTracker(t, tr)

	block := mat.BlockOf(testProj().Mul4(testView(550)))
	block[14] = 0.5 // stripped depth translation: half-res or UI pass
	tr.HandleConstantUpload(0, block[:])

	require.NotEmpty(t, sink.Worlds)
	assert.Equal(t, mgl32.Ident4(), sink.Worlds[len(sink.Worlds)-1])
}

func TestWorldExtractionRecoversObjectTransform(t *testing.T) {
	tr, sink := newTestTracker(t)
	view := lockTracker(t, tr)

	world := mgl32.Translate3D(35, -12, 260)
	mvp := mat.BlockOf(testProj().Mul4(view).Mul4(world))
	tr.HandleConstantUpload(0, mvp[:])

	require.NotEmpty(t, sink.Worlds)
	got := sink.Worlds[len(sink.Worlds)-1]
	assert.True(t, got.ApproxEqualThreshold(world, 1e-2),
		"recovered world transform drifted: got %v want %v", got, world)
}

func TestWorldInverseUsesGameProjection(t *testing.T) {
	tr, sink := newTestTracker(t)
	view := lockTracker(t, tr)

	// If the tracker had cached the synthetic projection's inverse instead
	// of the game's, the recovered world would pick up the depth-range
	// mismatch. The committed projection differs from the game's...
	require.NotEmpty(t, sink.Projs)
	lastProj := sink.Projs[len(sink.Projs)-1]
	assert.NotEqual(t, testGameA, lastProj.At(2, 2))

	// ...but world recovery still cancels exactly against the game's.
	world := mgl32.HomogRotate3DY(0.4).Mul4(mgl32.Translate3D(0, 0, 500))
	mvp := mat.BlockOf(testProj().Mul4(view).Mul4(world))
	tr.HandleConstantUpload(0, mvp[:])
	got := sink.Worlds[len(sink.Worlds)-1]
	assert.True(t, got.ApproxEqualThreshold(world, 1e-2))
}

func TestNoCameraCommitWhileScanning(t *testing.T) {
	tr, sink := newTestTracker(t)
	tr.HandleConstantUpload(0, vpUpload(500))
	tr.HandleConstantUpload(0, vpUpload(501))
	tr.HandleFrameBoundary()
	assert.Empty(t, sink.Views)
	assert.Empty(t, sink.Worlds)
}

func TestLockWithLogSink(t *testing.T) {
	tr, err := New(DefaultConfig(), LogSink{})
	require.NoError(t, err)
	lockTracker(t, tr)
	assert.True(t, tr.Snapshot().HasCamera)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "scanning", StateScanning.String())
	assert.Equal(t, "locked", StateLocked.String())
}
