// Package tracker implements per-device camera detection: it consumes the
// ordered stream of shader-constant uploads and frame boundaries, decides
// when a stable view-projection source has been found, and republishes the
// decomposed camera plus per-draw world transforms to a transform sink.
package tracker

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/MeKo-Tech/camlock/internal/camera"
	"github.com/MeKo-Tech/camlock/internal/mat"
)

// State is the detection confidence of a tracker. It only ever moves from
// StateScanning to StateLocked; there is no way back for the lifetime of
// the tracker.
type State int

const (
	// StateScanning means no stable camera source has been confirmed yet.
	StateScanning State = iota
	// StateLocked means the watched slot is the authoritative camera source.
	StateLocked
)

func (s State) String() string {
	if s == StateLocked {
		return "locked"
	}
	return "scanning"
}

// Config holds the tracker tunables. The lock and world thresholds are
// empirically tuned against one engine family and should be
// treated as per-engine values, not universal constants.
type Config struct {
	// WatchedSlot is the first constant register of the 4-register window
	// the view-projection is expected in. Resolved once at session start;
	// the tracker never re-detects it.
	WatchedSlot uint32 `mapstructure:"watched_slot" yaml:"watched_slot" json:"watched_slot"`

	// LockFrames is how many frames with meaningful depth movement must
	// accumulate before locking.
	LockFrames int `mapstructure:"lock_frames" yaml:"lock_frames" json:"lock_frames"`

	// LockDelta is the minimum |Δf15| between consecutive candidate frames
	// that counts as camera movement.
	LockDelta float32 `mapstructure:"lock_delta" yaml:"lock_delta" json:"lock_delta"`

	// MinLockScore is the score a candidate needs, once locked, to feed the
	// pending camera update. The scorer's hard gates mean any passing score
	// clears the default; the slack below camera.MinPassingScore is
	// headroom for retuned gate weights.
	MinLockScore int `mapstructure:"min_lock_score" yaml:"min_lock_score" json:"min_lock_score"`

	// WorldDepthMin separates full-resolution passes (|f14| above it, eye
	// depth present) from half-resolution or UI passes whose depth term was
	// stripped by the source engine.
	WorldDepthMin float32 `mapstructure:"world_depth_min" yaml:"world_depth_min" json:"world_depth_min"`

	// NearClip/FarClip parameterize the synthetic projection handed to the
	// sink in place of the game's own depth range.
	NearClip float32 `mapstructure:"near_clip" yaml:"near_clip" json:"near_clip"`
	FarClip  float32 `mapstructure:"far_clip" yaml:"far_clip" json:"far_clip"`

	// Aspect is the display aspect ratio. The detection math derives its
	// scales from the matrices themselves; this value feeds trace synthesis
	// and diagnostics.
	Aspect float32 `mapstructure:"aspect" yaml:"aspect" json:"aspect"`

	// DiagnosticFrames is how many frames of per-candidate detail to log
	// after the first candidate is seen. Zero disables the window.
	DiagnosticFrames int `mapstructure:"diagnostic_frames" yaml:"diagnostic_frames" json:"diagnostic_frames"`

	// StatusInterval is the period, in frames, of the status log line.
	// Zero disables it.
	StatusInterval int `mapstructure:"status_interval" yaml:"status_interval" json:"status_interval"`

	// Score holds the candidate scoring thresholds.
	Score camera.ScoreConfig `mapstructure:"score" yaml:"score" json:"score"`
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		WatchedSlot:      0,
		LockFrames:       3,
		LockDelta:        0.01,
		MinLockScore:     6,
		WorldDepthMin:    1.0,
		NearClip:         10.0,
		FarClip:          100000.0,
		Aspect:           16.0 / 9.0,
		DiagnosticFrames: 10,
		StatusInterval:   300,
		Score:            camera.DefaultScoreConfig(),
	}
}

// Validate checks the configuration for values the tracker cannot run with.
func (c Config) Validate() error {
	if c.LockFrames < 1 {
		return errors.New("lock_frames must be at least 1")
	}
	if c.LockDelta < 0 {
		return errors.New("lock_delta must not be negative")
	}
	if c.NearClip <= 0 {
		return fmt.Errorf("near_clip must be positive, got %v", c.NearClip)
	}
	if c.FarClip <= c.NearClip {
		return fmt.Errorf("far_clip (%v) must exceed near_clip (%v)", c.FarClip, c.NearClip)
	}
	if c.MinLockScore < 1 {
		return errors.New("min_lock_score must be at least 1")
	}
	return nil
}

// diagLineLimit caps per-frame diagnostic log lines inside the window.
const diagLineLimit = 15

// Tracker owns the detection state for one wrapped rendering device. All
// methods except Snapshot must be called from the device's single rendering
// thread, in upload/draw/present order; the host API already guarantees
// that ordering, so the hot path takes no locks.
type Tracker struct {
	cfg  Config
	sink Sink

	state       State
	frame       int
	lockFrame   int
	consecutive int
	prevDepth   float32

	frameBest      mat.Block
	frameBestScore int
	hasFrameBest   bool

	lastView     mgl32.Mat4
	lastProj     mgl32.Mat4
	lastGameProj mgl32.Mat4
	lastDec      camera.Decomposition
	vpInverse    mgl32.Mat4
	hasCamera    bool
	hasInverse   bool

	pendingDec    camera.Decomposition
	pendingUpdate bool

	diagStartFrame  int
	diagLines       int
	loggedGameProj  bool
	uploadsSeen     uint64
	candidatesSeen  uint64
	worldsFull      uint64
	worldsIdentity  uint64
	viewCommits     uint64
	pendingDropped  uint64

	snapMu sync.Mutex
	snap   Snapshot
}

// New creates a tracker for a single device stream.
func New(cfg Config, sink Sink) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("tracker config: %w", err)
	}
	if sink == nil {
		return nil, errors.New("tracker: sink must not be nil")
	}
	t := &Tracker{
		cfg:            cfg,
		sink:           sink,
		lockFrame:      -1,
		diagStartFrame: -1,
	}
	t.publishSnapshot()
	return t, nil
}

// State returns the current detection state.
func (t *Tracker) State() State {
	return t.state
}

// HandleConstantUpload inspects a raw shader-constant upload. Uploads that
// do not fully cover the watched 4-register window are ignored; covering
// uploads are scored, tracked as the frame's best candidate, and, once
// locked, drive the pending camera update and per-draw world extraction.
func (t *Tracker) HandleConstantUpload(startSlot uint32, data []float32) {
	count := uint32(len(data)) / 4
	if count < 4 || startSlot > t.cfg.WatchedSlot || startSlot+count < t.cfg.WatchedSlot+4 {
		return
	}
	offset := (t.cfg.WatchedSlot - startSlot) * 4
	var block mat.Block
	copy(block[:], data[offset:offset+16])

	t.uploadsSeen++
	uploadsTotal.Inc()

	score := camera.Score(block, t.cfg.Score)
	if score > 0 {
		t.candidatesSeen++
		candidatesTotal.Inc()
	} else {
		rejectedTotal.Inc()
	}

	t.logDiagnostics(block, score)

	if score > t.frameBestScore {
		t.frameBest = block
		t.frameBestScore = score
		t.hasFrameBest = true
	}

	if t.state != StateLocked {
		return
	}

	if score >= t.cfg.MinLockScore {
		if dec, err := camera.Decompose(block, t.cfg.NearClip, t.cfg.FarClip); err == nil {
			if !t.hasCamera {
				// Locked without a camera yet (the lock candidate failed to
				// decompose): apply immediately so draws stop waiting.
				slog.Info("First camera decomposed",
					"eye_x", dec.Eye.X(), "eye_y", dec.Eye.Y(), "eye_z", dec.Eye.Z(),
					"x_scale", dec.XScale, "y_scale", dec.YScale, "game_a", dec.GameA)
				t.commitCamera(dec)
			} else {
				// Single-slot staging buffer: a later qualifying upload in
				// the same frame replaces this one, so the last write of the
				// frame is what the boundary commits.
				if t.pendingUpdate {
					t.pendingDropped++
				}
				t.pendingDec = dec
				t.pendingUpdate = true
			}
		}
	}

	t.extractWorld(block)
}

// extractWorld derives the object's world transform from an uploaded block
// while a cached view-projection inverse is available.
func (t *Tracker) extractWorld(block mat.Block) {
	if !t.hasInverse {
		return
	}
	// f14 carries the depth translation term of a full-resolution pass; the
	// source engine strips it for half-resolution and UI passes, and a
	// world recovered from such a block would be meaningless.
	if abs32(block[14]) > t.cfg.WorldDepthMin {
		world := t.vpInverse.Mul4(block.Mat4())
		t.sink.SetWorldTransform(world)
		t.worldsFull++
		worldTransformsTotal.WithLabelValues("full").Inc()
	} else {
		t.sink.SetWorldTransform(mgl32.Ident4())
		t.worldsIdentity++
		worldTransformsTotal.WithLabelValues("identity").Inc()
	}
}

// HandleFrameBoundary runs the per-frame bookkeeping: the lock transition
// while scanning, the at-most-one camera commit, scratch-state reset, and
// periodic status logging. It must be called exactly once per rendered
// frame, after all uploads and draws.
func (t *Tracker) HandleFrameBoundary() {
	if t.state == StateScanning && t.hasFrameBest {
		t.evaluateLock()
	}

	if t.pendingUpdate && t.hasCamera {
		t.commitCamera(t.pendingDec)
		t.pendingUpdate = false
	}

	// Per-frame scratch.
	t.hasFrameBest = false
	t.frameBestScore = 0
	t.diagLines = 0

	t.frame++
	framesTotal.Inc()

	if t.cfg.StatusInterval > 0 && t.frame%t.cfg.StatusInterval == 0 {
		t.logStatus()
	}

	t.publishSnapshot()
}

// evaluateLock applies the temporal-evidence rule: the best candidate's f15
// (depth translation) must move across frames. A static overlay that scores
// structurally never moves and therefore never locks. The counter survives
// candidate-free frames and frames of transient stillness; it is never
// reset.
func (t *Tracker) evaluateLock() {
	delta := abs32(t.frameBest[15] - t.prevDepth)
	if delta > t.cfg.LockDelta {
		t.consecutive++
	}
	t.prevDepth = t.frameBest[15]

	if t.consecutive < t.cfg.LockFrames {
		return
	}

	t.state = StateLocked
	t.lockFrame = t.frame
	lockStateGauge.Set(1)
	lockFrameGauge.Set(float64(t.frame))
	slog.Info("Camera source locked",
		"frame", t.frame,
		"slot", t.cfg.WatchedSlot,
		"score", t.frameBestScore,
		"depth", t.frameBest[15])

	dec, err := camera.Decompose(t.frameBest, t.cfg.NearClip, t.cfg.FarClip)
	if err != nil {
		// Stay locked; the next qualifying upload supplies the camera.
		slog.Warn("Lock candidate failed to decompose", "error", err)
		return
	}
	t.commitCamera(dec)
}

// commitCamera publishes a decomposed camera to the sink and recomputes the
// cached inverse. The inverse always derives from the game's actual
// projection, never the synthetic one, and is rebuilt from the same
// view/projection pair in one step so no draw observes a mismatched cache.
func (t *Tracker) commitCamera(dec camera.Decomposition) {
	t.lastView = dec.View
	t.lastProj = dec.Proj
	t.lastGameProj = dec.GameProj
	t.lastDec = dec

	t.sink.SetViewTransform(t.lastView)
	t.sink.SetProjectionTransform(t.lastProj)
	t.viewCommits++
	cameraCommitsTotal.Inc()

	t.vpInverse = mat.InvertRigid(t.lastView).Mul4(mat.InvertPerspective(t.lastGameProj))
	t.hasInverse = true
	t.hasCamera = true

	if !t.loggedGameProj {
		t.loggedGameProj = true
		near, far := dec.NearFarEstimate()
		slog.Info("Game projection recovered",
			"game_a", dec.GameA, "game_b", dec.GameB,
			"x_scale", dec.XScale, "y_scale", dec.YScale,
			"near_est", near, "far_est", far)
	}
}

// logDiagnostics emits per-candidate detail during the diagnostic window,
// which opens at the first scoring candidate and spans DiagnosticFrames
// frames, capped at diagLineLimit lines per frame.
func (t *Tracker) logDiagnostics(block mat.Block, score int) {
	if t.cfg.DiagnosticFrames <= 0 {
		return
	}
	if t.diagStartFrame < 0 {
		if score == 0 {
			return
		}
		t.diagStartFrame = t.frame
		slog.Debug("Diagnostic window opened", "frame", t.frame)
	}
	if t.frame >= t.diagStartFrame+t.cfg.DiagnosticFrames || t.diagLines >= diagLineLimit {
		return
	}
	t.diagLines++
	slog.Debug("Candidate",
		"frame", t.frame,
		"score", score,
		"forward_mag", mag3(block[3], block[7], block[11]),
		"x_scale", mag3(block[0], block[4], block[8]),
		"y_scale", mag3(block[1], block[5], block[9]),
		"depth", block[15])
}

func (t *Tracker) logStatus() {
	args := []any{
		"frame", t.frame,
		"state", t.state.String(),
		"has_camera", t.hasCamera,
		"slot", t.cfg.WatchedSlot,
	}
	if t.hasCamera {
		args = append(args,
			"eye_x", t.lastDec.Eye.X(), "eye_y", t.lastDec.Eye.Y(), "eye_z", t.lastDec.Eye.Z(),
			"x_scale", t.lastDec.XScale, "y_scale", t.lastDec.YScale)
	}
	slog.Info("Tracker status", args...)
}

func mag3(x, y, z float32) float32 {
	return float32(math.Sqrt(float64(x*x + y*y + z*z)))
}

func abs32(v float32) float32 {
	return float32(math.Abs(float64(v)))
}
