package tracker

// Snapshot is an immutable view of a tracker's public state, rebuilt at
// every frame boundary. The telemetry server and replay reports read it
// without touching the single-threaded hot path.
type Snapshot struct {
	State       string `json:"state"`
	Frame       int    `json:"frame"`
	LockFrame   int    `json:"lock_frame"`
	Consecutive int    `json:"consecutive_change_frames"`
	HasCamera   bool   `json:"has_camera"`
	WatchedSlot uint32 `json:"watched_slot"`

	Eye    [3]float32 `json:"eye"`
	XScale float32    `json:"x_scale"`
	YScale float32    `json:"y_scale"`
	GameA  float32    `json:"game_a"`
	GameB  float32    `json:"game_b"`

	Uploads        uint64 `json:"uploads"`
	Candidates     uint64 `json:"candidates"`
	CameraCommits  uint64 `json:"camera_commits"`
	WorldsFull     uint64 `json:"worlds_full"`
	WorldsIdentity uint64 `json:"worlds_identity"`
	PendingDropped uint64 `json:"pending_dropped"`
}

// publishSnapshot rebuilds the shared snapshot. Called from the rendering
// thread at frame boundaries only; concurrent readers go through Snapshot.
func (t *Tracker) publishSnapshot() {
	s := Snapshot{
		State:          t.state.String(),
		Frame:          t.frame,
		LockFrame:      t.lockFrame,
		Consecutive:    t.consecutive,
		HasCamera:      t.hasCamera,
		WatchedSlot:    t.cfg.WatchedSlot,
		Uploads:        t.uploadsSeen,
		Candidates:     t.candidatesSeen,
		CameraCommits:  t.viewCommits,
		WorldsFull:     t.worldsFull,
		WorldsIdentity: t.worldsIdentity,
		PendingDropped: t.pendingDropped,
	}
	if t.hasCamera {
		s.Eye = [3]float32{t.lastDec.Eye.X(), t.lastDec.Eye.Y(), t.lastDec.Eye.Z()}
		s.XScale = t.lastDec.XScale
		s.YScale = t.lastDec.YScale
		s.GameA = t.lastDec.GameA
		s.GameB = t.lastDec.GameB
	}

	t.snapMu.Lock()
	t.snap = s
	t.snapMu.Unlock()
}

// Snapshot returns the most recently published state snapshot. Safe to call
// from any goroutine.
func (t *Tracker) Snapshot() Snapshot {
	t.snapMu.Lock()
	defer t.snapMu.Unlock()
	return t.snap
}
