package tracker

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"
)

// Sink receives the transforms the tracker commits. Matrices are
// column-vector-convention mgl32 values; their backing arrays are laid out
// exactly as a row-major (D3D-style) transform consumer expects, so an
// implementation forwarding to such an API copies the 16 floats verbatim.
type Sink interface {
	SetViewTransform(m mgl32.Mat4)
	SetProjectionTransform(m mgl32.Mat4)
	SetWorldTransform(m mgl32.Mat4)
}

// RecordingSink retains every committed transform in order. Used by tests
// and by trace replay reports.
type RecordingSink struct {
	Views  []mgl32.Mat4
	Projs  []mgl32.Mat4
	Worlds []mgl32.Mat4
}

func (s *RecordingSink) SetViewTransform(m mgl32.Mat4)       { s.Views = append(s.Views, m) }
func (s *RecordingSink) SetProjectionTransform(m mgl32.Mat4) { s.Projs = append(s.Projs, m) }
func (s *RecordingSink) SetWorldTransform(m mgl32.Mat4)      { s.Worlds = append(s.Worlds, m) }

// Reset drops all recorded transforms.
func (s *RecordingSink) Reset() {
	s.Views = s.Views[:0]
	s.Projs = s.Projs[:0]
	s.Worlds = s.Worlds[:0]
}

// LogSink logs committed view/projection transforms and stays quiet about
// the high-frequency world commits. The default sink for CLI replay when no
// downstream renderer is attached.
type LogSink struct{}

func (LogSink) SetViewTransform(m mgl32.Mat4) {
	slog.Debug("View transform committed",
		"tx", m.At(0, 3), "ty", m.At(1, 3), "tz", m.At(2, 3))
}

func (LogSink) SetProjectionTransform(m mgl32.Mat4) {
	slog.Debug("Projection transform committed",
		"x_scale", m.At(0, 0), "y_scale", m.At(1, 1), "a", m.At(2, 2), "b", m.At(2, 3))
}

func (LogSink) SetWorldTransform(mgl32.Mat4) {}
