package trace

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/MeKo-Tech/camlock/internal/mat"
)

// SynthConfig parameterizes a synthetic fly-through trace: a camera
// translating along its forward axis while yawing slowly, with optional
// per-frame decoy uploads shaped like the passes that fool naive detection.
type SynthConfig struct {
	Frames int `yaml:"frames"`

	// FOVScaleX is the projection x scale; the y scale is FOVScaleX times
	// the display aspect.
	FOVScaleX float32 `yaml:"fov_scale_x"`
	Aspect    float32 `yaml:"aspect"`

	// GameA/GameB are the depth coefficients baked into the uploaded
	// matrices, mimicking the source engine's own projection.
	GameA float32 `yaml:"game_a"`
	GameB float32 `yaml:"game_b"`

	// StartEye and Speed define the camera path: eye advances Speed units
	// along its forward axis per frame.
	StartEye [3]float32 `yaml:"start_eye"`
	Speed    float32    `yaml:"speed"`
	YawRate  float32    `yaml:"yaw_rate"`

	// ObjectsPerFrame adds per-draw uploads with distinct world translations
	// after the camera upload, as a real frame's draw calls would.
	ObjectsPerFrame int `yaml:"objects_per_frame"`

	// WithStaticDecoy adds a structurally plausible but immobile matrix
	// every frame, the classic UI-overlay false positive.
	WithStaticDecoy bool `yaml:"with_static_decoy"`

	// WithHalfResPass adds an upload with the depth translation stripped,
	// as the engine's half-resolution passes do.
	WithHalfResPass bool `yaml:"with_half_res_pass"`
}

// DefaultSynthConfig returns a fly-through that locks within a handful of
// frames under the default tracker tuning.
func DefaultSynthConfig() SynthConfig {
	return SynthConfig{
		Frames:          30,
		FOVScaleX:       1.45,
		Aspect:          16.0 / 9.0,
		GameA:           4.34,
		GameB:           -930.0,
		StartEye:        [3]float32{120, 40, 500},
		Speed:           8.5,
		YawRate:         0.01,
		ObjectsPerFrame: 2,
	}
}

// Synthesize generates the trace. Camera frames are uploaded at slot 0 with
// exactly the register layout the producer convention prescribes, so the
// generated traces are valid fixtures for the full detection pipeline.
func Synthesize(cfg SynthConfig) *Trace {
	t := &Trace{Description: "synthetic fly-through"}
	eye := mgl32.Vec3{cfg.StartEye[0], cfg.StartEye[1], cfg.StartEye[2]}
	proj := mat.Projection(cfg.FOVScaleX, cfg.FOVScaleX*cfg.Aspect, cfg.GameA, cfg.GameB)

	for i := 0; i < cfg.Frames; i++ {
		yaw := float64(cfg.YawRate) * float64(i)
		s, c := float32(math.Sin(yaw)), float32(math.Cos(yaw))
		right := mgl32.Vec3{c, 0, -s}
		up := mgl32.Vec3{0, 1, 0}
		forward := mgl32.Vec3{s, 0, c}

		view := mat.ViewFromBasis(right, up, forward, eye)
		vp := proj.Mul4(view)
		frame := Frame{}

		if cfg.WithStaticDecoy {
			// Near-origin placement, like a UI quad: structurally plausible
			// but immobile and without the camera-distance bonus.
			decoy := mat.BlockOf(proj.Mul4(mat.ViewFromBasis(
				mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1},
				mgl32.Vec3{0, 0, 5},
			)))
			frame.Uploads = append(frame.Uploads, Upload{Slot: 0, Data: decoy[:]})
		}

		camBlock := mat.BlockOf(vp)
		frame.Uploads = append(frame.Uploads, Upload{Slot: 0, Data: camBlock[:]})

		for obj := 0; obj < cfg.ObjectsPerFrame; obj++ {
			world := mgl32.Translate3D(
				float32(obj)*35+10,
				float32(obj)*-12,
				float32(obj)*60+200,
			)
			mvp := mat.BlockOf(vp.Mul4(world))
			frame.Uploads = append(frame.Uploads, Upload{Slot: 0, Data: mvp[:]})
		}

		if cfg.WithHalfResPass {
			half := camBlock
			half[14] = 0
			frame.Uploads = append(frame.Uploads, Upload{Slot: 0, Data: half[:]})
		}

		t.Frames = append(t.Frames, Frame{Uploads: frame.Uploads})
		eye = eye.Add(forward.Mul(cfg.Speed))
	}
	return t
}
