package camera

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/MeKo-Tech/camlock/internal/mat"
)

// ErrDegenerate is returned when a block's axis scales are too close to zero
// for a stable decomposition.
var ErrDegenerate = errors.New("camera: degenerate view-projection block")

// minAxisScale is the smallest cross-register scale a block may carry before
// the axis normalization divides by a vanishing value.
const minAxisScale = 1e-3

// Decomposition is the result of splitting a view-projection block.
//
// Proj is a synthetic projection: it keeps the recovered field-of-view
// scales but substitutes the configured near/far range, because the source
// engine's native depth coefficients are tuned to its own camera-distance
// convention and clip unusably when replayed downstream. GameProj carries
// the engine's actual coefficients and exists solely so the cached
// view-projection inverse matches what the engine really multiplied by.
type Decomposition struct {
	View     mgl32.Mat4
	Proj     mgl32.Mat4
	GameProj mgl32.Mat4

	Eye     mgl32.Vec3
	Right   mgl32.Vec3
	Up      mgl32.Vec3
	Forward mgl32.Vec3

	XScale float32
	YScale float32
	GameA  float32
	GameB  float32
}

// Decompose reconstructs the camera basis, eye position, and separated
// view/projection matrices from a block that passed scoring. near and far
// parameterize the synthetic projection's depth range.
func Decompose(b mat.Block, near, far float32) (Decomposition, error) {
	xs := mag3(b[0], b[4], b[8])
	ys := mag3(b[1], b[5], b[9])
	if xs < minAxisScale || ys < minAxisScale {
		return Decomposition{}, ErrDegenerate
	}

	fwdMag := mag3(b[3], b[7], b[11])
	if fwdMag < minAxisScale {
		return Decomposition{}, ErrDegenerate
	}

	right := mgl32.Vec3{b[0] / xs, b[4] / xs, b[8] / xs}
	up := mgl32.Vec3{b[1] / ys, b[5] / ys, b[9] / ys}
	forward := mgl32.Vec3{b[3] / fwdMag, b[7] / fwdMag, b[11] / fwdMag}

	// The translation registers embed the eye position as dot products
	// against each axis; with an orthonormal basis the eye reconstructs as
	// the weighted axis sum.
	rDotEye := -b[12] / xs
	uDotEye := -b[13] / ys
	fDotEye := -b[15]
	eye := right.Mul(rDotEye).Add(up.Mul(uDotEye)).Add(forward.Mul(fDotEye))

	// The engine's actual depth coefficients: row 2 is gameA * forward, and
	// f14 = gameA*(forward.eye term) + gameB.
	gameA := mag3(b[2], b[6], b[10])
	gameB := b[14] - gameA*b[15]

	synthA, synthB := mat.DepthCoefficients(near, far)

	return Decomposition{
		View:     mat.ViewFromBasis(right, up, forward, eye),
		Proj:     mat.Projection(xs, ys, synthA, synthB),
		GameProj: mat.Projection(xs, ys, gameA, gameB),
		Eye:      eye,
		Right:    right,
		Up:       up,
		Forward:  forward,
		XScale:   xs,
		YScale:   ys,
		GameA:    gameA,
		GameB:    gameB,
	}, nil
}

// NearFarEstimate derives the depth range implied by the game's actual
// projection coefficients. Diagnostic only; the estimates are meaningless
// when gameA sits at or below 1.
func (d Decomposition) NearFarEstimate() (float32, float32) {
	if abs32(d.GameA) < minAxisScale {
		return 0, 0
	}
	near := -d.GameB / d.GameA
	if abs32(d.GameA-1.0) < minAxisScale {
		return near, 0
	}
	return near, near * d.GameA / (d.GameA - 1.0)
}
