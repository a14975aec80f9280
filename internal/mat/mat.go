// Package mat provides the 4x4 matrix utilities used by camera detection:
// layout conversion between shader-constant blocks and mgl32 matrices, and
// closed-form inverses for rigid view and perspective projection matrices.
package mat

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Block is a raw shader-constant upload block: 16 float32 values in the
// producer's column-major register order (column i occupies Block[4i..4i+3]).
// It must never be indexed as if it were sink-layout data; cross the boundary
// with Mat4 or BlockOf only.
type Block [16]float32

// Mat4 reinterprets the block as a column-vector-convention matrix.
//
// mgl32.Mat4 stores elements column-major, which is exactly the register
// order the producer uploads, so the conversion is a relabeling of the same
// 16 floats. The backing array of the resulting matrix equals the row-major
// layout a D3D-style transform sink consumes; this is the one sanctioned
// producer/consumer crossing.
func (b Block) Mat4() mgl32.Mat4 {
	return mgl32.Mat4(b)
}

// BlockOf converts a column-vector matrix back into producer register order.
// Inverse of Block.Mat4; used by trace synthesis and tests.
func BlockOf(m mgl32.Mat4) Block {
	return Block(m)
}

// Finite reports whether every element of the block is a finite number.
func (b Block) Finite() bool {
	for _, v := range b {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return false
		}
	}
	return true
}

// ViewFromBasis builds a column-vector view matrix from an orthonormal
// camera basis and eye position. Rotation rows are right/up/forward; the
// translation column projects -eye onto each axis.
func ViewFromBasis(right, up, forward, eye mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Mat4{
		right.X(), up.X(), forward.X(), 0,
		right.Y(), up.Y(), forward.Y(), 0,
		right.Z(), up.Z(), forward.Z(), 0,
		-right.Dot(eye), -up.Dot(eye), -forward.Dot(eye), 1,
	}
}

// Projection builds a column-vector left-handed perspective projection from
// raw axis scales and depth coefficients: clip.z = a*z + b, clip.w = z.
func Projection(xScale, yScale, a, b float32) mgl32.Mat4 {
	return mgl32.Mat4{
		xScale, 0, 0, 0,
		0, yScale, 0, 0,
		0, 0, a, 1,
		0, 0, b, 0,
	}
}

// DepthCoefficients returns the perspective depth coefficients (a, b) that
// map eye-space z in [near, far] onto [0, far] before the perspective divide.
func DepthCoefficients(near, far float32) (float32, float32) {
	return far / (far - near), -near * far / (far - near)
}

// InvertRigid inverts a rigid-body view matrix (orthonormal rotation plus
// translation). The rotation inverts by transposition and the translation by
// back-projection, avoiding a general 4x4 inverse on the hot path.
func InvertRigid(v mgl32.Mat4) mgl32.Mat4 {
	out := mgl32.Ident4()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.Set(i, j, v.At(j, i))
		}
	}
	tx, ty, tz := v.At(0, 3), v.At(1, 3), v.At(2, 3)
	for i := 0; i < 3; i++ {
		out.Set(i, 3, -(v.At(0, i)*tx + v.At(1, i)*ty + v.At(2, i)*tz))
	}
	return out
}

// degenerateScale guards the closed-form perspective inverse against a
// division by a vanishing scale or depth offset.
const degenerateScale = 1e-4

// InvertPerspective inverts a perspective matrix built by Projection, or any
// matrix sharing its sparsity (diagonal scales plus a 2x2 depth/w block), so
// inverting twice recovers the original. Degenerate scales yield the identity
// rather than an error: a draw computed against it is wrong but bounded,
// mirroring how the transform sink treats missing cameras.
func InvertPerspective(p mgl32.Mat4) mgl32.Mat4 {
	xs, ys := p.At(0, 0), p.At(1, 1)
	a, b := p.At(2, 2), p.At(2, 3)
	c, d := p.At(3, 2), p.At(3, 3)
	det := a*d - b*c
	if abs32(xs) < degenerateScale || abs32(ys) < degenerateScale || abs32(det) < degenerateScale {
		return mgl32.Ident4()
	}
	return mgl32.Mat4{
		1 / xs, 0, 0, 0,
		0, 1 / ys, 0, 0,
		0, 0, d / det, -c / det,
		0, 0, -b / det, a / det,
	}
}

func abs32(v float32) float32 {
	return float32(math.Abs(float64(v)))
}
