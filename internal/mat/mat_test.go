package mat

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBasis() (right, up, forward mgl32.Vec3) {
	// Yawed 30 degrees around Y, still orthonormal.
	s, c := float32(math.Sin(math.Pi/6)), float32(math.Cos(math.Pi/6))
	right = mgl32.Vec3{c, 0, -s}
	up = mgl32.Vec3{0, 1, 0}
	forward = mgl32.Vec3{s, 0, c}
	return right, up, forward
}

func TestBlockMat4RoundTrip(t *testing.T) {
	var b Block
	for i := range b {
		b[i] = float32(i) * 0.5
	}
	assert.Equal(t, b, BlockOf(b.Mat4()))
}

func TestBlockMat4ElementMapping(t *testing.T) {
	var b Block
	for i := range b {
		b[i] = float32(i)
	}
	m := b.Mat4()
	// Column i of the matrix is register i of the block.
	assert.InDelta(t, 4.0, float64(m.At(0, 1)), 0)
	assert.InDelta(t, 3.0, float64(m.At(3, 0)), 0)
	assert.InDelta(t, 15.0, float64(m.At(3, 3)), 0)
}

func TestBlockFinite(t *testing.T) {
	var b Block
	assert.True(t, b.Finite())
	b[7] = float32(math.NaN())
	assert.False(t, b.Finite())
	b[7] = float32(math.Inf(-1))
	assert.False(t, b.Finite())
}

func TestInvertRigidRoundTrip(t *testing.T) {
	right, up, forward := testBasis()
	eye := mgl32.Vec3{120, -35.5, 801}
	view := ViewFromBasis(right, up, forward, eye)

	inv := InvertRigid(view)
	prod := view.Mul4(inv)
	assert.True(t, prod.ApproxEqualThreshold(mgl32.Ident4(), 1e-5),
		"view * view^-1 = identity, got %v", prod)

	// Inverting twice recovers the original.
	twice := InvertRigid(inv)
	assert.True(t, twice.ApproxEqualThreshold(view, 1e-5))
}

func TestInvertRigidMapsEyeToOrigin(t *testing.T) {
	right, up, forward := testBasis()
	eye := mgl32.Vec3{10, 20, 30}
	view := ViewFromBasis(right, up, forward, eye)

	origin := view.Mul4x1(mgl32.Vec4{eye.X(), eye.Y(), eye.Z(), 1})
	assert.InDelta(t, 0, float64(origin.X()), 1e-4)
	assert.InDelta(t, 0, float64(origin.Y()), 1e-4)
	assert.InDelta(t, 0, float64(origin.Z()), 1e-4)
}

func TestInvertPerspectiveRoundTrip(t *testing.T) {
	a, b := DepthCoefficients(10, 100000)
	proj := Projection(1.2, 2.1, a, b)

	inv := InvertPerspective(proj)
	prod := proj.Mul4(inv)
	require.True(t, prod.ApproxEqualThreshold(mgl32.Ident4(), 1e-4),
		"proj * proj^-1 = identity, got %v", prod)

	twice := InvertPerspective(inv)
	assert.True(t, twice.ApproxEqualThreshold(proj, 1e-3))
}

func TestInvertPerspectiveDegenerate(t *testing.T) {
	assert.Equal(t, mgl32.Ident4(), InvertPerspective(Projection(0, 2.1, 1.5, -10)))
	assert.Equal(t, mgl32.Ident4(), InvertPerspective(Projection(1.2, 0, 1.5, -10)))
	// Zero depth offset cannot be inverted either.
	assert.Equal(t, mgl32.Ident4(), InvertPerspective(Projection(1.2, 2.1, 1.5, 0)))
}

func TestDepthCoefficients(t *testing.T) {
	a, b := DepthCoefficients(10, 100000)
	// near maps to 0, far maps to far (1.0 after the perspective divide).
	assert.InDelta(t, 0, float64(a*10+b), 1e-2)
	assert.InDelta(t, 100000, float64(a*100000+b), 1)
}
