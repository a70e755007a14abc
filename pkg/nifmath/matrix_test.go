package nifmath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// rotation matrix lifted from a real skeleton nif
var testRotation = Matrix33{M: [3][3]float32{
	{-0.434308, 0.893095, -0.117294},
	{-0.451770, -0.103314, 0.886132},
	{0.779282, 0.437844, 0.448343},
}}

func TestRotationPredicates(t *testing.T) {
	m := testRotation
	assert.True(t, m.IsRotation())
	assert.True(t, m.IsScaleRotation())
	assert.InDelta(t, 1.0, m.Determinant(), Epsilon)

	inv, err := m.Inverse()
	assert.NoError(t, err)
	assert.True(t, inv.Equals(m.Transpose()))
	assert.True(t, m.Mul(m.Transpose()).IsIdentity())
}

func TestScaleRotationDecomposition(t *testing.T) {
	m := testRotation.MulScalar(0.321)
	assert.False(t, m.IsRotation())
	assert.True(t, m.IsScaleRotation())
	assert.InDelta(t, 0.321, m.Scale(), Epsilon)

	s, r, err := m.ScaleRotation()
	assert.NoError(t, err)
	assert.InDelta(t, 0.321, s, Epsilon)
	assert.True(t, r.Equals(testRotation))

	// negative uniform scales flip the handedness
	m = m.MulScalar(-2)
	assert.InDelta(t, -0.642, m.Scale(), Epsilon)
	assert.InDelta(t, -math.Pow(0.642, 3), m.Determinant(), Epsilon)
}

func TestScaleRotationRejectsShear(t *testing.T) {
	m := Identity33()
	m.M[1][0] = 2.0
	assert.False(t, m.IsScaleRotation())

	_, _, err := m.ScaleRotation()
	assert.Equal(t, ErrNotScaleRotation, err)
}

func TestMatrix44Inverse(t *testing.T) {
	n := Compose(1, testRotation.MulScalar(-0.642), Vector3{1.2, 3.4, 5.6})

	fast, err := n.Inverse(true)
	assert.NoError(t, err)
	full, err := n.Inverse(false)
	assert.NoError(t, err)

	assert.True(t, fast.Equals(full))
	assert.True(t, n.Mul(fast).IsIdentity())
	assert.True(t, n.Mul(full).IsIdentity())
}

func TestMatrix44Decompose(t *testing.T) {
	trans := Vector3{1.2, 3.4, 5.6}
	n := Compose(2.5, testRotation, trans)

	s, r, tr, err := n.ScaleRotationTranslation()
	assert.NoError(t, err)
	assert.InDelta(t, 2.5, s, Epsilon)
	assert.True(t, r.Equals(testRotation))
	assert.True(t, tr.Equals(trans))

	n.M[1][0] = 99
	_, _, _, err = n.ScaleRotationTranslation()
	assert.Equal(t, ErrNotScaleRotation, err)
}

func TestQuaternionRoundTrip(t *testing.T) {
	q := QuatFromMatrix(testRotation)
	assert.InDelta(t, 1.0, q.Norm(), Epsilon)
	assert.True(t, q.Matrix().Equals(testRotation))
}

func TestVectorOps(t *testing.T) {
	v := Vector3{1, 0, 0}
	w := Vector3{0, 1, 0}
	assert.True(t, v.Cross(w).Equals(Vector3{0, 0, 1}))
	assert.Equal(t, 0.0, v.Dot(w))
	assert.InDelta(t, 1.0, v.Normalized().Norm(), Epsilon)
}
