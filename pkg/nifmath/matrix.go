package nifmath

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"errors"
	"fmt"
	"math"
)

// ErrNotScaleRotation is returned when decomposition is requested on a
// matrix that is not a uniform scale times a rotation.
var ErrNotScaleRotation = errors.New("matrix is not a scale-rotation")

// ErrSingular is returned when a matrix has no inverse.
var ErrSingular = errors.New("matrix is singular")

// Matrix33 is a row-major 3x3 matrix. M[i][j] is row i, column j.
type Matrix33 struct {
	M [3][3]float32
}

// Identity33 returns the 3x3 identity matrix.
func Identity33() Matrix33 {
	var m Matrix33
	m.M[0][0] = 1
	m.M[1][1] = 1
	m.M[2][2] = 1
	return m
}

func (m Matrix33) Mul(n Matrix33) Matrix33 {
	var r Matrix33
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var s float64
			for k := 0; k < 3; k++ {
				s += float64(m.M[i][k]) * float64(n.M[k][j])
			}
			r.M[i][j] = float32(s)
		}
	}
	return r
}

func (m Matrix33) MulScalar(s float32) Matrix33 {
	var r Matrix33
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r.M[i][j] = m.M[i][j] * s
		}
	}
	return r
}

// MulVec applies m to v treating v as a row vector (v * m), matching
// the scene-graph convention for transform composition.
func (m Matrix33) MulVec(v Vector3) Vector3 {
	return Vector3{
		v.X*m.M[0][0] + v.Y*m.M[1][0] + v.Z*m.M[2][0],
		v.X*m.M[0][1] + v.Y*m.M[1][1] + v.Z*m.M[2][1],
		v.X*m.M[0][2] + v.Y*m.M[1][2] + v.Z*m.M[2][2],
	}
}

func (m Matrix33) Transpose() Matrix33 {
	var r Matrix33
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r.M[i][j] = m.M[j][i]
		}
	}
	return r
}

// Determinant expands along the first row.
func (m Matrix33) Determinant() float64 {
	a := m.M
	return float64(a[0][0])*(float64(a[1][1])*float64(a[2][2])-float64(a[1][2])*float64(a[2][1])) -
		float64(a[0][1])*(float64(a[1][0])*float64(a[2][2])-float64(a[1][2])*float64(a[2][0])) +
		float64(a[0][2])*(float64(a[1][0])*float64(a[2][1])-float64(a[1][1])*float64(a[2][0]))
}

// Inverse returns the cofactor-expansion inverse of m.
func (m Matrix33) Inverse() (Matrix33, error) {
	det := m.Determinant()
	if math.Abs(det) < Epsilon*Epsilon {
		return Matrix33{}, ErrSingular
	}
	a := m.M
	var r Matrix33
	cof := func(i0, i1, j0, j1 int) float64 {
		return float64(a[i0][j0])*float64(a[i1][j1]) - float64(a[i0][j1])*float64(a[i1][j0])
	}
	r.M[0][0] = float32(cof(1, 2, 1, 2) / det)
	r.M[0][1] = float32(-cof(0, 2, 1, 2) / det)
	r.M[0][2] = float32(cof(0, 1, 1, 2) / det)
	r.M[1][0] = float32(-cof(1, 2, 0, 2) / det)
	r.M[1][1] = float32(cof(0, 2, 0, 2) / det)
	r.M[1][2] = float32(-cof(0, 1, 0, 2) / det)
	r.M[2][0] = float32(cof(1, 2, 0, 1) / det)
	r.M[2][1] = float32(-cof(0, 2, 0, 1) / det)
	r.M[2][2] = float32(cof(0, 1, 0, 1) / det)
	return r, nil
}

// Scale returns the uniform scale factor of m: the signed cube root of
// the determinant, so the sign follows the handedness.
func (m Matrix33) Scale() float64 {
	det := m.Determinant()
	if det < 0 {
		return -math.Pow(-det, 1.0/3.0)
	}
	return math.Pow(det, 1.0/3.0)
}

// IsScaleRotation reports whether m is orthogonal up to a uniform
// scale: m * mT must be a positive multiple of the identity. The scale
// may be negative, so m is a nonzero uniform scale times a rotation.
func (m Matrix33) IsScaleRotation() bool {
	p := m.Mul(m.Transpose())
	// off-diagonal entries vanish, diagonal entries agree
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if i == j {
				continue
			}
			if math.Abs(float64(p.M[i][j])) > Epsilon {
				return false
			}
		}
	}
	if math.Abs(float64(p.M[0][0]-p.M[1][1])) > Epsilon ||
		math.Abs(float64(p.M[1][1]-p.M[2][2])) > Epsilon {
		return false
	}
	return p.M[0][0] > Epsilon
}

// IsRotation reports whether m is orthogonal with unit determinant.
func (m Matrix33) IsRotation() bool {
	if !m.IsScaleRotation() {
		return false
	}
	return math.Abs(m.Determinant()-1) < Epsilon
}

// ScaleRotation splits m into a uniform scale and a rotation such that
// m = R * s.
func (m Matrix33) ScaleRotation() (float64, Matrix33, error) {
	if !m.IsScaleRotation() {
		return 0, Matrix33{}, ErrNotScaleRotation
	}
	s := m.Scale()
	if s == 0 {
		return 0, Matrix33{}, ErrNotScaleRotation
	}
	return s, m.MulScalar(float32(1 / s)), nil
}

// IsIdentity compares against the identity to within Epsilon.
func (m Matrix33) IsIdentity() bool {
	return m.Equals(Identity33())
}

func (m Matrix33) Equals(n Matrix33) bool {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(float64(m.M[i][j]-n.M[i][j])) > Epsilon {
				return false
			}
		}
	}
	return true
}

func (m Matrix33) String() string {
	s := ""
	for i := 0; i < 3; i++ {
		s += fmt.Sprintf("[ %6.3f %6.3f %6.3f ]\n", m.M[i][0], m.M[i][1], m.M[i][2])
	}
	return s
}
