package nifmath

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"fmt"
	"math"
)

// Matrix44 is a row-major 4x4 matrix. Scene-graph transforms store the
// rotation in the upper-left 3x3 and the translation in the bottom row,
// so vectors transform as v * m.
type Matrix44 struct {
	M [4][4]float32
}

// Identity44 returns the 4x4 identity matrix.
func Identity44() Matrix44 {
	var m Matrix44
	for i := 0; i < 4; i++ {
		m.M[i][i] = 1
	}
	return m
}

// Compose builds a transform from a uniform scale, a rotation, and a
// translation, applied in that order.
func Compose(scale float64, rot Matrix33, trans Vector3) Matrix44 {
	m := Identity44()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.M[i][j] = rot.M[i][j] * float32(scale)
		}
	}
	m.M[3][0] = trans.X
	m.M[3][1] = trans.Y
	m.M[3][2] = trans.Z
	return m
}

// Matrix33 returns the upper-left 3x3 of m.
func (m Matrix44) Matrix33() Matrix33 {
	var r Matrix33
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r.M[i][j] = m.M[i][j]
		}
	}
	return r
}

// SetMatrix33 overwrites the upper-left 3x3 of m.
func (m *Matrix44) SetMatrix33(n Matrix33) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.M[i][j] = n.M[i][j]
		}
	}
}

// Translation returns the bottom row of m.
func (m Matrix44) Translation() Vector3 {
	return Vector3{m.M[3][0], m.M[3][1], m.M[3][2]}
}

// SetTranslation overwrites the bottom row of m.
func (m *Matrix44) SetTranslation(t Vector3) {
	m.M[3][0] = t.X
	m.M[3][1] = t.Y
	m.M[3][2] = t.Z
}

func (m Matrix44) Mul(n Matrix44) Matrix44 {
	var r Matrix44
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var s float64
			for k := 0; k < 4; k++ {
				s += float64(m.M[i][k]) * float64(n.M[k][j])
			}
			r.M[i][j] = float32(s)
		}
	}
	return r
}

// MulVec transforms the point v by m, treating v as a row vector with
// an implicit fourth component of 1.
func (m Matrix44) MulVec(v Vector3) Vector3 {
	return Vector3{
		v.X*m.M[0][0] + v.Y*m.M[1][0] + v.Z*m.M[2][0] + m.M[3][0],
		v.X*m.M[0][1] + v.Y*m.M[1][1] + v.Z*m.M[2][1] + m.M[3][1],
		v.X*m.M[0][2] + v.Y*m.M[1][2] + v.Z*m.M[2][2] + m.M[3][2],
	}
}

// ScaleRotationTranslation decomposes m into (scale, rotation,
// translation). The upper-left 3x3 must be a scale-rotation.
func (m Matrix44) ScaleRotationTranslation() (float64, Matrix33, Vector3, error) {
	s, r, err := m.Matrix33().ScaleRotation()
	if err != nil {
		return 0, Matrix33{}, Vector3{}, err
	}
	return s, r, m.Translation(), nil
}

// Inverse inverts m. The fast path assumes the [[R,0],[t,1]] shape of a
// scene-graph transform and inverts the 3x3 and translation separately;
// fast=false runs a full Gauss-Jordan elimination.
func (m Matrix44) Inverse(fast bool) (Matrix44, error) {
	if fast {
		inv3, err := m.Matrix33().Inverse()
		if err != nil {
			return Matrix44{}, err
		}
		r := Identity44()
		r.SetMatrix33(inv3)
		t := m.Translation()
		r.SetTranslation(inv3.MulVec(t).Scale(-1))
		return r, nil
	}
	return m.gaussInverse()
}

func (m Matrix44) gaussInverse() (Matrix44, error) {
	var a [4][8]float64
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			a[i][j] = float64(m.M[i][j])
		}
		a[i][4+i] = 1
	}
	for col := 0; col < 4; col++ {
		// partial pivot
		pivot := col
		for row := col + 1; row < 4; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return Matrix44{}, ErrSingular
		}
		a[col], a[pivot] = a[pivot], a[col]
		d := a[col][col]
		for j := 0; j < 8; j++ {
			a[col][j] /= d
		}
		for row := 0; row < 4; row++ {
			if row == col {
				continue
			}
			f := a[row][col]
			for j := 0; j < 8; j++ {
				a[row][j] -= f * a[col][j]
			}
		}
	}
	var r Matrix44
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			r.M[i][j] = float32(a[i][4+j])
		}
	}
	return r, nil
}

// IsIdentity compares against the identity to within Epsilon.
func (m Matrix44) IsIdentity() bool {
	return m.Equals(Identity44())
}

func (m Matrix44) Equals(n Matrix44) bool {
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if math.Abs(float64(m.M[i][j]-n.M[i][j])) > Epsilon {
				return false
			}
		}
	}
	return true
}

func (m Matrix44) String() string {
	s := ""
	for i := 0; i < 4; i++ {
		s += fmt.Sprintf("[ %6.3f %6.3f %6.3f %6.3f ]\n", m.M[i][0], m.M[i][1], m.M[i][2], m.M[i][3])
	}
	return s
}
