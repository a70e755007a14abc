package nifmath

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import "math"

// Quaternion is a rotation stored as (w, x, y, z).
type Quaternion struct {
	W, X, Y, Z float32
}

// IdentityQuat returns the no-rotation quaternion.
func IdentityQuat() Quaternion {
	return Quaternion{W: 1}
}

func (q Quaternion) Norm() float64 {
	return math.Sqrt(float64(q.W)*float64(q.W) + float64(q.X)*float64(q.X) +
		float64(q.Y)*float64(q.Y) + float64(q.Z)*float64(q.Z))
}

// Normalized returns q scaled to unit length. The zero quaternion maps
// to the identity.
func (q Quaternion) Normalized() Quaternion {
	n := q.Norm()
	if n == 0 {
		return IdentityQuat()
	}
	k := float32(1 / n)
	return Quaternion{q.W * k, q.X * k, q.Y * k, q.Z * k}
}

// Matrix converts q to a rotation matrix. q must be unit length for the
// result to be a rotation.
func (q Quaternion) Matrix() Matrix33 {
	w, x, y, z := float64(q.W), float64(q.X), float64(q.Y), float64(q.Z)
	var m Matrix33
	m.M[0][0] = float32(1 - 2*(y*y+z*z))
	m.M[0][1] = float32(2 * (x*y - w*z))
	m.M[0][2] = float32(2 * (x*z + w*y))
	m.M[1][0] = float32(2 * (x*y + w*z))
	m.M[1][1] = float32(1 - 2*(x*x+z*z))
	m.M[1][2] = float32(2 * (y*z - w*x))
	m.M[2][0] = float32(2 * (x*z - w*y))
	m.M[2][1] = float32(2 * (y*z + w*x))
	m.M[2][2] = float32(1 - 2*(x*x+y*y))
	return m
}

// QuatFromMatrix converts a rotation matrix to a unit quaternion using
// the stable branch on the largest diagonal term.
func QuatFromMatrix(m Matrix33) Quaternion {
	tr := float64(m.M[0][0]) + float64(m.M[1][1]) + float64(m.M[2][2])
	var q Quaternion
	if tr > 0 {
		s := math.Sqrt(tr+1) * 2
		q.W = float32(s / 4)
		q.X = float32(float64(m.M[2][1]-m.M[1][2]) / s)
		q.Y = float32(float64(m.M[0][2]-m.M[2][0]) / s)
		q.Z = float32(float64(m.M[1][0]-m.M[0][1]) / s)
	} else if m.M[0][0] > m.M[1][1] && m.M[0][0] > m.M[2][2] {
		s := math.Sqrt(1+float64(m.M[0][0])-float64(m.M[1][1])-float64(m.M[2][2])) * 2
		q.W = float32(float64(m.M[2][1]-m.M[1][2]) / s)
		q.X = float32(s / 4)
		q.Y = float32(float64(m.M[0][1]+m.M[1][0]) / s)
		q.Z = float32(float64(m.M[0][2]+m.M[2][0]) / s)
	} else if m.M[1][1] > m.M[2][2] {
		s := math.Sqrt(1+float64(m.M[1][1])-float64(m.M[0][0])-float64(m.M[2][2])) * 2
		q.W = float32(float64(m.M[0][2]-m.M[2][0]) / s)
		q.X = float32(float64(m.M[0][1]+m.M[1][0]) / s)
		q.Y = float32(s / 4)
		q.Z = float32(float64(m.M[1][2]+m.M[2][1]) / s)
	} else {
		s := math.Sqrt(1+float64(m.M[2][2])-float64(m.M[0][0])-float64(m.M[1][1])) * 2
		q.W = float32(float64(m.M[1][0]-m.M[0][1]) / s)
		q.X = float32(float64(m.M[0][2]+m.M[2][0]) / s)
		q.Y = float32(float64(m.M[1][2]+m.M[2][1]) / s)
		q.Z = float32(s / 4)
	}
	return q.Normalized()
}
