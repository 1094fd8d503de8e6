// Package utils holds the small shared numerics: fixed-size 3x3 matrix
// kernels, the worker partition map and the optional netlib BLAS switch.
package utils

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Mat3 is a dense 3x3 matrix in row-major order. It is sized for the hot
// per-element kernels (shape gradients, deformation gradients) where a
// heap-backed mat.Dense would dominate the profile.
type Mat3 [9]float64

func Ident3() (R Mat3) {
	R[0], R[4], R[8] = 1, 1, 1
	return
}

// NewMat3FromCols builds the matrix whose columns are c0, c1, c2.
func NewMat3FromCols(c0, c1, c2 r3.Vec) (R Mat3) {
	R[0], R[1], R[2] = c0.X, c1.X, c2.X
	R[3], R[4], R[5] = c0.Y, c1.Y, c2.Y
	R[6], R[7], R[8] = c0.Z, c1.Z, c2.Z
	return
}

func (m Mat3) At(i, j int) float64 { return m[3*i+j] }

func (m *Mat3) Set(i, j int, v float64) { m[3*i+j] = v }

func (m Mat3) Det() (d float64) {
	d = m[0]*(m[4]*m[8]-m[5]*m[7]) -
		m[1]*(m[3]*m[8]-m[5]*m[6]) +
		m[2]*(m[3]*m[7]-m[4]*m[6])
	return
}

// Inverse returns the matrix inverse by cofactor expansion. A singular (or
// numerically singular) matrix is a data error, not a programmer error, so it
// is reported rather than panicked.
func (m Mat3) Inverse() (R Mat3, err error) {
	var (
		d = m.Det()
	)
	if d == 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		err = fmt.Errorf("singular 3x3 matrix, determinant = %v", d)
		return
	}
	ood := 1. / d
	R[0] = (m[4]*m[8] - m[5]*m[7]) * ood
	R[1] = (m[2]*m[7] - m[1]*m[8]) * ood
	R[2] = (m[1]*m[5] - m[2]*m[4]) * ood
	R[3] = (m[5]*m[6] - m[3]*m[8]) * ood
	R[4] = (m[0]*m[8] - m[2]*m[6]) * ood
	R[5] = (m[2]*m[3] - m[0]*m[5]) * ood
	R[6] = (m[3]*m[7] - m[4]*m[6]) * ood
	R[7] = (m[1]*m[6] - m[0]*m[7]) * ood
	R[8] = (m[0]*m[4] - m[1]*m[3]) * ood
	return
}

func (m Mat3) MulVec(p r3.Vec) (q r3.Vec) {
	q.X = m[0]*p.X + m[1]*p.Y + m[2]*p.Z
	q.Y = m[3]*p.X + m[4]*p.Y + m[5]*p.Z
	q.Z = m[6]*p.X + m[7]*p.Y + m[8]*p.Z
	return
}

// MulVecTrans multiplies by the transpose without forming it.
func (m Mat3) MulVecTrans(p r3.Vec) (q r3.Vec) {
	q.X = m[0]*p.X + m[3]*p.Y + m[6]*p.Z
	q.Y = m[1]*p.X + m[4]*p.Y + m[7]*p.Z
	q.Z = m[2]*p.X + m[5]*p.Y + m[8]*p.Z
	return
}

func (m Mat3) Transpose() (R Mat3) {
	R[0], R[1], R[2] = m[0], m[3], m[6]
	R[3], R[4], R[5] = m[1], m[4], m[7]
	R[6], R[7], R[8] = m[2], m[5], m[8]
	return
}

// Row returns row i as a vector.
func (m Mat3) Row(i int) (p r3.Vec) {
	p.X, p.Y, p.Z = m[3*i], m[3*i+1], m[3*i+2]
	return
}

// AddOuter accumulates the outer product a*b' into m.
func (m *Mat3) AddOuter(a, b r3.Vec) {
	m[0] += a.X * b.X
	m[1] += a.X * b.Y
	m[2] += a.X * b.Z
	m[3] += a.Y * b.X
	m[4] += a.Y * b.Y
	m[5] += a.Y * b.Z
	m[6] += a.Z * b.X
	m[7] += a.Z * b.Y
	m[8] += a.Z * b.Z
}
