// Package matrix implements the small fixed-size linear algebra used by the
// projective engine: 3x3 planar homographies, their 4x4 homogeneous
// embedding, and Gauss-Jordan inversion.
package matrix

import (
	"errors"
	"math"
)

// PivotEpsilon is the smallest pivot magnitude accepted during elimination
// and the smallest scale accepted when normalizing a homography.
const PivotEpsilon = 1e-12

// ErrSingularMatrix is returned when a matrix cannot be inverted or normalized.
var ErrSingularMatrix = errors.New("singular matrix")

// Mat3 is a 3x3 matrix stored row-major:
//
//	| m0 m1 m2 |
//	| m3 m4 m5 |
//	| m6 m7 m8 |
//
// Acting on column vectors (x, y, 1) it maps x' = (m0 x + m1 y + m2) / w with
// w = m6 x + m7 y + m8.
type Mat3 [9]float64

// Identity3 returns the 3x3 identity.
func Identity3() Mat3 {
	return Mat3{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// Adjugate returns the transpose of the cofactor matrix of m.
// For a singular m the result is degenerate; callers check Determinant first.
func Adjugate(m Mat3) Mat3 {
	return Mat3{
		m[4]*m[8] - m[5]*m[7],
		m[2]*m[7] - m[1]*m[8],
		m[1]*m[5] - m[2]*m[4],
		m[5]*m[6] - m[3]*m[8],
		m[0]*m[8] - m[2]*m[6],
		m[2]*m[3] - m[0]*m[5],
		m[3]*m[7] - m[4]*m[6],
		m[1]*m[6] - m[0]*m[7],
		m[0]*m[4] - m[1]*m[3],
	}
}

// Mul returns a*b.
func Mul(a, b Mat3) Mat3 {
	var c Mat3
	for i := range 3 {
		for j := range 3 {
			var cij float64
			for k := range 3 {
				cij += a[3*i+k] * b[3*k+j]
			}
			c[3*i+j] = cij
		}
	}
	return c
}

// MulVec returns m*v.
func MulVec(m Mat3, v [3]float64) [3]float64 {
	return [3]float64{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[3]*v[0] + m[4]*v[1] + m[5]*v[2],
		m[6]*v[0] + m[7]*v[1] + m[8]*v[2],
	}
}

// Determinant returns det(m).
func Determinant(m Mat3) float64 {
	return m[0]*(m[4]*m[8]-m[5]*m[7]) -
		m[1]*(m[3]*m[8]-m[5]*m[6]) +
		m[2]*(m[3]*m[7]-m[4]*m[6])
}

// Normalize scales m so that its bottom-right coefficient is exactly 1.
func Normalize(m Mat3) (Mat3, error) {
	d := m[8]
	if math.Abs(d) <= PivotEpsilon || !isFinite(d) {
		return Mat3{}, ErrSingularMatrix
	}
	var out Mat3
	for i := range 8 {
		if m[i] != 0 {
			out[i] = m[i] / d
		}
	}
	out[8] = 1
	return out, nil
}

// IsFinite reports whether every coefficient is neither NaN nor infinite.
func (m Mat3) IsFinite() bool {
	for _, v := range m {
		if !isFinite(v) {
			return false
		}
	}
	return true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
