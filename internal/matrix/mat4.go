package matrix

import (
	"strconv"
	"strings"
)

// Mat4 is a 4x4 homogeneous transform stored column-major, the layout used by
// CSS matrix3d() and WebGL uniforms. Element (row r, column c) lives at m[4*c+r].
type Mat4 [16]float64

// Identity4 returns the 4x4 identity.
func Identity4() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// At returns the element at row r, column c.
func (m Mat4) At(r, c int) float64 {
	return m[4*c+r]
}

// Mul returns m*o in the usual column-vector convention.
func (m Mat4) Mul(o Mat4) Mat4 {
	var out Mat4
	for r := range 4 {
		for c := range 4 {
			var sum float64
			for k := range 4 {
				sum += m.At(r, k) * o.At(k, c)
			}
			out[4*c+r] = sum
		}
	}
	return out
}

// Rows returns m as a freshly allocated row-major slice of slices.
func (m Mat4) Rows() [][]float64 {
	rows := make([][]float64, 4)
	for r := range 4 {
		rows[r] = make([]float64, 4)
		for c := range 4 {
			rows[r][c] = m.At(r, c)
		}
	}
	return rows
}

// Mat4FromRows is the inverse of Rows. It panics if rows is not 4x4.
func Mat4FromRows(rows [][]float64) Mat4 {
	var m Mat4
	for r := range 4 {
		for c := range 4 {
			m[4*c+r] = rows[r][c]
		}
	}
	return m
}

// IsFinite reports whether every coefficient is neither NaN nor infinite.
func (m Mat4) IsFinite() bool {
	for _, v := range m {
		if !isFinite(v) {
			return false
		}
	}
	return true
}

// CSS formats m as a CSS matrix3d() transform value.
func (m Mat4) CSS() string {
	parts := make([]string, len(m))
	for i, v := range m {
		if v == 0 {
			v = 0 // drop the sign of -0
		}
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return "matrix3d(" + strings.Join(parts, ",") + ")"
}

// Lerp blends two matrices coefficient by coefficient:
// out[i] = to[i]*t + from[i]*(1-t).
// This is not an interpolation of the underlying projective transform.
func Lerp(from, to Mat4, t float64) Mat4 {
	var out Mat4
	for i := range out {
		out[i] = to[i]*t + from[i]*(1-t)
	}
	return out
}
