// Package homography solves the planar projective transform that maps a
// canvas-sized rectangle onto an arbitrary quadrilateral.
package homography

import (
	"errors"
	"fmt"
	"math"

	"github.com/MeKo-Tech/droste/internal/matrix"
	"github.com/MeKo-Tech/droste/internal/utils"
)

// collinearityTolerance is relative to the squared extent of the point set.
const collinearityTolerance = 1e-9

var (
	// ErrDegenerateQuadrilateral is returned when the destination points are
	// collinear or coincident and no unique homography exists.
	ErrDegenerateQuadrilateral = errors.New("degenerate quadrilateral")
	// ErrInvalidCanvas is returned for non-positive or non-finite canvas sizes.
	ErrInvalidCanvas = errors.New("invalid canvas size")
	// ErrPointAtInfinity is returned by Project when a point maps to w == 0.
	ErrPointAtInfinity = errors.New("point maps to infinity")
)

// Quad holds the destination images of the canvas corners (0,0), (w,0),
// (0,h) and (w,h), in that order. Points 0/3 and 1/2 are diagonal opposites.
type Quad [4]utils.Point

// Corners returns the canonical quad of a width x height canvas.
func Corners(width, height float64) Quad {
	return Quad{
		{X: 0, Y: 0},
		{X: width, Y: 0},
		{X: 0, Y: height},
		{X: width, Y: height},
	}
}

// QuadFromRelative scales eight fractions (x0,y0,...,x3,y3) of the canvas
// size to pixel coordinates.
func QuadFromRelative(width, height float64, rel [8]float64) Quad {
	var q Quad
	for i := range 4 {
		q[i] = utils.Point{X: rel[2*i] * width, Y: rel[2*i+1] * height}
	}
	return q
}

// Outline returns the quad points in drawing order (0, 1, 3, 2).
func (q Quad) Outline() []utils.Point {
	return []utils.Point{q[0], q[1], q[3], q[2]}
}

// Validate reports ErrDegenerateQuadrilateral when any point is not finite or
// any three of the four points are collinear (which includes coincident points).
func (q Quad) Validate() error {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i, p := range q {
		if !p.IsFinite() {
			return fmt.Errorf("point %d is not finite: %w", i, ErrDegenerateQuadrilateral)
		}
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	extent := math.Max(maxX-minX, maxY-minY)
	if extent == 0 {
		return fmt.Errorf("all points coincide: %w", ErrDegenerateQuadrilateral)
	}
	tol := collinearityTolerance * extent * extent
	triples := [4][3]int{{0, 1, 2}, {0, 1, 3}, {0, 2, 3}, {1, 2, 3}}
	for _, tr := range triples {
		if math.Abs(utils.Cross(q[tr[0]], q[tr[1]], q[tr[2]])) <= tol {
			return fmt.Errorf("points %d, %d and %d are collinear: %w", tr[0], tr[1], tr[2], ErrDegenerateQuadrilateral)
		}
	}
	return nil
}

// BasisToPoints returns the matrix B with B*e1, B*e2, B*e3 proportional to
// the first three points and B*(1,1,1) proportional to the fourth, all in
// homogeneous coordinates.
func BasisToPoints(q Quad) matrix.Mat3 {
	m := matrix.Mat3{
		q[0].X, q[1].X, q[2].X,
		q[0].Y, q[1].Y, q[2].Y,
		1, 1, 1,
	}
	v := matrix.MulVec(matrix.Adjugate(m), [3]float64{q[3].X, q[3].Y, 1})
	return matrix.Mul(m, matrix.Mat3{
		v[0], 0, 0,
		0, v[1], 0,
		0, 0, v[2],
	})
}

// Compute3 solves the 3x3 homography mapping the corners of a width x height
// rectangle onto dst. The result is normalized so its last coefficient is 1.
func Compute3(width, height float64, dst Quad) (matrix.Mat3, error) {
	if !(width > 0) || !(height > 0) || math.IsInf(width, 0) || math.IsInf(height, 0) {
		return matrix.Mat3{}, fmt.Errorf("%vx%v: %w", width, height, ErrInvalidCanvas)
	}
	if err := dst.Validate(); err != nil {
		return matrix.Mat3{}, err
	}

	s := BasisToPoints(Corners(width, height))
	d := BasisToPoints(dst)
	t := matrix.Mul(d, matrix.Adjugate(s))

	t, err := matrix.Normalize(t)
	if err != nil {
		return matrix.Mat3{}, fmt.Errorf("normalize homography: %w: %w", ErrDegenerateQuadrilateral, err)
	}
	if !t.IsFinite() {
		return matrix.Mat3{}, fmt.Errorf("non-finite homography: %w", ErrDegenerateQuadrilateral)
	}
	return t, nil
}

// Compute is Compute3 promoted to the 4x4 form consumed by renderers.
func Compute(width, height float64, dst Quad) (matrix.Mat4, error) {
	t, err := Compute3(width, height, dst)
	if err != nil {
		return matrix.Mat4{}, err
	}
	return matrix.Promote(t), nil
}

// Project applies h to p including the perspective divide.
func Project(h matrix.Mat3, p utils.Point) (utils.Point, error) {
	v := matrix.MulVec(h, [3]float64{p.X, p.Y, 1})
	if math.Abs(v[2]) <= matrix.PivotEpsilon {
		return utils.Point{}, ErrPointAtInfinity
	}
	return utils.Point{X: v[0] / v[2], Y: v[1] / v[2]}, nil
}
