package utils

import "math"

// Point represents a 2D coordinate in rendering-surface pixels.
type Point struct {
	X float64
	Y float64
}

// IsFinite reports whether both coordinates are finite numbers.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Add returns p + q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Cross returns the z component of (a-o) x (b-o); zero when o, a, b are collinear.
func Cross(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// Distance returns the euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Polar is a vector in polar form.
type Polar struct {
	Distance float64
	Angle    float64 // radians
}

// ToPolar converts a cartesian vector to polar form.
func ToPolar(p Point) Polar {
	return Polar{Distance: math.Hypot(p.X, p.Y), Angle: math.Atan2(p.Y, p.X)}
}

// ToCartesian converts a polar vector back to cartesian form.
func (p Polar) ToCartesian() Point {
	return Point{X: p.Distance * math.Cos(p.Angle), Y: p.Distance * math.Sin(p.Angle)}
}

// ScalePoint scales a point by sx, sy.
func ScalePoint(p Point, sx, sy float64) Point {
	return Point{X: p.X * sx, Y: p.Y * sy}
}

// ScalePoints returns a scaled copy of points.
func ScalePoints(pts []Point, sx, sy float64) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = ScalePoint(p, sx, sy)
	}
	return out
}
