package utils

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

// DrawPolygon strokes the closed outline through pts. Fewer than two points
// draw nothing.
func DrawPolygon(dst draw.Image, pts []Point, col color.Color, thickness int) {
	if len(pts) < 2 {
		return
	}
	for i, a := range pts {
		drawSegment(dst, a, pts[(i+1)%len(pts)], col, max(1, thickness))
	}
}

// DrawHandle fills the square of half-size radius centered on p.
func DrawHandle(dst draw.Image, p Point, col color.Color, radius int) {
	c := roundPoint(p)
	fillRect(dst, image.Rect(c.X-radius, c.Y-radius, c.X+radius+1, c.Y+radius+1), col)
}

// drawSegment walks the longer axis one pixel at a time and stamps a square
// pen of the given thickness at every step.
func drawSegment(dst draw.Image, a, b Point, col color.Color, thickness int) {
	from, to := roundPoint(a), roundPoint(b)
	d := to.Sub(from)
	steps := max(abs(d.X), abs(d.Y))
	r := (thickness - 1) / 2
	for i := 0; i <= steps; i++ {
		p := from
		if steps > 0 {
			p = image.Pt(
				from.X+int(math.Round(float64(d.X*i)/float64(steps))),
				from.Y+int(math.Round(float64(d.Y*i)/float64(steps))),
			)
		}
		fillRect(dst, image.Rect(p.X-r, p.Y-r, p.X-r+thickness, p.Y-r+thickness), col)
	}
}

func fillRect(dst draw.Image, r image.Rectangle, col color.Color) {
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	draw.Draw(dst, r, image.NewUniform(col), image.Point{}, draw.Src)
}

func roundPoint(p Point) image.Point {
	return image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
