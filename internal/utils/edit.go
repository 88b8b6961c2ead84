package utils

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/cases"
)

// EditMode selects how dragging one handle of a quad affects the others.
type EditMode string

const (
	// EditFree moves only the dragged point.
	EditFree EditMode = "free"
	// EditMirror also moves the diagonally opposite point to the mirrored position.
	EditMirror EditMode = "mirror"
	// EditLockAspect keeps points 0 and 3 as a diagonal and rebuilds 1 and 2 so
	// the quad stays a rotated, scaled copy of the canvas rectangle.
	EditLockAspect EditMode = "lock-aspect"
)

// ParseEditMode converts a string to an EditMode, ignoring case.
func ParseEditMode(s string) (EditMode, error) {
	switch m := EditMode(cases.Fold().String(strings.TrimSpace(s))); m {
	case EditFree, EditMirror, EditLockAspect:
		return m, nil
	case "":
		return EditFree, nil
	default:
		return "", fmt.Errorf("unknown edit mode %q (must be one of: free, mirror, lock-aspect)", s)
	}
}

// CounterPoint returns the index diagonally opposite to i in a four-point quad.
func CounterPoint(i int) int {
	return 3 - i
}

// MovePoint returns a copy of pts with point id moved to p according to mode.
// width and height are the canvas size.
func MovePoint(pts [4]Point, id int, p Point, mode EditMode, width, height float64) ([4]Point, error) {
	if id < 0 || id > 3 {
		return pts, fmt.Errorf("point index %d out of range", id)
	}
	out := pts
	out[id] = p
	switch mode {
	case EditFree, "":
	case EditMirror:
		out[CounterPoint(id)] = Point{X: width - p.X, Y: height - p.Y}
	case EditLockAspect:
		lockAspect(&out, width, height)
	default:
		return pts, fmt.Errorf("unknown edit mode %q", mode)
	}
	return out, nil
}

// lockAspect rebuilds points 1 and 2 from the diagonal 0 -> 3.
func lockAspect(pts *[4]Point, width, height float64) {
	origin := pts[0]
	axis := ToPolar(pts[3].Sub(origin))
	diagonal := math.Hypot(width, height)
	if diagonal == 0 {
		return
	}
	scale := axis.Distance / diagonal

	cornerAngle := math.Atan2(height, width)
	p1 := Polar{Distance: scale * width, Angle: axis.Angle - cornerAngle}
	p2 := Polar{Distance: scale * height, Angle: axis.Angle + math.Pi/2 - cornerAngle}

	pts[1] = origin.Add(p1.ToCartesian())
	pts[2] = origin.Add(p2.ToCartesian())
}
