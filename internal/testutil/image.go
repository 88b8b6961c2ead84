package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Quadrant colors used by QuadrantImage, in reading order.
var (
	TopLeft     = color.NRGBA{R: 255, A: 255}
	TopRight    = color.NRGBA{G: 255, A: 255}
	BottomLeft  = color.NRGBA{B: 255, A: 255}
	BottomRight = color.NRGBA{R: 255, G: 255, A: 255}
)

// SolidImage is a width x height image filled with c.
func SolidImage(width, height int, c color.Color) *image.NRGBA {
	return imaging.New(width, height, c)
}

// QuadrantImage splits the canvas into four flat colored quadrants so tests
// can tell which part of the source ended up where.
func QuadrantImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	hw, hh := width/2, height/2
	draw.Draw(img, image.Rect(0, 0, hw, hh), image.NewUniform(TopLeft), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(hw, 0, width, hh), image.NewUniform(TopRight), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(0, hh, hw, height), image.NewUniform(BottomLeft), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(hw, hh, width, height), image.NewUniform(BottomRight), image.Point{}, draw.Src)
	return img
}

// Checkerboard alternates two colors in cell x cell squares.
func Checkerboard(width, height, cell int, a, b color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	cell = max(cell, 1)
	for y := range height {
		for x := range width {
			c := a
			if (x/cell+y/cell)%2 == 1 {
				c = b
			}
			img.Set(x, y, c)
		}
	}
	return img
}

// LabeledImage is a checkerboard with text in the top-left corner, handy as a
// recognisable source picture.
func LabeledImage(width, height int, label string) *image.NRGBA {
	img := Checkerboard(width, height, 16, color.White, color.Gray{Y: 200})
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(4, 14),
	}
	d.DrawString(label)
	return img
}

// WriteImage saves img under a temp dir and returns its path.
func WriteImage(t *testing.T, img image.Image, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, imaging.Save(img, path))
	return path
}

// ColorsClose compares two colors channel-wise within tolerance (0-255 scale).
func ColorsClose(a, b color.Color, tolerance uint8) bool {
	ar, ag, ab, aa := a.RGBA()
	br, bg, bb, ba := b.RGBA()
	return within(ar, br, tolerance) && within(ag, bg, tolerance) &&
		within(ab, bb, tolerance) && within(aa, ba, tolerance)
}

func within(a, b uint32, tolerance uint8) bool {
	a >>= 8
	b >>= 8
	if a > b {
		return a-b <= uint32(tolerance)
	}
	return b-a <= uint32(tolerance)
}
