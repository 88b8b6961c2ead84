package render

import (
	"image"
	"image/color"
)

// bilinearSample reads src at a fractional position; the caller keeps (x, y)
// inside the image bounds.
func bilinearSample(src *image.NRGBA, x, y float64) color.RGBA {
	b := src.Bounds()
	x0 := int(x)
	y0 := int(y)
	x1 := min(x0+1, b.Max.X-1)
	y1 := min(y0+1, b.Max.Y-1)
	fx := x - float64(x0)
	fy := y - float64(y0)

	c00 := toRGBA(src.NRGBAAt(x0, y0))
	c10 := toRGBA(src.NRGBAAt(x1, y0))
	c01 := toRGBA(src.NRGBAAt(x0, y1))
	c11 := toRGBA(src.NRGBAAt(x1, y1))
	r := lerp(lerp(c00.R, c10.R, fx), lerp(c01.R, c11.R, fx), fy)
	g := lerp(lerp(c00.G, c10.G, fx), lerp(c01.G, c11.G, fx), fy)
	bl := lerp(lerp(c00.B, c10.B, fx), lerp(c01.B, c11.B, fx), fy)
	a := lerp(lerp(c00.A, c10.A, fx), lerp(c01.A, c11.A, fx), fy)
	return color.RGBA{uint8(r + 0.5), uint8(g + 0.5), uint8(bl + 0.5), uint8(a + 0.5)}
}

type rgba struct{ R, G, B, A float64 }

// toRGBA premultiplies so the result can be stored in an image.RGBA.
func toRGBA(c color.NRGBA) rgba {
	r, g, b, a := c.RGBA()
	return rgba{R: float64(r >> 8), G: float64(g >> 8), B: float64(b >> 8), A: float64(a >> 8)}
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }
