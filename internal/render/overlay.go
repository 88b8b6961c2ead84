package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/MeKo-Tech/droste/internal/droste"
	"github.com/MeKo-Tech/droste/internal/homography"
	"github.com/MeKo-Tech/droste/internal/matrix"
	"github.com/MeKo-Tech/droste/internal/utils"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	outlineColor = color.RGBA{R: 255, G: 64, B: 64, A: 255}
	handleColor  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	labelColor   = color.RGBA{R: 255, G: 255, B: 0, A: 255}
)

// drawOverlay marks where the first nested copy sits on screen.
func (r *Renderer) drawOverlay(dst *image.RGBA, stack droste.Stack, anim matrix.Mat4) {
	if len(stack) > 1 {
		h := matrix.Demote(anim.Mul(stack[1]))
		var quad homography.Quad
		ok := true
		for i, c := range homography.Corners(float64(r.width), float64(r.height)) {
			p, err := homography.Project(h, c)
			if err != nil {
				ok = false
				break
			}
			quad[i] = p
		}
		if ok {
			utils.DrawPolygon(dst, quad.Outline(), outlineColor, 2)
			for _, p := range quad {
				utils.DrawHandle(dst, p, handleColor, 3)
			}
		}
	}

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(labelColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(6, 16),
	}
	d.DrawString(fmt.Sprintf("depth %d", len(stack)))
}
