// Package render rasterizes a transform stack into an image: one warped copy
// of the source per nesting level, deepest level on top, with the animated
// matrix applied to the whole composition.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"runtime"

	"github.com/MeKo-Tech/droste/internal/common"
	"github.com/MeKo-Tech/droste/internal/droste"
	"github.com/MeKo-Tech/droste/internal/matrix"
	"github.com/MeKo-Tech/droste/internal/utils"
	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"
)

// ErrEmptyStack is returned when asked to render zero levels.
var ErrEmptyStack = errors.New("empty transform stack")

// Options controls rasterization.
type Options struct {
	Background color.Color // fill for pixels no level covers
	Workers    int         // parallel row bands (0 = GOMAXPROCS)
	Overlay    bool        // draw the first-level quad, its handles and a depth label
}

// DefaultOptions returns black background, automatic workers, no overlay.
func DefaultOptions() Options {
	return Options{Background: color.Black}
}

// Renderer samples a canvas-sized copy of the source image.
type Renderer struct {
	src    *image.NRGBA
	width  int
	height int
	opts   Options
}

// NewRenderer scales src to width x height.
func NewRenderer(src image.Image, width, height int, opts Options) (*Renderer, error) {
	if src == nil {
		return nil, &utils.ImageProcessingError{Operation: "render", Err: errors.New("source image is nil")}
	}
	if width <= 0 || height <= 0 {
		return nil, &utils.ImageProcessingError{Operation: "render", Err: fmt.Errorf("invalid canvas %dx%d", width, height)}
	}
	if opts.Background == nil {
		opts.Background = color.Black
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Renderer{
		src:    imaging.Clone(utils.ResizeToCanvas(src, width, height)),
		width:  width,
		height: height,
		opts:   opts,
	}, nil
}

// Size returns the canvas size.
func (r *Renderer) Size() (int, int) { return r.width, r.height }

// Render draws every level of stack transformed by anim. A screen point s
// shows level i when (anim * stack[i])^-1 s lands inside the canvas; the
// deepest such level wins.
func (r *Renderer) Render(ctx context.Context, stack droste.Stack, anim matrix.Mat4) (*image.RGBA, error) {
	out := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	if err := r.renderInto(ctx, out, stack, anim); err != nil {
		return nil, err
	}
	return out, nil
}

// renderInto overwrites every pixel of out, which must match the canvas size.
func (r *Renderer) renderInto(ctx context.Context, out *image.RGBA, stack droste.Stack, anim matrix.Mat4) error {
	if len(stack) == 0 {
		return ErrEmptyStack
	}
	timer := common.NewNamedTimer("render")

	animInv, err := matrix.Invert4(anim)
	if err != nil {
		return fmt.Errorf("invert animation matrix: %w", err)
	}
	screenToCanvas := matrix.Demote(animInv)

	inverses := make([]matrix.Mat3, len(stack))
	for i, level := range stack {
		inverses[i] = matrix.Mul(inverse3(matrix.Demote(level)), screenToCanvas)
	}

	bg := color.RGBAModel.Convert(r.opts.Background).(color.RGBA)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	band := max(1, (r.height+r.opts.Workers-1)/r.opts.Workers)
	for y0 := 0; y0 < r.height; y0 += band {
		y1 := min(r.height, y0+band)
		g.Go(func() error {
			for y := y0; y < y1; y++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				r.renderRow(out, y, inverses, bg)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if r.opts.Overlay {
		r.drawOverlay(out, stack, anim)
	}

	slog.Debug("rendered frame", "levels", len(stack), "duration", timer.Stop())
	return nil
}

func (r *Renderer) renderRow(out *image.RGBA, y int, inverses []matrix.Mat3, bg color.RGBA) {
	w, h := float64(r.width), float64(r.height)
	for x := range r.width {
		px := bg
		for i := len(inverses) - 1; i >= 0; i-- {
			v := matrix.MulVec(inverses[i], [3]float64{float64(x), float64(y), 1})
			if v[2] <= 0 {
				continue
			}
			sx, sy := v[0]/v[2], v[1]/v[2]
			if sx < 0 || sy < 0 || sx >= w || sy >= h {
				continue
			}
			px = bilinearSample(r.src, sx, sy)
			break
		}
		out.SetRGBA(x, y, px)
	}
}

// inverse3 is the adjugate with its sign fixed so that points in front of the
// camera keep a positive w.
func inverse3(m matrix.Mat3) matrix.Mat3 {
	adj := matrix.Adjugate(m)
	if matrix.Determinant(m) < 0 {
		for i := range adj {
			adj[i] = -adj[i]
		}
	}
	return adj
}
