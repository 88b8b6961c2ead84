package render

import (
	"context"
	"image"

	"github.com/MeKo-Tech/droste/internal/animation"
	"github.com/MeKo-Tech/droste/internal/droste"
	"github.com/MeKo-Tech/droste/internal/mempool"
	"golang.org/x/sync/errgroup"
)

// FrameWriter consumes one rendered frame; it may be called concurrently.
// img is reused once the writer returns and must not be retained.
type FrameWriter func(frame animation.Frame, img *image.RGBA) error

// RenderSequence renders frames with up to parallel frames in flight.
func (r *Renderer) RenderSequence(ctx context.Context, stack droste.Stack, frames []animation.Frame, parallel int, write FrameWriter) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, parallel))
	for _, f := range frames {
		g.Go(func() error {
			img := mempool.GetRGBA(r.width, r.height)
			defer mempool.PutRGBA(img)
			if err := r.renderInto(gctx, img, stack, f.Matrix); err != nil {
				return err
			}
			return write(f, img)
		})
	}
	return g.Wait()
}
