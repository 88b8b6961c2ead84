// Package batch renders many images through the same Droste scene.
package batch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultSuffix is appended to each output file name stem.
const DefaultSuffix = "_droste"

// RenderFunc renders input into output and reports the written image size.
type RenderFunc func(ctx context.Context, input, output string) (image.Point, error)

// Config holds batch execution settings.
type Config struct {
	OutputDir string
	Suffix    string
	Extension string // ".png" or ".jpg"; empty keeps the input extension
	Workers   int
	FailFast  bool
	Progress  Progress
}

// Item is the outcome for one source image.
type Item struct {
	Input    string        `json:"input"`
	Output   string        `json:"output"`
	Width    int           `json:"width"`
	Height   int           `json:"height"`
	Duration time.Duration `json:"duration_ns"`
	Error    string        `json:"error,omitempty"`
}

// Result summarizes a batch run.
type Result struct {
	Items       []Item        `json:"items"`
	Succeeded   int           `json:"succeeded"`
	Failed      int           `json:"failed"`
	Duration    time.Duration `json:"duration_ns"`
	WorkerCount int           `json:"workers"`
}

// ErrNoInputs is returned when there is nothing to render.
var ErrNoInputs = errors.New("no input images found")

// OutputPath maps a source to its output file under cfg.OutputDir,
// preserving the source's relative directory.
func OutputPath(src Source, cfg Config) string {
	ext := cfg.Extension
	if ext == "" {
		ext = filepath.Ext(src.Rel)
	}
	suffix := cfg.Suffix
	if suffix == "" {
		suffix = DefaultSuffix
	}
	stem := strings.TrimSuffix(filepath.Base(src.Rel), filepath.Ext(src.Rel))
	return filepath.Join(cfg.OutputDir, filepath.Dir(src.Rel), stem+suffix+ext)
}

// Run renders every source with fn on a bounded worker pool. Per-item
// failures are recorded in the result; with FailFast the first failure
// cancels the remaining work and is returned.
func Run(ctx context.Context, sources []Source, cfg Config, fn RenderFunc) (*Result, error) {
	if len(sources) == 0 {
		return nil, ErrNoInputs
	}
	if cfg.OutputDir == "" {
		return nil, errors.New("output directory is required")
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, len(sources))
	progress := cfg.Progress
	if progress == nil {
		progress = NoProgress{}
	}

	start := time.Now()
	items := make([]Item, len(sources))
	var done atomic.Int64

	progress.OnStart(len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out := OutputPath(src, cfg)
			item := Item{Input: src.Path, Output: out}
			itemStart := time.Now()

			err := os.MkdirAll(filepath.Dir(out), 0o750)
			if err == nil {
				var size image.Point
				size, err = fn(gctx, src.Path, out)
				item.Width, item.Height = size.X, size.Y
			}
			item.Duration = time.Since(itemStart)
			if err != nil {
				item.Error = err.Error()
				progress.OnError(src.Path, err)
			}
			items[i] = item
			progress.OnProgress(int(done.Add(1)), len(sources))

			if err != nil && cfg.FailFast {
				return fmt.Errorf("%s: %w", src.Path, err)
			}
			return nil
		})
	}
	err := g.Wait()
	progress.OnComplete()

	res := &Result{Duration: time.Since(start), WorkerCount: workers}
	for _, it := range items {
		if it.Input == "" {
			continue // skipped after cancellation
		}
		if it.Error != "" {
			res.Failed++
		} else {
			res.Succeeded++
		}
		res.Items = append(res.Items, it)
	}
	if err != nil {
		return res, err
	}
	return res, nil
}
