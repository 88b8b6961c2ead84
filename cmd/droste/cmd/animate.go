package cmd

import (
	"fmt"
	"image"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"

	"github.com/MeKo-Tech/droste/internal/animation"
	"github.com/MeKo-Tech/droste/internal/common"
	"github.com/MeKo-Tech/droste/internal/utils"
	"github.com/spf13/cobra"
)

var animateCmd = &cobra.Command{
	Use:   "animate INPUT",
	Short: "Render the zoom animation as numbered frames",
	Long: `Render the looping zoom into (or out of) the nested picture as a sequence of
PNG frames named frame_0000.png, frame_0001.png, ... in --output-dir.

Without --frames one full loop is rendered: 1/step frames, after which the
animation repeats seamlessly.

Examples:
  droste animate photo.jpg --output-dir frames
  droste animate photo.jpg -o frames --mode in --step 0.02 --frames 50
  droste animate photo.jpg -o frames --parallel 4 --depth 16`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Get flag values
		outDir, _ := cmd.Flags().GetString("output-dir")
		if outDir == "" {
			return fmt.Errorf("--output-dir is required")
		}
		modeName, _ := cmd.Flags().GetString("mode")
		mode, err := animation.ParseMode(modeName)
		if err != nil {
			return err
		}
		// Off would render the same identity frame over and over
		if mode == animation.Off {
			return fmt.Errorf("invalid mode: %s (must be in or out)", modeName)
		}

		cfg := GetConfig()
		step := cfg.Animation.Step
		if cmd.Flags().Changed("step") {
			step, _ = cmd.Flags().GetFloat64("step")
		}
		if !(step > 0) || step >= 1 {
			return fmt.Errorf("invalid step: %v (must be in (0, 1))", step)
		}
		frames, _ := cmd.Flags().GetInt("frames")
		if frames <= 0 {
			// one full zoom loop
			frames = int(math.Round(1 / step))
		}
		parallel, _ := cmd.Flags().GetInt("parallel")

		job, err := prepareRender(cmd, cfg, args[0])
		if err != nil {
			return err
		}

		// Precompute every frame matrix, then render them in parallel
		in := animation.NewInterpolator(step)
		if err := in.SetBase(job.result.Base); err != nil {
			return err
		}
		in.SetMode(mode)
		seq := animation.Collect(in, frames)

		if err := os.MkdirAll(outDir, 0o750); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Frames finish out of order; count them for progress
		var written atomic.Int64
		progress := progressFor(cmd, "animate: ")
		progress.OnStart(len(seq))
		timer := common.NewNamedTimer("animate")
		err = job.renderer.RenderSequence(ctx, job.result.Stack, seq, parallel,
			func(f animation.Frame, img *image.RGBA) error {
				path := filepath.Join(outDir, fmt.Sprintf("frame_%04d.png", f.Index))
				if err := utils.SaveImage(img, path); err != nil {
					return err
				}
				progress.OnProgress(int(written.Add(1)), len(seq))
				slog.Debug("Wrote frame", "path", path, "progress", f.Progress)
				return nil
			})
		progress.OnComplete()
		if err != nil {
			return fmt.Errorf("render frames: %w", err)
		}

		slog.Info("Rendered animation", "input", args[0], "mode", mode.String(),
			"frames", written.Load(), "duration", timer.Stop().String())
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d frames to %s\n", written.Load(), outDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(animateCmd)
	addRenderFlags(animateCmd)
	animateCmd.Flags().StringP("output-dir", "o", "", "directory for the numbered PNG frames")
	animateCmd.Flags().Int("frames", 0, "number of frames (0 = one full loop)")
	animateCmd.Flags().String("mode", "out", "zoom direction: in or out")
	animateCmd.Flags().Float64("step", animation.SmoothStep, "progress advance per frame")
	animateCmd.Flags().Int("parallel", 2, "frames rendered concurrently")
	animateCmd.Flags().Bool("progress", false, "show a progress bar on stderr")
}
