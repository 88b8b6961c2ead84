package cmd

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/MeKo-Tech/droste/internal/common"
	"github.com/MeKo-Tech/droste/internal/config"
	"github.com/MeKo-Tech/droste/internal/droste"
	"github.com/MeKo-Tech/droste/internal/matrix"
	"github.com/MeKo-Tech/droste/internal/render"
	"github.com/MeKo-Tech/droste/internal/utils"
	"github.com/spf13/cobra"
)

// renderJob is everything needed to rasterize one input image.
type renderJob struct {
	renderer *render.Renderer
	scene    sceneInput
	result   droste.Result
}

var renderCmd = &cobra.Command{
	Use:   "render INPUT",
	Short: "Render the nested picture for an image",
	Long: `Render INPUT with a copy of itself warped into the quad, repeated for every
nesting level. The canvas is the input image size (after limiting it to
render.max_pixels) unless --width and --height are given. With only one of
them the other side keeps the image aspect ratio.

Supported formats: JPEG, PNG, BMP. The output format follows the extension
of --output.

Examples:
  droste render photo.jpg --output droste.png
  droste render photo.jpg -o out.png --depth 72 --overlay
  droste render photo.png -o out.png --relative --points 0.1,0.1,0.9,0.2,0.1,0.9,0.9,0.8
  droste render photo.png -o out.png --repeat 10 -v`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Get flag values
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			return fmt.Errorf("--output is required")
		}
		repeat, _ := cmd.Flags().GetInt("repeat")

		// Load the image and compose the stack for it
		cfg := GetConfig()
		job, err := prepareRender(cmd, cfg, args[0])
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// --repeat renders several times and reports the average
		var img *image.RGBA
		m := common.Measure("render", repeat, func() error {
			var rerr error
			img, rerr = job.renderer.Render(ctx, job.result.Stack, matrix.Identity4())
			return rerr
		})
		if m.Error != nil {
			return fmt.Errorf("render %s: %w", args[0], m.Error)
		}
		slog.Info("Rendered image",
			"input", args[0],
			"canvas", fmt.Sprintf("%gx%g", job.scene.Width, job.scene.Height),
			"depth", job.scene.Depth,
			"iterations", m.Iterations,
			"avg", m.Average().String(),
			"alloc_kb", m.AllocatedKB())
		if repeat > 1 {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), m.String())
		}

		// Save result
		if err := utils.SaveImage(img, output); err != nil {
			return fmt.Errorf("write %s: %w", output, err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
		return nil
	},
}

// prepareRender loads input, resolves the scene against its size and
// composes the stack.
func prepareRender(cmd *cobra.Command, cfg *config.Config, input string) (renderJob, error) {
	src, meta, err := utils.LoadImage(input)
	if err != nil {
		return renderJob{}, err
	}
	// Downscale large images before using them as the canvas
	src, err = utils.LimitPixels(src, cfg.Render.MaxPixels)
	if err != nil {
		return renderJob{}, err
	}
	b := src.Bounds()
	slog.Debug("Loaded image", "path", meta.Path, "format", meta.Format,
		"original", fmt.Sprintf("%dx%d", meta.Width, meta.Height),
		"limited", fmt.Sprintf("%dx%d", b.Dx(), b.Dy()))

	in, err := resolveScene(cmd, cfg, b.Dx(), b.Dy())
	if err != nil {
		return renderJob{}, err
	}

	opts, err := renderOptions(cmd, cfg)
	if err != nil {
		return renderJob{}, err
	}
	// Stack for the canvas, untransformed by any animation
	composer, err := droste.NewComposer(cfg.Cache.StackCacheSize)
	if err != nil {
		return renderJob{}, err
	}
	res, err := composer.Compose(droste.Request{Width: in.Width, Height: in.Height, Quad: in.Quad, Depth: in.Depth})
	if err != nil {
		return renderJob{}, fmt.Errorf("compose stack: %w", err)
	}
	r, err := render.NewRenderer(src, int(in.Width), int(in.Height), opts)
	if err != nil {
		return renderJob{}, err
	}
	return renderJob{renderer: r, scene: in, result: res}, nil
}

func renderOptions(cmd *cobra.Command, cfg *config.Config) (render.Options, error) {
	background := cfg.Render.Background
	if cmd.Flags().Changed("background") {
		background, _ = cmd.Flags().GetString("background")
	}
	bg, err := config.ParseHexColor(background)
	if err != nil {
		return render.Options{}, fmt.Errorf("invalid background: %w", err)
	}

	// Flags override render config
	opts := render.Options{Background: bg, Workers: cfg.Render.Workers, Overlay: cfg.Render.Overlay}
	if cmd.Flags().Changed("workers") {
		opts.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if cmd.Flags().Changed("overlay") {
		opts.Overlay, _ = cmd.Flags().GetBool("overlay")
	}
	return opts, nil
}

func addRenderFlags(cmd *cobra.Command) {
	addSceneFlags(cmd, true)
	cmd.Flags().Bool("overlay", false, "draw the quad outline, handles and depth label")
	cmd.Flags().String("background", "#000000", "background color for uncovered pixels (hex)")
	cmd.Flags().Int("workers", 0, "parallel row bands (0 = number of CPUs)")
}

func init() {
	rootCmd.AddCommand(renderCmd)
	addRenderFlags(renderCmd)
	renderCmd.Flags().StringP("output", "o", "", "output image path (.png, .jpg, .bmp)")
	renderCmd.Flags().Int("repeat", 1, "render this many times and report timing")
}
