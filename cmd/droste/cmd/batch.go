package cmd

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/MeKo-Tech/droste/internal/batch"
	"github.com/MeKo-Tech/droste/internal/matrix"
	"github.com/MeKo-Tech/droste/internal/utils"
	"github.com/spf13/cobra"
)

var batchFormats = []string{outputFormatText, outputFormatJSON, "csv"}

var batchCmd = &cobra.Command{
	Use:   "batch INPUT...",
	Short: "Render the nested picture for many images",
	Long: `Render every image given as a file or found in a directory with the same
scene settings as 'droste render'. Outputs go to --output-dir, named
<name><suffix><ext>; sources found under a directory keep their relative
sub-directory.

Examples:
  droste batch photos/ --output-dir out
  droste batch a.jpg b.png -o out --ext .png --jobs 4
  droste batch photos/ -o out --recursive --include '*.jpg' --format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outDir, _ := cmd.Flags().GetString("output-dir")
		if outDir == "" {
			return fmt.Errorf("--output-dir is required")
		}
		format, _ := cmd.Flags().GetString("format")
		if !isBatchFormat(format) {
			return fmt.Errorf("unsupported format: %s (must be one of: text, json, csv)", format)
		}
		// Normalize the output extension to ".ext"
		ext, _ := cmd.Flags().GetString("ext")
		if ext != "" {
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			if !utils.IsSupportedImage("x" + ext) {
				return fmt.Errorf("unsupported output extension: %s", ext)
			}
		}

		// Collect input images
		recursive, _ := cmd.Flags().GetBool("recursive")
		include, _ := cmd.Flags().GetStringSlice("include")
		exclude, _ := cmd.Flags().GetStringSlice("exclude")
		sources, err := batch.Discover(args, batch.DiscoverOptions{
			Recursive:       recursive,
			IncludePatterns: include,
			ExcludePatterns: exclude,
		})
		if err != nil {
			return err
		}
		if len(sources) == 0 {
			return batch.ErrNoInputs
		}

		suffix, _ := cmd.Flags().GetString("suffix")
		jobs, _ := cmd.Flags().GetInt("jobs")
		failFast, _ := cmd.Flags().GetBool("fail-fast")
		bc := batch.Config{
			OutputDir: outDir,
			Suffix:    suffix,
			Extension: ext,
			Workers:   jobs,
			FailFast:  failFast,
			Progress:  progressFor(cmd, "batch: "),
		}

		// Each image gets its own canvas, scene and stack
		cfg := GetConfig()
		renderOne := func(ctx context.Context, input, output string) (image.Point, error) {
			job, err := prepareRender(cmd, cfg, input)
			if err != nil {
				return image.Point{}, err
			}
			img, err := job.renderer.Render(ctx, job.result.Stack, matrix.Identity4())
			if err != nil {
				return image.Point{}, err
			}
			if err := utils.SaveImage(img, output); err != nil {
				return image.Point{}, err
			}
			return img.Bounds().Size(), nil
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		slog.Info("Starting batch render", "images", len(sources), "output_dir", outDir)
		res, err := batch.Run(ctx, sources, bc, renderOne)
		// Print the summary even when the run was cut short
		if res != nil {
			text, ferr := res.Format(format)
			if ferr != nil {
				return ferr
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), text)
		}
		if err != nil {
			return fmt.Errorf("batch render: %w", err)
		}
		if res.Failed > 0 {
			return fmt.Errorf("%d of %d images failed", res.Failed, len(res.Items))
		}
		return nil
	},
}

func isBatchFormat(format string) bool {
	return slices.Contains(batchFormats, format)
}

// progressFor returns a console progress bar on stderr when --progress is set.
func progressFor(cmd *cobra.Command, prefix string) batch.Progress {
	if show, _ := cmd.Flags().GetBool("progress"); show {
		return batch.NewConsoleProgress(cmd.ErrOrStderr(), prefix, 200*time.Millisecond)
	}
	return batch.NewLogProgress(slog.Default(), 10)
}

func init() {
	rootCmd.AddCommand(batchCmd)
	addRenderFlags(batchCmd)

	// Input and output selection
	batchCmd.Flags().StringP("output-dir", "o", "", "directory for rendered images")
	batchCmd.Flags().BoolP("recursive", "r", false, "descend into sub-directories")
	batchCmd.Flags().StringSlice("include", nil, "only render files matching these glob patterns")
	batchCmd.Flags().StringSlice("exclude", nil, "skip files matching these glob patterns")
	batchCmd.Flags().String("suffix", batch.DefaultSuffix, "appended to each output file name")
	batchCmd.Flags().String("ext", "", "output extension (.png, .jpg, .bmp); empty keeps the input's")

	// Execution
	batchCmd.Flags().Int("jobs", 2, "images rendered concurrently")
	batchCmd.Flags().Bool("fail-fast", false, "stop at the first failing image")
	batchCmd.Flags().Bool("progress", false, "show a progress bar on stderr")
	batchCmd.Flags().StringP("format", "f", outputFormatText, "summary format: text, json or csv")
}
