package cmd

import (
	"fmt"
	"io"

	"github.com/MeKo-Tech/droste/internal/droste"
	"github.com/MeKo-Tech/droste/internal/matrix"
	"github.com/spf13/cobra"
)

// stackResult is the machine readable output of the stack command.
type stackResult struct {
	Depth     int           `json:"depth" yaml:"depth"`
	Expensive bool          `json:"expensive" yaml:"expensive"`
	Matrices  []matrix.Mat4 `json:"matrices" yaml:"matrices"`
	CSS       []string      `json:"css" yaml:"css"`
}

// stackCmd represents the stack command.
var stackCmd = &cobra.Command{
	Use:   "stack",
	Short: "Compute the nested transform stack for a recursion depth",
	Long: `Compute the stack of transforms for every nesting level. Level 0 is the
identity, level i is the base homography applied i times.

Examples:
  droste stack --depth 8 --width 100 --height 100 --points 20,20,80,20,20,80,80,80
  droste stack --depth 16 --format css
  droste stack --format json > stack.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if err := validateFormat(format); err != nil {
			return err
		}
		cfg := GetConfig()
		in, err := resolveScene(cmd, cfg, 0, 0)
		if err != nil {
			return err
		}

		// Compose through the cache like the server does
		composer, err := droste.NewComposer(cfg.Cache.StackCacheSize)
		if err != nil {
			return err
		}
		res, err := composer.Compose(droste.Request{Width: in.Width, Height: in.Height, Quad: in.Quad, Depth: in.Depth})
		if err != nil {
			return fmt.Errorf("compose stack: %w", err)
		}

		out := stackResult{
			Depth:     in.Depth,
			Expensive: droste.IsExpensive(in.Depth),
			Matrices:  res.Stack,
			CSS:       res.Stack.CSS(),
		}
		return writeOutput(cmd.OutOrStdout(), format, out,
			func(w io.Writer) error {
				_, _ = fmt.Fprintf(w, "Depth: %d\n", out.Depth)
				if out.Expensive {
					_, _ = fmt.Fprintln(w, "Warning: this depth is expensive to render")
				}
				for i, css := range out.CSS {
					if _, err := fmt.Fprintf(w, "%4d  %s\n", i, css); err != nil {
						return err
					}
				}
				return nil
			},
			func(w io.Writer) error {
				// One matrix3d() per line, level 0 first
				for _, css := range out.CSS {
					if _, err := fmt.Fprintln(w, css); err != nil {
						return err
					}
				}
				return nil
			})
	},
}

func init() {
	rootCmd.AddCommand(stackCmd)
	addSceneFlags(stackCmd, true)
	stackCmd.Flags().StringP("format", "f", outputFormatText, "output format: text, json, yaml or css")
}
