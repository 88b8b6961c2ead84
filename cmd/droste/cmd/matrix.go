package cmd

import (
	"fmt"
	"io"

	"github.com/MeKo-Tech/droste/internal/homography"
	"github.com/MeKo-Tech/droste/internal/matrix"
	"github.com/spf13/cobra"
)

// matrixResult is the machine readable output of the matrix command.
type matrixResult struct {
	Width     float64     `json:"width" yaml:"width"`
	Height    float64     `json:"height" yaml:"height"`
	Points    []float64   `json:"points" yaml:"points"`
	Matrix3x3 matrix.Mat3 `json:"matrix3x3" yaml:"matrix3x3"`
	Matrix4x4 matrix.Mat4 `json:"matrix4x4" yaml:"matrix4x4"`
	CSS       string      `json:"css" yaml:"css"`
}

// matrixCmd represents the matrix command.
var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Compute the homography mapping the canvas onto a quad",
	Long: `Compute the perspective transform that maps the canvas rectangle onto the
quadrilateral given by --points, in 3x3 form and as a CSS matrix3d().

Points are listed top-left, top-right, bottom-left, bottom-right. Without
--points the scene points from the configuration are used.

Examples:
  droste matrix --width 100 --height 100 --points 20,20,80,20,20,80,80,80
  droste matrix --relative --points 0.1,0.1,0.9,0.2,0.1,0.9,0.9,0.8 --format css
  droste matrix --format yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if err := validateFormat(format); err != nil {
			return err
		}
		// No image here, so the canvas comes from flags or config
		in, err := resolveScene(cmd, GetConfig(), 0, 0)
		if err != nil {
			return err
		}

		h, err := homography.Compute3(in.Width, in.Height, in.Quad)
		if err != nil {
			return fmt.Errorf("compute homography: %w", err)
		}
		// 4x4 form for matrix3d()
		m4 := matrix.Promote(h)
		res := matrixResult{
			Width:     in.Width,
			Height:    in.Height,
			Points:    flatten(in.Quad),
			Matrix3x3: h,
			Matrix4x4: m4,
			CSS:       m4.CSS(),
		}

		return writeOutput(cmd.OutOrStdout(), format, res,
			// Human readable output
			func(w io.Writer) error {
				_, _ = fmt.Fprintf(w, "Canvas: %gx%g\n", res.Width, res.Height)
				_, _ = fmt.Fprintf(w, "Points: %v\n", res.Points)
				_, _ = fmt.Fprintln(w, "Homography:")
				for r := range 3 {
					_, _ = fmt.Fprintf(w, "  [% .6f % .6f % .6f]\n", h[3*r], h[3*r+1], h[3*r+2])
				}
				_, err := fmt.Fprintf(w, "CSS: %s\n", res.CSS)
				return err
			},
			func(w io.Writer) error {
				_, err := fmt.Fprintln(w, res.CSS)
				return err
			})
	},
}

func init() {
	rootCmd.AddCommand(matrixCmd)
	addSceneFlags(matrixCmd, false)
	matrixCmd.Flags().StringP("format", "f", outputFormatText, "output format: text, json, yaml or css")
}
