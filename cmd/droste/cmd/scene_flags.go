package cmd

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/droste/internal/config"
	"github.com/MeKo-Tech/droste/internal/homography"
	"github.com/MeKo-Tech/droste/internal/utils"
	"github.com/spf13/cobra"
)

// sceneInput is the canvas, quad and depth resolved from flags and config.
type sceneInput struct {
	Width  float64
	Height float64
	Quad   homography.Quad
	Depth  int
}

// addSceneFlags registers the flags shared by matrix, stack, render and animate.
func addSceneFlags(cmd *cobra.Command, withDepth bool) {
	cmd.Flags().Int("width", 0, "canvas width in pixels (default from config)")
	cmd.Flags().Int("height", 0, "canvas height in pixels (default from config)")
	cmd.Flags().String("points", "", "destination quad as x0,y0,x1,y1,x2,y2,x3,y3 "+
		"(top-left, top-right, bottom-left, bottom-right)")
	cmd.Flags().Bool("relative", false, "interpret --points as fractions of the canvas size")
	if withDepth {
		cmd.Flags().IntP("depth", "d", 0, "recursion depth: 2, 8, 16, 32, 72, 128 or 256 (default from config)")
	}
}

// resolveScene applies flag overrides on top of cfg. Canvas dimensions not
// given by flag or config fallback default to fallbackW x fallbackH when > 0;
// with only one of --width/--height the other follows that aspect ratio.
func resolveScene(cmd *cobra.Command, cfg *config.Config, fallbackW, fallbackH int) (sceneInput, error) {
	w, h := cfg.Canvas.Width, cfg.Canvas.Height
	if fallbackW > 0 && fallbackH > 0 {
		w, h = fallbackW, fallbackH
	}
	if cmd.Flags().Changed("width") {
		w, _ = cmd.Flags().GetInt("width")
	}
	if cmd.Flags().Changed("height") {
		h, _ = cmd.Flags().GetInt("height")
	}
	if w <= 0 || h <= 0 {
		return sceneInput{}, fmt.Errorf("invalid canvas size: %dx%d (must be positive)", w, h)
	}
	// a single size flag keeps the image aspect ratio
	if wSet, hSet := cmd.Flags().Changed("width"), cmd.Flags().Changed("height"); fallbackW > 0 && fallbackH > 0 && wSet != hSet {
		limitW, limitH := w, math.MaxInt32
		if hSet {
			limitW, limitH = math.MaxInt32, h
		}
		var err error
		if w, h, err = utils.FitCanvas(float64(fallbackW)/float64(fallbackH), limitW, limitH); err != nil {
			return sceneInput{}, err
		}
	}
	in := sceneInput{Width: float64(w), Height: float64(h), Depth: cfg.Scene.Depth}

	if cmd.Flags().Lookup("depth") != nil && cmd.Flags().Changed("depth") {
		in.Depth, _ = cmd.Flags().GetInt("depth")
	}

	relative, _ := cmd.Flags().GetBool("relative")
	if cmd.Flags().Changed("points") {
		raw, _ := cmd.Flags().GetString("points")
		values, err := parsePoints(raw)
		if err != nil {
			return sceneInput{}, err
		}
		if relative {
			in.Quad = homography.QuadFromRelative(in.Width, in.Height, values)
		} else {
			for i := range in.Quad {
				in.Quad[i] = utils.Point{X: values[2*i], Y: values[2*i+1]}
			}
		}
		return in, nil
	}

	rel, err := cfg.RelativePoints()
	if err != nil {
		return sceneInput{}, err
	}
	in.Quad = homography.QuadFromRelative(in.Width, in.Height, rel)
	return in, nil
}

// parsePoints reads eight comma or space separated numbers.
func parsePoints(s string) ([8]float64, error) {
	var out [8]float64
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == ';' })
	if len(fields) != len(out) {
		return out, fmt.Errorf("invalid points %q: got %d values (must be 8)", s, len(fields))
	}
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return out, fmt.Errorf("invalid points %q: %w", s, err)
		}
		out[i] = v
	}
	return out, nil
}

// flatten returns the quad as x0,y0,...,x3,y3.
func flatten(q homography.Quad) []float64 {
	out := make([]float64, 0, 8)
	for _, p := range q {
		out = append(out, p.X, p.Y)
	}
	return out
}
