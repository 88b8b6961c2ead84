package config

import (
	"fmt"
	"image/color"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/droste/internal/animation"
	"github.com/MeKo-Tech/droste/internal/droste"
	"github.com/MeKo-Tech/droste/internal/homography"
	"github.com/MeKo-Tech/droste/internal/render"
	"github.com/MeKo-Tech/droste/internal/utils"
)

// DefaultPoints is the starting quad: a copy inset by 20% on every side.
var DefaultPoints = []float64{0.2, 0.2, 0.8, 0.2, 0.2, 0.8, 0.8, 0.8}

var validLogLevels = []string{"debug", "info", "warn", "error"}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Verbose:  false,
		Canvas: CanvasConfig{
			Width:  800,
			Height: 600,
		},
		Scene: SceneConfig{
			Points: slices.Clone(DefaultPoints),
			Depth:  droste.DefaultDepth,
		},
		Animation: AnimationConfig{
			Mode: animation.Off.String(),
			Step: animation.SmoothStep,
			FPS:  60,
		},
		Render: RenderConfig{
			MaxPixels:  utils.DefaultMaxPixels,
			Workers:    0,
			Overlay:    false,
			Background: "#000000",
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			FrameIntervalMS: 16,
			ShutdownTimeout: 10,
		},
		Cache: CacheConfig{
			StackCacheSize: droste.DefaultCacheSize,
		},
	}
}

// Validate checks every section and reports the first problem.
func (c *Config) Validate() error {
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return fmt.Errorf("invalid canvas size: %dx%d (must be positive)", c.Canvas.Width, c.Canvas.Height)
	}

	if _, err := c.RelativePoints(); err != nil {
		return err
	}
	if err := droste.ValidateDepth(c.Scene.Depth); err != nil {
		return fmt.Errorf("invalid scene depth: %w", err)
	}

	if _, err := animation.ParseMode(c.Animation.Mode); err != nil {
		return fmt.Errorf("invalid animation mode: %w", err)
	}
	if c.Animation.Step <= 0 || c.Animation.Step >= 1 {
		return fmt.Errorf("invalid animation step: %v (must be between 0 and 1, exclusive)", c.Animation.Step)
	}
	if c.Animation.FPS < 1 || c.Animation.FPS > 240 {
		return fmt.Errorf("invalid animation fps: %d (must be between 1 and 240)", c.Animation.FPS)
	}

	if c.Render.MaxPixels <= 0 {
		return fmt.Errorf("invalid max pixels: %d (must be positive)", c.Render.MaxPixels)
	}
	if c.Render.Workers < 0 {
		return fmt.Errorf("invalid render workers: %d (must be non-negative)", c.Render.Workers)
	}
	if _, err := ParseHexColor(c.Render.Background); err != nil {
		return fmt.Errorf("invalid background color: %w", err)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.FrameIntervalMS <= 0 {
		return fmt.Errorf("invalid frame interval: %dms (must be positive)", c.Server.FrameIntervalMS)
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("invalid shutdown timeout: %d (must be non-negative)", c.Server.ShutdownTimeout)
	}

	if c.Server.RequestsPerMinute < 0 {
		return fmt.Errorf("invalid requests per minute: %d (must be non-negative)", c.Server.RequestsPerMinute)
	}

	if c.Cache.StackCacheSize <= 0 {
		return fmt.Errorf("invalid stack cache size: %d (must be positive)", c.Cache.StackCacheSize)
	}
	return nil
}

// RelativePoints returns the scene points as a fixed array.
func (c *Config) RelativePoints() ([8]float64, error) {
	var rel [8]float64
	if len(c.Scene.Points) != len(rel) {
		return rel, fmt.Errorf("invalid scene points: got %d values (must be 8)", len(c.Scene.Points))
	}
	for i, v := range c.Scene.Points {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return rel, fmt.Errorf("invalid scene points: value %d is not finite", i)
		}
		rel[i] = v
	}
	return rel, nil
}

// Quad resolves the relative scene points against the canvas.
func (c *Config) Quad() (homography.Quad, error) {
	rel, err := c.RelativePoints()
	if err != nil {
		return homography.Quad{}, err
	}
	return homography.QuadFromRelative(float64(c.Canvas.Width), float64(c.Canvas.Height), rel), nil
}

// AnimationMode parses the configured mode.
func (c *Config) AnimationMode() (animation.Mode, error) {
	return animation.ParseMode(c.Animation.Mode)
}

// FrameDuration is the per-frame interval implied by the animation fps.
func (c *Config) FrameDuration() time.Duration {
	if c.Animation.FPS <= 0 {
		return animation.DefaultFrameInterval
	}
	return time.Second / time.Duration(c.Animation.FPS)
}

// ServerFrameInterval is the WebSocket frame period.
func (c *Config) ServerFrameInterval() time.Duration {
	if c.Server.FrameIntervalMS <= 0 {
		return animation.DefaultFrameInterval
	}
	return time.Duration(c.Server.FrameIntervalMS) * time.Millisecond
}

// ToRenderOptions converts the render section.
func (c *Config) ToRenderOptions() (render.Options, error) {
	bg, err := ParseHexColor(c.Render.Background)
	if err != nil {
		return render.Options{}, err
	}
	return render.Options{
		Background: bg,
		Workers:    c.Render.Workers,
		Overlay:    c.Render.Overlay,
	}, nil
}

// ParseHexColor accepts #rgb, #rrggbb and #rrggbbaa.
func ParseHexColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("%q is not a hex color", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%q is not a hex color: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
