package config

import (
	"image/color"
	"testing"
	"time"

	"github.com/MeKo-Tech/droste/internal/animation"
	"github.com/MeKo-Tech/droste/internal/droste"
	"github.com/MeKo-Tech/droste/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const debugLevel = "debug"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 800, cfg.Canvas.Width)
	assert.Equal(t, 600, cfg.Canvas.Height)
	assert.Equal(t, DefaultPoints, cfg.Scene.Points)
	assert.Equal(t, droste.DefaultDepth, cfg.Scene.Depth)
	assert.Equal(t, "off", cfg.Animation.Mode)
	assert.InDelta(t, animation.SmoothStep, cfg.Animation.Step, 0)
	assert.Equal(t, utils.DefaultMaxPixels, cfg.Render.MaxPixels)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, droste.DefaultCacheSize, cfg.Cache.StackCacheSize)
	require.NoError(t, cfg.Validate())
}

func TestDefaultConfig_PointsNotShared(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scene.Points[0] = 0.5
	assert.InDelta(t, 0.2, DefaultPoints[0], 0)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"debug level", func(c *Config) { c.LogLevel = debugLevel }, ""},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "invalid log level"},
		{"zero width", func(c *Config) { c.Canvas.Width = 0 }, "invalid canvas size"},
		{"seven points", func(c *Config) { c.Scene.Points = c.Scene.Points[:7] }, "invalid scene points"},
		{"depth 7", func(c *Config) { c.Scene.Depth = 7 }, "invalid scene depth"},
		{"depth 256", func(c *Config) { c.Scene.Depth = 256 }, ""},
		{"mode in", func(c *Config) { c.Animation.Mode = "in" }, ""},
		{"mode sideways", func(c *Config) { c.Animation.Mode = "sideways" }, "invalid animation mode"},
		{"step zero", func(c *Config) { c.Animation.Step = 0 }, "invalid animation step"},
		{"step one", func(c *Config) { c.Animation.Step = 1 }, "invalid animation step"},
		{"fps zero", func(c *Config) { c.Animation.FPS = 0 }, "invalid animation fps"},
		{"max pixels", func(c *Config) { c.Render.MaxPixels = 0 }, "invalid max pixels"},
		{"workers", func(c *Config) { c.Render.Workers = -1 }, "invalid render workers"},
		{"background", func(c *Config) { c.Render.Background = "purple" }, "invalid background color"},
		{"port", func(c *Config) { c.Server.Port = 70000 }, "invalid server port"},
		{"frame interval", func(c *Config) { c.Server.FrameIntervalMS = 0 }, "invalid frame interval"},
		{"shutdown", func(c *Config) { c.Server.ShutdownTimeout = -1 }, "invalid shutdown timeout"},
		{"requests per minute", func(c *Config) { c.Server.RequestsPerMinute = -1 }, "invalid requests per minute"},
		{"cache", func(c *Config) { c.Cache.StackCacheSize = 0 }, "invalid stack cache size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigQuad(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Canvas.Width = 100
	cfg.Canvas.Height = 50

	quad, err := cfg.Quad()
	require.NoError(t, err)
	assert.InDelta(t, 20.0, quad[0].X, 1e-9)
	assert.InDelta(t, 10.0, quad[0].Y, 1e-9)
	assert.InDelta(t, 80.0, quad[3].X, 1e-9)
	assert.InDelta(t, 40.0, quad[3].Y, 1e-9)

	cfg.Scene.Points = nil
	_, err = cfg.Quad()
	assert.Error(t, err)
}

func TestConfigDurations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Animation.FPS = 25
	assert.Equal(t, 40*time.Millisecond, cfg.FrameDuration())
	cfg.Server.FrameIntervalMS = 33
	assert.Equal(t, 33*time.Millisecond, cfg.ServerFrameInterval())

	cfg.Animation.FPS = 0
	assert.Equal(t, animation.DefaultFrameInterval, cfg.FrameDuration())
}

func TestConfigAnimationMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Animation.Mode = "out"
	mode, err := cfg.AnimationMode()
	require.NoError(t, err)
	assert.Equal(t, animation.ZoomOut, mode)
}

func TestToRenderOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Render.Background = "#102030"
	cfg.Render.Workers = 3
	cfg.Render.Overlay = true

	opts, err := cfg.ToRenderOptions()
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xff}, opts.Background)
	assert.Equal(t, 3, opts.Workers)
	assert.True(t, opts.Overlay)
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{"#fff", color.NRGBA{255, 255, 255, 255}, false},
		{"000000", color.NRGBA{0, 0, 0, 255}, false},
		{"#ff000080", color.NRGBA{255, 0, 0, 128}, false},
		{"#12345", color.NRGBA{}, true},
		{"#gggggg", color.NRGBA{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHexColor(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
