package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestConfigYAMLKeys(t *testing.T) {
	data, err := yaml.Marshal(DefaultConfig())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, yaml.Unmarshal(data, &raw))
	for _, key := range []string{"log_level", "canvas", "scene", "animation", "render", "server", "cache"} {
		assert.Contains(t, raw, key)
	}
	server, ok := raw["server"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, server, "frame_interval_ms")
}

func TestConfigYAMLUnmarshal(t *testing.T) {
	doc := `
log_level: warn
scene:
  points: [0, 0, 0.5, 0, 0, 0.5, 0.5, 0.5]
  depth: 72
cache:
  stack_cache_size: 8
`
	var cfg Config
	require.NoError(t, yaml.Unmarshal([]byte(doc), &cfg))
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, []float64{0, 0, 0.5, 0, 0, 0.5, 0.5, 0.5}, cfg.Scene.Points)
	assert.Equal(t, 72, cfg.Scene.Depth)
	assert.Equal(t, 8, cfg.Cache.StackCacheSize)
}

func TestConfigJSONKeys(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Verbose = true

	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, true, raw["verbose"])
	render, ok := raw["render"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "#000000", render["background"])
}
