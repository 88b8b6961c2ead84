package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/droste/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestConfigShow_Defaults(t *testing.T) {
	isolateConfig(t)

	out, _, err := executeCommand(t, "config", "show", "--format", "json")
	require.NoError(t, err)

	var got config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	want := config.DefaultConfig()
	assert.Equal(t, want.Canvas, got.Canvas)
	assert.Equal(t, want.Scene, got.Scene)
	assert.Equal(t, want.Server, got.Server)
	assert.Equal(t, want.Animation, got.Animation)
}

func TestConfigShow_EnvironmentOverride(t *testing.T) {
	isolateConfig(t)
	t.Setenv("DROSTE_SCENE_DEPTH", "8")
	t.Setenv("DROSTE_SERVER_PORT", "9100")

	out, _, err := executeCommand(t, "config", "show")
	require.NoError(t, err)

	var got config.Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, 8, got.Scene.Depth)
	assert.Equal(t, 9100, got.Server.Port)
}

func TestConfigShow_ExplicitFile(t *testing.T) {
	dir := isolateConfig(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9999\nscene:\n  depth: 16\n"), 0o600))

	out, stderr, err := executeCommand(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, stderr, "# config file: "+path)

	var got config.Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, 9999, got.Server.Port)
	assert.Equal(t, 16, got.Scene.Depth)
}

func TestConfigShow_BadFormat(t *testing.T) {
	isolateConfig(t)

	_, _, err := executeCommand(t, "config", "show", "--format", "css")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be yaml or json")
}

func TestConfigInit(t *testing.T) {
	dir := isolateConfig(t)

	out, _, err := executeCommand(t, "config", "init")
	require.NoError(t, err)
	path := filepath.Join(dir, "droste.yaml")
	assert.Contains(t, out, "droste.yaml")
	require.FileExists(t, path)

	_, _, err = executeCommand(t, "config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, _, err = executeCommand(t, "config", "init", "--force")
	require.NoError(t, err)

	// The generated file is picked up from the working directory.
	out, _, err = executeCommand(t, "config", "show", "-f", "json")
	require.NoError(t, err)
	var got config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, config.DefaultConfig().Scene, got.Scene)
}

func TestConfigInit_CustomPath(t *testing.T) {
	dir := isolateConfig(t)
	path := filepath.Join(dir, "nested", "droste.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))

	_, _, err := executeCommand(t, "config", "init", path)
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestConfigPaths(t *testing.T) {
	isolateConfig(t)

	out, _, err := executeCommand(t, "config", "paths")
	require.NoError(t, err)
	assert.Contains(t, out, ".")
	assert.Contains(t, out, "/etc/droste")
}
