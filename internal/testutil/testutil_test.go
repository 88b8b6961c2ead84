package testutil

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectRoot(t *testing.T) {
	root, err := ProjectRoot()
	require.NoError(t, err)
	assert.True(t, FileExists(filepath.Join(root, "go.mod")))
	assert.True(t, DirExists(filepath.Join(root, "cmd", "droste")))

	again, err := ProjectRoot()
	require.NoError(t, err)
	assert.Equal(t, root, again)
}

func TestFindRoot_Errors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module x\n"), 0o600))
	_, err := findRoot(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestQuadrantImage(t *testing.T) {
	img := QuadrantImage(40, 20)
	assert.Equal(t, TopLeft, img.NRGBAAt(5, 5))
	assert.Equal(t, TopRight, img.NRGBAAt(35, 5))
	assert.Equal(t, BottomLeft, img.NRGBAAt(5, 15))
	assert.Equal(t, BottomRight, img.NRGBAAt(35, 15))
}

func TestCheckerboard(t *testing.T) {
	img := Checkerboard(8, 8, 2, color.White, color.Black)
	assert.True(t, ColorsClose(img.At(0, 0), color.White, 0))
	assert.True(t, ColorsClose(img.At(2, 0), color.Black, 0))
	assert.True(t, ColorsClose(img.At(2, 2), color.White, 0))
}

func TestLabeledImage_DrawsText(t *testing.T) {
	img := LabeledImage(64, 32, "droste")
	dark := 0
	for y := range 16 {
		for x := range 64 {
			if ColorsClose(img.At(x, y), color.Black, 10) {
				dark++
			}
		}
	}
	assert.Positive(t, dark)
}

func TestWriteImage(t *testing.T) {
	path := WriteImage(t, SolidImage(4, 4, color.White), "solid.png")
	assert.True(t, FileExists(path))
}

func TestColorsClose(t *testing.T) {
	assert.True(t, ColorsClose(color.Gray{Y: 100}, color.Gray{Y: 104}, 5))
	assert.False(t, ColorsClose(color.Gray{Y: 100}, color.Gray{Y: 110}, 5))
}
