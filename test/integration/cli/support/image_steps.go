package support

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/droste/internal/testutil"
	"github.com/MeKo-Tech/droste/internal/utils"
	"github.com/cucumber/godog"
)

// aTestImageOfSize writes a four-color quadrant image into the temp dir.
func (testCtx *TestContext) aTestImageOfSize(name string, width, height int) error {
	path := testCtx.resolve(name)
	if err := utils.SaveImage(testutil.QuadrantImage(width, height), path); err != nil {
		return fmt.Errorf("failed to create test image %s: %w", name, err)
	}
	testCtx.TrackFile(path)
	return nil
}

func (testCtx *TestContext) loadImage(name string) (image.Image, error) {
	img, _, err := utils.LoadImage(testCtx.resolve(name))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}
	return img, nil
}

// theImageShouldBe checks the dimensions of an output image.
func (testCtx *TestContext) theImageShouldBe(name string, width, height int) error {
	img, err := testCtx.loadImage(name)
	if err != nil {
		return err
	}
	b := img.Bounds()
	if b.Dx() != width || b.Dy() != height {
		return fmt.Errorf("image %s is %dx%d, want %dx%d", name, b.Dx(), b.Dy(), width, height)
	}
	return nil
}

// theImagesShouldDiffer fails when both images have identical pixels.
func (testCtx *TestContext) theImagesShouldDiffer(a, b string) error {
	imgA, err := testCtx.loadImage(a)
	if err != nil {
		return err
	}
	imgB, err := testCtx.loadImage(b)
	if err != nil {
		return err
	}
	if imgA.Bounds() != imgB.Bounds() {
		return nil
	}
	bounds := imgA.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if !testutil.ColorsClose(imgA.At(x, y), imgB.At(x, y), 0) {
				return nil
			}
		}
	}
	return fmt.Errorf("images %s and %s are identical", a, b)
}

// theDirectoryShouldContainFrames counts frame_NNNN.png files.
func (testCtx *TestContext) theDirectoryShouldContainFrames(dir string, n int) error {
	entries, err := os.ReadDir(testCtx.resolve(dir))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", dir, err)
	}
	count := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "frame_") && filepath.Ext(e.Name()) == ".png" {
			count++
		}
	}
	if count != n {
		return fmt.Errorf("directory %s holds %d frames, want %d", dir, count, n)
	}
	return nil
}

// RegisterImageSteps registers image fixture and assertion steps.
func (testCtx *TestContext) RegisterImageSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a test image "([^"]*)" of size (\d+)x(\d+)$`, testCtx.aTestImageOfSize)
	sc.Step(`^the image "([^"]*)" should be (\d+)x(\d+)$`, testCtx.theImageShouldBe)
	sc.Step(`^the images "([^"]*)" and "([^"]*)" should differ$`, testCtx.theImagesShouldDiffer)
	sc.Step(`^the directory "([^"]*)" should contain (\d+) frames$`, testCtx.theDirectoryShouldContainFrames)
}
