package utils

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
)

// DefaultMaxPixels bounds the source image area; larger uploads are shrunk.
const DefaultMaxPixels = 728 * 728

// SupportedImageExtensions lists supported file extensions for loading.
var SupportedImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp"}

// ImageProcessingError represents errors that can occur during image processing.
type ImageProcessingError struct {
	Operation string
	Err       error
}

func (e *ImageProcessingError) Error() string {
	return fmt.Sprintf("image processing error in %s: %v", e.Operation, e.Err)
}

func (e *ImageProcessingError) Unwrap() error { return e.Err }

// IsSupportedImage reports whether the path has a supported image extension.
func IsSupportedImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedImageExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// ImageMetadata captures lightweight file and pixel information.
type ImageMetadata struct {
	Path        string
	Format      string
	SizeBytes   int64
	Width       int
	Height      int
	AspectRatio float64
}

// LoadImage opens and decodes an image file, returning the image and metadata.
func LoadImage(path string) (image.Image, ImageMetadata, error) {
	if path == "" {
		err := &ImageProcessingError{Operation: "load", Err: errors.New("empty path")}
		return nil, ImageMetadata{}, err
	}
	if !IsSupportedImage(path) {
		err := &ImageProcessingError{Operation: "load", Err: fmt.Errorf("unsupported format: %s", filepath.Ext(path))}
		return nil, ImageMetadata{}, err
	}

	f, err := os.Open(path) //nolint:gosec // G304: Reading user-provided image file path is expected
	if err != nil {
		err = &ImageProcessingError{Operation: "load", Err: err}
		return nil, ImageMetadata{}, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing image file: %v\n", err)
		}
	}()

	fi, statErr := f.Stat()
	if statErr != nil {
		return nil, ImageMetadata{}, &ImageProcessingError{Operation: "load", Err: statErr}
	}

	img, format, decErr := image.Decode(f)
	if decErr != nil {
		return nil, ImageMetadata{}, &ImageProcessingError{Operation: "decode", Err: decErr}
	}

	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, ImageMetadata{}, &ImageProcessingError{Operation: "decode", Err: errors.New("empty image")}
	}
	meta := ImageMetadata{
		Path:        path,
		Format:      format,
		SizeBytes:   fi.Size(),
		Width:       b.Dx(),
		Height:      b.Dy(),
		AspectRatio: float64(b.Dx()) / float64(b.Dy()),
	}

	return img, meta, nil
}

// SaveImage encodes img to path; the format follows the file extension.
func SaveImage(img image.Image, path string) error {
	if img == nil {
		return &ImageProcessingError{Operation: "save", Err: errors.New("input image is nil")}
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return &ImageProcessingError{Operation: "save", Err: err}
		}
	}
	if err := imaging.Save(img, path); err != nil {
		return &ImageProcessingError{Operation: "save", Err: err}
	}
	return nil
}

// LimitPixels shrinks img by factors of sqrt(2) in area until it holds at
// most maxPixels pixels. Images already within the limit are returned as is.
func LimitPixels(img image.Image, maxPixels int) (image.Image, error) {
	if img == nil {
		return nil, &ImageProcessingError{Operation: "resize", Err: errors.New("input image is nil")}
	}
	if maxPixels <= 0 {
		return img, nil
	}
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	if w*h <= float64(maxPixels) {
		return img, nil
	}
	for w*h > float64(maxPixels) {
		w /= math.Sqrt2
		h /= math.Sqrt2
	}
	nw := max(1, int(math.Round(w)))
	nh := max(1, int(math.Round(h)))
	return imaging.Resize(img, nw, nh, imaging.Lanczos), nil
}

// FitCanvas returns the largest canvas with the given aspect ratio
// (width/height) that fits inside maxWidth x maxHeight.
func FitCanvas(aspect float64, maxWidth, maxHeight int) (int, int, error) {
	if !(aspect > 0) || math.IsInf(aspect, 0) || maxWidth <= 0 || maxHeight <= 0 {
		return 0, 0, &ImageProcessingError{
			Operation: "fit",
			Err:       fmt.Errorf("invalid fit request: aspect %v into %dx%d", aspect, maxWidth, maxHeight),
		}
	}
	size := math.Min(float64(maxHeight), float64(maxWidth)/aspect)
	w := min(maxWidth, max(1, int(math.Round(size*aspect))))
	h := min(maxHeight, max(1, int(math.Round(size))))
	return w, h, nil
}

// ResizeToCanvas scales img to exactly width x height.
func ResizeToCanvas(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return imaging.Clone(img)
	}
	return imaging.Resize(img, width, height, imaging.Lanczos)
}
