// Package animation drives the looping zoom between the identity and the
// inverse of the base transform.
package animation

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/MeKo-Tech/droste/internal/matrix"
	"golang.org/x/text/cases"
)

const (
	// DefaultStep is the progress advance per frame.
	DefaultStep = 0.01
	// SmoothStep is a slightly smaller advance for smoother motion.
	SmoothStep = 0.009
)

// Mode is the animation state selected by an external command.
type Mode int

const (
	// Off renders the identity.
	Off Mode = iota
	// ZoomIn decreases progress each frame.
	ZoomIn
	// ZoomOut increases progress each frame.
	ZoomOut
)

func (m Mode) String() string {
	switch m {
	case Off:
		return "off"
	case ZoomIn:
		return "in"
	case ZoomOut:
		return "out"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts off, in, out (and zoom-in, zoom-out), case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch cases.Fold().String(strings.TrimSpace(s)) {
	case "off", "":
		return Off, nil
	case "in", "zoom-in", "zoom_in":
		return ZoomIn, nil
	case "out", "zoom-out", "zoom_out":
		return ZoomOut, nil
	default:
		return Off, fmt.Errorf("unknown animation mode %q (must be one of: off, in, out)", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Interpolator owns the progress scalar and the cached target matrix.
// It is not safe for concurrent use; a single frame loop drives it.
type Interpolator struct {
	mode      Mode
	progress  float64
	step      float64
	target    matrix.Mat4
	hasTarget bool
}

// NewInterpolator returns an interpolator in Off with progress 0.
// A non-positive step selects DefaultStep.
func NewInterpolator(step float64) *Interpolator {
	if step <= 0 {
		step = DefaultStep
	}
	return &Interpolator{step: step, target: matrix.Identity4()}
}

// Mode returns the current mode.
func (in *Interpolator) Mode() Mode { return in.mode }

// Progress returns the current progress in [0, 1).
func (in *Interpolator) Progress() float64 { return in.progress }

// Target returns the cached target and whether one has been set.
func (in *Interpolator) Target() (matrix.Mat4, bool) { return in.target, in.hasTarget }

// SetMode applies an external command. Entering Off resets progress so the
// next frame is the identity.
func (in *Interpolator) SetMode(m Mode) {
	if m == in.mode {
		return
	}
	slog.Debug("animation mode change", "from", in.mode, "to", m)
	in.mode = m
	if m == Off {
		in.progress = 0
	}
}

// SetBase recomputes the target as the inverse of base. If base cannot be
// inverted the interpolator is forced to Off and the error is returned.
func (in *Interpolator) SetBase(base matrix.Mat4) error {
	inv, err := matrix.Invert4(base)
	if err != nil {
		in.hasTarget = false
		in.target = matrix.Identity4()
		in.SetMode(Off)
		slog.Warn("animation target unavailable", "error", err)
		return fmt.Errorf("animation target: %w", err)
	}
	in.target = inv
	in.hasTarget = true
	return nil
}

// Step advances one frame and returns the blended matrix. In Off, or before a
// target is set, it returns the identity.
func (in *Interpolator) Step() matrix.Mat4 {
	if in.mode == Off || !in.hasTarget {
		return matrix.Identity4()
	}
	switch in.mode {
	case ZoomOut:
		in.progress += in.step
	case ZoomIn:
		in.progress -= in.step
	}
	in.progress = wrap(in.progress)
	return in.Frame()
}

// Frame returns the blended matrix at the current progress without advancing.
func (in *Interpolator) Frame() matrix.Mat4 {
	if in.mode == Off || !in.hasTarget {
		return matrix.Identity4()
	}
	return matrix.Lerp(matrix.Identity4(), in.target, in.progress)
}

func wrap(p float64) float64 {
	for p >= 1 {
		p--
	}
	for p < 0 {
		p++
	}
	return p
}
