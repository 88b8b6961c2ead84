// Package droste builds the ordered stack of nested transforms that renders
// an image recursively inside itself.
package droste

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidDepth is returned for a recursion depth outside AllowedDepths.
var ErrInvalidDepth = errors.New("invalid depth")

// ExpensiveDepth is accepted but not a recommended default.
const ExpensiveDepth = 256

// DefaultDepth is the depth used when none is configured.
const DefaultDepth = 32

// AllowedDepths enumerates the supported recursion depths.
var AllowedDepths = []int{2, 8, 16, 32, 72, 128, 256}

// ValidateDepth reports ErrInvalidDepth unless depth is one of AllowedDepths.
func ValidateDepth(depth int) error {
	if !slices.Contains(AllowedDepths, depth) {
		return fmt.Errorf("%d (must be one of %v): %w", depth, AllowedDepths, ErrInvalidDepth)
	}
	return nil
}

// IsExpensive reports whether depth is flagged as costly to render.
func IsExpensive(depth int) bool {
	return depth >= ExpensiveDepth
}
