package droste

import (
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/droste/internal/homography"
	"github.com/MeKo-Tech/droste/internal/matrix"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of stacks a Composer keeps.
const DefaultCacheSize = 64

// Request identifies one stack: canvas size, destination quad and depth.
type Request struct {
	Width  float64
	Height float64
	Quad   homography.Quad
	Depth  int
}

// Result bundles the base transform and the stack derived from it.
type Result struct {
	Base  matrix.Mat4
	Stack Stack
}

// Composer computes stacks and memoizes them by Request so unchanged inputs
// skip the O(depth) rebuild. It is safe for concurrent use.
type Composer struct {
	cache *lru.Cache[Request, Result]
}

// NewComposer creates a Composer holding up to size results.
func NewComposer(size int) (*Composer, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[Request, Result](size)
	if err != nil {
		return nil, fmt.Errorf("create stack cache: %w", err)
	}
	return &Composer{cache: cache}, nil
}

// Compose returns the base transform and stack for req.
func (c *Composer) Compose(req Request) (Result, error) {
	if res, ok := c.cache.Get(req); ok {
		slog.Debug("stack cache hit", "depth", req.Depth)
		return Result{Base: res.Base, Stack: res.Stack.Clone()}, nil
	}

	if err := ValidateDepth(req.Depth); err != nil {
		return Result{}, err
	}
	base, err := homography.Compute(req.Width, req.Height, req.Quad)
	if err != nil {
		return Result{}, err
	}
	stack, err := BuildStack(base, req.Depth)
	if err != nil {
		return Result{}, err
	}
	if IsExpensive(req.Depth) {
		slog.Warn("building expensive stack", "depth", req.Depth)
	}

	res := Result{Base: base, Stack: stack}
	c.cache.Add(req, res)
	return Result{Base: base, Stack: stack.Clone()}, nil
}

// Len returns the number of cached stacks.
func (c *Composer) Len() int {
	return c.cache.Len()
}
