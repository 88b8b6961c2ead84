// Package scene holds the editable inputs of a Droste rendering (canvas,
// quad, depth) and keeps the last valid stack when an update is rejected.
package scene

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/MeKo-Tech/droste/internal/droste"
	"github.com/MeKo-Tech/droste/internal/homography"
	"github.com/MeKo-Tech/droste/internal/matrix"
	"github.com/MeKo-Tech/droste/internal/utils"
)

// State is an immutable snapshot of a scene.
type State struct {
	Width  float64
	Height float64
	Quad   homography.Quad
	Depth  int
	Base   matrix.Mat4
	Stack  droste.Stack
}

// BaseListener is called with the new base transform after every accepted update.
type BaseListener func(base matrix.Mat4)

// Scene is safe for concurrent use.
type Scene struct {
	mu       sync.RWMutex
	composer *droste.Composer
	state    State
	onBase   BaseListener
}

// New validates the initial inputs and builds the first stack.
func New(composer *droste.Composer, width, height float64, quad homography.Quad, depth int) (*Scene, error) {
	if composer == nil {
		var err error
		composer, err = droste.NewComposer(droste.DefaultCacheSize)
		if err != nil {
			return nil, err
		}
	}
	s := &Scene{composer: composer}
	st, err := s.compose(width, height, quad, depth)
	if err != nil {
		return nil, fmt.Errorf("initial scene: %w", err)
	}
	s.state = st
	return s, nil
}

// OnBaseChange registers a listener for accepted updates.
func (s *Scene) OnBaseChange(l BaseListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onBase = l
}

// State returns a snapshot; the stack is a copy.
func (s *Scene) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.Stack = st.Stack.Clone()
	return st
}

// SetQuad replaces all four points.
func (s *Scene) SetQuad(q homography.Quad) error {
	return s.update(func(st *State) error {
		st.Quad = q
		return nil
	})
}

// MovePoint moves one handle according to mode. The edit is computed from
// the state it is applied to.
func (s *Scene) MovePoint(id int, p utils.Point, mode utils.EditMode) error {
	return s.update(func(st *State) error {
		pts, err := utils.MovePoint(st.Quad, id, p, mode, st.Width, st.Height)
		if err != nil {
			return err
		}
		st.Quad = pts
		return nil
	})
}

// SetDepth changes the nesting depth.
func (s *Scene) SetDepth(depth int) error {
	return s.update(func(st *State) error {
		st.Depth = depth
		return nil
	})
}

// Resize changes the canvas size and scales the quad with it.
func (s *Scene) Resize(width, height float64) error {
	return s.update(func(st *State) error {
		if st.Width > 0 && st.Height > 0 {
			copy(st.Quad[:], utils.ScalePoints(st.Quad[:], width/st.Width, height/st.Height))
		}
		st.Width, st.Height = width, height
		return nil
	})
}

// update applies mutate to a copy of the state under the write lock. On
// failure the previous state is kept and the error returned.
func (s *Scene) update(mutate func(*State) error) error {
	s.mu.Lock()
	next := s.state
	err := mutate(&next)
	var st State
	if err == nil {
		st, err = s.compose(next.Width, next.Height, next.Quad, next.Depth)
	}
	if err != nil {
		s.mu.Unlock()
		slog.Debug("scene update rejected", "error", err)
		return err
	}
	s.state = st
	listener := s.onBase
	s.mu.Unlock()

	if listener != nil {
		listener(st.Base)
	}
	return nil
}

func (s *Scene) compose(width, height float64, quad homography.Quad, depth int) (State, error) {
	res, err := s.composer.Compose(droste.Request{Width: width, Height: height, Quad: quad, Depth: depth})
	if err != nil {
		return State{}, err
	}
	return State{
		Width:  width,
		Height: height,
		Quad:   quad,
		Depth:  depth,
		Base:   res.Base,
		Stack:  res.Stack,
	}, nil
}
