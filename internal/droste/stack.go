package droste

import (
	"errors"
	"fmt"

	"github.com/MeKo-Tech/droste/internal/matrix"
)

// ErrStackOverflow is returned when composing the base overflows float64
// before the requested depth is reached.
var ErrStackOverflow = errors.New("stack level overflows")

// Stack is the ordered list of transforms, one per nesting level.
// Stack[0] is the identity and Stack[i] is Stack[i-1] followed by the base transform.
type Stack []matrix.Mat4

// BuildStack composes base with itself depth-1 times.
// Depth 1 yields just the identity; any other depth must be in AllowedDepths.
// A level that is no longer finite fails the whole build with ErrStackOverflow.
func BuildStack(base matrix.Mat4, depth int) (Stack, error) {
	if depth != 1 {
		if err := ValidateDepth(depth); err != nil {
			return nil, err
		}
	}
	if !base.IsFinite() {
		return nil, fmt.Errorf("base transform is not finite: %w", matrix.ErrSingularMatrix)
	}

	b := matrix.Demote(base)
	stack := make(Stack, depth)
	stack[0] = matrix.Identity4()
	for i := 1; i < depth; i++ {
		level := matrix.Mul(matrix.Demote(stack[i-1]), b)
		if !level.IsFinite() {
			return nil, fmt.Errorf("level %d of %d: %w", i, depth, ErrStackOverflow)
		}
		stack[i] = matrix.Promote(level)
	}
	return stack, nil
}

// CSS returns the matrix3d() value of every level.
func (s Stack) CSS() []string {
	out := make([]string, len(s))
	for i, m := range s {
		out[i] = m.CSS()
	}
	return out
}

// Clone returns a copy that shares no storage with s.
func (s Stack) Clone() Stack {
	if s == nil {
		return nil
	}
	out := make(Stack, len(s))
	copy(out, s)
	return out
}
