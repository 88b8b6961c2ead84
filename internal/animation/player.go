package animation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/droste/internal/matrix"
)

// DefaultFrameInterval targets roughly 60 frames per second.
const DefaultFrameInterval = time.Second / 60

// ErrPlayerStopped is returned by Send after Run has returned.
var ErrPlayerStopped = errors.New("player stopped")

// Frame is one produced animation frame.
type Frame struct {
	Index    uint64
	Mode     Mode
	Progress float64
	Matrix   matrix.Mat4
}

// FrameSink receives frames; a returned error stops the player.
type FrameSink func(Frame) error

// ErrorSink receives command failures such as a singular target.
type ErrorSink func(error)

type commandKind int

const (
	cmdMode commandKind = iota
	cmdBase
)

// Command is a message for a running Player.
type Command struct {
	kind commandKind
	mode Mode
	base matrix.Mat4
}

// SetModeCommand switches the animation mode.
func SetModeCommand(m Mode) Command { return Command{kind: cmdMode, mode: m} }

// SetBaseCommand replaces the base transform, recomputing the target.
func SetBaseCommand(base matrix.Mat4) Command { return Command{kind: cmdBase, base: base} }

// Player runs the frame loop. The interpolator is touched only by the Run
// goroutine; other goroutines talk to it through Send.
type Player struct {
	in       *Interpolator
	interval time.Duration
	commands chan Command
	done     chan struct{}
	sink     FrameSink
	onError  ErrorSink

	frames   uint64
	idleSent bool
}

// NewPlayer creates a player ticking every interval (DefaultFrameInterval if <= 0).
func NewPlayer(in *Interpolator, interval time.Duration, sink FrameSink, onError ErrorSink) *Player {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	if onError == nil {
		onError = func(err error) { slog.Warn("animation command failed", "error", err) }
	}
	return &Player{
		in:       in,
		interval: interval,
		commands: make(chan Command, 16),
		done:     make(chan struct{}),
		sink:     sink,
		onError:  onError,
	}
}

// Send queues a command for the frame loop. It returns ErrPlayerStopped
// when the loop has exited, including when it exits while the command is queued.
func (p *Player) Send(ctx context.Context, cmd Command) error {
	select {
	case <-p.done:
		return ErrPlayerStopped
	default:
	}
	select {
	case p.commands <- cmd:
		// both cases may have been ready; a buffered command is never read once done is closed
		select {
		case <-p.done:
			return ErrPlayerStopped
		default:
			return nil
		}
	case <-p.done:
		return ErrPlayerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run ticks until ctx is cancelled or the sink fails.
func (p *Player) Run(ctx context.Context) error {
	defer close(p.done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-p.commands:
			p.apply(cmd)
		case <-ticker.C:
			if err := p.tick(); err != nil {
				return fmt.Errorf("deliver frame %d: %w", p.frames, err)
			}
		}
	}
}

func (p *Player) apply(cmd Command) {
	switch cmd.kind {
	case cmdMode:
		p.in.SetMode(cmd.mode)
	case cmdBase:
		if err := p.in.SetBase(cmd.base); err != nil {
			p.onError(err)
		}
	}
}

// tick produces at most one frame. While Off a single identity frame is
// emitted after the transition and the loop then idles.
func (p *Player) tick() error {
	if p.in.Mode() == Off {
		if p.idleSent {
			return nil
		}
		p.idleSent = true
	} else {
		p.idleSent = false
	}
	m := p.in.Step()
	f := Frame{Index: p.frames, Mode: p.in.Mode(), Progress: p.in.Progress(), Matrix: m}
	p.frames++
	if p.sink == nil {
		return nil
	}
	return p.sink(f)
}

// Collect steps in n times and returns the frames, for offline rendering.
func Collect(in *Interpolator, n int) []Frame {
	frames := make([]Frame, 0, max(n, 0))
	for i := range n {
		m := in.Step()
		frames = append(frames, Frame{Index: uint64(i), Mode: in.Mode(), Progress: in.Progress(), Matrix: m})
	}
	return frames
}
