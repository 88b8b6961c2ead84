// Package common provides timing helpers shared by the renderer and the CLI.
package common

import (
	"log/slog"
	"time"
)

// Timer measures one operation. The zero value is not usable; create one
// with NewTimer or NewNamedTimer.
type Timer struct {
	name    string
	start   time.Time
	elapsed time.Duration
	stopped bool
}

// NewTimer starts an unnamed timer.
func NewTimer() *Timer { return NewNamedTimer("") }

// NewNamedTimer starts a timer labeled name.
func NewNamedTimer(name string) *Timer {
	return &Timer{name: name, start: time.Now()}
}

// Stop freezes the timer on its first call and returns the elapsed time.
// Later calls return the same value.
func (t *Timer) Stop() time.Duration {
	if !t.stopped {
		t.elapsed = time.Since(t.start)
		t.stopped = true
	}
	return t.elapsed
}

// Elapsed returns the frozen duration after Stop, the running time before.
func (t *Timer) Elapsed() time.Duration {
	if t.stopped {
		return t.elapsed
	}
	return time.Since(t.start)
}

// Name returns the label given at creation.
func (t *Timer) Name() string { return t.name }

func (t *Timer) String() string {
	d := t.Elapsed().Round(time.Microsecond).String()
	if t.name == "" {
		return d
	}
	return t.name + ": " + d
}

// LogValue implements slog.LogValuer.
func (t *Timer) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("name", t.name),
		slog.Duration("elapsed", t.Elapsed()),
	)
}
