package common

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimer_StopFreezes(t *testing.T) {
	timer := NewNamedTimer("render")
	assert.Equal(t, "render", timer.Name())

	time.Sleep(10 * time.Millisecond)
	first := timer.Stop()
	assert.GreaterOrEqual(t, first, 10*time.Millisecond)

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, first, timer.Stop())
	assert.Equal(t, first, timer.Elapsed())
	assert.Contains(t, timer.String(), "render: ")
	assert.Contains(t, timer.String(), "ms")
}

func TestTimer_ElapsedWhileRunning(t *testing.T) {
	timer := NewTimer()
	assert.Empty(t, timer.Name())
	time.Sleep(2 * time.Millisecond)
	assert.Positive(t, timer.Elapsed())
	assert.NotContains(t, timer.String(), ":")
}

func TestTimer_LogValue(t *testing.T) {
	timer := NewNamedTimer("step")
	timer.Stop()

	v := timer.LogValue()
	require.Equal(t, slog.KindGroup, v.Kind())
	attrs := v.Group()
	require.Len(t, attrs, 2)
	assert.Equal(t, "name", attrs[0].Key)
	assert.Equal(t, "step", attrs[0].Value.String())
	assert.Equal(t, "elapsed", attrs[1].Key)
	assert.Equal(t, timer.Elapsed(), attrs[1].Value.Duration())
}
