package batch

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Progress receives updates while a batch runs. Implementations must be safe
// for concurrent use.
type Progress interface {
	OnStart(total int)
	OnProgress(current, total int)
	OnError(item string, err error)
	OnComplete()
}

// NoProgress discards all updates.
type NoProgress struct{}

func (NoProgress) OnStart(int)           {}
func (NoProgress) OnProgress(int, int)   {}
func (NoProgress) OnError(string, error) {}
func (NoProgress) OnComplete()           {}

// ConsoleProgress draws a single-line progress bar.
type ConsoleProgress struct {
	mu             sync.Mutex
	w              io.Writer
	prefix         string
	width          int
	updateInterval time.Duration
	start          time.Time
	lastUpdate     time.Time
}

// NewConsoleProgress writes a bar to w, redrawing at most every interval.
func NewConsoleProgress(w io.Writer, prefix string, interval time.Duration) *ConsoleProgress {
	return &ConsoleProgress{w: w, prefix: prefix, width: 30, updateInterval: interval}
}

func (c *ConsoleProgress) OnStart(total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start = time.Now()
	c.lastUpdate = time.Time{}
	_, _ = fmt.Fprintf(c.w, "%s0/%d\n", c.prefix, total)
}

func (c *ConsoleProgress) OnProgress(current, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	if now.Sub(c.lastUpdate) < c.updateInterval && current < total {
		return
	}
	c.lastUpdate = now
	if total <= 0 {
		return
	}
	filled := min(c.width, c.width*current/total)
	bar := strings.Repeat("#", filled) + strings.Repeat(".", c.width-filled)
	line := fmt.Sprintf("\r%s[%s] %d/%d", c.prefix, bar, current, total)
	if elapsed := now.Sub(c.start); elapsed > 0 && current > 0 {
		line += fmt.Sprintf(" %.1f/s", float64(current)/elapsed.Seconds())
	}
	_, _ = fmt.Fprint(c.w, line)
}

func (c *ConsoleProgress) OnError(item string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.w, "\n%s%s: %v\n", c.prefix, item, err)
}

func (c *ConsoleProgress) OnComplete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.w, "\n%sCompleted in %v\n", c.prefix, time.Since(c.start).Round(time.Millisecond))
}

// LogProgress reports through slog every interval items.
type LogProgress struct {
	mu       sync.Mutex
	logger   *slog.Logger
	interval int
	lastLog  int
	start    time.Time
}

// NewLogProgress logs through logger (slog.Default when nil).
func NewLogProgress(logger *slog.Logger, interval int) *LogProgress {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogProgress{logger: logger, interval: max(1, interval)}
}

func (l *LogProgress) OnStart(total int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.start = time.Now()
	l.lastLog = 0
	l.logger.Info("Starting batch", "total", total)
}

func (l *LogProgress) OnProgress(current, total int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if current-l.lastLog < l.interval && current != total {
		return
	}
	l.lastLog = current
	l.logger.Info("Batch progress", "current", current, "total", total,
		"elapsed", time.Since(l.start).Round(time.Millisecond).String())
}

func (l *LogProgress) OnError(item string, err error) {
	l.logger.Error("Batch item failed", "item", item, "error", err)
}

func (l *LogProgress) OnComplete() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Info("Batch completed", "elapsed", time.Since(l.start).Round(time.Millisecond).String())
}
