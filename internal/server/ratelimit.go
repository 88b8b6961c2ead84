package server

import (
	"fmt"
	"sync"
	"time"
)

// maxTrackedClients bounds the window map before expired entries are swept.
const maxTrackedClients = 4096

// RateLimiter allows each client a fixed number of requests per minute.
type RateLimiter struct {
	mu                sync.Mutex
	requestsPerMinute int
	clients           map[string]*clientWindow
}

type clientWindow struct {
	start time.Time
	count int
}

// RateLimitError reports a rejected request.
type RateLimitError struct {
	Limit      int
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit of %d requests per minute exceeded, retry after %v", e.Limit, e.RetryAfter.Round(time.Second))
}

// NewRateLimiter creates a limiter with the given per-minute budget.
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		clients:           make(map[string]*clientWindow),
	}
}

// Allow counts one request from clientID at now.
func (rl *RateLimiter) Allow(clientID string, now time.Time) *RateLimitError {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if len(rl.clients) >= maxTrackedClients {
		rl.prune(now)
	}

	w, ok := rl.clients[clientID]
	if !ok || now.Sub(w.start) >= time.Minute {
		w = &clientWindow{start: now}
		rl.clients[clientID] = w
	}
	if w.count >= rl.requestsPerMinute {
		return &RateLimitError{Limit: rl.requestsPerMinute, RetryAfter: time.Minute - now.Sub(w.start)}
	}
	w.count++
	return nil
}

// prune drops windows that ended before now. Callers hold mu.
func (rl *RateLimiter) prune(now time.Time) int {
	removed := 0
	for id, w := range rl.clients {
		if now.Sub(w.start) >= time.Minute {
			delete(rl.clients, id)
			removed++
		}
	}
	return removed
}
