// Package server throttles inbound frames per connection so a single client
// cannot monopolize the hub loop. Frames that find the bucket empty are
// discarded before dispatch.
package server

import (
	"sync"
	"time"
)

// frameThrottle is a token bucket spending one token per inbound frame.
// Refill is computed lazily from elapsed wall time on each allow call, so no
// background goroutine runs per connection.
type frameThrottle struct {
	mu           sync.Mutex
	tokens       float64
	burst        float64
	tokensPerSec float64
	refilledAt   time.Time
}

// newFrameThrottle builds a throttle admitting cfg.Burst frames immediately
// and refilling that many tokens per cfg.RefillInterval. Non-positive
// settings collapse to one frame per second so a throttle constructed from a
// zero config never blocks everything.
func newFrameThrottle(cfg RateLimitConfig) *frameThrottle {
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	interval := cfg.RefillInterval
	if interval <= 0 {
		interval = time.Second
	}

	return &frameThrottle{
		tokens:       float64(burst),
		burst:        float64(burst),
		tokensPerSec: float64(burst) / interval.Seconds(),
		refilledAt:   time.Now(),
	}
}

// allow spends one token, reporting false when the bucket is empty.
func (ft *frameThrottle) allow() bool {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	now := time.Now()
	if elapsed := now.Sub(ft.refilledAt).Seconds(); elapsed > 0 {
		ft.tokens += elapsed * ft.tokensPerSec
		if ft.tokens > ft.burst {
			ft.tokens = ft.burst
		}
	}
	ft.refilledAt = now

	if ft.tokens < 1 {
		return false
	}
	ft.tokens--
	return true
}
