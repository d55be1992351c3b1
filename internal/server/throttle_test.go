package server

import (
	"testing"
	"time"
)

// TestFrameThrottleBurst verifies that the bucket admits exactly the
// configured burst before discarding frames.
func TestFrameThrottleBurst(t *testing.T) {
	ft := newFrameThrottle(RateLimitConfig{Burst: 3, RefillInterval: time.Hour})

	for i := 0; i < 3; i++ {
		if !ft.allow() {
			t.Fatalf("Frame %d was throttled within the burst", i+1)
		}
	}
	if ft.allow() {
		t.Error("Frame beyond the burst was admitted")
	}
}

// TestFrameThrottleRefills verifies that tokens come back after the refill
// interval elapses.
func TestFrameThrottleRefills(t *testing.T) {
	ft := newFrameThrottle(RateLimitConfig{Burst: 2, RefillInterval: 20 * time.Millisecond})

	ft.allow()
	ft.allow()
	if ft.allow() {
		t.Fatal("Bucket should be empty")
	}

	time.Sleep(30 * time.Millisecond)

	if !ft.allow() {
		t.Error("Bucket did not refill after the interval")
	}
}

// TestFrameThrottleZeroConfig verifies that a throttle built from a zero
// config falls back to one frame per second instead of blocking everything.
func TestFrameThrottleZeroConfig(t *testing.T) {
	ft := newFrameThrottle(RateLimitConfig{})
	if !ft.allow() {
		t.Error("Throttle with fallback parameters rejected the first frame")
	}
	if ft.allow() {
		t.Error("Fallback burst should be a single frame")
	}
}
