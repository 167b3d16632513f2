package utils

import (
	"sync"
	"time"
)

// RateLimiter throttles outbound generation-backend calls. It is constructed
// once per process with an injected clock; callers ask TryAcquire before
// each request and fall back to local templates when it refuses.
type RateLimiter struct {
	mu sync.Mutex

	now func() time.Time

	minInterval  time.Duration
	maxPerMinute int
	maxPerDay    int

	lastRequest  time.Time
	minuteStart  time.Time
	minuteCount  int
	dayStart     time.Time
	dayCount     int
}

// NewRateLimiter builds a limiter with the given caps. A zero or negative
// cap disables that particular check. clock may be nil for time.Now.
func NewRateLimiter(minInterval time.Duration, maxPerMinute, maxPerDay int, clock func() time.Time) *RateLimiter {
	if clock == nil {
		clock = time.Now
	}
	start := clock()
	return &RateLimiter{
		now:          clock,
		minInterval:  minInterval,
		maxPerMinute: maxPerMinute,
		maxPerDay:    maxPerDay,
		minuteStart:  start,
		dayStart:     start,
	}
}

// TryAcquire reports whether a request may proceed now, and counts it if so.
func (r *RateLimiter) TryAcquire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()

	if now.Sub(r.dayStart) >= 24*time.Hour {
		r.dayStart = now
		r.dayCount = 0
		r.minuteStart = now
		r.minuteCount = 0
	}
	if now.Sub(r.minuteStart) >= time.Minute {
		r.minuteStart = now
		r.minuteCount = 0
	}

	if r.maxPerDay > 0 && r.dayCount >= r.maxPerDay {
		return false
	}
	if r.maxPerMinute > 0 && r.minuteCount >= r.maxPerMinute {
		return false
	}
	if r.minInterval > 0 && !r.lastRequest.IsZero() && now.Sub(r.lastRequest) < r.minInterval {
		return false
	}

	r.lastRequest = now
	r.minuteCount++
	r.dayCount++
	return true
}
