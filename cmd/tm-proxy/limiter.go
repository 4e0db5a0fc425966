package main

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// visitorLimiter throttles inbound callers per client address: each address
// gets a token bucket allowing `requests` per `window`, with a burst of the
// same size.
type visitorLimiter struct {
	mu       sync.Mutex
	visitors map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newVisitorLimiter(requests int, window time.Duration) *visitorLimiter {
	return &visitorLimiter{
		visitors: make(map[string]*rate.Limiter),
		limit:    rate.Limit(float64(requests) / window.Seconds()),
		burst:    requests,
	}
}

// Allow reports whether addr may make another request right now.
func (v *visitorLimiter) Allow(addr string) bool {
	v.mu.Lock()
	lim, ok := v.visitors[addr]
	if !ok {
		lim = rate.NewLimiter(v.limit, v.burst)
		v.visitors[addr] = lim
	}
	v.mu.Unlock()

	return lim.Allow()
}
