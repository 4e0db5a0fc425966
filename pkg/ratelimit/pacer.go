// Package ratelimit paces outbound requests to the remote site by enforcing
// a minimum wall-clock interval between consecutive request starts.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for request pacing.
var (
	tmPacerWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tm_pacer_wait_seconds",
		Help:    "Time spent waiting for the pacer before a request could start",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})
)

// Pacer gates outbound requests so that no two requests start less than
// Interval apart, measured from the previous request's completion. One Pacer
// is shared by every fetch in the process.
//
// The pacer guarantees minimum spacing only; it does not order waiters. Under
// heavy concurrency callers serialize behind the same interval, capping
// throughput at 1/Interval requests per second regardless of parallelism.
// That cap protects the remote site and is intentional.
type Pacer struct {
	interval time.Duration
	logger   zerolog.Logger

	mu   sync.Mutex
	last time.Time // last request start grant or completion, whichever is later
}

// New creates a Pacer enforcing the given minimum interval between requests.
// An interval <= 0 disables pacing entirely.
func New(interval time.Duration) *Pacer {
	return &Pacer{
		interval: interval,
		logger:   log.With().Str("component", "pacer").Logger(),
	}
}

// Interval returns the configured minimum spacing.
func (p *Pacer) Interval() time.Duration {
	return p.interval
}

// Wait blocks until at least the configured interval has elapsed since the
// last recorded request, then stamps the grant time and returns. The
// check-then-stamp sequence is a single critical section so two concurrent
// callers can never both observe a stale timestamp and proceed together.
// The sleep itself happens outside the lock; on wake the elapsed time is
// re-checked, so a completion recorded during the sleep extends the wait.
//
// Wait returns early with the context's error if ctx is cancelled.
func (p *Pacer) Wait(ctx context.Context) error {
	if p.interval <= 0 {
		return nil
	}

	start := time.Now()
	for {
		p.mu.Lock()
		now := time.Now()
		if p.last.IsZero() || now.Sub(p.last) >= p.interval {
			p.last = now
			p.mu.Unlock()

			waited := time.Since(start)
			tmPacerWaitSeconds.Observe(waited.Seconds())
			if waited > 0 {
				p.logger.Debug().
					Dur("waited", waited).
					Dur("interval", p.interval).
					Msg("Pacer granted request slot")
			}
			return nil
		}
		remaining := p.interval - now.Sub(p.last)
		p.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(remaining):
		}
	}
}

// Completed records that a request attempt just finished. The fetcher calls
// this immediately after every attempt completes, success or failure, so the
// next request is spaced from the previous request's end.
func (p *Pacer) Completed() {
	if p.interval <= 0 {
		return
	}
	p.mu.Lock()
	p.last = time.Now()
	p.mu.Unlock()
}
