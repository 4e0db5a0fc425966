package client

import (
	"io"
	"math"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for retry behavior inside the pool.
var (
	tmRequestRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tm_request_retries_total",
		Help: "Total retry attempts by HTTP status that triggered them",
	}, []string{"status"})

	tmRetryBackoffSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tm_retry_backoff_seconds",
		Help:    "Backoff duration slept between retry attempts",
		Buckets: []float64{0.5, 1, 2, 4, 8, 16},
	})
)

// maxRedirects is the longest redirect chain the pool follows before the
// attempt fails with errTooManyRedirects.
const maxRedirects = 10

// Statuses and methods eligible for automatic retry. Retries are restricted
// to safe methods so a retried request can never repeat a side effect.
var (
	retryableStatuses = map[int]bool{
		http.StatusTooManyRequests:     true, // 429
		http.StatusInternalServerError: true, // 500
		http.StatusBadGateway:          true, // 502
		http.StatusServiceUnavailable:  true, // 503
		http.StatusGatewayTimeout:      true, // 504
	}

	retryableMethods = map[string]bool{
		http.MethodHead:    true,
		http.MethodGet:     true,
		http.MethodOptions: true,
	}
)

// RetryPolicy bounds the pool's automatic retry behavior.
type RetryPolicy struct {
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int

	// BackoffFactor scales the exponential backoff schedule: the sleep
	// before attempt n+1 is BackoffFactor * 2^(n-1) seconds.
	BackoffFactor float64
}

// Backoff returns the sleep before the attempt following attempt n (1-based):
// factor*1s, factor*2s, factor*4s, and so on.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	return time.Duration(p.BackoffFactor * math.Pow(2, float64(attempt-1)) * float64(time.Second))
}

// shouldRetry reports whether a completed attempt is eligible for another
// try: the method must be safe and the response status must be transient.
// Transport-level failures (DNS, refused connections, timeouts, redirect
// loops) are never retried; a fresh attempt would hit the same condition.
func (p RetryPolicy) shouldRetry(method string, resp *http.Response, err error) bool {
	if err != nil || resp == nil {
		return false
	}
	return retryableMethods[method] && retryableStatuses[resp.StatusCode]
}

// Pool owns the persistent HTTP connections to the remote site and the retry
// policy applied to every request that flows through it. Exactly one pool
// exists per process; the Client creates it lazily on first use and keeps it
// for the process lifetime.
type Pool struct {
	httpClient *http.Client
	policy     RetryPolicy
	logger     zerolog.Logger
}

// newPool builds the pool with a transport tuned for one remote host.
func newPool(cfg Config) *Pool {
	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxTotalConns,
		MaxIdleConnsPerHost: cfg.MaxConnsPerHost,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Pool{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return errTooManyRedirects
				}
				return nil
			},
		},
		policy: RetryPolicy{
			MaxRetries:    cfg.MaxRetries,
			BackoffFactor: cfg.BackoffFactor,
		},
		logger: log.With().Str("component", "pool").Logger(),
	}
}

// Do executes the request with up to 1+MaxRetries attempts, sleeping the
// policy's exponential backoff between eligible attempts. The final
// response or transport error is returned untouched; classification is the
// fetcher's job. Requests must carry no body so an attempt can be reissued.
func (p *Pool) Do(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	for attempt := 1; ; attempt++ {
		resp, err = p.httpClient.Do(req)

		if !p.policy.shouldRetry(req.Method, resp, err) || attempt > p.policy.MaxRetries {
			return resp, err
		}

		// Drain so the connection returns to the pool before the next try.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := p.policy.Backoff(attempt)
		tmRequestRetriesTotal.WithLabelValues(resp.Status).Inc()
		tmRetryBackoffSeconds.Observe(backoff.Seconds())

		p.logger.Debug().
			Str("url", req.URL.String()).
			Int("status", resp.StatusCode).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Msg("Retrying request after backoff")

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(backoff):
		}
	}
}
