// Package client fetches HTML pages from the remote site through a shared
// connection pool, with request pacing, bounded retry on transient failures,
// and a uniform error taxonomy.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/transfermarkt-tools/tm-client/pkg/ratelimit"
)

// Prometheus metrics for fetch operations.
var (
	tmRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tm_requests_total",
		Help: "Total fetches by outcome class",
	}, []string{"status_class"})

	tmRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tm_request_duration_seconds",
		Help:    "Fetch duration in seconds, pacing wait included",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	})
)

// defaultUserAgent is a fixed, realistic desktop browser identity. The site
// serves different markup to obvious bots, so every request carries this.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/113.0.0.0 Safari/537.36"

// Config holds the client configuration.
type Config struct {
	// Timeout is the per-request deadline.
	Timeout time.Duration

	// RateLimit is the minimum spacing between requests; <= 0 disables pacing.
	RateLimit time.Duration

	// MaxRetries is the retry budget for transient statuses on safe methods.
	MaxRetries int

	// BackoffFactor scales the retry backoff schedule (seconds).
	BackoffFactor float64

	// UserAgent sent with every request.
	UserAgent string

	// Connection pool sizing.
	MaxConnsPerHost int
	MaxTotalConns   int
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:         10 * time.Second,
		RateLimit:       500 * time.Millisecond,
		MaxRetries:      2,
		BackoffFactor:   1,
		UserAgent:       defaultUserAgent,
		MaxConnsPerHost: 10,
		MaxTotalConns:   20,
	}
}

// Client fetches pages from the remote site. One Client (and therefore one
// pool and one pacer) is shared by every caller in the process; all methods
// are safe for concurrent use.
type Client struct {
	config Config
	pacer  *ratelimit.Pacer
	logger zerolog.Logger

	// The pool is created once, on first demand, and never recreated.
	poolOnce sync.Once
	pool     *Pool
}

// New creates a new client.
func New(cfg Config) (*Client, error) {
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive (got %v)", cfg.Timeout)
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must be >= 0 (got %d)", cfg.MaxRetries)
	}
	if cfg.BackoffFactor <= 0 {
		return nil, fmt.Errorf("backoff_factor must be positive (got %g)", cfg.BackoffFactor)
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.MaxConnsPerHost <= 0 || cfg.MaxTotalConns <= 0 {
		return nil, fmt.Errorf("pool sizes must be positive (got %d per host, %d total)",
			cfg.MaxConnsPerHost, cfg.MaxTotalConns)
	}

	return &Client{
		config: cfg,
		pacer:  ratelimit.New(cfg.RateLimit),
		logger: log.With().Str("component", "tm-client").Logger(),
	}, nil
}

// Pacer returns the client's shared pacer.
func (c *Client) Pacer() *ratelimit.Pacer {
	return c.pacer
}

// getPool returns the process-wide connection pool, creating it on first use.
// sync.Once keeps creation idempotent under concurrent first fetches.
func (c *Client) getPool() *Pool {
	c.poolOnce.Do(func() {
		c.pool = newPool(c.config)
	})
	return c.pool
}

// Get fetches the page at addr and returns its body. It waits for the pacer,
// issues the GET through the pool (which handles retries internally), stamps
// the pacer immediately after the attempt completes, and classifies the final
// outcome into a *FetchError on failure.
func (c *Client) Get(ctx context.Context, addr string) ([]byte, error) {
	start := time.Now()
	defer func() {
		tmRequestDuration.Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		tmRequestsTotal.WithLabelValues(string(KindRequestFailure)).Inc()
		return nil, &FetchError{
			Kind:    KindRequestFailure,
			URL:     addr,
			Message: "invalid address",
			Err:     err,
		}
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	if err := c.pacer.Wait(ctx); err != nil {
		tmRequestsTotal.WithLabelValues(string(KindUnexpectedFailure)).Inc()
		return nil, &FetchError{
			Kind:    KindUnexpectedFailure,
			URL:     addr,
			Message: "cancelled while waiting for request slot",
			Err:     err,
		}
	}

	c.logger.Debug().Str("url", addr).Msg("Fetching page")

	resp, err := c.getPool().Do(req)
	// Stamp after the attempt completes, success or failure, never before:
	// the next request is spaced from this one's end.
	c.pacer.Completed()

	if err != nil {
		fetchErr := c.classifyTransport(addr, err)
		c.logger.Warn().
			Str("url", addr).
			Str("error_kind", string(fetchErr.Kind)).
			Err(err).
			Msg("Fetch failed")
		tmRequestsTotal.WithLabelValues(string(fetchErr.Kind)).Inc()
		return nil, fetchErr
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		fetchErr := classifyStatus(addr, resp.StatusCode)
		c.logger.Warn().
			Str("url", addr).
			Int("status", resp.StatusCode).
			Str("error_kind", string(fetchErr.Kind)).
			Msg("Fetch returned error status")
		io.Copy(io.Discard, resp.Body)
		tmRequestsTotal.WithLabelValues(string(fetchErr.Kind)).Inc()
		return nil, fetchErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fetchErr := c.classifyTransport(addr, err)
		tmRequestsTotal.WithLabelValues(string(fetchErr.Kind)).Inc()
		return nil, fetchErr
	}

	c.logger.Debug().
		Str("url", addr).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Dur("duration", time.Since(start)).
		Msg("Fetch succeeded")
	tmRequestsTotal.WithLabelValues("success").Inc()

	return body, nil
}

// classifyTransport maps a transport-level failure onto the error taxonomy.
// Order matters: redirect loops and timeouts are specific causes that would
// otherwise be swallowed by the generic url.Error cases below them.
func (c *Client) classifyTransport(addr string, err error) *FetchError {
	var urlErr *url.Error
	var netErr net.Error
	var dnsErr *net.DNSError
	var opErr *net.OpError

	switch {
	case errors.Is(err, errTooManyRedirects):
		return &FetchError{Kind: KindTooManyRedirects, URL: addr, Err: err}

	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return &FetchError{
			Kind:    KindTimeout,
			Timeout: c.config.Timeout,
			URL:     addr,
			Err:     err,
		}

	case errors.As(err, &dnsErr), errors.As(err, &opErr):
		return &FetchError{
			Kind:    KindConnectionFailure,
			URL:     addr,
			Message: err.Error(),
			Err:     err,
		}

	case errors.As(err, &urlErr):
		return &FetchError{
			Kind:    KindRequestFailure,
			URL:     addr,
			Message: err.Error(),
			Err:     err,
		}

	default:
		return &FetchError{
			Kind:    KindUnexpectedFailure,
			URL:     addr,
			Message: err.Error(),
			Err:     err,
		}
	}
}

// classifyStatus maps a final HTTP error status onto the error taxonomy.
func classifyStatus(addr string, status int) *FetchError {
	kind := KindServerError
	if status < 500 {
		kind = KindClientError
	}
	return &FetchError{
		Kind:       kind,
		StatusCode: status,
		URL:        addr,
		Message:    fmt.Sprintf("%d %s", status, http.StatusText(status)),
	}
}
