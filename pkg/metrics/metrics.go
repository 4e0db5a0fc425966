// Package metrics documents the Prometheus metrics exposed by this module.
// The instruments themselves live in the packages that observe them
// (client, ratelimit, the proxy binary), each defined exactly once via
// promauto; this package holds the shared registry reference and the
// catalogue.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the Prometheus registerer all instruments attach to.
var Registry = prometheus.DefaultRegisterer

// Metrics Catalogue
//
// Fetch metrics (pkg/client):
//   - tm_requests_total{status_class} (Counter): fetches by outcome class
//     (success, timeout, client_error, server_error, connection_failure, ...)
//   - tm_request_duration_seconds (Histogram): fetch duration, pacing included
//
// Retry metrics (pkg/client):
//   - tm_request_retries_total{status} (Counter): retry attempts by the
//     HTTP status that triggered them
//   - tm_retry_backoff_seconds (Histogram): backoff slept between attempts
//
// Pacing metrics (pkg/ratelimit):
//   - tm_pacer_wait_seconds (Histogram): time spent waiting for a request slot
//
// Proxy metrics (cmd/tm-proxy):
//   - tm_proxy_requests_total{path, status} (Counter): inbound API requests
//
// Example Prometheus Queries:
//
//   # Fetch error rate
//   sum(rate(tm_requests_total{status_class!="success"}[5m]))
//     / sum(rate(tm_requests_total[5m]))
//
//   # P95 fetch latency
//   histogram_quantile(0.95, rate(tm_request_duration_seconds_bucket[5m]))
//
//   # Time lost to pacing
//   rate(tm_pacer_wait_seconds_sum[5m])
