// Package testutil provides test doubles for the remote site.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockResponse defines the behavior for one mock page.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockSite is a configurable stand-in for the remote site, backed by an
// httptest server. Handlers are registered per path; everything else gets a
// default 200 HTML page.
type MockSite struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	// Tracking
	requestCount int
	requestTimes []time.Time
	lastHeader   http.Header
}

// NewMockSite creates and starts a mock site.
func NewMockSite() *MockSite {
	mock := &MockSite{
		handlers: make(map[string]http.HandlerFunc),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		mock.requestTimes = append(mock.requestTimes, time.Now())
		mock.lastHeader = r.Header.Clone()
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<html><body><p>ok</p></body></html>"))
	}))

	return mock
}

// URL returns the mock site's base URL.
func (m *MockSite) URL() string {
	return m.server.URL
}

// Close shuts down the mock site.
func (m *MockSite) Close() {
	m.server.Close()
}

// Reset clears all tracking state.
func (m *MockSite) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.requestTimes = nil
	m.lastHeader = nil
}

// SetHandler registers a custom handler for a path.
func (m *MockSite) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockSite) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		if _, ok := resp.Headers["Content-Type"]; !ok {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// FailThenSucceed registers a handler that returns failStatus for the first
// n requests to the path, then body with 200. Useful for retry tests.
func (m *MockSite) FailThenSucceed(path string, failStatus, n int, body string) {
	var mu sync.Mutex
	count := 0
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		count++
		failing := count <= n
		mu.Unlock()

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if failing {
			w.WriteHeader(failStatus)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
	})
}

// RequestCount returns the number of requests the site has received.
func (m *MockSite) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// RequestTimes returns the arrival time of every request, in order.
func (m *MockSite) RequestTimes() []time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	times := make([]time.Time, len(m.requestTimes))
	copy(times, m.requestTimes)
	return times
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockSite) LastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastHeader
}

// HTMLPage wraps body content in a minimal HTML document.
func HTMLPage(body string) string {
	return "<!DOCTYPE html><html><head><title>test</title></head><body>" + body + "</body></html>"
}
