package main

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/transfermarkt-tools/tm-client/internal/config"
	"github.com/transfermarkt-tools/tm-client/pkg/client"
	"github.com/transfermarkt-tools/tm-client/pkg/document"
	"github.com/transfermarkt-tools/tm-client/pkg/logging"
	"github.com/transfermarkt-tools/tm-client/pkg/players"
)

// Prometheus metrics for the proxy surface.
var tmProxyRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tm_proxy_requests_total",
	Help: "Inbound proxy requests by path and response status",
}, []string{"path", "status"})

// playerSearcher is the narrow service surface the handlers depend on.
type playerSearcher interface {
	Search(ctx context.Context, query string, page int) (*players.SearchResult, error)
}

type server struct {
	players playerSearcher
	limiter *visitorLimiter
	logger  zerolog.Logger
}

func newServer(cfg *config.Config, svc playerSearcher) *server {
	var limiter *visitorLimiter
	if cfg.RateLimiting.Enable {
		limiter = newVisitorLimiter(cfg.RateLimiting.Requests, cfg.RateLimiting.Window)
	}
	return &server{
		players: svc,
		limiter: limiter,
		logger:  logging.NewLogger("proxy"),
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/players/search", s.withLimit(s.handlePlayerSearch))
	return mux
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *server) handlePlayerSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		s.writeJSON(w, r, http.StatusBadRequest, errorBody{Error: "query parameter is required"})
		return
	}

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.writeJSON(w, r, http.StatusBadRequest, errorBody{Error: "page must be a positive integer"})
			return
		}
		page = n
	}

	result, err := s.players.Search(r.Context(), query, page)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, result)
}

// withLimit throttles a handler per client address when inbound rate
// limiting is enabled.
func (s *server) withLimit(next http.HandlerFunc) http.HandlerFunc {
	if s.limiter == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(clientAddr(r)) {
			s.logger.Warn().Str("client", clientAddr(r)).Msg("Inbound caller throttled")
			s.writeJSON(w, r, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded"})
			return
		}
		next(w, r)
	}
}

type errorBody struct {
	Error string `json:"error"`
	URL   string `json:"url,omitempty"`
}

// writeError maps an error from the library onto a transport response:
// invalid pages and required-content misses are the caller's problem (4xx),
// upstream breakage is a gateway problem (5xx), and timeouts are 504.
func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	body := errorBody{Error: err.Error()}

	var nf *document.NotFoundError
	if errors.As(err, &nf) {
		status = http.StatusNotFound
		body.URL = nf.Addr
	} else if fe, ok := client.AsFetchError(err); ok {
		body.URL = fe.URL
		switch fe.Kind {
		case client.KindClientError:
			status = fe.StatusCode
		case client.KindTooManyRedirects:
			status = http.StatusNotFound
		case client.KindTimeout:
			status = http.StatusGatewayTimeout
		case client.KindConnectionFailure:
			status = http.StatusServiceUnavailable
		case client.KindServerError, client.KindRequestFailure:
			status = http.StatusBadGateway
		}
	}

	if status >= 500 {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("Request failed")
	}
	s.writeJSON(w, r, status, body)
}

func (s *server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	tmProxyRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(status)).Inc()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("Failed to write response")
	}
}

// clientAddr extracts the caller's host for per-client limiting.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
