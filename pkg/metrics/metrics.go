// Package metrics exposes the browser's Prometheus metrics.
// All metrics are defined in their respective packages (catalog, cache,
// ratelimit, pagination, selection) and registered via promauto.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Sternrassler/artic-browser/pkg/logging"
)

// Registry is the default Prometheus registry used by the browser.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler returns the /metrics handler for the default gatherer.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Server is an optional /metrics listener.
type Server struct {
	srv      *http.Server
	listener net.Listener
}

// Listen binds addr and starts serving /metrics in the background.
func Listen(addr string) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	s := &Server{
		srv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		listener: ln,
	}

	logger := logging.NewLogger("metrics")
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Metrics server failed")
		}
	}()
	logger.Info().Str("addr", ln.Addr().String()).Msg("Serving metrics")

	return s, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Shutdown stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Metrics Documentation
//
// Request Metrics (pkg/catalog):
//   - catalog_requests_total{status} (Counter): Requests by HTTP status, "cached" or "network_error"
//   - catalog_request_duration_seconds (Histogram): Page fetch duration
//   - catalog_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network, decode)
//
// Retry Metrics (pkg/catalog):
//   - catalog_retries_total{error_class} (Counter): Retry attempts by error class
//   - catalog_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - catalog_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Quota Metrics (pkg/ratelimit):
//   - catalog_quota_remaining (Gauge): Requests remaining in the current window
//   - catalog_quota_blocks_total (Counter): Requests refused while the quota was exhausted
//   - catalog_quota_throttles_total (Counter): Requests issued while the quota was low
//
// Cache Metrics (pkg/cache):
//   - catalog_cache_hits_total (Counter): Fresh cache hits
//   - catalog_cache_misses_total (Counter): Cache misses
//   - catalog_cache_size_bytes (Counter): Bytes written to the cache
//   - catalog_conditional_requests_total (Counter): Conditional requests sent
//   - catalog_304_responses_total (Counter): 304 Not Modified responses
//   - catalog_cache_errors_total{operation} (Counter): Cache operation errors
//
// Browser Metrics (pkg/pagination, pkg/selection):
//   - catalog_page_loads_total{result} (Counter): Page loads by result (ok, error, stale)
//   - browser_selected_records (Gauge): Size of the selection set
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(catalog_cache_hits_total[5m])) /
//   (sum(rate(catalog_cache_hits_total[5m])) + sum(rate(catalog_cache_misses_total[5m])))
//
//   # Stale page loads (user paging faster than the catalog answers)
//   rate(catalog_page_loads_total{result="stale"}[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(catalog_request_duration_seconds_bucket[5m]))
