// Package metrics provides Prometheus instrumentation for the sales engine.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ReportsTotal counts engine runs by outcome ("ok", "invalid", "error").
	ReportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_reports_total",
		Help: "Total number of sales reports generated",
	}, []string{"outcome"})

	// ReportLatency tracks engine run time, including persistence.
	ReportLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sales_report_latency_seconds",
		Help:    "Report generation latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// SellersRanked counts sellers across all generated reports.
	SellersRanked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sales_sellers_ranked_total",
		Help: "Sellers ranked across all reports",
	})

	// SkippedTotal counts records and items dropped by the leniency policy.
	SkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_skipped_total",
		Help: "Purchase records with unknown sellers and items with unknown SKUs",
	}, []string{"kind"})

	// RateLimited counts requests rejected by the rate limiter.
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sales_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sales_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, route, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sales_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// ObserveSkips records the leniency counters of one engine run.
func ObserveSkips(records, items int) {
	SkippedTotal.WithLabelValues("record").Add(float64(records))
	SkippedTotal.WithLabelValues("item").Add(float64(items))
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Prefer the route pattern to keep label cardinality bounded.
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets WebSocket upgrades pass through the middleware.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("metrics: response writer does not support hijacking")
	}
	return h.Hijack()
}
