// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// httpRequests counts served requests.
	// Labels: method, route (normalized path), code
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tasknotes",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests by method, route and status code",
	}, []string{"method", "route", "code"})

	// httpDuration measures handler latency.
	// Labels: method, route
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tasknotes",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "route"})

	// statusDerivations counts which input decided a note's stored status.
	// Labels: source (subtasks, requested, fallback)
	statusDerivations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tasknotes",
		Subsystem: "notes",
		Name:      "status_derivations_total",
		Help:      "Status derivations by deciding input",
	}, []string{"source"})

	// rateLimited counts rejected requests.
	rateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tasknotes",
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter",
	})
)

// ObserveRequest records one served request.
func ObserveRequest(method, route string, code int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveStatusDerivation records which input decided a derived status.
func ObserveStatusDerivation(source string) {
	statusDerivations.WithLabelValues(source).Inc()
}

// ObserveRateLimited records a request rejected with 429.
func ObserveRateLimited() {
	rateLimited.Inc()
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
