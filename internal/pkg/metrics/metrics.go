// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_http_requests_total",
		Help: "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "blog_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "route"})

	// ViewIncrements counts view counter writes by outcome ("ok" | "error").
	ViewIncrements = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_post_view_increments_total",
		Help: "Post view counter increments by outcome",
	}, []string{"outcome"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_http_cache_lookups_total",
		Help: "Response cache lookups by result",
	}, []string{"result"})

	CachePurges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blog_http_cache_purges_total",
		Help: "Response cache purges triggered by writes",
	})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blog_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
