// Package metrics exposes prometheus collectors for the HTTP surface and
// the query engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "moviecatalog"

var (
	// RequestTotal counts HTTP requests by method, route and status.
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	// RequestDuration is the latency of HTTP requests.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	// RateLimited counts requests rejected by the rate limiter.
	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_rate_limited_total",
			Help:      "Total number of requests rejected by the rate limiter",
		},
	)
	// QueriesTotal counts catalog operations by name and outcome.
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_queries_total",
			Help:      "Total number of catalog queries",
		},
		[]string{"operation", "status"},
	)
	// QueryResults is the number of records a catalog operation returned.
	QueryResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "catalog_query_results",
			Help:      "Number of records returned per catalog query",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100, 500, 1000},
		},
		[]string{"operation"},
	)
	// MoviesIngested counts records written by seeding.
	MoviesIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_movies_ingested_total",
			Help:      "Total number of movies written to the store",
		},
	)
)

// ObserveQuery records the outcome of one catalog operation.
func ObserveQuery(operation string, results int, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	QueriesTotal.WithLabelValues(operation, status).Inc()
	if err == nil {
		QueryResults.WithLabelValues(operation).Observe(float64(results))
	}
}

// Handler returns the Prometheus HTTP handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
