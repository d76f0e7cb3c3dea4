// Package metrics holds the process-wide Prometheus collectors. They are
// registered once in init and scraped from /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_latency_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// CatalogCallsTotal counts remote catalog calls by operation and outcome
	// ("ok" or the error kind).
	CatalogCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_calls_total",
			Help: "Remote catalog GraphQL calls by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	CatalogLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_latency_seconds",
			Help:    "Remote catalog call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	CacheOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_cache_ops_total",
			Help: "Event cache operations by op and result",
		},
		[]string{"op", "result"},
	)

	WebhooksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhooks_total",
			Help: "Inbound catalog webhooks by topic and result",
		},
		[]string{"topic", "result"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPLatencySeconds)
	prometheus.MustRegister(CatalogCallsTotal)
	prometheus.MustRegister(CatalogLatencySeconds)
	prometheus.MustRegister(CacheOpsTotal)
	prometheus.MustRegister(WebhooksTotal)
}
