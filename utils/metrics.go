// ABOUTME: Prometheus metrics for the Feedly sync sidecar
// ABOUTME: Collectors register on the default registry and are served by /metrics

package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "feedly_sync"

var (
	// StreamFetchTotal counts streams/contents calls by outcome.
	StreamFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "stream_fetch_total",
			Help:      "Total number of stream page fetches",
		},
		[]string{"status"},
	)

	// StreamFetchDuration measures streams/contents latency.
	StreamFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "stream_fetch_duration_seconds",
			Help:      "Duration of stream page fetches in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// StreamEntries observes raw entries per fetched page.
	StreamEntries = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "stream_page_entries",
			Help:      "Distribution of raw entries per stream page",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	// DroppedEntriesTotal counts entries that failed normalization.
	DroppedEntriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "dropped_entries_total",
			Help:      "Total number of stream entries dropped during normalization",
		},
	)

	// OperationsTotal counts pipeline operations by queue and outcome.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "operations_total",
			Help:      "Total number of finished pipeline operations",
		},
		[]string{"queue", "status"},
	)

	// OperationDuration measures operation wall time including dependency waits.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of pipeline operations in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"queue"},
	)

	// ArticlesIngestedTotal counts articles written to storage.
	ArticlesIngestedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "articles_ingested_total",
			Help:      "Total number of new articles stored",
		},
	)

	// CircuitBreakerStateGauge reports 0 closed, 1 open, 2 half-open.
	CircuitBreakerStateGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "circuit_breaker_state",
			Help:      "Current circuit breaker state",
		},
		[]string{"name"},
	)

	// TokenRefreshTotal counts OAuth2 refresh attempts by outcome.
	TokenRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "token_refresh_total",
			Help:      "Total number of OAuth2 token refreshes",
		},
		[]string{"status"},
	)
)

// RecordStreamFetch records one streams/contents call
func RecordStreamFetch(status string, durationSeconds float64, entries int) {
	StreamFetchTotal.WithLabelValues(status).Inc()
	StreamFetchDuration.Observe(durationSeconds)
	if status == "success" {
		StreamEntries.Observe(float64(entries))
	}
}

// RecordOperation records a finished pipeline operation
func RecordOperation(queue, status string, durationSeconds float64) {
	OperationsTotal.WithLabelValues(queue, status).Inc()
	OperationDuration.WithLabelValues(queue).Observe(durationSeconds)
}

var (
	// AdminAPIRequestsTotal counts admin API requests by endpoint and outcome.
	AdminAPIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "admin_api_requests_total",
			Help:      "Total number of admin API requests",
		},
		[]string{"endpoint", "status"},
	)

	AdminAPIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "admin_api_request_duration_seconds",
			Help:      "Duration of admin API requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
)

// RecordAdminRequest records one admin API request
func RecordAdminRequest(endpoint, status string, durationSeconds float64) {
	AdminAPIRequestsTotal.WithLabelValues(endpoint, status).Inc()
	AdminAPIRequestDuration.WithLabelValues(endpoint).Observe(durationSeconds)
}

// FeedlyQuotaRemaining mirrors the remaining requests Feedly reports.
var FeedlyQuotaRemaining = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "feedly_quota_remaining",
		Help:      "Remaining Feedly API requests in the current window",
	},
)
