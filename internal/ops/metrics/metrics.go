package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequestsTotal tracks upstream API requests per method and status class
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ops_api_requests_total",
			Help: "Total number of upstream API requests",
		},
		[]string{"method", "status"},
	)

	// APILatency tracks upstream API request latency
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ops_api_latency_seconds",
			Help:    "Upstream API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// RetryAttemptsTotal tracks re-attempts per error code
	RetryAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ops_retry_attempts_total",
			Help: "Total number of retry attempts",
		},
		[]string{"code"},
	)

	// MutationsTotal tracks optimistic mutations per entity and outcome
	MutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ops_mutations_total",
			Help: "Total number of optimistic mutations",
		},
		[]string{"entity", "outcome"},
	)

	// RollbacksTotal tracks cache rollbacks per entity
	RollbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ops_rollbacks_total",
			Help: "Total number of optimistic cache rollbacks",
		},
		[]string{"entity"},
	)

	// CacheInvalidationsTotal tracks settle-time invalidations
	CacheInvalidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ops_cache_invalidations_total",
			Help: "Total number of cache invalidations after mutations settle",
		},
		[]string{"entity"},
	)
)
