package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UsageDecisions counts premium spread gate decisions by result (allow|deny|premium|unrestricted).
	UsageDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tarotgarden_usage_decisions_total",
			Help: "Premium spread usage gate decisions",
		},
		[]string{"spread", "result"},
	)

	// UsageStoreErrors counts swallowed persistence failures in the usage gate by operation.
	UsageStoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tarotgarden_usage_store_errors_total",
			Help: "Usage record store failures absorbed by the gate",
		},
		[]string{"op"},
	)

	// CacheGateRequests counts intercepted requests by outcome (hit|miss|bypass|fallback|error).
	CacheGateRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tarotgarden_cache_gate_requests_total",
			Help: "Requests handled by the offline cache gate",
		},
		[]string{"mode", "outcome"},
	)

	// CacheGateGeneration reports the active cache generation version.
	CacheGateGeneration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tarotgarden_cache_gate_generation",
			Help: "Version number of the active cache generation",
		},
	)

	// AccountDeletions counts account deletion requests by result (success|partial|failure).
	AccountDeletions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tarotgarden_account_deletions_total",
			Help: "Account deletion requests",
		},
		[]string{"result"},
	)

	// Interpretations counts generated reading interpretations by provider and result.
	Interpretations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tarotgarden_interpretations_total",
			Help: "AI reading interpretations generated",
		},
		[]string{"provider", "result"},
	)

	// RecoveredPanics counts handler panics turned into 500 responses, by route template.
	RecoveredPanics = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tarotgarden_recovered_panics_total",
			Help: "Handler panics recovered by the HTTP middleware",
		},
		[]string{"path"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tarotgarden_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
