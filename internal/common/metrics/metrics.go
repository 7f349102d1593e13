// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MatchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_requests_total",
			Help: "Total match requests by envelope outcome",
		},
		[]string{"outcome"},
	)

	MatchStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "match_stage_duration_seconds",
			Help: "Duration of each pipeline stage in seconds",
		},
		[]string{"stage"},
	)

	BackendAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_attempts_total",
			Help: "Text generation attempts by backend and outcome",
		},
		[]string{"backend", "outcome"},
	)

	BackendAttemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "backend_attempt_duration_seconds",
			Help: "Duration of individual backend attempts in seconds",
		},
		[]string{"backend"},
	)

	StoreQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_queries_total",
			Help: "Candidate store queries by store and outcome",
		},
		[]string{"store", "outcome"},
	)

	ProfileCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_cache_requests_total",
			Help: "Profile cache lookups by result",
		},
		[]string{"result"},
	)

	RequestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "match_requests_in_flight",
			Help: "Number of match requests currently being served",
		},
		[]string{"route"},
	)
)
