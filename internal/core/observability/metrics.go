package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Candidate response outcomes.
const (
	OutcomeCommitted = "committed"
	OutcomeStale     = "stale"
	OutcomeFailed    = "failed"
	OutcomeCanceled  = "canceled"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	backendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_requests_total",
			Help: "Backend read requests by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)

	backendLatencySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_latency_seconds",
			Help:    "Latency of backend calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"endpoint"},
	)

	candidateResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "candidate_responses_total",
			Help: "Candidate fetch completions by outcome (committed, stale, failed, canceled).",
		},
		[]string{"outcome"},
	)

	filterTogglesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filter_toggles_total",
			Help: "Material type filter toggles.",
		},
	)

	mapRendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "map_renders_total",
			Help: "Map renders; transition=shown counts absent-to-present changes.",
		},
		[]string{"transition"},
	)

	navigationIntentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "navigation_intents_total",
			Help: "Navigation intents emitted by the discovery screen.",
		},
		[]string{"kind"},
	)

)

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveBackend(endpoint string, err error, durationSeconds float64) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	backendRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	backendLatencySeconds.WithLabelValues(endpoint).Observe(durationSeconds)
}

func IncCandidateResponse(outcome string) {
	candidateResponsesTotal.WithLabelValues(outcome).Inc()
}

func IncFilterToggle() { filterTogglesTotal.Inc() }

func IncMapRender(shown bool) {
	t := "updated"
	if shown {
		t = "shown"
	}
	mapRendersTotal.WithLabelValues(t).Inc()
}

func IncNavigationIntent(kind string) {
	navigationIntentsTotal.WithLabelValues(kind).Inc()
}
