// Package metrics holds the Prometheus collectors for the API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	generationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "story_generations_total",
			Help: "Story generations by kind (initial, next) and outcome (success, failure).",
		},
		[]string{"kind", "outcome"},
	)

	generationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "story_generation_failures_total",
			Help: "Failed story generations by the stage that failed.",
		},
		[]string{"stage"},
	)

	stageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "story_generation_stage_seconds",
			Help:    "Latency of each outbound generation call.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		},
		[]string{"stage"},
	)

	narrationUnavailableTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "story_narration_unavailable_total",
		Help: "Story nodes returned without narration audio.",
	})

	resetsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "story_adventure_resets_total",
			Help: "Adventure resets by reason (user, consistency).",
		},
		[]string{"reason"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "story_http_requests_total",
			Help: "HTTP requests by method and status code.",
		},
		[]string{"method", "status"},
	)
)

// ObserveGeneration records one orchestrator call.
func ObserveGeneration(kind string, success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	generationsTotal.WithLabelValues(kind, outcome).Inc()
}

// ObserveFailure records the stage a generation failed at.
func ObserveFailure(stage string) {
	generationFailuresTotal.WithLabelValues(stage).Inc()
}

// ObserveStage records how long one outbound call took.
func ObserveStage(stage string, started time.Time) {
	stageDuration.WithLabelValues(stage).Observe(time.Since(started).Seconds())
}

// ObserveNarrationUnavailable counts a node returned without audio.
func ObserveNarrationUnavailable() {
	narrationUnavailableTotal.Inc()
}

// ObserveReset counts an adventure reset.
func ObserveReset(reason string) {
	resetsTotal.WithLabelValues(reason).Inc()
}

// ObserveRequest counts a served HTTP request.
func ObserveRequest(method, status string) {
	httpRequestsTotal.WithLabelValues(method, status).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
