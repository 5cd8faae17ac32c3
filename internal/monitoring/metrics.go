// Package monitoring exposes Prometheus metrics for the audit service.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	auditsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "croaudit_audits_total",
		Help: "Number of audit runs by outcome.",
	}, []string{"outcome"})

	auditDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "croaudit_audit_duration_seconds",
		Help:    "Wall-clock duration of full audit runs.",
		Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
	})

	screenshotsCaptured = promauto.NewCounter(prometheus.CounterOpts{
		Name: "croaudit_screenshots_captured_total",
		Help: "Number of screenshot artifacts written.",
	})

	targetsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "croaudit_targets_skipped_total",
		Help: "Number of discovered targets skipped because no device produced a capture.",
	})

	suggestionEngineErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "croaudit_suggestion_engine_errors_total",
		Help: "Number of per-target suggestion engine failures.",
	})
)

func ObserveAudit(outcome string, d time.Duration) {
	auditsTotal.WithLabelValues(outcome).Inc()
	auditDuration.Observe(d.Seconds())
}

func AddScreenshots(n int) {
	screenshotsCaptured.Add(float64(n))
}

func TargetSkipped() {
	targetsSkipped.Inc()
}

func SuggestionEngineError() {
	suggestionEngineErrors.Inc()
}
