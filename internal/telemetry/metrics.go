// Package telemetry exposes Prometheus metrics for scoring runs.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "gamekit"
	subsystem = "scoring"
)

// Metrics holds the counters and histograms recorded during a scoring
// run. All operations are safe for concurrent use.
type Metrics struct {
	// ScoreRuns counts full composite scoring passes by outcome.
	// Labels: status (success, error)
	ScoreRuns *prometheus.CounterVec

	// DatumsScored counts individual data points pushed through a
	// composite model.
	DatumsScored prometheus.Counter

	// ScoreDuration measures wall time of one composite scoring pass.
	ScoreDuration prometheus.Histogram

	// LifecycleOps counts persist, unpersist, and broadcast-release
	// operations across sub-models.
	// Labels: op (persist, unpersist, release)
	LifecycleOps *prometheus.CounterVec
}

// New registers the scoring metrics with reg. Pass
// prometheus.DefaultRegisterer outside of tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ScoreRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "runs_total",
			Help:      "Composite scoring passes by outcome",
		}, []string{"status"}),
		DatumsScored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "datums_total",
			Help:      "Data points scored",
		}),
		ScoreDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "run_duration_seconds",
			Help:      "Wall time of one composite scoring pass",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		LifecycleOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "lifecycle_ops_total",
			Help:      "Sub-model lifecycle operations",
		}, []string{"op"}),
	}
}

// ObserveRun records one scoring pass: its duration, outcome, and the
// number of datums scored.
func (m *Metrics) ObserveRun(start time.Time, datums int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.ScoreRuns.WithLabelValues(status).Inc()
	m.ScoreDuration.Observe(time.Since(start).Seconds())
	if err == nil {
		m.DatumsScored.Add(float64(datums))
	}
}

// CountLifecycle records a persist, unpersist, or release operation.
func (m *Metrics) CountLifecycle(op string) {
	m.LifecycleOps.WithLabelValues(op).Inc()
}
