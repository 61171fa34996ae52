package analysis

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// pipelineMetrics are the run-level counters. A nil registerer leaves them unregistered.
type pipelineMetrics struct {
	runs            *prometheus.CounterVec
	duration        prometheus.Histogram
	governanceRules prometheus.Counter
	engineFailures  *prometheus.CounterVec
}

func newPipelineMetrics(reg prometheus.Registerer) *pipelineMetrics {
	factory := promauto.With(reg)
	return &pipelineMetrics{
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "creditcore",
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Completed analysis runs by final status (PASS, WARN, FAIL, ERROR).",
		}, []string{"status"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "creditcore",
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Wall-clock time of one analysis run.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		governanceRules: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "creditcore",
			Subsystem: "analysis",
			Name:      "governance_rules_applied_total",
			Help:      "Governance caps and notches that moved a grade.",
		}),
		engineFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "creditcore",
			Subsystem: "analysis",
			Name:      "engine_failures_total",
			Help:      "Engine tasks that returned an error or panicked, by engine.",
		}, []string{"engine"}),
	}
}
