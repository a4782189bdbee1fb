// Package middleware provides cross-cutting concerns for the ranking engine.
// It implements the middleware/wrapper pattern to keep tally logic clean
// while adding observability capabilities.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-tally/internal/ports"
)

// PrometheusMetrics implements the MetricsCollector interface using Prometheus.
// It provides real-time monitoring of tally throughput, unit latency, and
// ranking method distribution for the ranking engine.
type PrometheusMetrics struct {
	ballotsProcessed *prometheus.CounterVec
	rankingMethods   *prometheus.CounterVec
	unitLatency      *prometheus.HistogramVec
	operationCounter *prometheus.CounterVec
	systemGauges     *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a new PrometheusMetrics instance and registers
// all required metrics in the global Prometheus registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		// Tally-specific metrics.
		ballotsProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tally_ballots_processed_total",
				Help: "Total number of ballots processed across all tallies.",
			},
			[]string{"election_id", "tally_type", "unit"},
		),
		rankingMethods: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tally_ranking_method_total",
				Help: "Ranking rounds decided per method: condorcet, schulze, or unresolved.",
			},
			[]string{"election_id", "method", "unit"},
		),

		// General execution metrics for comprehensive observability.
		unitLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tally_unit_duration_seconds",
				Help:    "Execution time of tally units.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "unit"},
		),
		operationCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tally_operations_total",
				Help: "Total number of operations performed by tally units.",
			},
			[]string{"operation", "status", "unit"},
		),
		systemGauges: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tally_system_state",
				Help: "Current system state values for the ranking engine.",
			},
			[]string{"metric", "unit"},
		),
	}
}

// RecordLatency implements the MetricsCollector interface by recording
// execution latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	unit := labels["unit"]
	if unit == "" {
		unit = "unknown"
	}
	pm.unitLatency.WithLabelValues(operation, unit).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by incrementing
// Prometheus counters.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	unit := labels["unit"]
	if unit == "" {
		unit = "unknown"
	}

	switch metric {
	case "tally_ballots_processed":
		pm.ballotsProcessed.WithLabelValues(
			labels["election_id"],
			labels["tally_type"],
			unit,
		).Add(value)
	case "tally_ranking_method":
		pm.rankingMethods.WithLabelValues(
			labels["election_id"],
			labels["method"],
			unit,
		).Add(value)
	case "tally_errors_total":
		pm.operationCounter.WithLabelValues(labels["operation"], "error", unit).Add(value)
	default:
		pm.operationCounter.WithLabelValues(metric, "success", unit).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	unit := labels["unit"]
	if unit == "" {
		unit = "unknown"
	}
	pm.systemGauges.WithLabelValues(metric, unit).Set(value)
}

// RecordHistogram implements the MetricsCollector interface by recording
// values in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	unit := labels["unit"]
	if unit == "" {
		unit = "unknown"
	}
	pm.unitLatency.WithLabelValues(metric, unit).Observe(value)
}

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
