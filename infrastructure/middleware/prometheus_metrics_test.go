// Package middleware_test contains the unit tests for the middleware package.
package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ahrav/go-tally/internal/ports"
)

// testPrometheusMetrics provides a global instance to avoid duplicate metric
// registration issues across tests in the same package.
var testPrometheusMetrics *PrometheusMetrics

func init() {
	// Create a single PrometheusMetrics instance to be shared across all tests
	// in this package. This prevents Prometheus from panicking due to duplicate
	// metric registration.
	testPrometheusMetrics = NewPrometheusMetrics()
}

func TestNewPrometheusMetrics(t *testing.T) {
	pm := testPrometheusMetrics

	assert.NotNil(t, pm)
	assert.NotNil(t, pm.ballotsProcessed)
	assert.NotNil(t, pm.rankingMethods)
	assert.NotNil(t, pm.unitLatency)
	assert.NotNil(t, pm.operationCounter)
	assert.NotNil(t, pm.systemGauges)

	var _ ports.MetricsCollector = pm
}

func TestPrometheusMetrics_RecordLatency(t *testing.T) {
	pm := testPrometheusMetrics

	tests := []struct {
		name      string
		operation string
		duration  time.Duration
		labels    map[string]string
	}{
		{
			name:      "with unit label",
			operation: "unit_execute",
			duration:  100 * time.Millisecond,
			labels:    map[string]string{"unit": "pairwise"},
		},
		{
			name:      "without unit label falls back to unknown",
			operation: "unit_execute",
			duration:  250 * time.Millisecond,
			labels:    map[string]string{"other": "value"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				pm.RecordLatency(tt.operation, tt.duration, tt.labels)
			})
		})
	}
}

func TestPrometheusMetrics_RecordCounter(t *testing.T) {
	pm := testPrometheusMetrics

	tests := []struct {
		name   string
		metric string
		value  float64
		labels map[string]string
	}{
		{
			name:   "ballots processed",
			metric: "tally_ballots_processed",
			value:  42,
			labels: map[string]string{"unit": "ballot-rank", "election_id": "e-1", "tally_type": "schulze"},
		},
		{
			name:   "ranking method",
			metric: "tally_ranking_method",
			value:  1,
			labels: map[string]string{"unit": "ranker", "election_id": "e-1", "method": "condorcet"},
		},
		{
			name:   "error counter",
			metric: "tally_errors_total",
			value:  1,
			labels: map[string]string{"unit": "ranker", "operation": "unit_execute"},
		},
		{
			name:   "generic operation",
			metric: "unit_execute",
			value:  1,
			labels: map[string]string{"unit": "schulze"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				pm.RecordCounter(tt.metric, tt.value, tt.labels)
			})
		})
	}
}

func TestPrometheusMetrics_RecordGaugeAndHistogram(t *testing.T) {
	pm := testPrometheusMetrics

	assert.NotPanics(t, func() {
		pm.RecordGauge("rounds_completed", 5, map[string]string{"unit": "ranker"})
		pm.RecordGauge("rounds_completed", 7, map[string]string{})
		pm.RecordHistogram("closure_seconds", 0.012, map[string]string{"unit": "schulze"})
	})
}
