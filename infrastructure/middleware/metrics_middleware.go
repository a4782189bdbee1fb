package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
)

// MetricsMiddleware wraps a tally unit and records execution latency,
// operation counts, and ranking outcomes through a MetricsCollector.
// It keeps observability out of the units themselves so the domain
// pipeline stays free of metrics plumbing.
type MetricsMiddleware struct {
	// next holds the wrapped unit in the execution chain.
	next ports.Unit

	// collector receives latency, counter, and gauge observations.
	collector ports.MetricsCollector
}

// WithMetrics wraps the given unit so every execution is observed through
// the collector. The wrapper is stateless and thread-safe.
func WithMetrics(next ports.Unit, collector ports.MetricsCollector) *MetricsMiddleware {
	if next == nil {
		panic("metrics middleware: next unit is required")
	}
	if collector == nil {
		panic("metrics middleware: collector is required")
	}
	return &MetricsMiddleware{next: next, collector: collector}
}

// Name returns the wrapped unit's identifier so the middleware is
// transparent to pipeline wiring and logs.
func (mm *MetricsMiddleware) Name() string { return mm.next.Name() }

// Execute runs the wrapped unit and records its latency and outcome.
// Ranking results present in the output state additionally feed the
// per-method counters so operators can watch how often the Schulze
// fallback or a configured tie-break decided a round.
func (mm *MetricsMiddleware) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	labels := map[string]string{"unit": mm.next.Name()}
	if execCtx, ok := state.GetExecutionContext(); ok {
		labels["election_id"] = execCtx.ElectionID
		labels["tally_type"] = execCtx.TallyType
	}

	start := time.Now()
	newState, err := mm.next.Execute(ctx, state)
	elapsed := time.Since(start)

	mm.collector.RecordLatency("unit_execute", elapsed, labels)

	if err != nil {
		errLabels := map[string]string{"unit": labels["unit"], "operation": "unit_execute"}
		mm.collector.RecordCounter("tally_errors_total", 1, errLabels)
		return newState, err
	}

	mm.collector.RecordCounter("unit_execute", 1, labels)

	// Ballots are counted by the unit that produced the rank matrix, not by
	// every downstream unit that reads it.
	if _, had := domain.Get(state, domain.KeyRankMatrix); !had {
		if matrix, ok := domain.Get(newState, domain.KeyRankMatrix); ok && matrix != nil {
			ballotLabels := map[string]string{
				"unit":        labels["unit"],
				"election_id": labels["election_id"],
				"tally_type":  labels["tally_type"],
			}
			mm.collector.RecordCounter("tally_ballots_processed", float64(matrix.Ballots), ballotLabels)
		}
	}

	_, hadRanking := domain.Get(state, domain.KeyRanking)
	if ranking, ok := domain.Get(newState, domain.KeyRanking); ok && !hadRanking {
		for _, entry := range ranking {
			methodLabels := map[string]string{
				"unit":        labels["unit"],
				"election_id": labels["election_id"],
				"method":      string(entry.Method),
			}
			mm.collector.RecordCounter("tally_ranking_method", 1, methodLabels)
		}
		mm.collector.RecordGauge("rounds_completed", float64(newState.GetRoundsCompleted()), labels)
	}

	return newState, nil
}

// Validate checks that the middleware is properly configured and delegates
// to the wrapped unit.
func (mm *MetricsMiddleware) Validate() error {
	if mm.next == nil {
		return fmt.Errorf("metrics middleware: next unit is required")
	}
	if mm.collector == nil {
		return fmt.Errorf("metrics middleware: collector is required")
	}
	return mm.next.Validate()
}

// Compile-time verification that MetricsMiddleware implements ports.Unit.
var _ ports.Unit = (*MetricsMiddleware)(nil)
