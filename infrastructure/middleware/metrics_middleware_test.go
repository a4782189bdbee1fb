package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-tally/internal/domain"
)

// recordingCollector captures observations for assertions.
type recordingCollector struct {
	mu        sync.Mutex
	latencies []string
	counters  map[string]float64
	gauges    map[string]float64
}

func newRecordingCollector() *recordingCollector {
	return &recordingCollector{
		counters: make(map[string]float64),
		gauges:   make(map[string]float64),
	}
}

func (rc *recordingCollector) RecordLatency(operation string, _ time.Duration, _ map[string]string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.latencies = append(rc.latencies, operation)
}

func (rc *recordingCollector) RecordCounter(metric string, value float64, labels map[string]string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	key := metric
	if method := labels["method"]; method != "" {
		key = metric + ":" + method
	}
	rc.counters[key] += value
}

func (rc *recordingCollector) RecordGauge(metric string, value float64, _ map[string]string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.gauges[metric] = value
}

func (rc *recordingCollector) RecordHistogram(string, float64, map[string]string) {}

// stubUnit returns a canned state transformation or error.
type stubUnit struct {
	name      string
	transform func(domain.State) domain.State
	err       error
}

func (su *stubUnit) Name() string { return su.name }

func (su *stubUnit) Execute(_ context.Context, state domain.State) (domain.State, error) {
	if su.err != nil {
		return state, su.err
	}
	if su.transform != nil {
		return su.transform(state), nil
	}
	return state, nil
}

func (su *stubUnit) Validate() error { return nil }

func rankMatrix(t *testing.T) *domain.RankMatrix {
	t.Helper()
	matrix, err := domain.PrepareRankMatrix(
		[]string{"Alice", "Bob"},
		[][]int{{1, 2}, {1, 2}, {2, 1}},
	)
	require.NoError(t, err)
	return matrix
}

func TestWithMetrics_PanicsOnMissingDependencies(t *testing.T) {
	assert.Panics(t, func() { WithMetrics(nil, newRecordingCollector()) })
	assert.Panics(t, func() { WithMetrics(&stubUnit{name: "u"}, nil) })
}

func TestMetricsMiddleware_NameIsTransparent(t *testing.T) {
	mw := WithMetrics(&stubUnit{name: "pairwise"}, newRecordingCollector())
	assert.Equal(t, "pairwise", mw.Name())
}

func TestMetricsMiddleware_RecordsLatencyAndSuccess(t *testing.T) {
	collector := newRecordingCollector()
	mw := WithMetrics(&stubUnit{name: "pairwise"}, collector)

	_, err := mw.Execute(context.Background(), domain.NewState())
	require.NoError(t, err)

	assert.Equal(t, []string{"unit_execute"}, collector.latencies)
	assert.Equal(t, float64(1), collector.counters["unit_execute"])
}

func TestMetricsMiddleware_RecordsErrors(t *testing.T) {
	collector := newRecordingCollector()
	wantErr := errors.New("boom")
	mw := WithMetrics(&stubUnit{name: "ranker", err: wantErr}, collector)

	_, err := mw.Execute(context.Background(), domain.NewState())
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, float64(1), collector.counters["tally_errors_total"])
	assert.Zero(t, collector.counters["unit_execute"])
}

func TestMetricsMiddleware_CountsBallotsOnce(t *testing.T) {
	collector := newRecordingCollector()
	matrix := rankMatrix(t)

	producer := WithMetrics(&stubUnit{
		name: "ballot-rank",
		transform: func(s domain.State) domain.State {
			return domain.With(s, domain.KeyRankMatrix, matrix)
		},
	}, collector)
	reader := WithMetrics(&stubUnit{name: "pairwise"}, collector)

	state, err := producer.Execute(context.Background(), domain.NewState())
	require.NoError(t, err)
	_, err = reader.Execute(context.Background(), state)
	require.NoError(t, err)

	assert.Equal(t, float64(3), collector.counters["tally_ballots_processed"])
}

func TestMetricsMiddleware_RecordsRankingMethods(t *testing.T) {
	collector := newRecordingCollector()
	ranking := domain.Ranking{
		{Candidate: "Alice", Position: 1, Method: domain.MethodCondorcet},
		{Candidate: "Bob", Position: 2, Method: domain.MethodSchulze},
		{Candidate: "Charlie", Position: 3, Method: domain.MethodUnresolved},
	}

	mw := WithMetrics(&stubUnit{
		name: "ranker",
		transform: func(s domain.State) domain.State {
			s = domain.With(s, domain.KeyRanking, ranking)
			return s.AddRoundsCompleted(3)
		},
	}, collector)

	_, err := mw.Execute(context.Background(), domain.NewState())
	require.NoError(t, err)

	assert.Equal(t, float64(1), collector.counters["tally_ranking_method:condorcet"])
	assert.Equal(t, float64(1), collector.counters["tally_ranking_method:schulze"])
	assert.Equal(t, float64(1), collector.counters["tally_ranking_method:unresolved"])
	assert.Equal(t, float64(3), collector.gauges["rounds_completed"])
}
