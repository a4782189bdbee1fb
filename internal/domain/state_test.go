package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_GetWithTypedKeys(t *testing.T) {
	state := NewState()
	state = With(state, KeyCandidates, []string{"Alice", "Bob"})

	candidates, ok := Get(state, KeyCandidates)
	require.True(t, ok)
	assert.Equal(t, []string{"Alice", "Bob"}, candidates)

	_, ok = Get(state, KeyRanking)
	assert.False(t, ok)
}

func TestState_CopyOnWrite(t *testing.T) {
	original := With(NewState(), KeyCandidates, []string{"Alice"})
	updated := With(original, KeyCandidates, []string{"Alice", "Bob"})

	got, ok := Get(original, KeyCandidates)
	require.True(t, ok)
	assert.Equal(t, []string{"Alice"}, got, "original state must be unchanged")

	got, ok = Get(updated, KeyCandidates)
	require.True(t, ok)
	assert.Len(t, got, 2)
}

func TestState_GetReturnsDeepCopy(t *testing.T) {
	rm := &RankMatrix{Candidates: []string{"A", "B"}, Ballots: 1, Ranks: []int{1, 2}}
	state := With(NewState(), KeyRankMatrix, rm)

	got, ok := Get(state, KeyRankMatrix)
	require.True(t, ok)
	got.Ranks[0] = 99

	again, _ := Get(state, KeyRankMatrix)
	assert.Equal(t, 1, again.Ranks[0], "mutating a retrieved value must not leak into state")
}

func TestState_ExecutionContext(t *testing.T) {
	state := NewState().WithExecutionContext(ExecutionContext{
		ElectionID:  "board-2026",
		TallyType:   "ranking",
		ExecutionID: "exec-1",
	})

	ec, ok := state.GetExecutionContext()
	require.True(t, ok)
	assert.Equal(t, "board-2026", ec.ElectionID)
	assert.Equal(t, "ranking", ec.TallyType)
	assert.Equal(t, "exec-1", ec.ExecutionID)

	assert.Zero(t, state.GetRoundsCompleted())
	state = state.AddRoundsCompleted(3)
	state = state.AddRoundsCompleted(2)
	assert.Equal(t, int64(5), state.GetRoundsCompleted())
}

func TestState_WithMultiple(t *testing.T) {
	state := NewState().WithMultiple(map[string]any{
		"candidates": []string{"A"},
		"custom":     42,
	})

	candidates, ok := Get(state, KeyCandidates)
	require.True(t, ok)
	assert.Equal(t, []string{"A"}, candidates)

	raw, ok := state.GetRaw("custom")
	require.True(t, ok)
	assert.Equal(t, 42, raw)
	assert.Len(t, state.Keys(), 2)
}
