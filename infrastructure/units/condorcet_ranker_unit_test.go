package units

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-tally/internal/domain"
)

func TestNewCondorcetRankerUnit(t *testing.T) {
	tests := []struct {
		name      string
		unitName  string
		config    RankerConfig
		wantError bool
		errorMsg  string
	}{
		{
			name:     "default configuration",
			unitName: "ranker",
			config:   DefaultRankerConfig(),
		},
		{
			name:     "lexicographic tie-break",
			unitName: "ranker",
			config:   RankerConfig{TieBreak: TieLexicographic, MaxCandidates: 8},
		},
		{
			name:      "empty unit name",
			unitName:  "",
			config:    DefaultRankerConfig(),
			wantError: true,
			errorMsg:  "unit name cannot be empty",
		},
		{
			name:      "missing tie-break strategy",
			unitName:  "ranker",
			config:    RankerConfig{MaxCandidates: 8},
			wantError: true,
			errorMsg:  "required",
		},
		{
			name:      "unknown tie-break strategy",
			unitName:  "ranker",
			config:    RankerConfig{TieBreak: TieBreak("coin-flip")},
			wantError: true,
			errorMsg:  "oneof",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit, err := NewCondorcetRankerUnit(tt.unitName, tt.config)
			if tt.wantError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				assert.Nil(t, unit)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, unit)
			}
		})
	}
}

// chainState returns a state whose ballots produce Condorcet winners in
// every extraction round: Alice then Bob then Charlie.
func chainState(t *testing.T) domain.State {
	t.Helper()

	columns := [][]int{
		{1, 2, 3}, {1, 2, 3}, {1, 2, 3},
		{2, 1, 3},
	}
	matrix, err := domain.PrepareRankMatrix([]string{"Alice", "Bob", "Charlie"}, columns)
	require.NoError(t, err)

	return domain.With(domain.NewState(), domain.KeyRankMatrix, matrix)
}

// tiedState returns a state holding a perfectly symmetric three-way cycle:
// no Condorcet winner and all beatpath strengths equal.
func tiedState(t *testing.T) domain.State {
	t.Helper()

	columns := [][]int{
		{1, 2, 3},
		{3, 1, 2},
		{2, 3, 1},
	}
	matrix, err := domain.PrepareRankMatrix([]string{"Alice", "Bob", "Charlie"}, columns)
	require.NoError(t, err)

	return domain.With(domain.NewState(), domain.KeyRankMatrix, matrix)
}

func TestCondorcetRankerUnit_Execute_CondorcetChain(t *testing.T) {
	unit, err := NewCondorcetRankerUnit("ranker", DefaultRankerConfig())
	require.NoError(t, err)

	result, err := unit.Execute(context.Background(), chainState(t))
	require.NoError(t, err)

	ranking, ok := domain.Get(result, domain.KeyRanking)
	require.True(t, ok)
	require.Len(t, ranking, 3)

	assert.Equal(t, []string{"Alice", "Bob", "Charlie"}, ranking.Candidates())
	for i, entry := range ranking {
		assert.Equal(t, i+1, entry.Position)
		assert.Equal(t, domain.MethodCondorcet, entry.Method)
	}

	assert.Equal(t, int64(3), result.GetRoundsCompleted())
}

func TestCondorcetRankerUnit_Execute_TieReported(t *testing.T) {
	unit, err := NewCondorcetRankerUnit("ranker", DefaultRankerConfig())
	require.NoError(t, err)

	_, err = unit.Execute(context.Background(), tiedState(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoUniqueWinner)

	var tie *domain.NoUniqueWinnerError
	require.ErrorAs(t, err, &tie)
	assert.Equal(t, 1, tie.Round)
	assert.ElementsMatch(t, []string{"Alice", "Bob", "Charlie"}, tie.Candidates)
	assert.Empty(t, tie.Partial)
}

func TestCondorcetRankerUnit_Execute_TieBreakStrategies(t *testing.T) {
	tests := []struct {
		name     string
		strategy TieBreak
		first    string
	}{
		{name: "first takes matrix order", strategy: TieFirst, first: "Alice"},
		{name: "lexicographic collates labels", strategy: TieLexicographic, first: "Alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit, err := NewCondorcetRankerUnit("ranker", RankerConfig{TieBreak: tt.strategy})
			require.NoError(t, err)

			result, err := unit.Execute(context.Background(), tiedState(t))
			require.NoError(t, err)

			ranking, ok := domain.Get(result, domain.KeyRanking)
			require.True(t, ok)
			require.Len(t, ranking, 3)
			assert.Equal(t, tt.first, ranking[0].Candidate)
			assert.Equal(t, domain.MethodUnresolved, ranking[0].Method)
		})
	}
}

func TestCondorcetRankerUnit_Execute_CandidateCeiling(t *testing.T) {
	unit, err := NewCondorcetRankerUnit("ranker", RankerConfig{TieBreak: TieError, MaxCandidates: 2})
	require.NoError(t, err)

	_, err = unit.Execute(context.Background(), chainState(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCandidateCountExceeded)
}

func TestCondorcetRankerUnit_Execute_MissingMatrix(t *testing.T) {
	unit, err := NewCondorcetRankerUnit("ranker", DefaultRankerConfig())
	require.NoError(t, err)

	_, err = unit.Execute(context.Background(), domain.NewState())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rank matrix not found")
}

func TestCondorcetRankerUnit_UnmarshalParameters(t *testing.T) {
	unit, err := NewCondorcetRankerUnit("ranker", DefaultRankerConfig())
	require.NoError(t, err)

	t.Run("valid parameters rebuild the tie-break", func(t *testing.T) {
		var node yaml.Node
		require.NoError(t, yaml.Unmarshal([]byte("tie_break: first\nmax_candidates: 8\n"), &node))

		updated, err := unit.UnmarshalParameters(*node.Content[0])
		require.NoError(t, err)
		assert.Equal(t, TieFirst, updated.config.TieBreak)
		assert.NotNil(t, updated.tieBreak)
		// Original keeps the error strategy.
		assert.Equal(t, TieError, unit.config.TieBreak)
		assert.Nil(t, unit.tieBreak)
	})

	t.Run("invalid strategy rejected", func(t *testing.T) {
		var node yaml.Node
		require.NoError(t, yaml.Unmarshal([]byte("tie_break: random\n"), &node))

		_, err := unit.UnmarshalParameters(*node.Content[0])
		require.Error(t, err)
		assert.Contains(t, err.Error(), "oneof")
	})
}

func TestCreateUnitFactories(t *testing.T) {
	ballotRank, err := CreateBallotRankUnit("br", map[string]any{"fold_case": true})
	require.NoError(t, err)
	assert.True(t, ballotRank.config.FoldCase)

	pairwise, err := CreatePairwiseUnit("pw", nil)
	require.NoError(t, err)
	assert.Equal(t, "pw", pairwise.Name())

	schulze, err := CreateSchulzeUnit("sz", map[string]any{"max_candidates": 32})
	require.NoError(t, err)
	assert.Equal(t, 32, schulze.config.MaxCandidates)

	ranker, err := CreateCondorcetRankerUnit("rk", map[string]any{"tie_break": "lexicographic"})
	require.NoError(t, err)
	assert.Equal(t, TieLexicographic, ranker.config.TieBreak)
}
