package units

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-tally/internal/domain"
)

func TestNewBallotRankUnit(t *testing.T) {
	tests := []struct {
		name      string
		unitName  string
		config    BallotRankConfig
		wantError bool
		errorMsg  string
	}{
		{
			name:     "valid configuration",
			unitName: "test-ballot-rank",
			config:   BallotRankConfig{FoldCase: true, RequireComplete: true},
		},
		{
			name:     "default configuration",
			unitName: "test-ballot-rank",
			config:   DefaultBallotRankConfig(),
		},
		{
			name:      "empty unit name",
			unitName:  "",
			config:    DefaultBallotRankConfig(),
			wantError: true,
			errorMsg:  "unit name cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit, err := NewBallotRankUnit(tt.unitName, tt.config)
			if tt.wantError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				assert.Nil(t, unit)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, unit)
				assert.Equal(t, tt.unitName, unit.Name())
			}
		})
	}
}

func electionState(candidates []string, ballots []domain.Ballot) domain.State {
	state := domain.NewState()
	state = domain.With(state, domain.KeyCandidates, candidates)
	return domain.With(state, domain.KeyBallots, ballots)
}

func TestBallotRankUnit_Execute(t *testing.T) {
	candidates := []string{"Alice", "Bob", "Charlie"}

	tests := []struct {
		name       string
		config     BallotRankConfig
		candidates []string
		ballots    []domain.Ballot
		wantRanks  []int // row-major, candidates x ballots
		wantError  bool
		errorMsg   string
	}{
		{
			name:       "complete ballots",
			config:     DefaultBallotRankConfig(),
			candidates: candidates,
			ballots: []domain.Ballot{
				{"Alice": 1, "Bob": 2, "Charlie": 3},
				{"Charlie": 1, "Alice": 2, "Bob": 3},
			},
			wantRanks: []int{
				1, 2,
				2, 3,
				3, 1,
			},
		},
		{
			name:       "abstention gets the sentinel rank",
			config:     DefaultBallotRankConfig(),
			candidates: candidates,
			ballots: []domain.Ballot{
				{"Alice": 1, "Bob": 2},
			},
			wantRanks: []int{
				1,
				2,
				4, // n+1 sentinel
			},
		},
		{
			name:       "case folding matches mixed-case labels",
			config:     BallotRankConfig{FoldCase: true},
			candidates: candidates,
			ballots: []domain.Ballot{
				{"alice": 1, "BOB": 2, "charlie": 3},
			},
			wantRanks: []int{
				1,
				2,
				3,
			},
		},
		{
			name:       "unknown candidate suggests nearest label",
			config:     DefaultBallotRankConfig(),
			candidates: candidates,
			ballots: []domain.Ballot{
				{"Alcie": 1, "Bob": 2},
			},
			wantError: true,
			errorMsg:  `did you mean "Alice"`,
		},
		{
			name:       "incomplete ballot rejected when completeness required",
			config:     BallotRankConfig{RequireComplete: true},
			candidates: candidates,
			ballots: []domain.Ballot{
				{"Alice": 1, "Bob": 2},
			},
			wantError: true,
			errorMsg:  "unranked",
		},
		{
			name:       "duplicate rank surfaces ballot index",
			config:     DefaultBallotRankConfig(),
			candidates: candidates,
			ballots: []domain.Ballot{
				{"Alice": 1, "Bob": 2, "Charlie": 3},
				{"Alice": 1, "Bob": 1},
			},
			wantError: true,
			errorMsg:  "ballot 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit, err := NewBallotRankUnit("ballot-rank", tt.config)
			require.NoError(t, err)

			state := electionState(tt.candidates, tt.ballots)
			result, err := unit.Execute(context.Background(), state)

			if tt.wantError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				return
			}

			require.NoError(t, err)
			matrix, ok := domain.Get(result, domain.KeyRankMatrix)
			require.True(t, ok)
			assert.Equal(t, tt.candidates, matrix.Candidates)
			assert.Equal(t, len(tt.ballots), matrix.Ballots)
			assert.Equal(t, tt.wantRanks, matrix.Ranks)
		})
	}
}

func TestBallotRankUnit_Execute_MissingInputs(t *testing.T) {
	unit, err := NewBallotRankUnit("ballot-rank", DefaultBallotRankConfig())
	require.NoError(t, err)

	_, err = unit.Execute(context.Background(), domain.NewState())
	assert.ErrorIs(t, err, ErrNoCandidates)

	state := domain.With(domain.NewState(), domain.KeyCandidates, []string{"Alice"})
	_, err = unit.Execute(context.Background(), state)
	assert.ErrorIs(t, err, ErrNoBallots)
}

func TestBallotRankUnit_Execute_FoldCollision(t *testing.T) {
	unit, err := NewBallotRankUnit("ballot-rank", BallotRankConfig{FoldCase: true})
	require.NoError(t, err)

	state := electionState(
		[]string{"Alice", "ALICE"},
		[]domain.Ballot{{"Alice": 1}},
	)
	_, err = unit.Execute(context.Background(), state)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collide under case folding")
}

func TestBallotRankUnit_Execute_StateImmutability(t *testing.T) {
	unit, err := NewBallotRankUnit("ballot-rank", DefaultBallotRankConfig())
	require.NoError(t, err)

	original := electionState(
		[]string{"Alice", "Bob"},
		[]domain.Ballot{{"Alice": 1, "Bob": 2}},
	)

	_, err = unit.Execute(context.Background(), original)
	require.NoError(t, err)

	_, ok := domain.Get(original, domain.KeyRankMatrix)
	assert.False(t, ok, "original state must not gain the rank matrix")
}

func TestBallotRankUnit_UnmarshalParameters(t *testing.T) {
	unit, err := NewBallotRankUnit("ballot-rank", DefaultBallotRankConfig())
	require.NoError(t, err)

	t.Run("valid parameters", func(t *testing.T) {
		var node yaml.Node
		require.NoError(t, yaml.Unmarshal([]byte("fold_case: true\nrequire_complete: true\n"), &node))

		updated, err := unit.UnmarshalParameters(*node.Content[0])
		require.NoError(t, err)
		assert.True(t, updated.config.FoldCase)
		assert.True(t, updated.config.RequireComplete)
		// Original unit is untouched.
		assert.False(t, unit.config.FoldCase)
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		var node yaml.Node
		require.NoError(t, yaml.Unmarshal([]byte("fold_cass: true\n"), &node))

		_, err := unit.UnmarshalParameters(*node.Content[0])
		require.Error(t, err)
		assert.Contains(t, err.Error(), "typos")
	})
}
