package units

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-tally/internal/domain"
)

// preparedState returns a state holding the rank matrix for a classic
// three-candidate preference cycle.
func preparedState(t *testing.T) domain.State {
	t.Helper()

	columns := [][]int{
		{1, 2, 3}, {1, 2, 3}, {1, 2, 3},
		{3, 1, 2}, {3, 1, 2},
		{2, 3, 1}, {2, 3, 1},
	}
	matrix, err := domain.PrepareRankMatrix([]string{"Alice", "Bob", "Charlie"}, columns)
	require.NoError(t, err)

	return domain.With(domain.NewState(), domain.KeyRankMatrix, matrix)
}

func TestNewPairwiseUnit(t *testing.T) {
	unit, err := NewPairwiseUnit("pairwise", DefaultPairwiseConfig())
	require.NoError(t, err)
	assert.Equal(t, "pairwise", unit.Name())
	assert.NoError(t, unit.Validate())

	_, err = NewPairwiseUnit("", DefaultPairwiseConfig())
	assert.ErrorIs(t, err, ErrEmptyUnitName)
}

func TestPairwiseUnit_Execute(t *testing.T) {
	unit, err := NewPairwiseUnit("pairwise", DefaultPairwiseConfig())
	require.NoError(t, err)

	result, err := unit.Execute(context.Background(), preparedState(t))
	require.NoError(t, err)

	pairwise, ok := domain.Get(result, domain.KeyPairwise)
	require.True(t, ok)
	assert.Equal(t, []string{"Alice", "Bob", "Charlie"}, pairwise.Labels)

	// Cycle majorities: Alice>Bob 5-2, Bob>Charlie 5-2, Charlie>Alice 4-3.
	assert.Equal(t, 5, pairwise.At(0, 1))
	assert.Equal(t, 2, pairwise.At(1, 0))
	assert.Equal(t, 5, pairwise.At(1, 2))
	assert.Equal(t, 2, pairwise.At(2, 1))
	assert.Equal(t, 4, pairwise.At(2, 0))
	assert.Equal(t, 3, pairwise.At(0, 2))
}

func TestPairwiseUnit_Execute_MissingMatrix(t *testing.T) {
	unit, err := NewPairwiseUnit("pairwise", DefaultPairwiseConfig())
	require.NoError(t, err)

	_, err = unit.Execute(context.Background(), domain.NewState())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rank matrix not found")
}
