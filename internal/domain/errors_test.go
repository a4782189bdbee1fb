package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoUniqueWinnerError(t *testing.T) {
	err := &NoUniqueWinnerError{
		Round:      2,
		Candidates: []string{"B", "C"},
		Partial:    Ranking{{Candidate: "A", Position: 1, Method: MethodCondorcet}},
	}

	assert.Equal(t, "no unique winner in round 2 among candidates [B C]", err.Error())
	assert.True(t, errors.Is(err, ErrNoUniqueWinner))

	// Wrapped errors still unwrap to the sentinel and the typed error.
	wrapped := fmt.Errorf("tally failed: %w", err)
	assert.True(t, errors.Is(wrapped, ErrNoUniqueWinner))

	var typed *NoUniqueWinnerError
	assert.True(t, errors.As(wrapped, &typed))
	assert.Len(t, typed.Partial, 1)
}

func TestCandidateCountExceededError(t *testing.T) {
	err := &CandidateCountExceededError{Candidates: 600, Limit: 512}
	assert.Equal(t, "candidate count 600 exceeds limit 512", err.Error())
	assert.True(t, errors.Is(err, ErrCandidateCountExceeded))
}

func TestSentinelErrorsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrInvalidState,
		ErrKeyNotFound,
		ErrMalformedBallot,
		ErrNoUniqueWinner,
		ErrCandidateCountExceeded,
		ErrInvalidConfiguration,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			assert.False(t, errors.Is(a, b))
		}
	}
}
