package domain

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Package-level validator instance for policy validation.
var validate = validator.New()

// TieBreakFunc chooses a winner among candidates the Schulze test left
// ambiguous. It receives the 1-based round number and the ambiguous
// candidate labels in matrix order, and must return one of those labels.
// Implementations are supplied by the caller; there is no ambient default
// and no randomness inside the engine.
type TieBreakFunc func(round int, tied []string) (string, error)

// RankPolicy configures a ranking run.
type RankPolicy struct {
	// MaxCandidates caps the candidate count before the O(n^3) beatpath
	// closure is attempted. Zero disables the ceiling.
	MaxCandidates int `json:"max_candidates" validate:"min=0"`

	// TieBreak resolves rounds where the Schulze test yields no unique
	// winner. When nil, such rounds fail with *NoUniqueWinnerError.
	TieBreak TieBreakFunc `json:"-"`
}

// Validate checks the policy against its constraints.
func (p *RankPolicy) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("rank policy validation failed: %w", err)
	}
	return nil
}

// Rank produces a total ordering of the rank matrix's candidates by repeated
// winner extraction. Each round recomputes the pairwise matrix over the
// still-active candidates, tests for a direct Condorcet winner, falls back
// to the Schulze beatpath test, appends the winner at the next position, and
// deactivates it. Candidates are tracked by an explicit index set; rows are
// never physically removed between rounds.
//
// A round with no unique winner fails with *NoUniqueWinnerError unless the
// policy supplies a TieBreak, in which case the chosen entry is recorded
// with MethodUnresolved. When policy.MaxCandidates > 0 and the candidate
// count exceeds it, Rank fails fast with *CandidateCountExceededError before
// any per-round work.
func Rank(rm *RankMatrix, policy RankPolicy) (Ranking, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	n := len(rm.Candidates)
	if n == 0 {
		return nil, fmt.Errorf("rank: no candidates: %w", ErrInvalidState)
	}
	if policy.MaxCandidates > 0 && n > policy.MaxCandidates {
		return nil, &CandidateCountExceededError{Candidates: n, Limit: policy.MaxCandidates}
	}

	active := make([]int, n)
	for i := range active {
		active[i] = i
	}

	ranking := make(Ranking, 0, n)
	for round := 1; len(active) > 0; round++ {
		pm, err := ComputePairwise(rm, active)
		if err != nil {
			return nil, fmt.Errorf("rank: round %d: %w", round, err)
		}

		winner := condorcetWinner(pm)
		method := MethodCondorcet

		if winner < 0 {
			bp := ComputeBeatpaths(pm)
			winners := schulzeWinners(bp)

			if len(winners) == 1 {
				winner = winners[0]
				method = MethodSchulze
			} else {
				// Zero or multiple strict Schulze winners: the ambiguity is
				// the non-singleton Schwartz set. Never resolved silently.
				tied := schwartzSet(bp)
				if policy.TieBreak == nil {
					return nil, &NoUniqueWinnerError{
						Round:      round,
						Candidates: tied,
						Partial:    append(Ranking(nil), ranking...),
					}
				}

				label, err := policy.TieBreak(round, tied)
				if err != nil {
					return nil, fmt.Errorf("rank: round %d: tie-break failed: %w", round, err)
				}
				winner = indexOfTied(pm.Labels, tied, label)
				if winner < 0 {
					return nil, fmt.Errorf("rank: round %d: tie-break chose %q, not among tied candidates %v: %w",
						round, label, tied, ErrNoUniqueWinner)
				}
				method = MethodUnresolved
			}
		}

		ranking = append(ranking, RankEntry{
			Candidate: pm.Labels[winner],
			Position:  round,
			Method:    method,
		})
		active = append(active[:winner], active[winner+1:]...)
	}

	return ranking, nil
}

// condorcetWinner returns the index of the candidate beating every other
// candidate head-to-head, or -1 when no such candidate exists. At most one
// candidate can satisfy the test.
func condorcetWinner(pm *PairwiseMatrix) int {
	n := pm.N
	for i := 0; i < n; i++ {
		wins := true
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			if pm.Cells[i*n+j] <= pm.Cells[j*n+i] {
				wins = false
				break
			}
		}
		if wins {
			return i
		}
	}
	return -1
}

// schulzeWinners returns the indexes of candidates whose beatpath to every
// other candidate is strictly stronger than the reverse beatpath.
func schulzeWinners(bm *BeatpathMatrix) []int {
	n := bm.N
	var winners []int
	for i := 0; i < n; i++ {
		wins := true
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			if bm.Cells[i*n+j] <= bm.Cells[j*n+i] {
				wins = false
				break
			}
		}
		if wins {
			winners = append(winners, i)
		}
	}
	return winners
}

// schwartzSet returns the labels of candidates not beaten via beatpath by
// any other candidate, in matrix order. This is the ambiguous set reported
// when no unique winner exists.
func schwartzSet(bm *BeatpathMatrix) []string {
	n := bm.N
	var members []string
	for i := 0; i < n; i++ {
		beaten := false
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			if bm.Cells[j*n+i] > bm.Cells[i*n+j] {
				beaten = true
				break
			}
		}
		if !beaten {
			members = append(members, bm.Labels[i])
		}
	}
	if len(members) == 0 {
		// The beatpath relation cannot beat every candidate simultaneously;
		// report the full field rather than an empty set.
		members = append(members, bm.Labels...)
	}
	return members
}

// indexOfTied resolves a tie-break choice back to a matrix index, accepting
// only labels that are actually members of the tied set.
func indexOfTied(labels, tied []string, choice string) int {
	member := false
	for _, t := range tied {
		if t == choice {
			member = true
			break
		}
	}
	if !member {
		return -1
	}
	for i, l := range labels {
		if l == choice {
			return i
		}
	}
	return -1
}
