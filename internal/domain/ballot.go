// Package domain contains pure, dependency-light domain models and the core
// tally algorithms for the ranking engine.
package domain

import "fmt"

// NoPreference is the marker used in raw ballot columns for an unexpressed
// preference. It is substituted with a sentinel strictly worse than every
// expressed rank during rank matrix preparation.
const NoPreference = 0

// Ballot is one voter's raw ranking, keyed by candidate label.
// A missing label means the voter expressed no preference for that candidate.
// Rank 1 is the most preferred.
type Ballot map[string]int

// RankMatrix is a dense candidates x ballots matrix of positive integer
// ranks, cell (c, b) holding the rank ballot b assigns to candidate c.
// Missing votes have already been substituted with len(Candidates)+1, so
// every cell is a usable rank and an abstention never outranks an explicit
// vote. The matrix is read-only to all tally computations.
type RankMatrix struct {
	// Candidates holds the stable candidate labels; the row order fixes the
	// candidate indexing used by every derived matrix.
	Candidates []string `json:"candidates"`

	// Ballots is the number of ballot columns.
	Ballots int `json:"ballots"`

	// Ranks is the row-major rank buffer, len(Candidates) * Ballots cells.
	Ranks []int `json:"ranks"`
}

// PrepareRankMatrix normalizes raw per-candidate vote columns into a dense
// RankMatrix. Each column is one ballot with one entry per candidate, in
// candidate order; NoPreference entries are substituted with the sentinel
// len(candidates)+1.
//
// It returns a *MalformedBallotError when a ballot's length does not match
// the candidate count or when its expressed ranks are not distinct positive
// integers <= len(candidates). Candidate labels must be non-empty and unique.
func PrepareRankMatrix(candidates []string, columns [][]int) (*RankMatrix, error) {
	n := len(candidates)
	if n == 0 {
		return nil, fmt.Errorf("prepare rank matrix: no candidates: %w", ErrInvalidState)
	}

	seen := make(map[string]struct{}, n)
	for i, label := range candidates {
		if label == "" {
			return nil, fmt.Errorf("prepare rank matrix: candidate %d has empty label: %w", i, ErrInvalidState)
		}
		if _, dup := seen[label]; dup {
			return nil, fmt.Errorf("prepare rank matrix: duplicate candidate label %q: %w", label, ErrInvalidState)
		}
		seen[label] = struct{}{}
	}

	m := len(columns)
	sentinel := n + 1
	ranks := make([]int, n*m)

	// expressed is reused across ballots to check per-ballot rank uniqueness.
	expressed := make([]bool, n+1)

	for b, column := range columns {
		if len(column) != n {
			return nil, &MalformedBallotError{
				Ballot: b,
				Reason: fmt.Sprintf("has %d entries, want %d", len(column), n),
			}
		}

		for r := 1; r <= n; r++ {
			expressed[r] = false
		}

		for c, rank := range column {
			switch {
			case rank == NoPreference:
				ranks[c*m+b] = sentinel
			case rank < 1 || rank > n:
				return nil, &MalformedBallotError{
					Ballot: b,
					Reason: fmt.Sprintf("rank %d for candidate %q out of range 1..%d", rank, candidates[c], n),
				}
			case expressed[rank]:
				return nil, &MalformedBallotError{
					Ballot: b,
					Reason: fmt.Sprintf("rank %d assigned more than once", rank),
				}
			default:
				expressed[rank] = true
				ranks[c*m+b] = rank
			}
		}
	}

	return &RankMatrix{
		Candidates: append([]string(nil), candidates...),
		Ballots:    m,
		Ranks:      ranks,
	}, nil
}

// Rank returns the rank ballot b assigns to candidate c.
func (rm *RankMatrix) Rank(c, b int) int { return rm.Ranks[c*rm.Ballots+b] }

// Sentinel returns the substituted rank for unexpressed preferences,
// strictly worse than every expressed rank.
func (rm *RankMatrix) Sentinel() int { return len(rm.Candidates) + 1 }
