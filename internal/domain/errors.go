package domain

import (
	"errors"
	"fmt"
)

// Common domain errors that can occur during tally operations.
var (
	// ErrInvalidState indicates that a State operation received invalid input.
	ErrInvalidState = errors.New("invalid state")

	// ErrKeyNotFound indicates that a requested state key does not exist.
	ErrKeyNotFound = errors.New("key not found")

	// ErrMalformedBallot indicates that a ballot's expressed ranks are not
	// distinct positive integers within the candidate range.
	ErrMalformedBallot = errors.New("malformed ballot")

	// ErrNoUniqueWinner indicates that an elimination round produced no
	// unique winner under either the Condorcet or the Schulze test.
	ErrNoUniqueWinner = errors.New("no unique winner")

	// ErrCandidateCountExceeded indicates that the candidate count is above
	// the configured ceiling for the cubic beatpath closure.
	ErrCandidateCountExceeded = errors.New("candidate count exceeded")

	// ErrInvalidConfiguration indicates that configuration is invalid or incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// MalformedBallotError reports a ballot whose expressed ranks violate the
// rank matrix invariants. It carries the offending ballot index so callers
// can point at the exact column of the input table.
type MalformedBallotError struct {
	// Ballot is the zero-based index of the offending ballot.
	Ballot int

	// Reason describes which invariant the ballot violates.
	Reason string
}

// Error implements the error interface for MalformedBallotError.
func (e *MalformedBallotError) Error() string {
	return fmt.Sprintf("malformed ballot %d: %s", e.Ballot, e.Reason)
}

// Unwrap supports errors.Is matching against ErrMalformedBallot.
func (e *MalformedBallotError) Unwrap() error { return ErrMalformedBallot }

// NoUniqueWinnerError reports an elimination round whose Schwartz set has no
// unique member. It carries the round number, the ambiguous candidates, and
// the partial ranking built in earlier rounds, so a caller can apply its own
// tie-break and resume, or report partial results.
type NoUniqueWinnerError struct {
	// Round is the 1-based elimination round that failed to resolve.
	Round int

	// Candidates holds the labels of the tied or ambiguous candidates.
	Candidates []string

	// Partial is the ranking assembled before the failing round.
	// Positions already assigned remain valid and inspectable.
	Partial Ranking
}

// Error implements the error interface for NoUniqueWinnerError.
func (e *NoUniqueWinnerError) Error() string {
	return fmt.Sprintf("no unique winner in round %d among candidates %v", e.Round, e.Candidates)
}

// Unwrap supports errors.Is matching against ErrNoUniqueWinner.
func (e *NoUniqueWinnerError) Unwrap() error { return ErrNoUniqueWinner }

// CandidateCountExceededError reports a candidate set larger than the
// configured ceiling for the O(n^3) beatpath closure. It is raised before
// any closure work is attempted.
type CandidateCountExceededError struct {
	// Candidates is the number of candidates in the offending input.
	Candidates int

	// Limit is the configured ceiling that was exceeded.
	Limit int
}

// Error implements the error interface for CandidateCountExceededError.
func (e *CandidateCountExceededError) Error() string {
	return fmt.Sprintf("candidate count %d exceeds limit %d", e.Candidates, e.Limit)
}

// Unwrap supports errors.Is matching against ErrCandidateCountExceeded.
func (e *CandidateCountExceededError) Unwrap() error { return ErrCandidateCountExceeded }
