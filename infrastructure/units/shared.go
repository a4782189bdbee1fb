// Package units provides the tally units that implement the ports.Unit
// interface for the go-tally ranking engine.
package units

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// TieBreak represents the strategy for resolving rounds in which the
// Schulze test yields no unique winner.
type TieBreak string

// Supported tie-break strategies for the ranker unit.
const (
	// TieError fails the tally with a NoUniqueWinnerError. This is the
	// default: a non-singleton Schwartz set is a genuine voting-theory
	// ambiguity that callers must resolve explicitly.
	TieError TieBreak = "error"

	// TieFirst selects the tied candidate that appears first in matrix
	// order. Deterministic, reproducible results.
	TieFirst TieBreak = "first"

	// TieLexicographic selects the tied candidate whose label collates
	// first under Unicode collation rules.
	TieLexicographic TieBreak = "lexicographic"
)

// Resource guards applied uniformly across units.
const (
	// DefaultMaxCandidates caps the candidate count before the cubic
	// beatpath closure is attempted. Typical elections stay well below it.
	DefaultMaxCandidates = 512

	// MaxBallots bounds raw ballot input to keep pairwise passes tractable.
	MaxBallots = 1_000_000

	// MaxLabelLength bounds candidate label length in raw ballots.
	MaxLabelLength = 255
)

// Common errors returned by tally units.
var (
	// ErrEmptyUnitName is returned when attempting to create a unit with an
	// empty name.
	ErrEmptyUnitName = errors.New("unit name cannot be empty")

	// ErrNoCandidates is returned when the state carries no candidate roster.
	ErrNoCandidates = errors.New("no candidates in state")

	// ErrNoBallots is returned when the state carries no ballots.
	ErrNoBallots = errors.New("no ballots in state")

	// ErrUnknownCandidate is returned when a ballot names a candidate that
	// is not on the roster.
	ErrUnknownCandidate = errors.New("ballot names unknown candidate")
)

// Package-level validator instance for configuration validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = validator.New()
