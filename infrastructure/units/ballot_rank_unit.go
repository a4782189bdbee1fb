package units

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/agnivade/levenshtein"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
)

var (
	_ ports.Unit = (*BallotRankUnit)(nil)

	// foldCaser is a package-level Unicode case folder for performance.
	// This avoids creating a new caser for each label resolution.
	foldCaser = cases.Fold()
)

// BallotRankUnit implements a deterministic Unit that resolves raw ballots
// against the candidate roster and assembles the dense rank matrix the
// pairwise and ranking stages consume. Candidates a ballot does not rank
// are recorded at the abstention sentinel so downstream comparisons treat
// them as equally least preferred.
//
// The unit is stateless and thread-safe for concurrent execution. It
// implements the ports.Unit interface and emits OpenTelemetry spans for
// observability.
type BallotRankUnit struct {
	// name is the unique identifier for this unit instance.
	name string
	// config contains the validated configuration parameters.
	config BallotRankConfig
	// tracer is the OpenTelemetry tracer for observability.
	tracer trace.Tracer
}

// BallotRankConfig defines the configuration parameters for the BallotRankUnit.
// All fields are validated during unit creation and parameter unmarshaling.
type BallotRankConfig struct {
	// FoldCase determines whether ballot labels are matched against the
	// candidate roster using Unicode case folding. When false, labels must
	// match the roster byte for byte.
	FoldCase bool `yaml:"fold_case" json:"fold_case"`

	// RequireComplete rejects ballots that leave any candidate unranked.
	// When false, unranked candidates are recorded as abstentions.
	RequireComplete bool `yaml:"require_complete" json:"require_complete"`
}

// NewBallotRankUnit creates a new BallotRankUnit with the specified configuration.
// Returns an error if configuration validation fails.
func NewBallotRankUnit(name string, config BallotRankConfig) (*BallotRankUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}

	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &BallotRankUnit{
		name:   name,
		config: config,
		tracer: otel.Tracer("ballot-rank-unit"),
	}, nil
}

// Name returns the unique identifier for this unit instance.
func (bru *BallotRankUnit) Name() string { return bru.name }

// Execute resolves ballots from the state against the candidate roster and
// stores the prepared rank matrix back into the state. Ballots naming
// candidates that are not on the roster fail the whole tally; the error
// suggests the nearest roster label by edit distance.
func (bru *BallotRankUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	_, span := bru.tracer.Start(ctx, "BallotRankUnit.Execute",
		trace.WithAttributes(
			attribute.String("unit.type", "ballot_rank"),
			attribute.String("unit.id", bru.name),
			attribute.Bool("config.fold_case", bru.config.FoldCase),
			attribute.Bool("config.require_complete", bru.config.RequireComplete),
		),
	)
	defer span.End()

	start := time.Now()

	candidates, ok := domain.Get(state, domain.KeyCandidates)
	if !ok || len(candidates) == 0 {
		span.RecordError(ErrNoCandidates)
		return state, ErrNoCandidates
	}

	ballots, ok := domain.Get(state, domain.KeyBallots)
	if !ok || len(ballots) == 0 {
		span.RecordError(ErrNoBallots)
		return state, ErrNoBallots
	}

	// Validate ballot count to prevent resource exhaustion.
	if len(ballots) > MaxBallots {
		err := fmt.Errorf("too many ballots: %d exceeds limit of %d", len(ballots), MaxBallots)
		span.RecordError(err)
		return state, err
	}

	roster, err := bru.buildRoster(candidates)
	if err != nil {
		span.RecordError(err)
		return state, err
	}

	columns := make([][]int, len(ballots))
	for b, ballot := range ballots {
		column := make([]int, len(candidates))

		for label, rank := range ballot {
			idx, err := bru.resolveLabel(roster, candidates, label)
			if err != nil {
				err = fmt.Errorf("ballot %d: %w", b, err)
				span.RecordError(err)
				return state, err
			}
			column[idx] = rank
		}

		if bru.config.RequireComplete {
			for c, rank := range column {
				if rank == domain.NoPreference {
					err := fmt.Errorf("ballot %d: candidate %q unranked but complete ballots are required: %w",
						b, candidates[c], domain.ErrMalformedBallot)
					span.RecordError(err)
					return state, err
				}
			}
		}

		columns[b] = column
	}

	matrix, err := domain.PrepareRankMatrix(candidates, columns)
	if err != nil {
		span.RecordError(err)
		return state, err
	}

	span.SetAttributes(
		attribute.Int("tally.candidates", len(candidates)),
		attribute.Int("tally.ballots", len(ballots)),
		attribute.Int64("tally.latency_ms", time.Since(start).Milliseconds()),
	)

	return domain.With(state, domain.KeyRankMatrix, matrix), nil
}

// buildRoster maps each (optionally folded) candidate label to its matrix
// index. Folding two roster labels to the same key is a configuration
// error, not a ballot error.
func (bru *BallotRankUnit) buildRoster(candidates []string) (map[string]int, error) {
	roster := make(map[string]int, len(candidates))
	for i, label := range candidates {
		if len(label) > MaxLabelLength {
			return nil, fmt.Errorf("candidate %d label too long: %d bytes exceeds limit of %d",
				i, len(label), MaxLabelLength)
		}

		key := label
		if bru.config.FoldCase {
			key = foldCaser.String(label)
		}
		if prev, dup := roster[key]; dup {
			return nil, fmt.Errorf("candidates %q and %q collide under case folding: %w",
				candidates[prev], label, domain.ErrInvalidState)
		}
		roster[key] = i
	}
	return roster, nil
}

// resolveLabel returns the roster index for a ballot label. Unknown labels
// produce an error naming the closest roster label so misspellings in
// hand-written election files are easy to fix.
func (bru *BallotRankUnit) resolveLabel(roster map[string]int, candidates []string, label string) (int, error) {
	key := label
	if bru.config.FoldCase {
		key = foldCaser.String(label)
	}

	if idx, ok := roster[key]; ok {
		return idx, nil
	}

	suggestion := ""
	bestDistance := -1
	for _, candidate := range candidates {
		d := levenshtein.ComputeDistance(key, candidate)
		if bru.config.FoldCase {
			d = levenshtein.ComputeDistance(key, foldCaser.String(candidate))
		}
		if bestDistance == -1 || d < bestDistance {
			bestDistance = d
			suggestion = candidate
		}
	}

	if suggestion != "" {
		return 0, fmt.Errorf("ranks unknown candidate %q (did you mean %q?): %w",
			label, suggestion, ErrUnknownCandidate)
	}
	return 0, fmt.Errorf("ranks unknown candidate %q: %w", label, ErrUnknownCandidate)
}

// Validate checks if the unit is properly configured and ready for execution.
func (bru *BallotRankUnit) Validate() error {
	if err := validate.Struct(bru.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// UnmarshalParameters deserializes YAML configuration parameters and returns
// a new BallotRankUnit instance to maintain thread-safety. Strict field
// validation prevents configuration typos from being silently ignored.
func (bru *BallotRankUnit) UnmarshalParameters(params yaml.Node) (*BallotRankUnit, error) {
	var config BallotRankConfig

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	if err := encoder.Encode(&params); err != nil {
		return nil, fmt.Errorf("failed to encode YAML node: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to close YAML encoder: %w", err)
	}

	decoder := yaml.NewDecoder(&buf)
	decoder.KnownFields(true)

	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to decode parameters (check for typos): %w", err)
	}

	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("parameter validation failed: %w", err)
	}

	return &BallotRankUnit{
		name:   bru.name,
		config: config,
		tracer: bru.tracer,
	}, nil
}

// DefaultBallotRankConfig returns a BallotRankConfig with sensible defaults.
func DefaultBallotRankConfig() BallotRankConfig {
	return BallotRankConfig{
		FoldCase:        false,
		RequireComplete: false,
	}
}

// CreateBallotRankUnit is a factory function that creates a BallotRankUnit
// from a configuration map, following the UnitFactory pattern.
// This function is used by the UnitRegistry for dynamic unit creation.
func CreateBallotRankUnit(id string, config map[string]any) (*BallotRankUnit, error) {
	rankConfig := DefaultBallotRankConfig()

	if foldCase, ok := config["fold_case"].(bool); ok {
		rankConfig.FoldCase = foldCase
	}

	if requireComplete, ok := config["require_complete"].(bool); ok {
		rankConfig.RequireComplete = requireComplete
	}

	return NewBallotRankUnit(id, rankConfig)
}
