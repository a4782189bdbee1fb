package units

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
)

var _ ports.Unit = (*CondorcetRankerUnit)(nil)

// CondorcetRankerUnit implements a deterministic Unit that produces the full
// candidate ranking by iterated winner extraction: each round elects the
// Condorcet winner among the remaining candidates, falling back to the
// strongest-beatpath winner, and resolves residual ties with the configured
// tie-break strategy.
//
// The unit is stateless and thread-safe for concurrent execution.
type CondorcetRankerUnit struct {
	// name is the unique identifier for this unit instance.
	name string
	// config contains the validated configuration parameters.
	config RankerConfig
	// tieBreak resolves residual ties; nil means report them as errors.
	tieBreak domain.TieBreakFunc
	// tracer is the OpenTelemetry tracer for observability.
	tracer trace.Tracer
}

// RankerConfig defines the configuration parameters for the CondorcetRankerUnit.
// All fields are validated during unit creation and parameter unmarshaling.
type RankerConfig struct {
	// TieBreak selects the residual tie resolution strategy.
	// "error" reports unresolved ties, "first" takes matrix order,
	// "lexicographic" collates labels.
	TieBreak TieBreak `yaml:"tie_break" json:"tie_break" validate:"required,oneof=error first lexicographic"`

	// MaxCandidates caps the candidate count before ranking starts.
	// Zero applies the package default.
	MaxCandidates int `yaml:"max_candidates" json:"max_candidates" validate:"min=0"`
}

// NewCondorcetRankerUnit creates a new CondorcetRankerUnit with the specified
// configuration. Returns an error if configuration validation fails.
func NewCondorcetRankerUnit(name string, config RankerConfig) (*CondorcetRankerUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}

	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	tieBreak, err := NewTieBreak(config.TieBreak)
	if err != nil {
		return nil, err
	}

	return &CondorcetRankerUnit{
		name:     name,
		config:   config,
		tieBreak: tieBreak,
		tracer:   otel.Tracer("condorcet-ranker-unit"),
	}, nil
}

// Name returns the unique identifier for this unit instance.
func (cru *CondorcetRankerUnit) Name() string { return cru.name }

// Execute ranks all candidates from the rank matrix in the state and stores
// the resulting ordering back into the state. A NoUniqueWinnerError from the
// ranker is returned as-is so callers can inspect the ambiguous round and
// the partial ranking built before it.
func (cru *CondorcetRankerUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	_, span := cru.tracer.Start(ctx, "CondorcetRankerUnit.Execute",
		trace.WithAttributes(
			attribute.String("unit.type", "condorcet_ranker"),
			attribute.String("unit.id", cru.name),
			attribute.String("config.tie_break", string(cru.config.TieBreak)),
			attribute.Int("config.max_candidates", cru.config.MaxCandidates),
		),
	)
	defer span.End()

	start := time.Now()

	matrix, ok := domain.Get(state, domain.KeyRankMatrix)
	if !ok || matrix == nil {
		err := fmt.Errorf("rank matrix not found in state; run a ballot_rank unit first")
		span.RecordError(err)
		return state, err
	}

	maxCandidates := cru.config.MaxCandidates
	if maxCandidates == 0 {
		maxCandidates = DefaultMaxCandidates
	}

	ranking, err := domain.Rank(matrix, domain.RankPolicy{
		MaxCandidates: maxCandidates,
		TieBreak:      cru.tieBreak,
	})
	if err != nil {
		span.RecordError(err)
		return state, err
	}

	condorcetRounds := 0
	for _, entry := range ranking {
		if entry.Method == domain.MethodCondorcet {
			condorcetRounds++
		}
	}

	span.SetAttributes(
		attribute.Int("tally.candidates", len(ranking)),
		attribute.Int("tally.condorcet_rounds", condorcetRounds),
		attribute.Int64("tally.latency_ms", time.Since(start).Milliseconds()),
	)

	state = domain.With(state, domain.KeyRanking, ranking)
	return state.AddRoundsCompleted(int64(len(ranking))), nil
}

// Validate checks if the unit is properly configured and ready for execution.
func (cru *CondorcetRankerUnit) Validate() error {
	if err := validate.Struct(cru.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// UnmarshalParameters deserializes YAML configuration parameters and returns
// a new CondorcetRankerUnit instance to maintain thread-safety. Strict field
// validation prevents configuration typos from being silently ignored.
func (cru *CondorcetRankerUnit) UnmarshalParameters(params yaml.Node) (*CondorcetRankerUnit, error) {
	var config RankerConfig

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

	tieBreak, err := NewTieBreak(config.TieBreak)
	if err != nil {
		return nil, err
	}

	return &CondorcetRankerUnit{
		name:     cru.name,
		config:   config,
		tieBreak: tieBreak,
		tracer:   cru.tracer,
	}, nil
}

// DefaultRankerConfig returns a RankerConfig with sensible defaults.
// Ties are reported rather than silently resolved.
func DefaultRankerConfig() RankerConfig {
	return RankerConfig{
		TieBreak:      TieError,
		MaxCandidates: DefaultMaxCandidates,
	}
}

// CreateCondorcetRankerUnit is a factory function that creates a
// CondorcetRankerUnit from a configuration map, following the UnitFactory
// pattern. This function is used by the UnitRegistry for dynamic unit creation.
func CreateCondorcetRankerUnit(id string, config map[string]any) (*CondorcetRankerUnit, error) {
	rankerConfig := DefaultRankerConfig()

	if tieBreak, ok := config["tie_break"].(string); ok {
		rankerConfig.TieBreak = TieBreak(tieBreak)
	}

	if maxCandidates, ok := config["max_candidates"]; ok {
		switch val := maxCandidates.(type) {
		case int:
			rankerConfig.MaxCandidates = val
		case float64:
			rankerConfig.MaxCandidates = int(val)
		}
	}

	return NewCondorcetRankerUnit(id, rankerConfig)
}
