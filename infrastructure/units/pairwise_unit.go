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

var _ ports.Unit = (*PairwiseUnit)(nil)

// PairwiseUnit implements a deterministic Unit that tallies pairwise
// preference counts over all candidates from the prepared rank matrix.
// The resulting matrix records, for every ordered pair, how many ballots
// strictly prefer one candidate over the other.
//
// The unit is stateless and thread-safe for concurrent execution.
type PairwiseUnit struct {
	// name is the unique identifier for this unit instance.
	name string
	// config contains the validated configuration parameters.
	config PairwiseConfig
	// tracer is the OpenTelemetry tracer for observability.
	tracer trace.Tracer
}

// PairwiseConfig defines the configuration parameters for the PairwiseUnit.
// The unit currently takes no tunables; the struct exists so parameter
// handling stays uniform across units.
type PairwiseConfig struct{}

// NewPairwiseUnit creates a new PairwiseUnit with the specified configuration.
// Returns an error if configuration validation fails.
func NewPairwiseUnit(name string, config PairwiseConfig) (*PairwiseUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}

	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &PairwiseUnit{
		name:   name,
		config: config,
		tracer: otel.Tracer("pairwise-unit"),
	}, nil
}

// Name returns the unique identifier for this unit instance.
func (pu *PairwiseUnit) Name() string { return pu.name }

// Execute computes pairwise preference counts from the rank matrix in the
// state and stores the resulting matrix back into the state.
func (pu *PairwiseUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	_, span := pu.tracer.Start(ctx, "PairwiseUnit.Execute",
		trace.WithAttributes(
			attribute.String("unit.type", "pairwise"),
			attribute.String("unit.id", pu.name),
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

	pairwise, err := domain.ComputePairwise(matrix, nil)
	if err != nil {
		span.RecordError(err)
		return state, err
	}

	span.SetAttributes(
		attribute.Int("tally.candidates", pairwise.N),
		attribute.Int("tally.ballots", matrix.Ballots),
		attribute.Int64("tally.latency_ms", time.Since(start).Milliseconds()),
	)

	return domain.With(state, domain.KeyPairwise, pairwise), nil
}

// Validate checks if the unit is properly configured and ready for execution.
func (pu *PairwiseUnit) Validate() error {
	if err := validate.Struct(pu.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// UnmarshalParameters deserializes YAML configuration parameters and returns
// a new PairwiseUnit instance to maintain thread-safety.
func (pu *PairwiseUnit) UnmarshalParameters(params yaml.Node) (*PairwiseUnit, error) {
	var config PairwiseConfig

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

	return &PairwiseUnit{
		name:   pu.name,
		config: config,
		tracer: pu.tracer,
	}, nil
}

// DefaultPairwiseConfig returns a PairwiseConfig with sensible defaults.
func DefaultPairwiseConfig() PairwiseConfig {
	return PairwiseConfig{}
}

// CreatePairwiseUnit is a factory function that creates a PairwiseUnit
// from a configuration map, following the UnitFactory pattern.
func CreatePairwiseUnit(id string, _ map[string]any) (*PairwiseUnit, error) {
	return NewPairwiseUnit(id, DefaultPairwiseConfig())
}
