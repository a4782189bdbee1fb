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

var _ ports.Unit = (*SchulzeUnit)(nil)

// SchulzeUnit implements a deterministic Unit that computes strongest
// beatpath strengths from pairwise preference counts. The closure is cubic
// in the candidate count, so the unit enforces a configurable ceiling
// before doing any work.
//
// The unit is stateless and thread-safe for concurrent execution.
type SchulzeUnit struct {
	// name is the unique identifier for this unit instance.
	name string
	// config contains the validated configuration parameters.
	config SchulzeConfig
	// tracer is the OpenTelemetry tracer for observability.
	tracer trace.Tracer
}

// SchulzeConfig defines the configuration parameters for the SchulzeUnit.
type SchulzeConfig struct {
	// MaxCandidates caps the candidate count before the cubic closure runs.
	// Zero applies the package default.
	MaxCandidates int `yaml:"max_candidates" json:"max_candidates" validate:"min=0"`
}

// NewSchulzeUnit creates a new SchulzeUnit with the specified configuration.
// Returns an error if configuration validation fails.
func NewSchulzeUnit(name string, config SchulzeConfig) (*SchulzeUnit, error) {
	if name == "" {
		return nil, ErrEmptyUnitName
	}

	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &SchulzeUnit{
		name:   name,
		config: config,
		tracer: otel.Tracer("schulze-unit"),
	}, nil
}

// Name returns the unique identifier for this unit instance.
func (su *SchulzeUnit) Name() string { return su.name }

// Execute computes the beatpath strength matrix from the pairwise matrix in
// the state. If no pairwise matrix is present but a rank matrix is, the
// pairwise counts are computed on the fly so the unit can run standalone.
func (su *SchulzeUnit) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	_, span := su.tracer.Start(ctx, "SchulzeUnit.Execute",
		trace.WithAttributes(
			attribute.String("unit.type", "schulze"),
			attribute.String("unit.id", su.name),
			attribute.Int("config.max_candidates", su.config.MaxCandidates),
		),
	)
	defer span.End()

	start := time.Now()

	pairwise, ok := domain.Get(state, domain.KeyPairwise)
	if !ok || pairwise == nil {
		matrix, found := domain.Get(state, domain.KeyRankMatrix)
		if !found || matrix == nil {
			err := fmt.Errorf("neither pairwise nor rank matrix found in state")
			span.RecordError(err)
			return state, err
		}

		var err error
		pairwise, err = domain.ComputePairwise(matrix, nil)
		if err != nil {
			span.RecordError(err)
			return state, err
		}
	}

	limit := su.config.MaxCandidates
	if limit == 0 {
		limit = DefaultMaxCandidates
	}
	if pairwise.N > limit {
		err := &domain.CandidateCountExceededError{Candidates: pairwise.N, Limit: limit}
		span.RecordError(err)
		return state, err
	}

	beatpaths := domain.ComputeBeatpaths(pairwise)

	span.SetAttributes(
		attribute.Int("tally.candidates", pairwise.N),
		attribute.Int64("tally.latency_ms", time.Since(start).Milliseconds()),
	)

	return domain.With(state, domain.KeyBeatpaths, beatpaths), nil
}

// Validate checks if the unit is properly configured and ready for execution.
func (su *SchulzeUnit) Validate() error {
	if err := validate.Struct(su.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// UnmarshalParameters deserializes YAML configuration parameters and returns
// a new SchulzeUnit instance to maintain thread-safety. Strict field
// validation prevents configuration typos from being silently ignored.
func (su *SchulzeUnit) UnmarshalParameters(params yaml.Node) (*SchulzeUnit, error) {
	var config SchulzeConfig

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

	return &SchulzeUnit{
		name:   su.name,
		config: config,
		tracer: su.tracer,
	}, nil
}

// DefaultSchulzeConfig returns a SchulzeConfig with sensible defaults.
func DefaultSchulzeConfig() SchulzeConfig {
	return SchulzeConfig{
		MaxCandidates: DefaultMaxCandidates,
	}
}

// CreateSchulzeUnit is a factory function that creates a SchulzeUnit
// from a configuration map, following the UnitFactory pattern.
func CreateSchulzeUnit(id string, config map[string]any) (*SchulzeUnit, error) {
	schulzeConfig := DefaultSchulzeConfig()

	if maxCandidates, ok := config["max_candidates"]; ok {
		switch val := maxCandidates.(type) {
		case int:
			schulzeConfig.MaxCandidates = val
		case float64:
			schulzeConfig.MaxCandidates = int(val)
		}
	}

	return NewSchulzeUnit(id, schulzeConfig)
}
