package application

import (
	"fmt"
	"sync"

	"github.com/ahrav/go-tally/infrastructure/units"
	"github.com/ahrav/go-tally/internal/ports"
)

// Verify interface compliance at compile time.
var _ ports.UnitRegistry = (*DefaultUnitRegistry)(nil)

// DefaultUnitRegistry implements the UnitRegistry interface providing
// a factory for creating tally units based on type and configuration.
// It supports dynamic registration of unit factories for custom unit types.
type DefaultUnitRegistry struct {
	// factories maps unit type strings to their factory functions.
	factories map[string]ports.UnitFactory
	// mu protects concurrent access to the factories map.
	mu sync.RWMutex
}

// NewDefaultUnitRegistry creates a new unit registry with the standard
// tally unit types pre-registered: ballot_rank, pairwise, schulze, and
// condorcet_ranker.
func NewDefaultUnitRegistry() *DefaultUnitRegistry {
	registry := &DefaultUnitRegistry{
		factories: make(map[string]ports.UnitFactory),
	}

	registry.registerBuiltinFactories()

	return registry
}

// registerBuiltinFactories registers the standard unit types provided
// by the ranking engine.
func (r *DefaultUnitRegistry) registerBuiltinFactories() {
	r.factories["ballot_rank"] = func(id string, config map[string]any) (ports.Unit, error) {
		return units.CreateBallotRankUnit(id, config)
	}

	r.factories["pairwise"] = func(id string, config map[string]any) (ports.Unit, error) {
		return units.CreatePairwiseUnit(id, config)
	}

	r.factories["schulze"] = func(id string, config map[string]any) (ports.Unit, error) {
		return units.CreateSchulzeUnit(id, config)
	}

	r.factories["condorcet_ranker"] = func(id string, config map[string]any) (ports.Unit, error) {
		return units.CreateCondorcetRankerUnit(id, config)
	}
}

// CreateUnit creates a new unit instance based on the provided type,
// identifier, and configuration.
// It looks up the appropriate factory function and delegates unit creation.
func (r *DefaultUnitRegistry) CreateUnit(
	unitType string,
	id string,
	config map[string]any,
) (ports.Unit, error) {
	r.mu.RLock()
	factory, exists := r.factories[unitType]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unsupported unit type: %s", unitType)
	}

	if id == "" {
		return nil, fmt.Errorf("unit ID cannot be empty")
	}

	if config == nil {
		config = make(map[string]any)
	}

	unit, err := factory(id, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create unit %s of type %s: %w", id, unitType, err)
	}

	return unit, nil
}

// RegisterFactory registers a new factory function for a specific unit type.
// This allows extending the registry with custom unit types at runtime.
// Registering a type that already exists returns an error; built-in types
// cannot be replaced.
func (r *DefaultUnitRegistry) RegisterFactory(
	unitType string,
	factory ports.UnitFactory,
) error {
	if unitType == "" {
		return fmt.Errorf("unit type cannot be empty")
	}

	if factory == nil {
		return fmt.Errorf("factory function cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[unitType]; exists {
		return fmt.Errorf("unit type %s is already registered", unitType)
	}

	r.factories[unitType] = factory
	return nil
}

// SupportedTypes returns a list of all registered unit types.
// This is useful for validation, documentation, and introspection purposes.
func (r *DefaultUnitRegistry) SupportedTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for unitType := range r.factories {
		types = append(types, unitType)
	}

	return types
}
