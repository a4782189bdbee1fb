package ports

import (
	"context"

	"github.com/ahrav/go-tally/internal/domain"
)

// MergeStrategy defines how multiple states from parallel executions
// should be combined into a single output state.
// Implement this interface to provide custom merge logic for layers
// that accounts for domain-specific conflict resolution.
type MergeStrategy interface {
	// Merge combines multiple states from parallel executions into a single
	// state. The baseState parameter is the original input state to the
	// layer. The states parameter contains all successfully executed states,
	// sorted by executable ID so implementations see a deterministic order.
	// The returned state should be a new instance; do not modify input states.
	Merge(baseState domain.State, states []domain.State) (domain.State, error)
}

// Executable defines the core contract for components that can be executed
// within a tally pipeline: units, layers, or nested pipelines.
type Executable interface {
	// Execute processes the given state through this executable component
	// and returns the updated state along with any execution errors.
	// The context allows for cancellation and timeout control.
	//
	// The input state is immutable and MUST NOT be modified. domain.State
	// uses copy-on-write semantics; use domain.With or State.WithMultiple
	// to produce modifications. Multiple executables may receive the same
	// state instance concurrently when running in parallel layers.
	Execute(ctx context.Context, state domain.State) (domain.State, error)

	// ID returns the unique string identifier for this executable component.
	// The ID must remain constant throughout the executable's lifetime and
	// unique within the scope of the containing pipeline.
	ID() string
}

// Pipeline defines a sequential execution container that runs multiple
// executables in strict order, where each executable's output becomes
// the input for the next executable in the sequence.
type Pipeline interface {
	Executable

	// Add appends an executable to the end of this pipeline's execution
	// sequence. Add returns an error if the executable cannot be added due
	// to ID conflicts or validation failures.
	Add(exec Executable) error

	// Executables returns the complete ordered list of executables in this
	// pipeline. The returned slice should not be modified by callers.
	Executables() []Executable
}

// Layer defines a parallel execution container that runs multiple
// executables concurrently. Use Layer for units with no data dependencies
// between them: all receive the same input state and their results are
// merged according to the layer's MergeStrategy.
type Layer interface {
	Executable

	// Add includes an executable in this layer's parallel execution group.
	Add(exec Executable) error

	// Executables returns all executables that will execute in parallel
	// within this layer.
	Executables() []Executable
}

// UnitFactory creates a Unit of a specific type from its identifier and a
// decoded configuration map.
type UnitFactory func(id string, config map[string]any) (Unit, error)

// UnitRegistry provides factory-based construction of tally units from
// configuration, enabling the loader to stay decoupled from concrete unit
// implementations.
type UnitRegistry interface {
	// CreateUnit instantiates a unit of the given type with the supplied
	// configuration. It returns an error for unknown types or invalid
	// configuration.
	CreateUnit(unitType, id string, config map[string]any) (Unit, error)

	// RegisterFactory installs a factory for a custom unit type.
	// Registering a type that already exists returns an error.
	RegisterFactory(unitType string, factory UnitFactory) error
}
