package application

import (
	"gopkg.in/yaml.v3"
)

// ElectionConfig defines the complete specification for a tally run and
// serves as the primary configuration entry point for the system.
// Use ElectionConfig when defining elections declaratively: the candidate
// roster, the raw ballots, and the tally units that process them.
type ElectionConfig struct {
	// Version specifies the configuration schema version using semantic
	// versioning to ensure compatibility across system updates.
	Version string `yaml:"version" validate:"required,semver"`
	// Metadata contains descriptive information about the election
	// including name, tags, and labels for organization and discovery.
	Metadata Metadata `yaml:"metadata" validate:"required"`
	// Candidates is the roster of candidate labels. Order here fixes the
	// matrix order used everywhere downstream, including tie-breaks that
	// take the first tied candidate.
	Candidates []string `yaml:"candidates" validate:"required,min=1,dive,min=1,max=255"`
	// Ballots holds the raw ballots as label-to-rank maps. Omitted
	// candidates are abstentions unless a ballot_rank unit requires
	// complete ballots.
	Ballots []map[string]int `yaml:"ballots" validate:"required,min=1"`
	// Units defines the individual tally components that will execute
	// within this election, each with their own configuration.
	Units []UnitConfig `yaml:"units" validate:"required,min=1,dive"`
	// Tally specifies the execution topology that determines how units
	// are connected and the order in which they execute.
	Tally TallyTopology `yaml:"tally" validate:"required"`
}

// Metadata provides descriptive information about an election
// to support organization, discovery, and operational management.
type Metadata struct {
	// Name is the human-readable identifier for this election
	// and must be unique within the deployment scope.
	Name string `yaml:"name" validate:"required,min=1,max=255"`
	// Description provides a detailed explanation of the election's purpose
	// for documentation and discovery.
	Description string `yaml:"description" validate:"max=1000"`
	// Tags are categorical labels that enable filtering and grouping
	// of elections by functional domain or operational characteristics.
	Tags []string `yaml:"tags" validate:"max=20,dive,min=1,max=50"`
	// Labels are arbitrary key-value pairs that provide flexible metadata
	// for integration with external systems and custom categorization.
	Labels map[string]string `yaml:"labels" validate:"max=50"`
}

// UnitConfig defines the specification for a single tally unit within an
// election, including its type and type-specific parameters.
type UnitConfig struct {
	// ID is the unique identifier for this unit within the election
	// and must be alphanumeric for safe referencing in topologies.
	ID string `yaml:"id" validate:"required,alphanum,min=1,max=100"`
	// Type specifies the tally unit implementation to instantiate,
	// determining the available parameters and execution behavior.
	Type string `yaml:"type" validate:"required,oneof=ballot_rank pairwise schulze condorcet_ranker custom"`
	// Parameters contains type-specific configuration as flexible YAML
	// that will be validated according to the unit type requirements.
	Parameters yaml.Node `yaml:"parameters"` // Flexible parameters for unit-specific validation
}

// TallyTopology specifies the structural organization and execution flow
// of units within an election. Steps run sequentially; a step may name a
// unit directly or a layer whose units run in parallel.
type TallyTopology struct {
	// Steps lists unit or layer IDs in execution order. Each step's output
	// state feeds the next step.
	Steps []string `yaml:"steps" validate:"required,min=1,dive,alphanum"`
	// Layers define parallel execution groups where multiple units
	// receive the same input state and their results are merged.
	Layers []LayerConfig `yaml:"layers" validate:"dive"`
}

// LayerConfig defines a parallel execution group where multiple units
// execute simultaneously. Use LayerConfig for independent diagnostics
// such as computing pairwise counts and auxiliary statistics in one pass.
type LayerConfig struct {
	// ID is the unique identifier for this layer within the tally
	// topology, used for referencing in steps.
	ID string `yaml:"id" validate:"required,alphanum,min=1,max=100"`
	// Units lists the tally unit IDs that will execute in parallel,
	// with a minimum of two units required to justify layer overhead.
	Units []string `yaml:"units" validate:"required,min=2,dive,alphanum"`
}
