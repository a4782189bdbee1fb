package application

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-tally/infrastructure/middleware"
	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
)

// Election is a compiled, executable tally: the validated configuration
// plus the root pipeline built from it. Elections are immutable after
// compilation and safe to Run concurrently.
type Election struct {
	// config is the validated configuration this election was built from.
	config *ElectionConfig
	// root is the sequential pipeline executing the configured steps.
	root *Pipeline
}

// Name returns the human-readable election name from its metadata.
func (e *Election) Name() string { return e.config.Metadata.Name }

// Candidates returns the candidate roster in matrix order.
func (e *Election) Candidates() []string {
	roster := make([]string, len(e.config.Candidates))
	copy(roster, e.config.Candidates)
	return roster
}

// Run executes the election's tally pipeline over its configured ballots
// and returns the resulting ranking along with the final state, which
// holds the intermediate matrices for inspection.
// Run seeds a fresh state on every call, so a compiled election can be
// executed repeatedly and concurrently.
func (e *Election) Run(ctx context.Context) (domain.Ranking, domain.State, error) {
	ballots := make([]domain.Ballot, len(e.config.Ballots))
	for i, raw := range e.config.Ballots {
		ballot := make(domain.Ballot, len(raw))
		for label, rank := range raw {
			ballot[label] = rank
		}
		ballots[i] = ballot
	}

	state := domain.NewState()
	state = domain.With(state, domain.KeyCandidates, e.Candidates())
	state = domain.With(state, domain.KeyBallots, ballots)
	state = state.WithExecutionContext(domain.ExecutionContext{
		ElectionID:  e.config.Metadata.Name,
		TallyType:   "condorcet",
		ExecutionID: newExecutionID(),
	})

	finalState, err := e.root.Execute(ctx, state)
	if err != nil {
		return nil, finalState, err
	}

	ranking, ok := domain.Get(finalState, domain.KeyRanking)
	if !ok {
		return nil, finalState, fmt.Errorf("tally completed without producing a ranking; topology must include a condorcet_ranker unit")
	}

	return ranking, finalState, nil
}

// newExecutionID returns a random identifier correlating the spans and
// metrics of one Run invocation.
func newExecutionID() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(buf[:])
}

// ElectionLoader provides YAML configuration parsing, validation, and
// caching for elections, transforming declarative YAML specifications
// into executable tally pipelines.
// Use ElectionLoader to load elections from files or readers while
// benefiting from SHA256-based caching and comprehensive validation.
type ElectionLoader struct {
	// validator performs struct field validation and custom validation
	// rules for election configurations and their nested components.
	validator *validator.Validate
	// unitRegistry provides factory methods for creating tally units
	// based on their type and configuration parameters.
	unitRegistry ports.UnitRegistry
	// metrics, when non-nil, wraps every created unit so executions are
	// observed without the units knowing about collectors.
	metrics ports.MetricsCollector
	// cache stores compiled elections indexed by SHA256 hash of the
	// normalized config to avoid recompilation of identical configurations.
	cache map[string]*Election
	// cacheMu provides thread-safe access to the cache map during
	// concurrent read and write operations.
	cacheMu sync.RWMutex
	// sf prevents duplicate compilation when multiple goroutines
	// request the same election simultaneously.
	sf singleflight.Group
}

// NewElectionLoader creates a new election loader with validation
// capabilities and an empty cache. The collector may be nil, in which
// case units run unobserved.
// NewElectionLoader returns an error if validator registration fails.
func NewElectionLoader(unitRegistry ports.UnitRegistry, collector ports.MetricsCollector) (*ElectionLoader, error) {
	v := validator.New()

	if err := registerCustomValidators(v); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	return &ElectionLoader{
		validator:    v,
		unitRegistry: unitRegistry,
		metrics:      collector,
		cache:        make(map[string]*Election),
	}, nil
}

// load is the common implementation for loading elections from byte data,
// utilizing singleflight to prevent duplicate compilation and SHA256-based
// caching for efficiency.
func (el *ElectionLoader) load(data []byte) (*Election, error) {
	// Parse YAML first to normalize it before hashing.
	config, err := el.parseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	hash, err := el.calculateConfigHash(config)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate hash: %w", err)
	}

	// Use singleflight to prevent multiple goroutines from compiling
	// the same election simultaneously.
	v, err, _ := el.sf.Do(hash, func() (any, error) {
		// Check cache inside singleflight to handle race between cache
		// check and singleflight group execution.
		if election, ok := el.getCachedElection(hash); ok {
			return election, nil
		}

		if err := el.validateConfig(config); err != nil {
			return nil, fmt.Errorf("validation failed: %w", err)
		}

		election, err := el.buildElection(config)
		if err != nil {
			return nil, fmt.Errorf("failed to build election: %w", err)
		}

		el.cacheElection(hash, election)

		return election, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*Election), nil
}

// LoadFromFile loads and compiles an election from a YAML file,
// utilizing SHA256-based caching to avoid recompilation of identical files.
// LoadFromFile performs comprehensive validation including struct
// validation, semantic validation, and unit parameter validation.
func (el *ElectionLoader) LoadFromFile(path string) (*Election, error) {
	// Clean the path to prevent directory traversal attacks.
	cleanPath := filepath.Clean(path)

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return el.load(data)
}

// LoadFromReader loads and compiles an election from an io.Reader,
// supporting any source that implements the Reader interface.
// LoadFromReader reads all data into memory, applies SHA256-based caching,
// and performs the same validation as LoadFromFile.
func (el *ElectionLoader) LoadFromReader(r io.Reader) (*Election, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}

	return el.load(data)
}

// parseYAML unmarshals YAML byte data into a structured ElectionConfig,
// using strict decoding to detect unknown fields and prevent
// configuration typos from being silently ignored.
func (el *ElectionLoader) parseYAML(data []byte) (*ElectionConfig, error) {
	var config ElectionConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Strict mode - fail on unknown fields.

	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("YAML decode failed: %w", err)
	}
	return &config, nil
}

// validateConfig performs comprehensive validation on a parsed election
// configuration, including both struct field validation and semantic
// validation of relationships between configuration elements.
func (el *ElectionLoader) validateConfig(config *ElectionConfig) error {
	if err := el.validator.Struct(config); err != nil {
		return fmt.Errorf("struct validation failed: %w", err)
	}

	if err := el.validateSemantics(config); err != nil {
		return fmt.Errorf("semantic validation failed: %w", err)
	}

	return nil
}

// validateSemantics performs domain-specific validation rules that
// cannot be expressed through struct tags: uniqueness constraints,
// reference integrity between steps, layers, and units, ballot rank
// sanity, and unit parameter validation.
func (el *ElectionLoader) validateSemantics(config *ElectionConfig) error {
	seen := make(map[string]struct{}, len(config.Candidates))
	for _, label := range config.Candidates {
		if _, dup := seen[label]; dup {
			return fmt.Errorf("duplicate candidate label: %q", label)
		}
		seen[label] = struct{}{}
	}

	for i, ballot := range config.Ballots {
		if len(ballot) == 0 {
			return fmt.Errorf("ballot %d expresses no preferences", i)
		}
		for label, rank := range ballot {
			if rank < 1 {
				return fmt.Errorf("ballot %d: rank for %q must be at least 1, got %d", i, label, rank)
			}
		}
	}

	// Track node IDs globally so steps can reference either units or
	// layers without ambiguity.
	allNodeIDs := make(map[string]string) // ID -> node type for error messages.
	unitIDs := make(map[string]struct{})

	for _, unit := range config.Units {
		if nodeType, exists := allNodeIDs[unit.ID]; exists {
			return fmt.Errorf("duplicate ID %q: already used by %s", unit.ID, nodeType)
		}
		allNodeIDs[unit.ID] = "unit"
		unitIDs[unit.ID] = struct{}{}

		if err := ValidateUnitParameters(unit.Type, unit.Parameters); err != nil {
			return fmt.Errorf("unit %s parameter validation failed: %w", unit.ID, err)
		}
	}

	for _, layer := range config.Tally.Layers {
		if nodeType, exists := allNodeIDs[layer.ID]; exists {
			return fmt.Errorf("duplicate ID %q: already used by %s", layer.ID, nodeType)
		}
		allNodeIDs[layer.ID] = "layer"

		for _, unitID := range layer.Units {
			if _, exists := unitIDs[unitID]; !exists {
				return fmt.Errorf("layer %s references non-existent unit: %s", layer.ID, unitID)
			}
		}
	}

	stepSeen := make(map[string]struct{}, len(config.Tally.Steps))
	for _, step := range config.Tally.Steps {
		if _, exists := allNodeIDs[step]; !exists {
			return fmt.Errorf("step references non-existent node: %s", step)
		}
		if _, dup := stepSeen[step]; dup {
			return fmt.Errorf("step %s appears more than once", step)
		}
		stepSeen[step] = struct{}{}
	}

	return nil
}

// buildElection constructs an executable election from a validated
// configuration, creating units through the registry, assembling layers,
// and chaining the configured steps into the root pipeline.
func (el *ElectionLoader) buildElection(config *ElectionConfig) (*Election, error) {
	units := make(map[string]ports.Unit)
	for _, unitConfig := range config.Units {
		unit, err := el.createUnit(unitConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create unit %s: %w", unitConfig.ID, err)
		}
		units[unitConfig.ID] = unit
	}

	layers := make(map[string]*Layer)
	for _, layerConfig := range config.Tally.Layers {
		layer := NewLayer(layerConfig.ID)

		for _, unitID := range layerConfig.Units {
			unit, ok := units[unitID]
			if !ok {
				return nil, fmt.Errorf("unit %s not found for layer %s", unitID, layerConfig.ID)
			}
			if err := layer.Add(NewUnitAdapter(unit, unitID)); err != nil {
				return nil, fmt.Errorf("failed to add unit to layer: %w", err)
			}
		}

		layers[layerConfig.ID] = layer
	}

	root := NewPipeline(config.Metadata.Name)
	for _, step := range config.Tally.Steps {
		if layer, ok := layers[step]; ok {
			if err := root.Add(layer); err != nil {
				return nil, fmt.Errorf("failed to add layer %s to pipeline: %w", step, err)
			}
			continue
		}

		unit, ok := units[step]
		if !ok {
			return nil, fmt.Errorf("step %s resolved to neither a unit nor a layer", step)
		}
		if err := root.Add(NewUnitAdapter(unit, step)); err != nil {
			return nil, fmt.Errorf("failed to add unit %s to pipeline: %w", step, err)
		}
	}

	return &Election{config: config, root: root}, nil
}

// createUnit instantiates a tally unit from its configuration, decoding
// the flexible YAML parameters and delegating to the unit registry for
// type-specific creation. When a metrics collector is configured, the
// unit is wrapped so every execution is observed.
func (el *ElectionLoader) createUnit(config UnitConfig) (ports.Unit, error) {
	var params map[string]any
	if err := config.Parameters.Decode(&params); err != nil {
		return nil, fmt.Errorf("failed to decode parameters: %w", err)
	}
	if params == nil {
		params = make(map[string]any)
	}

	unit, err := el.unitRegistry.CreateUnit(config.Type, config.ID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create unit: %w", err)
	}

	if el.metrics != nil {
		unit = middleware.WithMetrics(unit, el.metrics)
	}

	return unit, nil
}

// calculateConfigHash computes the SHA256 hash of a normalized
// ElectionConfig for cache indexing, ensuring semantically identical
// configurations produce the same hash regardless of whitespace or key
// ordering differences.
func (el *ElectionLoader) calculateConfigHash(config *ElectionConfig) (string, error) {
	// Normalize the config by re-encoding it with consistent formatting.
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(config); err != nil {
		return "", fmt.Errorf("failed to encode config for hashing: %w", err)
	}

	hash := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(hash[:]), nil
}

// getCachedElection attempts to retrieve a previously compiled election
// from the cache using its SHA256 hash as the lookup key.
// getCachedElection is safe for concurrent use.
func (el *ElectionLoader) getCachedElection(hash string) (*Election, bool) {
	el.cacheMu.RLock()
	defer el.cacheMu.RUnlock()

	election, ok := el.cache[hash]
	return election, ok
}

// cacheElection stores a compiled election in the cache indexed by its
// normalized config's SHA256 hash for future retrieval.
// cacheElection is safe for concurrent use and will overwrite
// any existing entry with the same hash.
func (el *ElectionLoader) cacheElection(hash string, election *Election) {
	el.cacheMu.Lock()
	defer el.cacheMu.Unlock()

	el.cache[hash] = election
}

// ClearCache removes all cached elections and reinitializes the cache map,
// forcing subsequent loads to recompile from source.
// ClearCache is safe for concurrent use.
func (el *ElectionLoader) ClearCache() {
	el.cacheMu.Lock()
	defer el.cacheMu.Unlock()

	el.cache = make(map[string]*Election)
}
