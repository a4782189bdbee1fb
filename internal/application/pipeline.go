package application

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/ahrav/go-tally/internal/domain"
	"github.com/ahrav/go-tally/internal/ports"
)

// Pipeline is a sequential execution container that processes executables
// in strict order, where each executable's output becomes the input for
// the next executable in the sequence.
// Use Pipeline when tally stages have data dependencies that must be
// respected, which is the common case: ballots feed pairwise counts feed
// the ranking.
type Pipeline struct {
	// id is the unique identifier for this pipeline within the tally
	// topology, used for referencing in steps and error reporting.
	id string
	// executables contains the ordered list of components that will execute
	// sequentially, with state flowing from one to the next.
	executables []ports.Executable
	// idSet tracks executable IDs for O(1) duplicate detection.
	idSet map[string]struct{}
	// mu provides thread-safe access to the executables slice during
	// concurrent read and write operations.
	mu sync.RWMutex
}

// NewPipeline creates a new sequential execution pipeline with the specified
// identifier, ready to accept executable components.
// The pipeline will execute added components in the order they were added.
func NewPipeline(id string) *Pipeline {
	return &Pipeline{
		id:          id,
		executables: make([]ports.Executable, 0),
		idSet:       make(map[string]struct{}),
	}
}

// Execute processes all executables in this pipeline sequentially,
// passing the output state from each executable as input to the next.
// Execute respects context cancellation and returns immediately if the
// context is cancelled between executable runs.
// Execute returns an error if any executable fails, including the
// executable ID in the error message for debugging.
func (p *Pipeline) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	p.mu.RLock()
	executables := make([]ports.Executable, len(p.executables))
	copy(executables, p.executables)
	p.mu.RUnlock()

	currentState := state
	for _, exec := range executables {
		select {
		case <-ctx.Done():
			return currentState, ctx.Err()
		default:
			newState, err := exec.Execute(ctx, currentState)
			if err != nil {
				return currentState, fmt.Errorf("pipeline %s: execution failed at %s: %w", p.id, exec.ID(), err)
			}
			currentState = newState
		}
	}

	return currentState, nil
}

// ID returns the unique string identifier for this pipeline.
func (p *Pipeline) ID() string {
	return p.id
}

// Add appends an executable to the end of this pipeline's execution
// sequence, maintaining the order in which executables will be processed.
// Add returns an error if the executable is nil or if an executable
// with the same ID already exists in the pipeline.
// Add is safe for concurrent use with Execute.
func (p *Pipeline) Add(exec ports.Executable) error {
	if exec == nil {
		return fmt.Errorf("cannot add nil executable to pipeline")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	execID := exec.ID()
	if _, exists := p.idSet[execID]; exists {
		return fmt.Errorf("executable with ID %s already exists in pipeline", execID)
	}

	p.executables = append(p.executables, exec)
	p.idSet[execID] = struct{}{}
	return nil
}

// Executables returns a copy of the complete ordered list of executables
// in this pipeline, preserving the sequence in which they will execute.
// The returned slice is safe to modify without affecting the pipeline.
// Executables is safe for concurrent use.
func (p *Pipeline) Executables() []ports.Executable {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]ports.Executable, len(p.executables))
	copy(result, p.executables)
	return result
}

// Layer is a parallel execution container that runs multiple executables
// concurrently to improve throughput. Use Layer for independent tally
// diagnostics that all read the same input state.
type Layer struct {
	// id is the unique identifier for this layer within the tally
	// topology, used for referencing in steps and execution coordination.
	id string
	// executables contains the list of components that will execute
	// concurrently, all receiving the same input state.
	executables []ports.Executable
	// idSet tracks executable IDs for O(1) duplicate detection.
	idSet map[string]struct{}
	// mergeStrategy defines how to combine results from parallel executions.
	// If nil, unionMergeStrategy is used.
	mergeStrategy ports.MergeStrategy
	// concurrencyLimit controls the maximum number of concurrent executions.
	// Defaults to runtime.NumCPU() * 2 if not set.
	concurrencyLimit int
	// mu provides thread-safe access to the executables slice during
	// concurrent read and write operations.
	mu sync.RWMutex
}

// NewLayer creates a new parallel execution layer with the specified
// identifier, ready to accept executable components that will run
// concurrently. All executables in the layer receive the same input state.
func NewLayer(id string) *Layer {
	return &Layer{
		id:               id,
		executables:      make([]ports.Executable, 0),
		idSet:            make(map[string]struct{}),
		concurrencyLimit: runtime.NumCPU() * 2,
	}
}

// Execute runs all executables in this layer concurrently, with each
// executable receiving the same input state.
// Results are sorted by executable ID before merging so the merged state
// is deterministic regardless of goroutine scheduling.
// Execute returns an error if any executable fails, including details
// about all failed executions.
// Note: domain.State is immutable, so concurrent access is safe.
func (l *Layer) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	l.mu.RLock()
	executables := make([]ports.Executable, len(l.executables))
	copy(executables, l.executables)
	limit := l.concurrencyLimit
	if limit <= 0 {
		limit = runtime.NumCPU() * 2
	}
	l.mu.RUnlock()

	if len(executables) == 0 {
		return state, nil
	}

	type result struct {
		state domain.State
		err   error
		id    string
	}

	resultChan := make(chan result, len(executables))
	var wg sync.WaitGroup

	// Semaphore to limit concurrency.
	semaphore := make(chan struct{}, limit)

	for _, exec := range executables {
		wg.Add(1)
		go func(e ports.Executable) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
			case <-ctx.Done():
				return
			}

			newState, err := e.Execute(ctx, state)

			select {
			case resultChan <- result{state: newState, err: err, id: e.ID()}:
			case <-ctx.Done():
				return
			}
		}(exec)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var errs []error
	results := make([]result, 0, len(executables))
	remaining := len(executables)

	for remaining > 0 {
		select {
		case <-ctx.Done():
			return state, ctx.Err()
		case res, ok := <-resultChan:
			if !ok {
				break
			}
			remaining--

			if res.err != nil {
				errs = append(errs, fmt.Errorf("executable %s: %w", res.id, res.err))
			} else {
				results = append(results, res)
			}
		}
	}

	if len(errs) > 0 {
		return state, fmt.Errorf("layer %s failed with %d errors: %w", l.id, len(errs), errors.Join(errs...))
	}

	// Sort by executable ID so the merge sees a deterministic order
	// regardless of which goroutine finished first.
	sort.Slice(results, func(i, j int) bool { return results[i].id < results[j].id })
	states := make([]domain.State, len(results))
	for i, res := range results {
		states[i] = res.state
	}

	strategy := l.mergeStrategy
	if strategy == nil {
		strategy = unionMergeStrategy{}
	}

	mergedState, err := strategy.Merge(state, states)
	if err != nil {
		return state, fmt.Errorf("layer %s: merge failed: %w", l.id, err)
	}

	return mergedState, nil
}

// ID returns the unique string identifier for this layer.
func (l *Layer) ID() string {
	return l.id
}

// Add includes an executable in this layer's parallel execution group.
// All executables in a layer receive the same input state and execute
// concurrently, with their results merged according to layer policies.
// Add returns an error if the executable is nil or if an executable
// with the same ID already exists in the layer.
// Add is safe for concurrent use with Execute.
func (l *Layer) Add(exec ports.Executable) error {
	if exec == nil {
		return fmt.Errorf("cannot add nil executable to layer")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	execID := exec.ID()
	if _, exists := l.idSet[execID]; exists {
		return fmt.Errorf("executable with ID %s already exists in layer", execID)
	}

	l.executables = append(l.executables, exec)
	l.idSet[execID] = struct{}{}
	return nil
}

// Executables returns a copy of all executables that will execute in
// parallel within this layer, in no particular order since execution
// is concurrent. The returned slice is safe to modify without affecting
// the layer. Executables is safe for concurrent use.
func (l *Layer) Executables() []ports.Executable {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]ports.Executable, len(l.executables))
	copy(result, l.executables)
	return result
}

// SetMergeStrategy configures how parallel execution results are combined.
// If not set, a union merge over sorted executable IDs is used.
// The merge strategy must be set before Execute is called.
// SetMergeStrategy is safe for concurrent use.
func (l *Layer) SetMergeStrategy(strategy ports.MergeStrategy) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.mergeStrategy = strategy
}

// SetConcurrencyLimit configures the maximum number of executables that
// can run concurrently within this layer.
// If not set or set to 0 or negative, defaults to runtime.NumCPU() * 2.
// The concurrency limit should be set before Execute is called.
// SetConcurrencyLimit is safe for concurrent use.
func (l *Layer) SetConcurrencyLimit(limit int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.concurrencyLimit = limit
}

// Compile-time verification of the container contracts.
var (
	_ ports.Pipeline = (*Pipeline)(nil)
	_ ports.Layer    = (*Layer)(nil)
)

// unionMergeStrategy folds every key written by the parallel executions
// back onto the base state. States arrive sorted by executable ID, and
// keys within each state are applied in sorted order, so a key written by
// two executables deterministically resolves to the later ID.
type unionMergeStrategy struct{}

// Merge implements the MergeStrategy interface with a deterministic union.
// Two units in one layer writing the same key is almost always a topology
// mistake; the sorted orders make the outcome reproducible rather than
// scheduler-dependent.
func (unionMergeStrategy) Merge(baseState domain.State, states []domain.State) (domain.State, error) {
	if len(states) == 0 {
		return baseState, nil
	}

	merged := baseState
	for _, s := range states {
		keys := s.Keys()
		sort.Strings(keys)
		for _, key := range keys {
			value, ok := s.GetRaw(key)
			if !ok {
				continue
			}
			merged = merged.WithRaw(key, value)
		}
	}

	return merged, nil
}
