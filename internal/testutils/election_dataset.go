package testutils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Ballot profiles used by the generator. A profile fixes the statistical
// shape of the generated ballots so tests can target specific tally paths.
const (
	// ProfileLandslide produces ballots with a dominant candidate, yielding
	// Condorcet winners in every extraction round.
	ProfileLandslide = "landslide"

	// ProfileCycle produces rotated ballots forming majority cycles, forcing
	// the Schulze beatpath fallback.
	ProfileCycle = "cycle"

	// ProfileRandom produces uniformly random ballots with occasional
	// abstentions.
	ProfileRandom = "random"
)

// MinimumDatasetSize is the minimum number of elections required for a
// dataset used in throughput benchmarks.
const MinimumDatasetSize = 10

// ElectionDataset represents a collection of sample elections for testing
// and benchmarking the ranking engine. It includes metadata about the
// dataset source.
type ElectionDataset struct {
	// Elections contains all sample elections with their ballots.
	Elections []ElectionSample `json:"elections"`

	// Metadata provides information about the dataset itself.
	Metadata DatasetMetadata `json:"metadata"`
}

// ElectionSample represents a single sample election: a candidate roster,
// raw ballots as label-to-rank maps, and the profile it was generated with.
type ElectionSample struct {
	// ID uniquely identifies this election in the dataset.
	ID string `json:"id"`

	// Candidates is the roster of candidate labels in matrix order.
	Candidates []string `json:"candidates"`

	// Ballots holds the raw ballots; omitted candidates are abstentions.
	Ballots []map[string]int `json:"ballots"`

	// Profile names the generation profile (landslide, cycle, random).
	Profile string `json:"profile,omitempty"`
}

// DatasetMetadata contains information about the dataset itself.
type DatasetMetadata struct {
	// Name identifies the dataset.
	Name string `json:"name"`

	// Version tracks dataset revisions.
	Version string `json:"version"`

	// Source indicates where the dataset originated.
	Source string `json:"source"`

	// Description provides details about the dataset contents.
	Description string `json:"description"`

	// Size indicates the total number of elections.
	Size int `json:"election_count"`
}

// LoadElectionDataset loads an election dataset from a JSON file.
// It validates the dataset structure and ensures all required fields
// are present.
func LoadElectionDataset(path string) (*ElectionDataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset file: %w", err)
	}

	var dataset ElectionDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		return nil, fmt.Errorf("failed to parse dataset JSON: %w", err)
	}

	if err := ValidateElectionDataset(&dataset); err != nil {
		return nil, fmt.Errorf("dataset validation failed: %w", err)
	}

	return &dataset, nil
}

// ValidateElectionDataset ensures a dataset meets the requirements for
// benchmarking: complete metadata, unique election IDs, and well-formed
// elections.
func ValidateElectionDataset(dataset *ElectionDataset) error {
	if dataset == nil {
		return fmt.Errorf("dataset is nil")
	}

	if err := validateMetadata(&dataset.Metadata); err != nil {
		return fmt.Errorf("metadata validation failed: %w", err)
	}

	if len(dataset.Elections) < MinimumDatasetSize {
		return fmt.Errorf("dataset must contain at least %d elections, found %d",
			MinimumDatasetSize, len(dataset.Elections))
	}

	seenIDs := make(map[string]bool)
	for i, e := range dataset.Elections {
		if err := validateElection(&e); err != nil {
			return fmt.Errorf("election %d validation failed: %w", i, err)
		}

		if seenIDs[e.ID] {
			return fmt.Errorf("duplicate election ID: %s", e.ID)
		}
		seenIDs[e.ID] = true
	}

	if dataset.Metadata.Size != len(dataset.Elections) {
		return fmt.Errorf("metadata size (%d) doesn't match actual election count (%d)",
			dataset.Metadata.Size, len(dataset.Elections))
	}

	return nil
}

// validateMetadata ensures dataset metadata is complete.
func validateMetadata(meta *DatasetMetadata) error {
	if meta.Name == "" {
		return fmt.Errorf("dataset name is required")
	}
	if meta.Version == "" {
		return fmt.Errorf("dataset version is required")
	}
	if meta.Source == "" {
		return fmt.Errorf("dataset source is required")
	}
	if meta.Size <= 0 {
		return fmt.Errorf("dataset size must be positive")
	}

	return nil
}

// validateElection ensures a single sample election is well-formed:
// unique candidate labels, non-empty ballots, and ballot entries that
// reference roster candidates with positive ranks.
func validateElection(e *ElectionSample) error {
	if e.ID == "" {
		return fmt.Errorf("election ID is required")
	}
	if len(e.Candidates) < 2 {
		return fmt.Errorf("election must have at least 2 candidates, found %d", len(e.Candidates))
	}
	if len(e.Ballots) == 0 {
		return fmt.Errorf("election must have at least 1 ballot")
	}

	roster := make(map[string]bool, len(e.Candidates))
	for _, label := range e.Candidates {
		if label == "" {
			return fmt.Errorf("candidate labels cannot be empty")
		}
		if roster[label] {
			return fmt.Errorf("duplicate candidate label: %s", label)
		}
		roster[label] = true
	}

	for i, ballot := range e.Ballots {
		if len(ballot) == 0 {
			return fmt.Errorf("ballot %d expresses no preferences", i)
		}
		for label, rank := range ballot {
			if !roster[label] {
				return fmt.Errorf("ballot %d ranks unknown candidate: %s", i, label)
			}
			if rank < 1 || rank > len(e.Candidates) {
				return fmt.Errorf("ballot %d: rank %d for %s out of range", i, rank, label)
			}
		}
	}

	return nil
}

// DatasetStatistics provides summary statistics about an election dataset.
type DatasetStatistics struct {
	// TotalElections is the number of elections in the dataset.
	TotalElections int

	// ProfileCount maps generation profiles to election counts.
	ProfileCount map[string]int

	// TotalBallots is the total ballot count across all elections.
	TotalBallots int

	// AvgCandidates is the average roster size.
	AvgCandidates float64

	// MinCandidates is the smallest roster in the dataset.
	MinCandidates int

	// MaxCandidates is the largest roster in the dataset.
	MaxCandidates int
}

// ComputeDatasetStatistics analyzes an election dataset and returns
// summary statistics.
func ComputeDatasetStatistics(dataset *ElectionDataset) *DatasetStatistics {
	stats := &DatasetStatistics{
		TotalElections: len(dataset.Elections),
		ProfileCount:   make(map[string]int),
		MinCandidates:  int(^uint(0) >> 1), // Max int
		MaxCandidates:  0,
	}

	totalCandidates := 0
	for _, e := range dataset.Elections {
		if e.Profile != "" {
			stats.ProfileCount[e.Profile]++
		} else {
			stats.ProfileCount["unspecified"]++
		}

		stats.TotalBallots += len(e.Ballots)

		rosterSize := len(e.Candidates)
		totalCandidates += rosterSize
		if rosterSize < stats.MinCandidates {
			stats.MinCandidates = rosterSize
		}
		if rosterSize > stats.MaxCandidates {
			stats.MaxCandidates = rosterSize
		}
	}

	if stats.TotalElections > 0 {
		stats.AvgCandidates = float64(totalCandidates) / float64(stats.TotalElections)
	}

	return stats
}

// SaveElectionDataset writes an election dataset to a JSON file.
func SaveElectionDataset(dataset *ElectionDataset, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(dataset, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write dataset file: %w", err)
	}

	return nil
}
