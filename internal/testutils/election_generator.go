// Package testutils provides utilities for testing, including sample
// election generators. These components are intended for internal use
// within the project's test suites and are not part of the public API.
package testutils

import (
	"fmt"
	"math/rand"
	"time"
)

// GenerateSampleElectionDataset creates a sample election dataset for
// testing and benchmarking. The seed parameter controls randomization;
// use time.Now().UnixNano() for non-deterministic generation or a fixed
// value for reproducible tests.
func GenerateSampleElectionDataset(size int, seed int64) *ElectionDataset {
	rng := rand.New(rand.NewSource(seed))

	dataset := &ElectionDataset{
		Metadata: DatasetMetadata{
			Name:        "Sample Election Dataset",
			Version:     "1.0.0",
			Source:      "Generated for testing",
			Description: "A sample dataset generated for exercising the tally pipeline. NOT REAL ELECTION DATA.",
			Size:        size,
		},
		Elections: make([]ElectionSample, 0, size),
	}

	profiles := []string{ProfileLandslide, ProfileCycle, ProfileRandom}

	for i := range size {
		profile := profiles[rng.Intn(len(profiles))]
		dataset.Elections = append(dataset.Elections, generateElection(rng, i, profile))
	}

	return dataset
}

// GenerateSampleElectionDatasetDefault creates a dataset with a
// time-based seed.
func GenerateSampleElectionDatasetDefault(size int) *ElectionDataset {
	return GenerateSampleElectionDataset(size, time.Now().UnixNano())
}

func generateElection(rng *rand.Rand, index int, profile string) ElectionSample {
	n := 3 + rng.Intn(6) // 3 to 8 candidates
	candidates := make([]string, n)
	for c := range n {
		candidates[c] = fmt.Sprintf("candidate-%c", 'A'+c)
	}

	m := 10 + rng.Intn(91) // 10 to 100 ballots

	var ballots []map[string]int
	switch profile {
	case ProfileLandslide:
		ballots = generateLandslideBallots(rng, candidates, m)
	case ProfileCycle:
		ballots = generateCycleBallots(rng, candidates, m)
	default:
		ballots = generateRandomBallots(rng, candidates, m)
	}

	return ElectionSample{
		ID:         fmt.Sprintf("e%d", index),
		Candidates: candidates,
		Ballots:    ballots,
		Profile:    profile,
	}
}

// generateLandslideBallots produces ballots that mostly agree with the
// roster order, with a small dissenting minority. The resulting elections
// have Condorcet winners in every extraction round.
func generateLandslideBallots(rng *rand.Rand, candidates []string, m int) []map[string]int {
	n := len(candidates)
	ballots := make([]map[string]int, m)

	for b := range m {
		ballot := make(map[string]int, n)
		if rng.Intn(10) == 0 {
			// Occasional dissenter swaps two adjacent candidates.
			swap := rng.Intn(n - 1)
			for c, label := range candidates {
				rank := c + 1
				switch c {
				case swap:
					rank = c + 2
				case swap + 1:
					rank = c
				}
				ballot[label] = rank
			}
		} else {
			for c, label := range candidates {
				ballot[label] = c + 1
			}
		}
		ballots[b] = ballot
	}

	return ballots
}

// generateCycleBallots produces rotated preference orders so pairwise
// majorities chase each other in a cycle and no Condorcet winner exists.
// Rotation weights are uneven so beatpath strengths still differ.
func generateCycleBallots(rng *rand.Rand, candidates []string, m int) []map[string]int {
	n := len(candidates)
	ballots := make([]map[string]int, m)

	for b := range m {
		// Bias toward lower rotations so the cycle is asymmetric:
		// rotation r is drawn with weight n-r.
		draw := rng.Intn(n * (n + 1) / 2)
		offset := 0
		for r, cum := 0, 0; r < n; r++ {
			cum += n - r
			if draw < cum {
				offset = r
				break
			}
		}

		ballot := make(map[string]int, n)
		for c, label := range candidates {
			ballot[label] = (c-offset+n)%n + 1
		}
		ballots[b] = ballot
	}

	return ballots
}

// generateRandomBallots produces uniformly random permutations with
// roughly one ballot in five leaving some candidates unranked.
func generateRandomBallots(rng *rand.Rand, candidates []string, m int) []map[string]int {
	n := len(candidates)
	ballots := make([]map[string]int, m)

	for b := range m {
		perm := rng.Perm(n)

		expressed := n
		if rng.Intn(5) == 0 {
			// Truncated ballot: the voter ranks only their top choices.
			expressed = 1 + rng.Intn(n-1)
		}

		ballot := make(map[string]int, expressed)
		for rank := range expressed {
			ballot[candidates[perm[rank]]] = rank + 1
		}
		ballots[b] = ballot
	}

	return ballots
}
