package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/ahrav/go-tally/internal/testutils"
)

func main() {
	var (
		size       = flag.Int("size", 100, "Number of elections to generate")
		seed       = flag.Int64("seed", 0, "Random seed (0 uses the current time)")
		outputPath = flag.String("output", "testdata/election_dataset/sample_election_dataset.json", "Output file path")
	)
	flag.Parse()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	dataset := testutils.GenerateSampleElectionDataset(*size, *seed)

	if err := testutils.SaveElectionDataset(dataset, *outputPath); err != nil {
		log.Fatalf("Failed to save dataset: %v", err)
	}

	stats := testutils.ComputeDatasetStatistics(dataset)

	fmt.Printf("Generated election dataset:\n")
	fmt.Printf("- Path: %s\n", *outputPath)
	fmt.Printf("- Seed: %d\n", *seed)
	fmt.Printf("- Total elections: %d\n", stats.TotalElections)
	fmt.Printf("- Total ballots: %d\n", stats.TotalBallots)
	fmt.Printf("- Profiles: %v\n", stats.ProfileCount)
	fmt.Printf("- Candidates per election: min %d, avg %.2f, max %d\n",
		stats.MinCandidates, stats.AvgCandidates, stats.MaxCandidates)
	fmt.Printf("\nDataset saved successfully!\n")
}
