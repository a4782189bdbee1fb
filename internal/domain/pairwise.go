package domain

import "fmt"

// PairwiseMatrix is an n x n matrix of pairwise preference counts over an
// active candidate subset: cell (i, j) holds the number of ballots ranking
// candidate i strictly better than candidate j. The diagonal carries no
// meaning and is always zero. For i != j with strict per-ballot rankings,
// Cells(i,j) + Cells(j,i) equals the number of ballots expressing a strict
// preference between i and j.
type PairwiseMatrix struct {
	// Labels holds the candidate labels of the active subset, in the order
	// that fixes the matrix indexing.
	Labels []string `json:"labels"`

	// N is the active candidate count (matrix order).
	N int `json:"n"`

	// Cells is the row-major count buffer, N*N cells.
	Cells []int `json:"cells"`
}

// At returns the number of ballots preferring candidate i over candidate j.
func (pm *PairwiseMatrix) At(i, j int) int { return pm.Cells[i*pm.N+j] }

// ComputePairwise computes the pairwise preference count matrix for the
// candidates selected by active, which holds row indexes into rm. A nil
// active selects all candidates. Ballots ranking a pair equally (possible
// only when both preferences are unexpressed) count toward neither side.
//
// The computation iterates ballots directly for each unordered pair over the
// flat rank buffer, with no transposition and no intermediate allocation
// beyond the result. It is a pure function of its input.
func ComputePairwise(rm *RankMatrix, active []int) (*PairwiseMatrix, error) {
	total := len(rm.Candidates)
	if active == nil {
		active = make([]int, total)
		for i := range active {
			active[i] = i
		}
	}

	n := len(active)
	if n == 0 {
		return nil, fmt.Errorf("compute pairwise: empty active candidate set: %w", ErrInvalidState)
	}
	for _, c := range active {
		if c < 0 || c >= total {
			return nil, fmt.Errorf("compute pairwise: active index %d out of range 0..%d: %w", c, total-1, ErrInvalidState)
		}
	}

	m := rm.Ballots
	labels := make([]string, n)
	for i, c := range active {
		labels[i] = rm.Candidates[c]
	}

	cells := make([]int, n*n)
	for i := 0; i < n; i++ {
		rowI := rm.Ranks[active[i]*m : active[i]*m+m]
		for j := i + 1; j < n; j++ {
			rowJ := rm.Ranks[active[j]*m : active[j]*m+m]

			var winsI, winsJ int
			for b := 0; b < m; b++ {
				if rowI[b] < rowJ[b] {
					winsI++
				} else if rowJ[b] < rowI[b] {
					winsJ++
				}
			}
			cells[i*n+j] = winsI
			cells[j*n+i] = winsJ
		}
	}

	return &PairwiseMatrix{Labels: labels, N: n, Cells: cells}, nil
}
