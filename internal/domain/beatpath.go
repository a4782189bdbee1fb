package domain

// BeatpathMatrix is an n x n matrix of strongest-beatpath strengths derived
// from a PairwiseMatrix: cell (i, j) holds the strength of the strongest
// directed path from i to j in the graph whose edge i->j carries weight
// Pairwise(i,j) whenever Pairwise(i,j) > Pairwise(j,i), and zero otherwise.
// A path's strength is its weakest link; the matrix holds the maximum over
// all paths. The diagonal is always zero.
type BeatpathMatrix struct {
	// Labels holds the candidate labels in the same order as the source
	// pairwise matrix.
	Labels []string `json:"labels"`

	// N is the matrix order.
	N int `json:"n"`

	// Cells is the row-major strength buffer, N*N cells.
	Cells []int `json:"cells"`
}

// At returns the strongest-beatpath strength from candidate i to candidate j.
func (bm *BeatpathMatrix) At(i, j int) int { return bm.Cells[i*bm.N+j] }

// ComputeBeatpaths computes the strongest-beatpath matrix from a pairwise
// preference matrix via transitive strengthening under the (max, min)
// semiring.
//
// Seed: for i != j, p(i,j) = Pairwise(i,j) if Pairwise(i,j) > Pairwise(j,i),
// else 0; the diagonal stays 0. Strengthen: for each intermediate k, for each
// i != k and j != i, j != k, p(i,j) = max(p(i,j), min(p(i,k), p(k,j))).
// The loop order is fixed (k outermost, then i, then j) so accumulation is
// deterministic. Time O(n^3), extra space O(1) beyond the result buffer.
// Pure function of its input; no error conditions.
func ComputeBeatpaths(pm *PairwiseMatrix) *BeatpathMatrix {
	n := pm.N
	cells := make([]int, n*n)

	// Seed with defeats only: the losing direction of every pair is zeroed.
	var i, j int
	for i = 0; i < n; i++ {
		for j = 0; j < n; j++ {
			if i == j {
				continue
			}
			if w := pm.Cells[i*n+j]; w > pm.Cells[j*n+i] {
				cells[i*n+j] = w
			}
		}
	}

	// Strengthen in place over the flat buffer. Row base offsets are hoisted
	// so the hot loops stay allocation-free.
	var (
		k            int
		baseK, baseI int
		ik, kj, cand int
	)
	for k = 0; k < n; k++ {
		baseK = k * n

		for i = 0; i < n; i++ {
			if i == k {
				continue
			}
			ik = cells[i*n+k]
			if ik == 0 {
				// No beatpath from i into k, so no path via k can help i.
				continue
			}
			baseI = i * n

			for j = 0; j < n; j++ {
				if j == i || j == k {
					continue
				}
				kj = cells[baseK+j]
				if kj == 0 {
					continue
				}
				cand = ik
				if kj < cand {
					cand = kj
				}
				if cand > cells[baseI+j] {
					cells[baseI+j] = cand
				}
			}
		}
	}

	return &BeatpathMatrix{
		Labels: append([]string(nil), pm.Labels...),
		N:      n,
		Cells:  cells,
	}
}
