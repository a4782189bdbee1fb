package domain

// Method identifies which winner test placed a candidate at its position.
type Method string

const (
	// MethodCondorcet marks a candidate that beat every other active
	// candidate head-to-head in its round.
	MethodCondorcet Method = "condorcet"

	// MethodSchulze marks a candidate whose beatpath to every other active
	// candidate was stronger than the reverse beatpath.
	MethodSchulze Method = "schulze"

	// MethodUnresolved marks a candidate placed by a caller-supplied
	// tie-break after the Schulze test was ambiguous. The engine never
	// produces this method on its own.
	MethodUnresolved Method = "unresolved"
)

// String returns the string representation of the method.
func (m Method) String() string { return string(m) }

// RankEntry is one position in a completed ranking.
type RankEntry struct {
	// Candidate is the label of the ranked candidate.
	Candidate string `json:"candidate"`

	// Position is the 1-based rank, 1 being the overall winner.
	Position int `json:"position"`

	// Method records which winner test decided this position.
	Method Method `json:"method"`
}

// Ranking is the ordered result of repeated winner extraction, one entry per
// elimination round. Entries are immutable once their position is assigned.
type Ranking []RankEntry

// Candidates returns the ranked candidate labels in position order.
func (r Ranking) Candidates() []string {
	labels := make([]string, len(r))
	for i, entry := range r {
		labels[i] = entry.Candidate
	}
	return labels
}
