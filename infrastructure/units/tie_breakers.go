package units

import (
	"fmt"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/ahrav/go-tally/internal/domain"
)

// NewTieBreak maps a configured strategy to the TieBreakFunc the domain
// ranker consumes. TieError maps to nil: the ranker then reports the
// ambiguity as a NoUniqueWinnerError instead of resolving it.
func NewTieBreak(strategy TieBreak) (domain.TieBreakFunc, error) {
	switch strategy {
	case TieError:
		return nil, nil
	case TieFirst:
		return breakTieFirst, nil
	case TieLexicographic:
		return breakTieLexicographic, nil
	default:
		return nil, fmt.Errorf("unknown tie-break strategy %q", strategy)
	}
}

// breakTieFirst picks the tied candidate that appears first in matrix order.
func breakTieFirst(_ int, tied []string) (string, error) {
	if len(tied) == 0 {
		return "", fmt.Errorf("tie-break invoked with no candidates")
	}
	return tied[0], nil
}

// breakTieLexicographic picks the tied candidate whose label collates first.
// A collator is built per invocation; collate.Collator is not safe for
// concurrent use and tie-breaks are rare enough that construction cost is
// irrelevant.
func breakTieLexicographic(_ int, tied []string) (string, error) {
	if len(tied) == 0 {
		return "", fmt.Errorf("tie-break invoked with no candidates")
	}

	collator := collate.New(language.Und)
	best := tied[0]
	for _, label := range tied[1:] {
		if collator.CompareString(label, best) < 0 {
			best = label
		}
	}
	return best, nil
}
