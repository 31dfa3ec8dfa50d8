package bonds

import (
	"fmt"
	"slices"

	"bondradar-backend/lib/scrapers/smartlab"
)

// Rank orders bonds by yield to maturity, highest first, and truncates to
// count. The sort is stable so equal yields keep their page order, which
// keeps output deterministic. Callers are expected to clamp count to a
// sane range; the only rejected value is a negative one.
func Rank(bonds []smartlab.Bond, count int) ([]smartlab.Bond, error) {
	if count < 0 {
		return nil, fmt.Errorf("bonds: negative count %d", count)
	}

	ranked := slices.Clone(bonds)
	slices.SortStableFunc(ranked, func(a, b smartlab.Bond) int {
		if a.Yield > b.Yield {
			return -1
		}
		if a.Yield < b.Yield {
			return 1
		}
		return 0
	})

	if count < len(ranked) {
		ranked = ranked[:count]
	}
	return ranked, nil
}
