package smartlab

import "bondradar-backend/lib/textutil"

// Matchers map semantic bond fields onto page columns by sniffing header
// text. The literals mirror the wording of the smart-lab listing page, so
// a layout change means swapping a matcher, not rewriting extraction.
type Matchers struct {
	Name     textutil.Matcher
	Yield    textutil.Matcher
	Rating   textutil.Matcher
	Maturity textutil.Matcher
	Offer    textutil.Matcher
}

// DefaultMatchers returns the markers of the current smart-lab bond
// listing. The maturity header carries a line break ("Лет до<br/>погаш."),
// which is why matching runs over normalized text.
func DefaultMatchers() Matchers {
	return Matchers{
		Name:     textutil.Contains("Имя"),
		Yield:    textutil.Contains("Доходн"),
		Rating:   textutil.Contains("Рейтинг"),
		Maturity: textutil.Contains("Лет до"),
		Offer:    textutil.Contains("Оферта"),
	}
}

// FuzzyMatchers tolerates small header rewordings at the cost of a
// slightly higher chance of picking the wrong column.
func FuzzyMatchers(threshold float64) Matchers {
	return Matchers{
		Name:     textutil.Fuzzy("Имя", threshold),
		Yield:    textutil.Fuzzy("Доходность", threshold),
		Rating:   textutil.Fuzzy("Рейтинг", threshold),
		Maturity: textutil.Fuzzy("Лет до погаш.", threshold),
		Offer:    textutil.Fuzzy("Оферта", threshold),
	}
}
