package textutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// Matcher is a predicate over scraped header or table text. Remote pages
// rename and reorder their columns over time, so which marker identifies
// which column is configuration, not code.
type Matcher func(text string) bool

// Contains matches text that contains the marker, ignoring case and
// whitespace on both sides.
func Contains(marker string) Matcher {
	marker = NormalizeName(marker)
	return func(text string) bool {
		return strings.Contains(NormalizeName(text), marker)
	}
}

// Fuzzy behaves like Contains but additionally accepts headers whose
// JaroWinkler similarity to the marker clears the threshold, which keeps
// column resolution working through small header rewordings.
func Fuzzy(marker string, threshold float64) Matcher {
	normalized := NormalizeName(marker)
	return func(text string) bool {
		text = NormalizeName(text)
		if strings.Contains(text, normalized) {
			return true
		}
		return matchr.JaroWinkler(text, normalized, false) >= threshold
	}
}

// ParseDecimal parses a locale-formatted number: percent signs are
// dropped and a decimal comma is treated as a decimal point.
func ParseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "%", "")
	s = strings.ReplaceAll(s, ",", ".")
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// ParseDayMonthYear parses a "31.12.2024" style date. Two digit years are
// assumed to mean 20xx.
func ParseDayMonthYear(s string, loc *time.Location) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("expected day.month.year, got %q", s)
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("day in %q: %w", s, err)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("month in %q: %w", s, err)
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("year in %q: %w", s, err)
	}
	if year < 100 {
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("out of range date %q", s)
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc), nil
}
