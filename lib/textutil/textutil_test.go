package textutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestContains(t *testing.T) {
	m := Contains("Доходн")
	require.True(t, m("Доходность"))
	require.True(t, m("  доходн.\nк погаш."))
	require.False(t, m("Рейтинг"))
}

func TestFuzzy(t *testing.T) {
	m := Fuzzy("Лет до погаш.", 0.9)
	require.True(t, m("Лет до\nпогаш."))
	require.True(t, m("Лет до погашен."))
	require.False(t, m("Оферта"))
}

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		in       string
		expected float64
		ok       bool
	}{
		{"12.50%", 12.5, true},
		{"8,75", 8.75, true},
		{" 3,2 ", 3.2, true},
		{"-", 0, false},
		{"", 0, false},
		{"abc", 0, false},
	}

	for _, test := range cases {
		got, err := ParseDecimal(test.in)
		if !test.ok {
			require.Error(t, err, test.in)
			continue
		}
		require.NoError(t, err, test.in)
		require.Equal(t, test.expected, got, test.in)
	}
}

func TestParseDayMonthYear(t *testing.T) {
	got, err := ParseDayMonthYear("31.12.24", time.UTC)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseDayMonthYear("01.01.2020", time.UTC)
	require.NoError(t, err)
	require.Equal(t, time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseDayMonthYear("31.13.24", time.UTC)
	require.Error(t, err)
	_, err = ParseDayMonthYear("-", time.UTC)
	require.Error(t, err)
}
