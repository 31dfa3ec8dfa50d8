package bonds

import (
	"testing"

	"bondradar-backend/lib/scrapers/smartlab"

	"github.com/stretchr/testify/require"
)

func TestRank(t *testing.T) {
	input := []smartlab.Bond{
		{Name: "low", Yield: 4.2},
		{Name: "high", Yield: 19.9},
		{Name: "mid", Yield: 11.0},
	}

	ranked, err := Rank(input, 2)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	require.Equal(t, "high", ranked[0].Name)
	require.Equal(t, "mid", ranked[1].Name)

	// input order untouched
	require.Equal(t, "low", input[0].Name)
}

func TestRankIsStable(t *testing.T) {
	input := []smartlab.Bond{
		{Name: "first", Yield: 10},
		{Name: "second", Yield: 10},
		{Name: "third", Yield: 10},
		{Name: "top", Yield: 12},
	}

	ranked, err := Rank(input, 10)
	require.NoError(t, err)
	require.Equal(t, []string{"top", "first", "second", "third"}, []string{
		ranked[0].Name, ranked[1].Name, ranked[2].Name, ranked[3].Name,
	})
}

func TestRankCountLargerThanInput(t *testing.T) {
	ranked, err := Rank([]smartlab.Bond{{Yield: 1}}, 20)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
}

func TestRankNegativeCount(t *testing.T) {
	_, err := Rank(nil, -1)
	require.Error(t, err)
}

func TestRankZeroCount(t *testing.T) {
	ranked, err := Rank([]smartlab.Bond{{Yield: 1}}, 0)
	require.NoError(t, err)
	require.Empty(t, ranked)
}
