package bonds

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"bondradar-backend/lib/scrapers/smartlab"
	"bondradar-backend/lib/telemetry"
	"bondradar-backend/lib/timezone"

	"github.com/stretchr/testify/require"
)

type fakeFetch struct {
	calls      int
	lastCount  int
	err        error
	population int
}

func (f *fakeFetch) fetch(_ context.Context, count int) ([]smartlab.Bond, error) {
	f.calls++
	f.lastCount = count
	if f.err != nil {
		return nil, f.err
	}
	n := count
	if f.population > 0 && f.population < n {
		n = f.population
	}
	bonds := make([]smartlab.Bond, n)
	for i := range bonds {
		bonds[i] = smartlab.Bond{
			Name:  fmt.Sprintf("bond-%d", i),
			Yield: float64(100 - i),
		}
	}
	return bonds, nil
}

func setupService(t *testing.T, fake *fakeFetch) (*Service, *time.Time) {
	cleanup := telemetry.SetupForTesting(t, "test:services/bonds")
	t.Cleanup(cleanup)

	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(fake.fetch, Options{
		TTL: time.Hour,
		Now: func() time.Time { return now },
	})
	return svc, &now
}

func TestTopServesFromCacheWithinTTL(t *testing.T) {
	fake := &fakeFetch{}
	svc, _ := setupService(t, fake)
	ctx := context.Background()

	first, err := svc.Top(ctx, 5)
	require.NoError(t, err)
	require.Len(t, first, 5)

	second, err := svc.Top(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, first, second)

	require.Equal(t, 1, fake.calls)
}

func TestTopSmallerCountIsACacheHit(t *testing.T) {
	fake := &fakeFetch{}
	svc, _ := setupService(t, fake)
	ctx := context.Background()

	_, err := svc.Top(ctx, 5)
	require.NoError(t, err)

	smaller, err := svc.Top(ctx, 3)
	require.NoError(t, err)
	require.Len(t, smaller, 3)
	require.Equal(t, 1, fake.calls)
}

func TestTopLargerCountRefetches(t *testing.T) {
	fake := &fakeFetch{}
	svc, _ := setupService(t, fake)
	ctx := context.Background()

	_, err := svc.Top(ctx, 5)
	require.NoError(t, err)

	larger, err := svc.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, larger, 10)
	require.Equal(t, 2, fake.calls)
	require.Equal(t, 10, fake.lastCount)
}

func TestTopOverFetchesSmallCounts(t *testing.T) {
	fake := &fakeFetch{}
	svc, _ := setupService(t, fake)

	got, err := svc.Top(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// fetched 5 so the next request up to 5 stays a cache hit
	require.Equal(t, 5, fake.lastCount)

	_, err = svc.Top(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, 1, fake.calls)
}

func TestTopExpiredSnapshotRefetches(t *testing.T) {
	fake := &fakeFetch{}
	svc, now := setupService(t, fake)
	ctx := context.Background()

	_, err := svc.Top(ctx, 5)
	require.NoError(t, err)

	*now = now.Add(time.Hour + time.Minute)
	_, err = svc.Top(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, 2, fake.calls)
}

func TestTopFetchFailureDoesNotServeStale(t *testing.T) {
	fake := &fakeFetch{}
	svc, now := setupService(t, fake)
	ctx := context.Background()

	_, err := svc.Top(ctx, 5)
	require.NoError(t, err)

	*now = now.Add(2 * time.Hour)
	fake.err = errors.New("listing unreachable")

	_, err = svc.Top(ctx, 5)
	require.Error(t, err)
}

func TestTopRejectsNegativeCount(t *testing.T) {
	fake := &fakeFetch{}
	svc, _ := setupService(t, fake)

	_, err := svc.Top(context.Background(), -1)
	require.Error(t, err)
	require.Equal(t, 0, fake.calls)

	// a poisoned cache must not change the answer
	_, err = svc.Top(context.Background(), 5)
	require.NoError(t, err)
	_, err = svc.Top(context.Background(), -1)
	require.Error(t, err)
}

func TestTopShortPopulation(t *testing.T) {
	// the page can carry fewer rows than requested
	fake := &fakeFetch{population: 3}
	svc, _ := setupService(t, fake)

	got, err := svc.Top(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
}

func TestLastRefresh(t *testing.T) {
	fake := &fakeFetch{}
	svc, now := setupService(t, fake)

	_, ok := svc.LastRefresh()
	require.False(t, ok)

	_, err := svc.Top(context.Background(), 5)
	require.NoError(t, err)

	at, ok := svc.LastRefresh()
	require.True(t, ok)
	require.Equal(t, *now, at)
}

func TestExtractRankRenderEndToEnd(t *testing.T) {
	markup := `<html><body><table>
		<tr><th>Имя</th><th>Доходность</th><th>Рейтинг</th></tr>
		<tr><td><a href="/q/bonds/RU000A000001/" title="Бонд А (RU000A000001)">Бонд А</a></td><td>8,75%</td><td>N/A</td></tr>
		<tr><td><a href="/q/bonds/RU000A000002/" title="Бонд Б (RU000A000002)">Бонд Б</a></td><td>12.50%</td><td>AA</td></tr>
	</table></body></html>`

	now := time.Date(2024, time.June, 1, 0, 0, 0, 0, timezone.Location)
	extracted, err := smartlab.Extract(markup, smartlab.DefaultMatchers(), now)
	require.NoError(t, err)
	require.Len(t, extracted, 2)

	ranked, err := Rank(extracted, 2)
	require.NoError(t, err)
	require.Equal(t, 12.5, ranked[0].Yield)
	require.Equal(t, 8.75, ranked[1].Yield)

	out := PlainTable(ranked)
	require.Contains(t, out, "12.50%")
	require.Contains(t, out, "8.75%")
}
