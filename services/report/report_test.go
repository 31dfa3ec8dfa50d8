package report

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bondradar-backend/lib/scrapers/smartlab"
	"bondradar-backend/lib/telemetry"
	"bondradar-backend/services/bonds"

	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2024, time.June, 1, 10, 30, 0, 0, time.UTC)
}

func staticFetch(result []smartlab.Bond, err error) bonds.FetchFunc {
	return func(_ context.Context, count int) ([]smartlab.Bond, error) {
		if err != nil {
			return nil, err
		}
		if count < len(result) {
			return result[:count], nil
		}
		return result, nil
	}
}

func TestBuild(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/report")
	defer cleanup()

	fetch := staticFetch([]smartlab.Bond{
		{ISIN: "RU000A000001", Name: "Бонд А", Yield: 15.2, Rating: "A", MaturityDisplay: "3.0 years", OfferDate: smartlab.Unknown},
		{ISIN: "RU000A000002", Name: "Бонд Б", Yield: 11.1, Rating: "BBB", MaturityDisplay: "1.5 years", OfferDate: smartlab.Unknown},
	}, nil)
	svc := NewService(
		bonds.NewService(fetch, bonds.Options{Now: fixedNow}),
		Options{Count: 2, Now: fixedNow},
	)

	report, err := svc.Build(context.Background())
	require.NoError(t, err)

	require.Contains(t, report, "Top 2 bonds by yield to maturity")
	require.Contains(t, report, "15.20%")
	require.Contains(t, report, "Data from smart-lab.ru")
	require.Contains(t, report, "Generated at 2024-06-01 10:30:00")

	// deterministic for the same snapshot
	again, err := svc.Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, report, again)
}

func TestBuildPropagatesFetchFailure(t *testing.T) {
	svc := NewService(
		bonds.NewService(staticFetch(nil, errors.New("listing down")), bonds.Options{Now: fixedNow}),
		Options{Count: 5, Now: fixedNow},
	)

	_, err := svc.Build(context.Background())
	require.Error(t, err)
}

func TestRunSavesReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bonds_report.txt")
	fetch := staticFetch([]smartlab.Bond{
		{ISIN: "RU000A000001", Name: "Бонд", Yield: 9.9, Rating: "BB", MaturityDisplay: "2.0 years", OfferDate: smartlab.Unknown},
	}, nil)
	svc := NewService(
		bonds.NewService(fetch, bonds.Options{Now: fixedNow}),
		Options{Count: 1, OutputPath: path, Now: fixedNow},
	)

	err := svc.Run(context.Background())
	require.NoError(t, err)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(contents), "9.90%")
}

func TestRunAbsorbsSinkFailure(t *testing.T) {
	fetch := staticFetch([]smartlab.Bond{
		{ISIN: "RU000A000001", Name: "Бонд", Yield: 9.9, Rating: "BB", MaturityDisplay: "2.0 years", OfferDate: smartlab.Unknown},
	}, nil)
	svc := NewService(
		bonds.NewService(fetch, bonds.Options{Now: fixedNow}),
		Options{
			Count:      1,
			OutputPath: filepath.Join(t.TempDir(), "missing", "nested", "report.txt"),
			Now:        fixedNow,
		},
	)

	// an unwritable sink must not kill a scheduled cycle
	err := svc.Run(context.Background())
	require.NoError(t, err)
}
