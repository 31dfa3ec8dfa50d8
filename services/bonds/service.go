package bonds

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bondradar-backend/lib/scrapers/smartlab"
	"bondradar-backend/lib/telemetry"
	"bondradar-backend/lib/timezone"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("bondradar.services.bonds")

const (
	// over-fetching keeps subsequent larger requests inside the cached
	// snapshot instead of costing another page download
	minFetchCount = 5
	maxFetchCount = 20
)

// FetchFunc produces the top `count` bonds by yield, freshly scraped.
type FetchFunc func(ctx context.Context, count int) ([]smartlab.Bond, error)

// ListingFetch builds the production FetchFunc: download the listing,
// extract and rank.
func ListingFetch(client *smartlab.Client, m smartlab.Matchers, now func() time.Time) FetchFunc {
	return func(ctx context.Context, count int) ([]smartlab.Bond, error) {
		markup, err := client.FetchListing(ctx)
		if err != nil {
			return nil, err
		}
		extracted, err := smartlab.Extract(markup, m, now())
		if err != nil {
			return nil, err
		}
		return Rank(extracted, count)
	}
}

type Options struct {
	// defaults to one hour
	TTL time.Duration
	// defaults to timezone.Now
	Now func() time.Time
}

// Service serves ranked bond snapshots from a single-entry cache in front
// of the scraper. The whole snapshot is superseded on refresh, never
// merged.
type Service struct {
	fetch FetchFunc
	ttl   time.Duration
	now   func() time.Time

	// guards one fetch-process cycle at a time; a bot poll and a report
	// run arriving together must not race to repopulate the cache
	mu        sync.Mutex
	fetchedAt time.Time
	cached    []smartlab.Bond
}

func NewService(fetch FetchFunc, opts Options) *Service {
	if opts.TTL == 0 {
		opts.TTL = time.Hour
	}
	if opts.Now == nil {
		opts.Now = timezone.Now
	}
	return &Service{
		fetch: fetch,
		ttl:   opts.TTL,
		now:   opts.Now,
	}
}

// Top returns the `count` highest-yield bonds, served from cache when the
// snapshot is fresh enough and large enough, otherwise re-scraped. A
// failed fetch propagates even when a stale snapshot exists: for yield
// numbers, freshness beats availability.
func (s *Service) Top(ctx context.Context, count int) ([]smartlab.Bond, error) {
	if count < 0 {
		return nil, fmt.Errorf("bonds: negative count %d", count)
	}

	ctx, span := tracer.Start(ctx, "Top")
	defer span.End()
	span.SetAttributes(attribute.Int("count", count))

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.cached != nil && now.Sub(s.fetchedAt) < s.ttl && len(s.cached) >= count {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return s.cached[:count], nil
	}

	fetchCount := clampFetchCount(count)
	bonds, err := s.fetch(ctx, fetchCount)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch bonds")
		return nil, err
	}

	s.fetchedAt = now
	s.cached = bonds

	if count < len(bonds) {
		return bonds[:count], nil
	}
	return bonds, nil
}

// LastRefresh reports when the current snapshot was fetched; ok is false
// before the first successful fetch.
func (s *Service) LastRefresh() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchedAt, s.cached != nil
}

func clampFetchCount(count int) int {
	if count < minFetchCount {
		return minFetchCount
	}
	if count > maxFetchCount {
		return maxFetchCount
	}
	return count
}
