package unified_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/itzcole03/atlas/internal/cache"
	"github.com/itzcole03/atlas/internal/sports"
	"github.com/itzcole03/atlas/internal/unified"
	"github.com/itzcole03/atlas/pkg/models"
	"github.com/itzcole03/atlas/pkg/testutil"
)

// january: nba, nfl, and nhl are in season; mlb is not.
var january = time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)

func newService(opps *testutil.MockOpportunityProvider, props *testutil.MockPropsProvider) *unified.Service {
	normalizer := sports.NewNormalizer(sports.NewRegistry(), nil)
	return unified.NewService(unified.Config{}, opps, props, cache.NewMemory(64), normalizer, nil, nil)
}

func TestOpportunitiesCachedOnSecondCall(t *testing.T) {
	ctx := context.Background()

	opps := &testutil.MockOpportunityProvider{
		FetchOpportunitiesFunc: func(ctx context.Context, opts *models.FetchOptions) ([]models.BettingOpportunity, error) {
			return []models.BettingOpportunity{
				testutil.NewTestOpportunity("1", "nba", "Lakers", -110, 70),
			}, nil
		},
	}
	svc := newService(opps, &testutil.MockPropsProvider{})

	first := svc.GetBettingOpportunities(ctx, models.FetchFilters{Sport: "nba"})
	if !first.Success {
		t.Fatalf("first call failed: %s", first.Error)
	}
	if first.Cached {
		t.Error("first call should be a miss")
	}
	if first.Count != 1 {
		t.Errorf("Count = %d, want 1", first.Count)
	}

	second := svc.GetBettingOpportunities(ctx, models.FetchFilters{Sport: "nba"})
	if !second.Cached {
		t.Error("second call should be served from cache")
	}
	if got := opps.CallCount(); got != 1 {
		t.Errorf("provider called %d times, want 1", got)
	}
}

// Case variants of the same sport share one cache entry.
func TestOpportunitiesCacheKeyNormalized(t *testing.T) {
	ctx := context.Background()

	opps := &testutil.MockOpportunityProvider{}
	svc := newService(opps, &testutil.MockPropsProvider{})

	svc.GetBettingOpportunities(ctx, models.FetchFilters{Sport: "nba"})
	resp := svc.GetBettingOpportunities(ctx, models.FetchFilters{Sport: "NBA"})

	if !resp.Cached {
		t.Error("expected NBA to hit the nba cache entry")
	}
	if got := opps.CallCount(); got != 1 {
		t.Errorf("provider called %d times, want 1", got)
	}
}

// Upstream failures surface as Success=false envelopes, never as Go errors
// or panics.
func TestOpportunitiesProviderFailure(t *testing.T) {
	ctx := context.Background()

	opps := &testutil.MockOpportunityProvider{
		FetchOpportunitiesFunc: func(ctx context.Context, opts *models.FetchOptions) ([]models.BettingOpportunity, error) {
			return nil, errors.New("upstream down")
		},
	}
	svc := newService(opps, &testutil.MockPropsProvider{})

	resp := svc.GetBettingOpportunities(ctx, models.FetchFilters{Sport: "nba"})
	if resp == nil {
		t.Fatal("expected an envelope, got nil")
	}
	if resp.Success {
		t.Error("expected Success=false")
	}
	if resp.Error == "" {
		t.Error("expected an error message")
	}
	if resp.Data == nil || len(resp.Data) != 0 {
		t.Errorf("expected empty data slice, got %v", resp.Data)
	}

	// A failed fetch must not poison the cache.
	resp = svc.GetBettingOpportunities(ctx, models.FetchFilters{Sport: "nba"})
	if resp.Cached {
		t.Error("failure was cached")
	}
}

func TestWildcardFansOutOverInSeasonSports(t *testing.T) {
	ctx := context.Background()

	var mu sync.Mutex
	var fetched []string

	opps := &testutil.MockOpportunityProvider{
		FetchOpportunitiesFunc: func(ctx context.Context, opts *models.FetchOptions) ([]models.BettingOpportunity, error) {
			mu.Lock()
			fetched = append(fetched, opts.Sport)
			mu.Unlock()
			return []models.BettingOpportunity{
				testutil.NewTestOpportunity(opts.Sport, opts.Sport, "Team", -110, 70),
			}, nil
		},
	}
	svc := newService(opps, &testutil.MockPropsProvider{})
	svc.SetClock(func() time.Time { return january })

	resp := svc.GetBettingOpportunities(ctx, models.FetchFilters{Sport: "all"})
	if !resp.Success {
		t.Fatalf("wildcard fetch failed: %s", resp.Error)
	}

	mu.Lock()
	defer mu.Unlock()
	want := map[string]bool{"nba": true, "nfl": true, "nhl": true}
	if len(fetched) != len(want) {
		t.Fatalf("fetched %v, want in-season sports %v", fetched, want)
	}
	for _, sport := range fetched {
		if !want[sport] {
			t.Errorf("fetched out-of-season sport %q", sport)
		}
	}
}

// A partial fan-out failure still succeeds with whatever was fetched.
func TestWildcardToleratesPartialFailure(t *testing.T) {
	ctx := context.Background()

	opps := &testutil.MockOpportunityProvider{
		FetchOpportunitiesFunc: func(ctx context.Context, opts *models.FetchOptions) ([]models.BettingOpportunity, error) {
			if opts.Sport == "nba" {
				return nil, errors.New("nba endpoint down")
			}
			return []models.BettingOpportunity{
				testutil.NewTestOpportunity(opts.Sport, opts.Sport, "Team", -110, 70),
			}, nil
		},
	}
	svc := newService(opps, &testutil.MockPropsProvider{})
	svc.SetClock(func() time.Time { return january })

	resp := svc.GetBettingOpportunities(ctx, models.FetchFilters{Sport: "all"})
	if !resp.Success {
		t.Fatalf("expected partial success, got error: %s", resp.Error)
	}
	if resp.Count != 2 {
		t.Errorf("Count = %d, want 2", resp.Count)
	}
}

func TestOpportunitiesFilterPipeline(t *testing.T) {
	ctx := context.Background()

	opps := &testutil.MockOpportunityProvider{
		FetchOpportunitiesFunc: func(ctx context.Context, opts *models.FetchOptions) ([]models.BettingOpportunity, error) {
			return []models.BettingOpportunity{
				testutil.NewTestOpportunity("1", "NBA", "a", -110, 55),
				testutil.NewTestOpportunity("2", "basketball", "b", -110, 90),
				testutil.NewTestOpportunity("3", "nba", "c", -110, 75),
				testutil.NewTestOpportunity("4", "nba", "d", -110, 62),
			}, nil
		},
	}
	svc := newService(opps, &testutil.MockPropsProvider{})

	resp := svc.GetBettingOpportunities(ctx, models.FetchFilters{
		Sport:         "nba",
		MinConfidence: 60,
		SortBy:        "confidence",
		MaxResults:    2,
	})
	if !resp.Success {
		t.Fatalf("fetch failed: %s", resp.Error)
	}

	if resp.Count != 2 {
		t.Fatalf("Count = %d, want 2", resp.Count)
	}
	if resp.Data[0].ID != "2" || resp.Data[1].ID != "3" {
		t.Errorf("got %s, %s; want 2, 3", resp.Data[0].ID, resp.Data[1].ID)
	}
}

func TestPropsConfidenceClamped(t *testing.T) {
	ctx := context.Background()

	props := &testutil.MockPropsProvider{
		FetchPropsFunc: func(ctx context.Context, opts *models.FetchOptions) ([]models.PlayerProp, error) {
			return []models.PlayerProp{
				testutil.NewTestProp("low", "nba", "Player A", "points", 25.5, 10),
				testutil.NewTestProp("high", "nba", "Player B", "points", 8.5, 99),
			}, nil
		},
	}
	svc := newService(&testutil.MockOpportunityProvider{}, props)

	resp := svc.GetPlayerProps(ctx, models.FetchFilters{Sport: "nba"})
	if !resp.Success {
		t.Fatalf("fetch failed: %s", resp.Error)
	}

	for _, p := range resp.Data {
		if p.Confidence < 50 || p.Confidence > 95 {
			t.Errorf("prop %s confidence %v outside [50,95]", p.ID, p.Confidence)
		}
	}
}

// Concurrent identical misses collapse into one provider fetch.
func TestSingleFlightCollapsesConcurrentMisses(t *testing.T) {
	ctx := context.Background()

	release := make(chan struct{})
	opps := &testutil.MockOpportunityProvider{
		FetchOpportunitiesFunc: func(ctx context.Context, opts *models.FetchOptions) ([]models.BettingOpportunity, error) {
			<-release
			return []models.BettingOpportunity{
				testutil.NewTestOpportunity("1", "nba", "Lakers", -110, 70),
			}, nil
		},
	}
	svc := newService(opps, &testutil.MockPropsProvider{})

	const callers = 5
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			resp := svc.GetBettingOpportunities(ctx, models.FetchFilters{Sport: "nba"})
			if !resp.Success {
				t.Errorf("fetch failed: %s", resp.Error)
			}
		}()
	}

	// Give the callers time to pile onto the same in-flight key.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := opps.CallCount(); got != 1 {
		t.Errorf("provider called %d times, want 1", got)
	}
}

func TestGetAvailableSportsUnion(t *testing.T) {
	ctx := context.Background()

	opps := &testutil.MockOpportunityProvider{
		FetchOpportunitiesFunc: func(ctx context.Context, opts *models.FetchOptions) ([]models.BettingOpportunity, error) {
			return []models.BettingOpportunity{
				testutil.NewTestOpportunity("1", "nba", "Lakers", -110, 70),
			}, nil
		},
	}
	props := &testutil.MockPropsProvider{
		FetchPropsFunc: func(ctx context.Context, opts *models.FetchOptions) ([]models.PlayerProp, error) {
			return []models.PlayerProp{
				testutil.NewTestProp("1", "mlb", "Player", "hits", 1.5, 60),
			}, nil
		},
	}
	svc := newService(opps, props)
	svc.SetClock(func() time.Time { return january })

	resp := svc.GetAvailableSports(ctx)
	if !resp.Success {
		t.Fatalf("fetch failed: %s", resp.Error)
	}

	if resp.Data[0] != sports.Wildcard {
		t.Errorf("expected wildcard first, got %q", resp.Data[0])
	}
	got := make(map[string]bool, len(resp.Data))
	for _, id := range resp.Data {
		got[id] = true
	}
	for _, want := range []string{"nba", "mlb"} {
		if !got[want] {
			t.Errorf("expected %s in available sports %v", want, resp.Data)
		}
	}
}

// When every source fails the sports list degrades to the fallback majors
// instead of erroring.
func TestGetAvailableSportsFallback(t *testing.T) {
	ctx := context.Background()

	opps := &testutil.MockOpportunityProvider{
		FetchOpportunitiesFunc: func(ctx context.Context, opts *models.FetchOptions) ([]models.BettingOpportunity, error) {
			return nil, errors.New("down")
		},
	}
	props := &testutil.MockPropsProvider{
		FetchPropsFunc: func(ctx context.Context, opts *models.FetchOptions) ([]models.PlayerProp, error) {
			return nil, errors.New("down")
		},
	}
	svc := newService(opps, props)

	resp := svc.GetAvailableSports(ctx)
	if !resp.Success {
		t.Fatal("fallback list should still report success")
	}
	if len(resp.Data) == 0 || resp.Data[0] != sports.Wildcard {
		t.Errorf("expected fallback list starting with wildcard, got %v", resp.Data)
	}
}

type fakeNotifier struct {
	mu          sync.Mutex
	invalidated []string
	sportsSeen  [][]string
}

func (f *fakeNotifier) NotifyCacheInvalidated(sport string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, sport)
}

func (f *fakeNotifier) NotifySportsChanged(ids []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sportsSeen = append(f.sportsSeen, ids)
}

func TestInvalidateSport(t *testing.T) {
	ctx := context.Background()

	opps := &testutil.MockOpportunityProvider{
		FetchOpportunitiesFunc: func(ctx context.Context, opts *models.FetchOptions) ([]models.BettingOpportunity, error) {
			return []models.BettingOpportunity{
				testutil.NewTestOpportunity("1", opts.Sport, "Team", -110, 70),
			}, nil
		},
	}
	svc := newService(opps, &testutil.MockPropsProvider{})

	notifier := &fakeNotifier{}
	svc.SetNotifier(notifier)

	// Warm two sports.
	svc.GetBettingOpportunities(ctx, models.FetchFilters{Sport: "nba"})
	svc.GetBettingOpportunities(ctx, models.FetchFilters{Sport: "nhl"})

	if err := svc.InvalidateSport(ctx, "nba"); err != nil {
		t.Fatalf("InvalidateSport failed: %v", err)
	}

	// nba refetches, nhl stays cached.
	if resp := svc.GetBettingOpportunities(ctx, models.FetchFilters{Sport: "nba"}); resp.Cached {
		t.Error("nba still cached after invalidation")
	}
	if resp := svc.GetBettingOpportunities(ctx, models.FetchFilters{Sport: "nhl"}); !resp.Cached {
		t.Error("nhl entry lost by per-sport invalidation")
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.invalidated) != 1 || notifier.invalidated[0] != "nba" {
		t.Errorf("notifications = %v, want [nba]", notifier.invalidated)
	}
}

// Invalidating an unknown sport normalizes to the wildcard and clears
// everything.
func TestInvalidateUnknownSportClearsAll(t *testing.T) {
	ctx := context.Background()

	opps := &testutil.MockOpportunityProvider{}
	svc := newService(opps, &testutil.MockPropsProvider{})

	notifier := &fakeNotifier{}
	svc.SetNotifier(notifier)

	svc.GetBettingOpportunities(ctx, models.FetchFilters{Sport: "nba"})

	if err := svc.InvalidateSport(ctx, "quidditch"); err != nil {
		t.Fatalf("InvalidateSport failed: %v", err)
	}

	if resp := svc.GetBettingOpportunities(ctx, models.FetchFilters{Sport: "nba"}); resp.Cached {
		t.Error("cache survived full invalidation")
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.invalidated) != 1 || notifier.invalidated[0] != sports.Wildcard {
		t.Errorf("notifications = %v, want [all]", notifier.invalidated)
	}
}

func TestGetUpcomingEvents(t *testing.T) {
	ctx := context.Background()

	events := &testutil.MockEventProvider{
		FetchEventsFunc: func(ctx context.Context, sport string) ([]models.Event, error) {
			return []models.Event{
				testutil.NewTestEvent("e1", sport, "Lakers", "Celtics", 3),
			}, nil
		},
	}
	svc := newService(&testutil.MockOpportunityProvider{}, &testutil.MockPropsProvider{})
	svc.SetEventProvider(events)

	resp := svc.GetUpcomingEvents(ctx, models.FetchFilters{Sport: "nba"})
	if !resp.Success {
		t.Fatalf("fetch failed: %s", resp.Error)
	}
	if resp.Count != 1 || resp.Data[0].EventID != "e1" {
		t.Errorf("got %+v", resp.Data)
	}

	second := svc.GetUpcomingEvents(ctx, models.FetchFilters{Sport: "nba"})
	if !second.Cached {
		t.Error("second call should be served from cache")
	}
	if got := events.CallCount(); got != 1 {
		t.Errorf("provider called %d times, want 1", got)
	}
}

// Without a schedule source the events endpoint degrades, it does not panic.
func TestGetUpcomingEventsNoProvider(t *testing.T) {
	svc := newService(&testutil.MockOpportunityProvider{}, &testutil.MockPropsProvider{})

	resp := svc.GetUpcomingEvents(context.Background(), models.FetchFilters{Sport: "nba"})
	if resp.Success {
		t.Error("expected Success=false without a provider")
	}
	if resp.Error == "" {
		t.Error("expected an error message")
	}
}
