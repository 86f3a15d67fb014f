// Package unified implements the facade over upstream sports data
// providers: cache-first reads with single-flight collapsing on misses,
// provider-shape to unified-shape transformation, sport filtering, and
// cache invalidation hooks for the UI layer.
package unified

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/itzcole03/atlas/internal/metrics"
	"github.com/itzcole03/atlas/internal/sports"
	"github.com/itzcole03/atlas/pkg/contracts"
	"github.com/itzcole03/atlas/pkg/models"
)

// DefaultTTL is the cache time-to-live applied when none is configured.
const DefaultTTL = 5 * time.Minute

// fallbackSports is returned by GetAvailableSports when every upstream
// fetch fails.
var fallbackSports = []string{sports.Wildcard, "nba", "nfl", "mlb", "nhl"}

// wildcardFanout lists the sports queried when a caller asks for the
// wildcard, since opportunity vendors expose per-sport endpoints only.
// In-season sports are preferred; if none are in season the whole list is
// used.
var wildcardFanout = []string{"nba", "nfl", "mlb", "nhl"}

// errNoEventProvider surfaces in the envelope when the events endpoint is
// queried without a configured schedule source.
var errNoEventProvider = errors.New("no event provider configured")

// Notifier receives cache lifecycle events for forwarding to UI clients.
type Notifier interface {
	NotifyCacheInvalidated(sport string)
	NotifySportsChanged(sports []string)
}

// Recorder persists unified records fetched on cache misses.
type Recorder interface {
	RecordOpportunities(ctx context.Context, items []models.BettingOpportunity)
	RecordProps(ctx context.Context, items []models.PlayerProp)
}

// Config holds facade construction parameters.
type Config struct {
	CacheTTL time.Duration
	Regions  []string
	Markets  []string
}

// Service is the unified data facade. It is constructed explicitly and
// passed to its consumers; there is no package-level instance.
type Service struct {
	opportunities contracts.OpportunityProvider
	props         contracts.PropsProvider
	events        contracts.EventProvider
	cache         contracts.CacheStore
	normalizer    *sports.Normalizer
	logger        *slog.Logger
	metrics       *metrics.Metrics
	notifier      Notifier
	recorder      Recorder

	ttl     time.Duration
	regions []string
	markets []string

	group         singleflight.Group
	now           func() time.Time
	lastEvictions atomic.Uint64
}

// NewService creates the facade. notifier and recorder may be nil.
func NewService(
	cfg Config,
	opportunities contracts.OpportunityProvider,
	props contracts.PropsProvider,
	cache contracts.CacheStore,
	normalizer *sports.Normalizer,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Service{
		opportunities: opportunities,
		props:         props,
		cache:         cache,
		normalizer:    normalizer,
		logger:        logger,
		metrics:       m,
		ttl:           ttl,
		regions:       cfg.Regions,
		markets:       cfg.Markets,
		now:           time.Now,
	}
}

// SetEventProvider attaches the schedule source backing GetUpcomingEvents.
func (s *Service) SetEventProvider(e contracts.EventProvider) { s.events = e }

// SetNotifier attaches the cache-event notifier (usually the WebSocket hub).
func (s *Service) SetNotifier(n Notifier) { s.notifier = n }

// SetRecorder attaches the snapshot history recorder.
func (s *Service) SetRecorder(r Recorder) { s.recorder = r }

// SetClock overrides the time source. Test hook.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// GetBettingOpportunities returns unified betting opportunities matching the
// filters. Upstream failures are converted to Success=false envelopes; the
// method itself never fails.
func (s *Service) GetBettingOpportunities(ctx context.Context, filters models.FetchFilters) *models.OpportunitiesResponse {
	sportID := s.normalizeSport(filters.Sport)
	key := cacheKey(endpointOpportunities, sportID, filters)

	if data, ok := s.cacheGet(ctx, endpointOpportunities, key); ok {
		var items []models.BettingOpportunity
		if err := json.Unmarshal(data, &items); err == nil {
			s.countResult(endpointOpportunities, "hit")
			return &models.OpportunitiesResponse{
				Success: true, Data: items, Count: len(items),
				Timestamp: s.nowMillis(), Cached: true,
			}
		}
		// Corrupt entry: fall through to a fresh fetch.
		_ = s.cache.Delete(ctx, key)
	}

	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		return s.fetchOpportunities(ctx, sportID, filters)
	})
	if shared {
		s.countShared(endpointOpportunities)
	}
	if err != nil {
		s.logger.Error("opportunities fetch failed", "sport", sportID, "error", err)
		s.countResult(endpointOpportunities, "error")
		return &models.OpportunitiesResponse{
			Success: false, Data: []models.BettingOpportunity{},
			Error: err.Error(), Timestamp: s.nowMillis(),
		}
	}

	items := v.([]models.BettingOpportunity)
	s.countResult(endpointOpportunities, "miss")
	return &models.OpportunitiesResponse{
		Success: true, Data: items, Count: len(items),
		Timestamp: s.nowMillis(), Cached: false,
	}
}

// fetchOpportunities runs the miss pipeline: fetch, transform, filter,
// threshold, sort, truncate, cache.
func (s *Service) fetchOpportunities(ctx context.Context, sportID string, filters models.FetchFilters) ([]models.BettingOpportunity, error) {
	raw, err := s.fanOutOpportunities(ctx, sportID)
	if err != nil {
		return nil, err
	}

	items := scoreOpportunities(raw)

	opts := sports.DefaultFilterOptions()
	opts.UseAliases = true
	items = sports.Filter(s.normalizer, items, filters.Sport, opts)

	items = thresholdOpportunities(items, filters.MinConfidence)
	sortOpportunities(items, filters.SortBy)
	items = truncate(items, filters.MaxResults)

	if s.recorder != nil {
		s.recorder.RecordOpportunities(ctx, items)
	}

	s.cacheSet(ctx, cacheKey(endpointOpportunities, sportID, filters), items)
	return items, nil
}

// fanOutOpportunities queries the opportunity provider, fanning out over the
// in-season default sports when the target is the wildcard. A partial
// provider failure is tolerated; the fetch fails only when nothing succeeds.
func (s *Service) fanOutOpportunities(ctx context.Context, sportID string) ([]models.BettingOpportunity, error) {
	targets := []string{sportID}
	if sportID == sports.Wildcard {
		targets = s.inSeasonFanout()
	}

	results := make([][]models.BettingOpportunity, len(targets))
	errs := make([]error, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			start := s.now()
			items, err := s.opportunities.FetchOpportunities(gctx, &models.FetchOptions{
				Sport:   target,
				Regions: s.regions,
				Markets: s.markets,
			})
			s.observeProvider(s.opportunities.Name(), start, err)
			results[i], errs[i] = items, err
			return nil
		})
	}
	_ = g.Wait()

	var out []models.BettingOpportunity
	succeeded := false
	for i := range targets {
		if errs[i] != nil {
			s.logger.Warn("opportunity fetch failed", "sport", targets[i], "error", errs[i])
			continue
		}
		succeeded = true
		out = append(out, results[i]...)
	}

	if !succeeded {
		return nil, errs[0]
	}
	return out, nil
}

// GetPlayerProps returns unified player props matching the filters, with
// confidence clamped to [50,95].
func (s *Service) GetPlayerProps(ctx context.Context, filters models.FetchFilters) *models.PropsResponse {
	sportID := s.normalizeSport(filters.Sport)
	key := cacheKey(endpointProps, sportID, filters)

	if data, ok := s.cacheGet(ctx, endpointProps, key); ok {
		var items []models.PlayerProp
		if err := json.Unmarshal(data, &items); err == nil {
			s.countResult(endpointProps, "hit")
			return &models.PropsResponse{
				Success: true, Data: items, Count: len(items),
				Timestamp: s.nowMillis(), Cached: true,
			}
		}
		_ = s.cache.Delete(ctx, key)
	}

	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		return s.fetchProps(ctx, sportID, filters)
	})
	if shared {
		s.countShared(endpointProps)
	}
	if err != nil {
		s.logger.Error("props fetch failed", "sport", sportID, "error", err)
		s.countResult(endpointProps, "error")
		return &models.PropsResponse{
			Success: false, Data: []models.PlayerProp{},
			Error: err.Error(), Timestamp: s.nowMillis(),
		}
	}

	items := v.([]models.PlayerProp)
	s.countResult(endpointProps, "miss")
	return &models.PropsResponse{
		Success: true, Data: items, Count: len(items),
		Timestamp: s.nowMillis(), Cached: false,
	}
}

func (s *Service) fetchProps(ctx context.Context, sportID string, filters models.FetchFilters) ([]models.PlayerProp, error) {
	start := s.now()
	raw, err := s.props.FetchProps(ctx, &models.FetchOptions{Sport: sportID})
	s.observeProvider(s.props.Name(), start, err)
	if err != nil {
		return nil, err
	}

	items := clampProps(raw)

	opts := sports.DefaultFilterOptions()
	opts.UseAliases = true
	items = sports.Filter(s.normalizer, items, filters.Sport, opts)

	items = thresholdProps(items, filters.MinConfidence)
	sortProps(items, filters.SortBy)
	items = truncate(items, filters.MaxResults)

	if s.recorder != nil {
		s.recorder.RecordProps(ctx, items)
	}

	s.cacheSet(ctx, cacheKey(endpointProps, sportID, filters), items)
	return items, nil
}

// GetUpcomingEvents returns today's scheduled events for a sport. Requires
// an attached event provider; without one the envelope degrades the same way
// a provider failure does.
func (s *Service) GetUpcomingEvents(ctx context.Context, filters models.FetchFilters) *models.EventsResponse {
	sportID := s.normalizeSport(filters.Sport)
	key := cacheKey(endpointEvents, sportID, filters)

	if data, ok := s.cacheGet(ctx, endpointEvents, key); ok {
		var items []models.Event
		if err := json.Unmarshal(data, &items); err == nil {
			s.countResult(endpointEvents, "hit")
			return &models.EventsResponse{
				Success: true, Data: items, Count: len(items),
				Timestamp: s.nowMillis(), Cached: true,
			}
		}
		_ = s.cache.Delete(ctx, key)
	}

	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		return s.fetchEvents(ctx, sportID, filters)
	})
	if shared {
		s.countShared(endpointEvents)
	}
	if err != nil {
		s.logger.Error("events fetch failed", "sport", sportID, "error", err)
		s.countResult(endpointEvents, "error")
		return &models.EventsResponse{
			Success: false, Data: []models.Event{},
			Error: err.Error(), Timestamp: s.nowMillis(),
		}
	}

	items := v.([]models.Event)
	s.countResult(endpointEvents, "miss")
	return &models.EventsResponse{
		Success: true, Data: items, Count: len(items),
		Timestamp: s.nowMillis(), Cached: false,
	}
}

func (s *Service) fetchEvents(ctx context.Context, sportID string, filters models.FetchFilters) ([]models.Event, error) {
	if s.events == nil {
		return nil, errNoEventProvider
	}

	targets := []string{sportID}
	if sportID == sports.Wildcard {
		targets = s.inSeasonFanout()
	}

	results := make([][]models.Event, len(targets))
	errs := make([]error, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			start := s.now()
			items, err := s.events.FetchEvents(gctx, target)
			s.observeProvider(s.events.Name(), start, err)
			results[i], errs[i] = items, err
			return nil
		})
	}
	_ = g.Wait()

	var items []models.Event
	succeeded := false
	for i := range targets {
		if errs[i] != nil {
			s.logger.Warn("event fetch failed", "sport", targets[i], "error", errs[i])
			continue
		}
		succeeded = true
		items = append(items, results[i]...)
	}
	if !succeeded {
		return nil, errs[0]
	}

	opts := sports.DefaultFilterOptions()
	opts.UseAliases = true
	items = sports.Filter(s.normalizer, items, filters.Sport, opts)
	items = truncate(items, filters.MaxResults)

	s.cacheSet(ctx, cacheKey(endpointEvents, sportID, filters), items)
	return items, nil
}

// GetAvailableSports derives the sports actually present in the current
// opportunity and props data, fetched concurrently, unioned with the
// wildcard. If both underlying fetches fail it degrades to a hardcoded
// major-sports list instead of failing.
func (s *Service) GetAvailableSports(ctx context.Context) *models.SportsResponse {
	key := cacheKey(endpointSports, "available", models.FetchFilters{})

	if data, ok := s.cacheGet(ctx, endpointSports, key); ok {
		var ids []string
		if err := json.Unmarshal(data, &ids); err == nil {
			s.countResult(endpointSports, "hit")
			return &models.SportsResponse{
				Success: true, Data: ids, Count: len(ids),
				Timestamp: s.nowMillis(), Cached: true,
			}
		}
		_ = s.cache.Delete(ctx, key)
	}

	var (
		opps  *models.OpportunitiesResponse
		props *models.PropsResponse
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		opps = s.GetBettingOpportunities(gctx, models.FetchFilters{})
		return nil
	})
	g.Go(func() error {
		props = s.GetPlayerProps(gctx, models.FetchFilters{})
		return nil
	})
	_ = g.Wait()

	if !opps.Success && !props.Success {
		s.logger.Warn("all sports sources failed, using fallback list")
		s.countResult(endpointSports, "fallback")
		return &models.SportsResponse{
			Success: true, Data: fallbackSports, Count: len(fallbackSports),
			Timestamp: s.nowMillis(),
		}
	}

	tagged := make([]models.Event, 0, len(opps.Data)+len(props.Data))
	for _, o := range opps.Data {
		tagged = append(tagged, models.Event{Sport: o.Sport})
	}
	for _, p := range props.Data {
		tagged = append(tagged, models.Event{Sport: p.Sport})
	}

	ids := sports.UniqueSports(tagged)
	s.cacheSet(ctx, key, ids)
	s.countResult(endpointSports, "miss")

	if s.notifier != nil {
		s.notifier.NotifySportsChanged(ids)
	}

	return &models.SportsResponse{
		Success: true, Data: ids, Count: len(ids),
		Timestamp: s.nowMillis(),
	}
}

// InvalidateSport removes every cached entry for one sport and notifies UI
// clients. An unrecognized sport normalizes to the wildcard and clears
// everything.
func (s *Service) InvalidateSport(ctx context.Context, sport string) error {
	sportID := s.normalizeSport(sport)
	if sportID == sports.Wildcard {
		return s.InvalidateAll(ctx)
	}

	for _, endpoint := range []string{endpointOpportunities, endpointProps, endpointEvents} {
		if _, err := s.cache.DeletePrefix(ctx, sportPrefix(endpoint, sportID)); err != nil {
			return err
		}
	}
	// The derived sports list may now be stale too.
	if _, err := s.cache.DeletePrefix(ctx, endpointSports+":"); err != nil {
		return err
	}

	if s.notifier != nil {
		s.notifier.NotifyCacheInvalidated(sportID)
	}
	return nil
}

// InvalidateAll clears the whole cache and notifies UI clients.
func (s *Service) InvalidateAll(ctx context.Context) error {
	if err := s.cache.Flush(ctx); err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.NotifyCacheInvalidated(sports.Wildcard)
	}
	return nil
}

// normalizeSport resolves the caller's sport, surfacing degraded inputs in
// metrics rather than silently swallowing them.
func (s *Service) normalizeSport(sport string) string {
	res := s.normalizer.Normalize(sport)
	if res.Defaulted && s.metrics != nil {
		s.metrics.DefaultedSports.Inc()
	}
	return res.ID
}

// inSeasonFanout picks the wildcard fan-out targets currently in season.
func (s *Service) inSeasonFanout() []string {
	registry := s.normalizer.Registry()
	now := s.now()

	active := make([]string, 0, len(wildcardFanout))
	for _, id := range wildcardFanout {
		if registry.InSeason(id, now) {
			active = append(active, id)
		}
	}
	if len(active) == 0 {
		return wildcardFanout
	}
	return active
}

func (s *Service) cacheGet(ctx context.Context, endpoint, key string) ([]byte, bool) {
	data, found, err := s.cache.Get(ctx, key)
	if err != nil {
		// A broken cache degrades to always-miss.
		s.logger.Warn("cache get failed", "key", key, "error", err)
		return nil, false
	}

	if s.metrics != nil {
		if found {
			s.metrics.CacheHits.WithLabelValues(endpoint).Inc()
		} else {
			s.metrics.CacheMisses.WithLabelValues(endpoint).Inc()
		}
	}
	return data, found
}

func (s *Service) cacheSet(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.logger.Warn("cache set failed", "key", key, "error", err)
		return
	}
	s.observeCacheSize(ctx)
}

// evictionCounter is implemented by stores that evict for capacity.
type evictionCounter interface {
	Evictions() uint64
}

func (s *Service) observeCacheSize(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	if n, err := s.cache.Len(ctx); err == nil {
		s.metrics.CacheEntries.Set(float64(n))
	}
	if ec, ok := s.cache.(evictionCounter); ok {
		total := ec.Evictions()
		if delta := total - s.lastEvictions.Swap(total); delta > 0 {
			s.metrics.CacheEvictions.Add(float64(delta))
		}
	}
}

func (s *Service) observeProvider(provider string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}

	outcome := "ok"
	if err != nil {
		outcome = "error"
		s.metrics.ProviderErrors.WithLabelValues(provider).Inc()
	}
	s.metrics.ProviderRequests.WithLabelValues(provider, outcome).Inc()
	s.metrics.ProviderLatency.WithLabelValues(provider).Observe(time.Since(start).Seconds())
}

func (s *Service) countResult(endpoint, result string) {
	if s.metrics != nil {
		s.metrics.RequestsTotal.WithLabelValues(endpoint, result).Inc()
	}
}

func (s *Service) countShared(endpoint string) {
	if s.metrics != nil {
		s.metrics.SingleFlightShared.WithLabelValues(endpoint).Inc()
	}
}

func (s *Service) nowMillis() int64 {
	return s.now().UnixMilli()
}
