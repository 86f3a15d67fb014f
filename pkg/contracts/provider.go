package contracts

import (
	"context"

	"github.com/itzcole03/atlas/pkg/models"
)

// OpportunityProvider is the interface for fetching priced betting
// opportunities from an external vendor. Adapters own the translation from
// the vendor's JSON shape into the unified record type; every vendor field
// is treated as optional and substituted with a default when absent.
type OpportunityProvider interface {
	// FetchOpportunities retrieves opportunities for the given sport/markets.
	FetchOpportunities(ctx context.Context, opts *models.FetchOptions) ([]models.BettingOpportunity, error)

	// Name returns the vendor identifier used in cache keys and metrics.
	Name() string

	// RateLimits returns current rate limit information.
	RateLimits() *models.RateLimits
}

// PropsProvider is the interface for fetching player prop projections.
type PropsProvider interface {
	// FetchProps retrieves player props for the given sport.
	FetchProps(ctx context.Context, opts *models.FetchOptions) ([]models.PlayerProp, error)

	// Name returns the vendor identifier used in cache keys and metrics.
	Name() string
}

// EventProvider is the interface for fetching event schedules (discovery).
type EventProvider interface {
	// FetchEvents retrieves upcoming events for a sport, without odds.
	FetchEvents(ctx context.Context, sport string) ([]models.Event, error)

	// Name returns the vendor identifier used in cache keys and metrics.
	Name() string
}
