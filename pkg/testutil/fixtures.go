package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/itzcole03/atlas/pkg/models"
)

// NewTestOpportunity creates a test betting opportunity
func NewTestOpportunity(id, sport, outcomeName string, price int, confidence float64) models.BettingOpportunity {
	now := time.Now()
	return models.BettingOpportunity{
		ID:           id,
		Sport:        sport,
		EventName:    fmt.Sprintf("event-%s", id),
		HomeTeam:     "Home",
		AwayTeam:     "Away",
		MarketKey:    "h2h",
		BookKey:      "fanduel",
		OutcomeName:  outcomeName,
		Price:        price,
		Confidence:   confidence,
		CommenceTime: now.Add(3 * time.Hour),
		ReceivedAt:   now,
	}
}

// NewTestProp creates a test player prop
func NewTestProp(id, sport, playerName, statType string, line, confidence float64) models.PlayerProp {
	now := time.Now()
	return models.PlayerProp{
		ID:         id,
		Sport:      sport,
		PlayerName: playerName,
		Team:       "Home",
		StatType:   statType,
		Line:       line,
		OverPrice:  -110,
		UnderPrice: -110,
		Confidence: confidence,
		Source:     "test",
		GameTime:   now.Add(3 * time.Hour),
		ReceivedAt: now,
	}
}

// NewTestEvent creates a test scheduled event
func NewTestEvent(eventID, sport, homeTeam, awayTeam string, hoursUntilStart float64) models.Event {
	return models.Event{
		EventID:      eventID,
		Sport:        sport,
		HomeTeam:     homeTeam,
		AwayTeam:     awayTeam,
		CommenceTime: time.Now().Add(time.Duration(hoursUntilStart * float64(time.Hour))),
		EventStatus:  "upcoming",
	}
}

// MockOpportunityProvider is a test provider that returns predetermined
// opportunities
type MockOpportunityProvider struct {
	FetchOpportunitiesFunc func(ctx context.Context, opts *models.FetchOptions) ([]models.BettingOpportunity, error)
	RateLimitsFunc         func() *models.RateLimits

	calls atomic.Int64
}

// CallCount reports how many fetches ran, safe to read concurrently.
func (m *MockOpportunityProvider) CallCount() int64 { return m.calls.Load() }

func (m *MockOpportunityProvider) FetchOpportunities(ctx context.Context, opts *models.FetchOptions) ([]models.BettingOpportunity, error) {
	m.calls.Add(1)
	if m.FetchOpportunitiesFunc != nil {
		return m.FetchOpportunitiesFunc(ctx, opts)
	}
	return []models.BettingOpportunity{}, nil
}

func (m *MockOpportunityProvider) Name() string { return "mock-opportunities" }

func (m *MockOpportunityProvider) RateLimits() *models.RateLimits {
	if m.RateLimitsFunc != nil {
		return m.RateLimitsFunc()
	}
	return &models.RateLimits{RequestsRemaining: 500}
}

// MockPropsProvider is a test provider that returns predetermined props
type MockPropsProvider struct {
	FetchPropsFunc func(ctx context.Context, opts *models.FetchOptions) ([]models.PlayerProp, error)

	calls atomic.Int64
}

// CallCount reports how many fetches ran, safe to read concurrently.
func (m *MockPropsProvider) CallCount() int64 { return m.calls.Load() }

func (m *MockPropsProvider) FetchProps(ctx context.Context, opts *models.FetchOptions) ([]models.PlayerProp, error) {
	m.calls.Add(1)
	if m.FetchPropsFunc != nil {
		return m.FetchPropsFunc(ctx, opts)
	}
	return []models.PlayerProp{}, nil
}

func (m *MockPropsProvider) Name() string { return "mock-props" }

// MockEventProvider is a test provider that returns predetermined events
type MockEventProvider struct {
	FetchEventsFunc func(ctx context.Context, sport string) ([]models.Event, error)

	calls atomic.Int64
}

// CallCount reports how many fetches ran, safe to read concurrently.
func (m *MockEventProvider) CallCount() int64 { return m.calls.Load() }

func (m *MockEventProvider) FetchEvents(ctx context.Context, sport string) ([]models.Event, error) {
	m.calls.Add(1)
	if m.FetchEventsFunc != nil {
		return m.FetchEventsFunc(ctx, sport)
	}
	return []models.Event{}, nil
}

func (m *MockEventProvider) Name() string { return "mock-events" }
