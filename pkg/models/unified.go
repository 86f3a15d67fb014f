package models

import "time"

// BettingOpportunity is the unified shape for a priced betting edge,
// regardless of which upstream vendor produced it.
type BettingOpportunity struct {
	ID           string    `json:"id"`
	Sport        string    `json:"sport"`
	EventName    string    `json:"event_name"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	MarketKey    string    `json:"market_key"`
	BookKey      string    `json:"book_key"`
	OutcomeName  string    `json:"outcome_name"`
	Price        int       `json:"price"` // American odds
	Point        *float64  `json:"point,omitempty"`
	DecimalPrice float64   `json:"decimal_price"`
	ImpliedProb  float64   `json:"implied_prob"` // 0-1
	Confidence   float64   `json:"confidence"`   // 0-100
	CommenceTime time.Time `json:"commence_time"`
	ReceivedAt   time.Time `json:"received_at"`
}

// SportTag returns the free-text sport field used for filtering.
func (o BettingOpportunity) SportTag() string { return o.Sport }

// PlayerProp is the unified shape for a player proposition line.
type PlayerProp struct {
	ID         string    `json:"id"`
	Sport      string    `json:"sport"`
	PlayerName string    `json:"player_name"`
	Team       string    `json:"team"`
	StatType   string    `json:"stat_type"` // points, rebounds, assists, ...
	Line       float64   `json:"line"`
	OverPrice  int       `json:"over_price,omitempty"`
	UnderPrice int       `json:"under_price,omitempty"`
	Confidence float64   `json:"confidence"` // clamped to [50,95]
	Source     string    `json:"source"`
	GameTime   time.Time `json:"game_time"`
	ReceivedAt time.Time `json:"received_at"`
}

// SportTag returns the free-text sport field used for filtering.
func (p PlayerProp) SportTag() string { return p.Sport }

// Event represents a sporting event from a schedule provider.
type Event struct {
	EventID      string    `json:"event_id"`
	Sport        string    `json:"sport"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	CommenceTime time.Time `json:"commence_time"`
	EventStatus  string    `json:"event_status"` // upcoming, live, completed, cancelled
}

// SportTag returns the free-text sport field used for filtering.
func (e Event) SportTag() string { return e.Sport }

// FetchFilters are the caller-supplied query parameters for facade calls.
// The zero value means "everything": wildcard sport, no confidence floor,
// no sorting, no truncation.
type FetchFilters struct {
	Sport         string  `json:"sport,omitempty"`
	MinConfidence float64 `json:"min_confidence,omitempty"`
	SortBy        string  `json:"sort_by,omitempty"` // confidence, price, commence_time
	MaxResults    int     `json:"max_results,omitempty"`
}

// OpportunitiesResponse is the envelope returned to UI callers.
// Upstream failures surface as Success=false with an empty Data slice;
// the facade never propagates a fetch error as a Go error to HTTP callers.
type OpportunitiesResponse struct {
	Success   bool                 `json:"success"`
	Data      []BettingOpportunity `json:"data"`
	Count     int                  `json:"count"`
	Error     string               `json:"error,omitempty"`
	Timestamp int64                `json:"timestamp"` // epoch milliseconds
	Cached    bool                 `json:"cached"`
}

// PropsResponse is the envelope for player prop queries.
type PropsResponse struct {
	Success   bool         `json:"success"`
	Data      []PlayerProp `json:"data"`
	Count     int          `json:"count"`
	Error     string       `json:"error,omitempty"`
	Timestamp int64        `json:"timestamp"`
	Cached    bool         `json:"cached"`
}

// EventsResponse is the envelope for the upcoming-events query.
type EventsResponse struct {
	Success   bool    `json:"success"`
	Data      []Event `json:"data"`
	Count     int     `json:"count"`
	Error     string  `json:"error,omitempty"`
	Timestamp int64   `json:"timestamp"`
	Cached    bool    `json:"cached"`
}

// SportsResponse is the envelope for the available-sports query.
type SportsResponse struct {
	Success   bool     `json:"success"`
	Data      []string `json:"data"`
	Count     int      `json:"count"`
	Error     string   `json:"error,omitempty"`
	Timestamp int64    `json:"timestamp"`
	Cached    bool     `json:"cached"`
}

// FetchOptions contains parameters passed down to vendor adapters.
type FetchOptions struct {
	Sport   string
	Regions []string
	Markets []string
}

// RateLimits contains vendor rate limiting information, updated from
// response headers where the vendor exposes them.
type RateLimits struct {
	RequestsRemaining int
	RequestsUsed      int
	ResetTime         time.Time
}
