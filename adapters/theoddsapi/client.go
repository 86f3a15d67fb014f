// Package theoddsapi implements the OpportunityProvider and EventProvider
// interfaces over The Odds API v4.
package theoddsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/itzcole03/atlas/pkg/contracts"
	"github.com/itzcole03/atlas/pkg/models"
	"github.com/itzcole03/atlas/pkg/odds"
)

const (
	defaultBaseURL = "https://api.the-odds-api.com"
	apiVersion     = "v4"
	userAgent      = "Atlas/1.0 (Unified Sports Data Layer)"
	timeout        = 10 * time.Second
	maxRetries     = 3
	retryDelay     = 2 * time.Second
)

// sportKeys maps canonical sport ids to The Odds API sport keys.
var sportKeys = map[string]string{
	"nba":    "basketball_nba",
	"wnba":   "basketball_wnba",
	"nfl":    "americanfootball_nfl",
	"mlb":    "baseball_mlb",
	"nhl":    "icehockey_nhl",
	"ncaab":  "basketball_ncaab",
	"ncaaf":  "americanfootball_ncaaf",
	"soccer": "soccer_epl",
	"mma":    "mma_mixed_martial_arts",
	"boxing": "boxing_boxing",
	"tennis": "tennis_atp_aus_open_singles",
	"pga":    "golf_masters_tournament_winner",
}

// Client fetches betting opportunities from The Odds API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	rateLimits *models.RateLimits
	mu         sync.RWMutex
}

var _ contracts.OpportunityProvider = (*Client)(nil)
var _ contracts.EventProvider = (*Client)(nil)

// NewClient creates a new The Odds API client. The limiter keeps burst
// polling under the vendor's monthly quota.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 5),
		rateLimits: &models.RateLimits{
			RequestsRemaining: 500, // Default quota
		},
	}
}

// SetBaseURL overrides the API base URL. Test hook.
func (c *Client) SetBaseURL(base string) {
	c.baseURL = strings.TrimRight(base, "/")
}

// Name returns the vendor identifier.
func (c *Client) Name() string { return "theoddsapi" }

// FetchOpportunities retrieves featured market odds and maps them to the
// unified opportunity shape.
func (c *Client) FetchOpportunities(ctx context.Context, opts *models.FetchOptions) ([]models.BettingOpportunity, error) {
	sportKey := vendorSportKey(opts.Sport)

	endpoint := fmt.Sprintf("%s/%s/sports/%s/odds", c.baseURL, apiVersion, sportKey)

	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("regions", joinOrDefault(opts.Regions, "us"))
	params.Set("markets", joinOrDefault(opts.Markets, "h2h,spreads,totals"))
	params.Set("oddsFormat", "american")
	params.Set("dateFormat", "iso")

	body, err := c.doRequestWithRetry(ctx, endpoint+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("fetch opportunities: %w", err)
	}

	var apiResp []oddsResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("parse odds response: %w", err)
	}

	return parseOpportunities(apiResp, opts.Sport, time.Now()), nil
}

// FetchEvents retrieves upcoming events without odds.
func (c *Client) FetchEvents(ctx context.Context, sport string) ([]models.Event, error) {
	endpoint := fmt.Sprintf("%s/%s/sports/%s/events", c.baseURL, apiVersion, vendorSportKey(sport))

	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("dateFormat", "iso")

	body, err := c.doRequestWithRetry(ctx, endpoint+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}

	var apiResp []eventResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("parse events response: %w", err)
	}

	events := make([]models.Event, 0, len(apiResp))
	for _, evt := range apiResp {
		commenceTime, err := time.Parse(time.RFC3339, evt.CommenceTime)
		if err != nil {
			continue // Skip invalid events
		}

		events = append(events, models.Event{
			EventID:      evt.ID,
			Sport:        sport,
			HomeTeam:     evt.HomeTeam,
			AwayTeam:     evt.AwayTeam,
			CommenceTime: commenceTime,
			EventStatus:  statusFor(commenceTime),
		})
	}
	return events, nil
}

// RateLimits returns current rate limit information.
func (c *Client) RateLimits() *models.RateLimits {
	c.mu.RLock()
	defer c.mu.RUnlock()
	limits := *c.rateLimits
	return &limits
}

// doRequestWithRetry performs an HTTP request with retry logic. Client
// errors other than 429 are not retried.
func (c *Client) doRequestWithRetry(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff
			backoff := retryDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		body, err := c.doRequest(ctx, fullURL)
		if err == nil {
			return body, nil
		}

		lastErr = err

		if httpErr, ok := err.(*httpError); ok {
			if httpErr.StatusCode >= 400 && httpErr.StatusCode < 500 && httpErr.StatusCode != http.StatusTooManyRequests {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// doRequest performs a single HTTP request.
func (c *Client) doRequest(ctx context.Context, fullURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	c.updateRateLimits(resp.Header)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &httpError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	return body, nil
}

// updateRateLimits extracts rate limit info from response headers.
func (c *Client) updateRateLimits(headers http.Header) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if remaining := headers.Get("x-requests-remaining"); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			c.rateLimits.RequestsRemaining = val
		}
	}

	if used := headers.Get("x-requests-used"); used != "" {
		if val, err := strconv.Atoi(used); err == nil {
			c.rateLimits.RequestsUsed = val
		}
	}
}

// parseOpportunities flattens the vendor response into one opportunity per
// outcome. Missing or malformed vendor fields fall back to defaults rather
// than failing the whole batch.
func parseOpportunities(apiResp []oddsResponse, sport string, receivedAt time.Time) []models.BettingOpportunity {
	var out []models.BettingOpportunity

	for _, event := range apiResp {
		commenceTime, err := time.Parse(time.RFC3339, event.CommenceTime)
		if err != nil {
			commenceTime = receivedAt // Fallback
		}

		eventName := event.AwayTeam + " @ " + event.HomeTeam

		for _, bookmaker := range event.Bookmakers {
			for _, market := range bookmaker.Markets {
				for _, outcome := range market.Outcomes {
					if outcome.Price == 0 {
						continue
					}

					opp := models.BettingOpportunity{
						ID:           strings.Join([]string{event.ID, market.Key, bookmaker.Key, outcome.Name}, ":"),
						Sport:        sport,
						EventName:    eventName,
						HomeTeam:     event.HomeTeam,
						AwayTeam:     event.AwayTeam,
						MarketKey:    market.Key,
						BookKey:      bookmaker.Key,
						OutcomeName:  outcome.Name,
						Price:        outcome.Price,
						DecimalPrice: odds.AmericanToDecimal(outcome.Price),
						ImpliedProb:  odds.ImpliedProbability(outcome.Price),
						CommenceTime: commenceTime,
						ReceivedAt:   receivedAt,
					}

					if outcome.Point != nil {
						point := *outcome.Point
						opp.Point = &point
					}

					out = append(out, opp)
				}
			}
		}
	}

	return out
}

// vendorSportKey maps a canonical id to the vendor's key, passing unknown
// ids through untouched so callers can address vendor keys directly.
func vendorSportKey(sport string) string {
	if key, ok := sportKeys[sport]; ok {
		return key
	}
	return sport
}

func statusFor(commenceTime time.Time) string {
	if time.Now().After(commenceTime) {
		return "live"
	}
	return "upcoming"
}

func joinOrDefault(values []string, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	return strings.Join(values, ",")
}

// httpError represents an HTTP error with status code.
type httpError struct {
	StatusCode int
	Message    string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// API response structures matching The Odds API JSON format

type oddsResponse struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	SportTitle   string      `json:"sport_title"`
	CommenceTime string      `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []bookmaker `json:"bookmakers"`
}

type bookmaker struct {
	Key        string   `json:"key"`
	Title      string   `json:"title"`
	LastUpdate string   `json:"last_update"`
	Markets    []market `json:"markets"`
}

type market struct {
	Key        string    `json:"key"`
	LastUpdate string    `json:"last_update"`
	Outcomes   []outcome `json:"outcomes"`
}

type outcome struct {
	Name  string   `json:"name"`
	Price int      `json:"price"`
	Point *float64 `json:"point,omitempty"`
}

type eventResponse struct {
	ID           string `json:"id"`
	SportKey     string `json:"sport_key"`
	CommenceTime string `json:"commence_time"`
	HomeTeam     string `json:"home_team"`
	AwayTeam     string `json:"away_team"`
}
