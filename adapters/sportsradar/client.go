// Package sportsradar implements the EventProvider interface over the
// SportsRadar schedules API.
package sportsradar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/itzcole03/atlas/pkg/contracts"
	"github.com/itzcole03/atlas/pkg/models"
)

const (
	defaultBaseURL = "https://api.sportradar.com"
	timeout        = 10 * time.Second
)

// schedulePaths maps canonical sport ids to SportsRadar daily schedule
// endpoint templates ({date} is replaced with YYYY/MM/DD).
var schedulePaths = map[string]string{
	"nba":  "/nba/trial/v8/en/games/{date}/schedule.json",
	"wnba": "/wnba/trial/v8/en/games/{date}/schedule.json",
	"nfl":  "/nfl/official/trial/v7/en/games/{date}/schedule.json",
	"mlb":  "/mlb/trial/v7/en/games/{date}/schedule.json",
	"nhl":  "/nhl/trial/v7/en/games/{date}/schedule.json",
}

// Client fetches event schedules from SportsRadar.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ contracts.EventProvider = (*Client)(nil)

// NewClient creates a new SportsRadar client. Trial keys allow one request
// per second, which the limiter enforces client-side.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// SetBaseURL overrides the API base URL. Test hook.
func (c *Client) SetBaseURL(base string) {
	c.baseURL = strings.TrimRight(base, "/")
}

// Name returns the vendor identifier.
func (c *Client) Name() string { return "sportsradar" }

// FetchEvents retrieves today's schedule for the given sport. Sports
// without a schedule endpoint return an empty slice rather than an error so
// the facade's union across providers degrades gracefully.
func (c *Client) FetchEvents(ctx context.Context, sport string) ([]models.Event, error) {
	path, ok := schedulePaths[sport]
	if !ok {
		return nil, nil
	}

	now := time.Now().UTC()
	path = strings.Replace(path, "{date}", now.Format("2006/01/02"), 1)

	params := url.Values{}
	params.Set("api_key", c.apiKey)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var apiResp scheduleResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("parse schedule response: %w", err)
	}

	events := make([]models.Event, 0, len(apiResp.Games))
	for _, game := range apiResp.Games {
		scheduled, err := time.Parse(time.RFC3339, game.Scheduled)
		if err != nil {
			continue // Skip malformed entries
		}

		events = append(events, models.Event{
			EventID:      game.ID,
			Sport:        sport,
			HomeTeam:     game.Home.Name,
			AwayTeam:     game.Away.Name,
			CommenceTime: scheduled,
			EventStatus:  mapStatus(game.Status, scheduled),
		})
	}
	return events, nil
}

// mapStatus translates SportsRadar game status to the unified status set.
func mapStatus(status string, scheduled time.Time) string {
	switch status {
	case "inprogress", "halftime":
		return "live"
	case "closed", "complete":
		return "completed"
	case "cancelled", "postponed":
		return "cancelled"
	case "scheduled", "created", "":
		if time.Now().After(scheduled) {
			return "live"
		}
		return "upcoming"
	default:
		return "upcoming"
	}
}

// SportsRadar schedule response structures

type scheduleResponse struct {
	Date  string `json:"date"`
	Games []game `json:"games"`
}

type game struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Scheduled string `json:"scheduled"`
	Home      team   `json:"home"`
	Away      team   `json:"away"`
}

type team struct {
	Name  string `json:"name"`
	Alias string `json:"alias"`
}
