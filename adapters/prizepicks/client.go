// Package prizepicks implements the PropsProvider interface over the public
// PrizePicks projections API. The API speaks JSON:API, so player names live
// in the included section and are joined by relationship id.
package prizepicks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/itzcole03/atlas/pkg/contracts"
	"github.com/itzcole03/atlas/pkg/models"
)

const (
	defaultBaseURL = "https://api.prizepicks.com"
	timeout        = 10 * time.Second
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// leagueIDs maps canonical sport ids to PrizePicks league ids.
var leagueIDs = map[string]string{
	"nba":     "7",
	"wnba":    "3",
	"nfl":     "9",
	"mlb":     "2",
	"nhl":     "8",
	"ncaab":   "20",
	"ncaaf":   "15",
	"soccer":  "82",
	"tennis":  "5",
	"pga":     "1",
	"mma":     "12",
	"esports": "121",
}

// Client fetches player prop projections from PrizePicks.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ contracts.PropsProvider = (*Client)(nil)

// NewClient creates a new PrizePicks client. The projections endpoint is
// unauthenticated.
func NewClient() *Client {
	return &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetBaseURL overrides the API base URL. Test hook.
func (c *Client) SetBaseURL(base string) {
	c.baseURL = strings.TrimRight(base, "/")
}

// Name returns the vendor identifier.
func (c *Client) Name() string { return "prizepicks" }

// FetchProps retrieves current projections for the given sport. Projections
// have no odds attached; confidence scoring happens downstream, so it is
// left zero here.
func (c *Client) FetchProps(ctx context.Context, opts *models.FetchOptions) ([]models.PlayerProp, error) {
	params := url.Values{}
	params.Set("per_page", "250")
	params.Set("single_stat", "true")
	if leagueID, ok := leagueIDs[opts.Sport]; ok {
		params.Set("league_id", leagueID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/projections?"+params.Encode(), nil)
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

	var apiResp projectionsResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("parse projections response: %w", err)
	}

	return parseProps(&apiResp, opts.Sport, time.Now()), nil
}

// parseProps joins projections to their players and maps them to the
// unified prop shape. Projections with a missing player are kept, with the
// player name defaulted, since provider responses are not guaranteed
// complete.
func parseProps(apiResp *projectionsResponse, sport string, receivedAt time.Time) []models.PlayerProp {
	players := make(map[string]playerAttributes, len(apiResp.Included))
	for _, inc := range apiResp.Included {
		if inc.Type == "new_player" {
			players[inc.ID] = inc.Attributes
		}
	}

	props := make([]models.PlayerProp, 0, len(apiResp.Data))
	for _, proj := range apiResp.Data {
		player := players[proj.Relationships.NewPlayer.Data.ID]

		name := player.Name
		if name == "" {
			name = "Unknown Player"
		}

		gameTime, err := time.Parse(time.RFC3339, proj.Attributes.StartTime)
		if err != nil {
			gameTime = receivedAt
		}

		props = append(props, models.PlayerProp{
			ID:         "prizepicks:" + proj.ID,
			Sport:      sport,
			PlayerName: name,
			Team:       player.Team,
			StatType:   proj.Attributes.StatType,
			Line:       proj.Attributes.LineScore,
			Source:     "prizepicks",
			GameTime:   gameTime,
			ReceivedAt: receivedAt,
		})
	}

	return props
}

// JSON:API response structures

type projectionsResponse struct {
	Data     []projection `json:"data"`
	Included []included   `json:"included"`
}

type projection struct {
	ID            string                `json:"id"`
	Type          string                `json:"type"`
	Attributes    projectionAttributes  `json:"attributes"`
	Relationships projectionRelationships `json:"relationships"`
}

type projectionAttributes struct {
	LineScore float64 `json:"line_score"`
	StatType  string  `json:"stat_type"`
	StartTime string  `json:"start_time"`
}

type projectionRelationships struct {
	NewPlayer relationship `json:"new_player"`
}

type relationship struct {
	Data relationshipData `json:"data"`
}

type relationshipData struct {
	ID string `json:"id"`
}

type included struct {
	ID         string           `json:"id"`
	Type       string           `json:"type"`
	Attributes playerAttributes `json:"attributes"`
}

type playerAttributes struct {
	Name string `json:"name"`
	Team string `json:"team"`
}
