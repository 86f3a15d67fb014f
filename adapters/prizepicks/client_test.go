package prizepicks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/itzcole03/atlas/pkg/models"
)

const projectionsFixture = `{
  "data": [
    {
      "id": "101",
      "type": "projection",
      "attributes": {"line_score": 27.5, "stat_type": "Points", "start_time": "2026-03-01T19:00:00Z"},
      "relationships": {"new_player": {"data": {"id": "p1"}}}
    },
    {
      "id": "102",
      "type": "projection",
      "attributes": {"line_score": 8.5, "stat_type": "Rebounds", "start_time": "bad-time"},
      "relationships": {"new_player": {"data": {"id": "missing"}}}
    }
  ],
  "included": [
    {"id": "p1", "type": "new_player", "attributes": {"name": "LeBron James", "team": "LAL"}},
    {"id": "x1", "type": "league", "attributes": {"name": "not-a-player"}}
  ]
}`

func TestFetchProps(t *testing.T) {
	var gotLeague string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLeague = r.URL.Query().Get("league_id")
		w.Write([]byte(projectionsFixture))
	}))
	defer server.Close()

	client := NewClient()
	client.SetBaseURL(server.URL)

	props, err := client.FetchProps(context.Background(), &models.FetchOptions{Sport: "nba"})
	if err != nil {
		t.Fatalf("FetchProps failed: %v", err)
	}

	if gotLeague != "7" {
		t.Errorf("league_id = %q, want 7", gotLeague)
	}
	if len(props) != 2 {
		t.Fatalf("got %d props, want 2", len(props))
	}

	first := props[0]
	if first.PlayerName != "LeBron James" || first.Team != "LAL" {
		t.Errorf("player join failed: %+v", first)
	}
	if first.StatType != "Points" || first.Line != 27.5 {
		t.Errorf("attributes = %s %v", first.StatType, first.Line)
	}
	if first.Source != "prizepicks" {
		t.Errorf("Source = %q", first.Source)
	}
	if first.Sport != "nba" {
		t.Errorf("Sport = %q", first.Sport)
	}
	if first.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0 (scored downstream)", first.Confidence)
	}

	// Missing player relationship keeps the projection with a placeholder.
	second := props[1]
	if second.PlayerName != "Unknown Player" {
		t.Errorf("PlayerName = %q, want Unknown Player", second.PlayerName)
	}
}

func TestFetchPropsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient()
	client.SetBaseURL(server.URL)

	if _, err := client.FetchProps(context.Background(), &models.FetchOptions{Sport: "nba"}); err == nil {
		t.Fatal("expected error on HTTP 429")
	}
}

func TestFetchPropsUnknownSportOmitsLeague(t *testing.T) {
	var hasLeague bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hasLeague = r.URL.Query().Has("league_id")
		w.Write([]byte(`{"data": [], "included": []}`))
	}))
	defer server.Close()

	client := NewClient()
	client.SetBaseURL(server.URL)

	props, err := client.FetchProps(context.Background(), &models.FetchOptions{Sport: "all"})
	if err != nil {
		t.Fatalf("FetchProps failed: %v", err)
	}
	if hasLeague {
		t.Error("wildcard sport should not send a league_id")
	}
	if len(props) != 0 {
		t.Errorf("got %d props, want 0", len(props))
	}
}
