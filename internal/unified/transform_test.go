package unified

import (
	"testing"
	"time"

	"github.com/itzcole03/atlas/pkg/models"
)

func TestScoreOpportunitiesFillsDerivedFields(t *testing.T) {
	items := scoreOpportunities([]models.BettingOpportunity{
		{ID: "a", Price: -110},
		{ID: "b", Price: 150, Confidence: 80}, // vendor-scored, keep it
	})

	a := items[0]
	if a.DecimalPrice < 1.9 || a.DecimalPrice > 1.92 {
		t.Errorf("DecimalPrice = %v, want ~1.909", a.DecimalPrice)
	}
	if a.ImpliedProb < 0.52 || a.ImpliedProb > 0.53 {
		t.Errorf("ImpliedProb = %v, want ~0.524", a.ImpliedProb)
	}
	if a.Confidence < 52 || a.Confidence > 53 {
		t.Errorf("Confidence = %v, want ~52.4", a.Confidence)
	}

	if items[1].Confidence != 80 {
		t.Errorf("vendor confidence overwritten: %v", items[1].Confidence)
	}
}

func TestClampProps(t *testing.T) {
	items := clampProps([]models.PlayerProp{
		{ID: "low", Confidence: 10},
		{ID: "mid", Confidence: 72.5},
		{ID: "high", Confidence: 99},
		{ID: "zero"},
	})

	expected := []float64{50, 72.5, 95, 50}
	for i, want := range expected {
		if items[i].Confidence != want {
			t.Errorf("%s: Confidence = %v, want %v", items[i].ID, items[i].Confidence, want)
		}
	}
}

func TestThresholdOpportunities(t *testing.T) {
	in := []models.BettingOpportunity{
		{ID: "a", Confidence: 80},
		{ID: "b", Confidence: 55},
		{ID: "c", Confidence: 60},
	}

	out := thresholdOpportunities(in, 60)
	if len(out) != 2 || out[0].ID != "a" || out[1].ID != "c" {
		t.Errorf("threshold kept %v", ids(out))
	}

	// Non-positive floor is a no-op.
	in = []models.BettingOpportunity{{ID: "a", Confidence: 1}}
	if out := thresholdOpportunities(in, 0); len(out) != 1 {
		t.Errorf("zero floor dropped items: %v", ids(out))
	}
}

func TestSortOpportunities(t *testing.T) {
	now := time.Now()
	in := []models.BettingOpportunity{
		{ID: "a", Confidence: 55, DecimalPrice: 2.5, CommenceTime: now.Add(2 * time.Hour)},
		{ID: "b", Confidence: 80, DecimalPrice: 1.9, CommenceTime: now.Add(time.Hour)},
		{ID: "c", Confidence: 60, DecimalPrice: 3.1, CommenceTime: now.Add(3 * time.Hour)},
	}

	tests := []struct {
		by       string
		expected []string
	}{
		{"confidence", []string{"b", "c", "a"}},
		{"price", []string{"c", "a", "b"}},
		{"commence_time", []string{"b", "a", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.by, func(t *testing.T) {
			items := append([]models.BettingOpportunity(nil), in...)
			sortOpportunities(items, tt.by)
			got := ids(items)
			for i := range tt.expected {
				if got[i] != tt.expected[i] {
					t.Fatalf("sort by %s = %v, want %v", tt.by, got, tt.expected)
				}
			}
		})
	}

	// Unknown sort field keeps input order.
	items := append([]models.BettingOpportunity(nil), in...)
	sortOpportunities(items, "bogus")
	if ids(items)[0] != "a" {
		t.Errorf("unknown sort reordered items: %v", ids(items))
	}
}

func TestTruncate(t *testing.T) {
	in := []int{1, 2, 3, 4, 5}

	if got := truncate(in, 3); len(got) != 3 {
		t.Errorf("truncate(5 items, 3) = %d items", len(got))
	}
	if got := truncate(in, 0); len(got) != 5 {
		t.Errorf("truncate(5 items, 0) = %d items", len(got))
	}
	if got := truncate(in, 10); len(got) != 5 {
		t.Errorf("truncate(5 items, 10) = %d items", len(got))
	}
}

func ids(items []models.BettingOpportunity) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}
