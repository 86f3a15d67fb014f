package unified

import (
	"sort"

	"github.com/itzcole03/atlas/pkg/models"
	"github.com/itzcole03/atlas/pkg/odds"
)

// Prop confidence bounds. Projections arrive unscored, so everything is
// pulled into this band before thresholding.
const (
	propConfidenceFloor   = 50.0
	propConfidenceCeiling = 95.0
)

// scoreOpportunities fills in derived numeric fields. Confidence defaults to
// the outcome's implied probability expressed as a percentage when the
// vendor supplied none.
func scoreOpportunities(items []models.BettingOpportunity) []models.BettingOpportunity {
	for i := range items {
		if items[i].DecimalPrice == 0 {
			items[i].DecimalPrice = odds.AmericanToDecimal(items[i].Price)
		}
		if items[i].ImpliedProb == 0 {
			items[i].ImpliedProb = odds.ImpliedProbability(items[i].Price)
		}
		if items[i].Confidence == 0 {
			items[i].Confidence = odds.Clamp(items[i].ImpliedProb*100, 0, 100)
		}
	}
	return items
}

// clampProps coerces every prop's confidence into [50,95].
func clampProps(items []models.PlayerProp) []models.PlayerProp {
	for i := range items {
		items[i].Confidence = odds.Clamp(items[i].Confidence, propConfidenceFloor, propConfidenceCeiling)
	}
	return items
}

// thresholdOpportunities drops items below the confidence floor, preserving
// relative order.
func thresholdOpportunities(items []models.BettingOpportunity, minConfidence float64) []models.BettingOpportunity {
	if minConfidence <= 0 {
		return items
	}
	out := items[:0]
	for _, item := range items {
		if item.Confidence >= minConfidence {
			out = append(out, item)
		}
	}
	return out
}

func thresholdProps(items []models.PlayerProp, minConfidence float64) []models.PlayerProp {
	if minConfidence <= 0 {
		return items
	}
	out := items[:0]
	for _, item := range items {
		if item.Confidence >= minConfidence {
			out = append(out, item)
		}
	}
	return out
}

// sortOpportunities orders by the requested field, highest confidence and
// best price first, soonest event first. Unknown fields leave the input
// order untouched.
func sortOpportunities(items []models.BettingOpportunity, by string) {
	switch by {
	case "confidence":
		sort.SliceStable(items, func(i, j int) bool { return items[i].Confidence > items[j].Confidence })
	case "price":
		sort.SliceStable(items, func(i, j int) bool { return items[i].DecimalPrice > items[j].DecimalPrice })
	case "commence_time":
		sort.SliceStable(items, func(i, j int) bool { return items[i].CommenceTime.Before(items[j].CommenceTime) })
	}
}

func sortProps(items []models.PlayerProp, by string) {
	switch by {
	case "confidence":
		sort.SliceStable(items, func(i, j int) bool { return items[i].Confidence > items[j].Confidence })
	case "line":
		sort.SliceStable(items, func(i, j int) bool { return items[i].Line > items[j].Line })
	case "game_time":
		sort.SliceStable(items, func(i, j int) bool { return items[i].GameTime.Before(items[j].GameTime) })
	}
}

// truncate bounds a slice to max elements; non-positive max means no bound.
func truncate[T any](items []T, max int) []T {
	if max > 0 && len(items) > max {
		return items[:max]
	}
	return items
}
