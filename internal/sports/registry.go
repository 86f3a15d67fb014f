// Package sports provides the static sport registry, canonical sport id
// normalization, and filtering of sport-taggable records.
package sports

import (
	"sort"
	"time"
)

// Wildcard is the canonical id meaning "no filtering".
const Wildcard = "all"

// Category classifies a sport for presentation grouping.
type Category string

const (
	CategoryProfessional  Category = "professional"
	CategoryCollege       Category = "college"
	CategoryInternational Category = "international"
	CategoryEsports       Category = "esports"
	CategoryOther         Category = "other"
)

// Season describes the months a sport is active. Wrap-around windows
// (e.g. NBA October through June) are supported.
type Season struct {
	StartMonth time.Month
	EndMonth   time.Month
	YearRound  bool
}

// Descriptor holds the static metadata for one supported sport.
// Constructed once at process start, never mutated.
type Descriptor struct {
	ID          string
	DisplayName string
	Emoji       string
	Color       string
	Category    Category
	Season      Season
}

// descriptors is the static table of supported sports. Exactly one entry
// carries the wildcard id.
func descriptors() []Descriptor {
	return []Descriptor{
		{ID: Wildcard, DisplayName: "All Sports", Emoji: "🌐", Color: "#6366f1", Category: CategoryOther, Season: Season{YearRound: true}},
		{ID: "nba", DisplayName: "NBA", Emoji: "🏀", Color: "#ef4444", Category: CategoryProfessional, Season: Season{StartMonth: time.October, EndMonth: time.June}},
		{ID: "wnba", DisplayName: "WNBA", Emoji: "🏀", Color: "#f97316", Category: CategoryProfessional, Season: Season{StartMonth: time.May, EndMonth: time.October}},
		{ID: "nfl", DisplayName: "NFL", Emoji: "🏈", Color: "#22c55e", Category: CategoryProfessional, Season: Season{StartMonth: time.September, EndMonth: time.February}},
		{ID: "mlb", DisplayName: "MLB", Emoji: "⚾", Color: "#3b82f6", Category: CategoryProfessional, Season: Season{StartMonth: time.March, EndMonth: time.October}},
		{ID: "nhl", DisplayName: "NHL", Emoji: "🏒", Color: "#06b6d4", Category: CategoryProfessional, Season: Season{StartMonth: time.October, EndMonth: time.June}},
		{ID: "ncaab", DisplayName: "College Basketball", Emoji: "🏀", Color: "#eab308", Category: CategoryCollege, Season: Season{StartMonth: time.November, EndMonth: time.April}},
		{ID: "ncaaf", DisplayName: "College Football", Emoji: "🏈", Color: "#84cc16", Category: CategoryCollege, Season: Season{StartMonth: time.August, EndMonth: time.January}},
		{ID: "soccer", DisplayName: "Soccer", Emoji: "⚽", Color: "#14b8a6", Category: CategoryInternational, Season: Season{StartMonth: time.August, EndMonth: time.May}},
		{ID: "tennis", DisplayName: "Tennis", Emoji: "🎾", Color: "#a3e635", Category: CategoryInternational, Season: Season{YearRound: true}},
		{ID: "pga", DisplayName: "Golf", Emoji: "⛳", Color: "#10b981", Category: CategoryProfessional, Season: Season{StartMonth: time.January, EndMonth: time.November}},
		{ID: "mma", DisplayName: "MMA", Emoji: "🥊", Color: "#dc2626", Category: CategoryProfessional, Season: Season{YearRound: true}},
		{ID: "boxing", DisplayName: "Boxing", Emoji: "🥊", Color: "#b91c1c", Category: CategoryProfessional, Season: Season{YearRound: true}},
		{ID: "esports", DisplayName: "Esports", Emoji: "🎮", Color: "#8b5cf6", Category: CategoryEsports, Season: Season{YearRound: true}},
	}
}

// Registry provides lookups over the static sport table.
type Registry struct {
	byID  map[string]Descriptor
	order []string // sorted ids, wildcard first
}

// NewRegistry builds the registry from the static descriptor table.
func NewRegistry() *Registry {
	descs := descriptors()

	r := &Registry{
		byID: make(map[string]Descriptor, len(descs)),
	}

	ids := make([]string, 0, len(descs))
	for _, d := range descs {
		r.byID[d.ID] = d
		if d.ID != Wildcard {
			ids = append(ids, d.ID)
		}
	}
	sort.Strings(ids)

	r.order = append([]string{Wildcard}, ids...)
	return r
}

// Get retrieves a descriptor by canonical id.
func (r *Registry) Get(id string) (Descriptor, bool) {
	d, ok := r.byID[id]
	return d, ok
}

// IsRegistered reports whether id is a known canonical sport id.
func (r *Registry) IsRegistered(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// All returns every descriptor in stable order, wildcard first.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// IDs returns every canonical id in stable order, wildcard first.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Count returns the number of registered sports, including the wildcard.
func (r *Registry) Count() int {
	return len(r.byID)
}

// InSeason reports whether the sport is in season at the given time.
// Unknown ids report false.
func (r *Registry) InSeason(id string, at time.Time) bool {
	d, ok := r.byID[id]
	if !ok {
		return false
	}
	if d.Season.YearRound {
		return true
	}

	month := at.Month()
	start, end := d.Season.StartMonth, d.Season.EndMonth
	if start <= end {
		return month >= start && month <= end
	}
	// Wrap-around season (e.g. October through June)
	return month >= start || month <= end
}
