package sports

import (
	"sort"
	"strings"
)

// Taggable is any record carrying a free-text sport field.
type Taggable interface {
	SportTag() string
}

// FilterOptions controls matching behavior. Use DefaultFilterOptions as the
// starting point; the zero value disables the lenient defaults.
type FilterOptions struct {
	// AllowPartialMatch accepts a record when, after an exact canonical-id
	// match fails, either string contains the other as a substring. This is
	// intentionally lenient to tolerate inconsistent upstream tagging; it
	// trades precision for recall.
	AllowPartialMatch bool

	// CaseSensitive makes partial matching case-sensitive.
	CaseSensitive bool

	// UseAliases applies the shared alias table to each item's sport tag
	// before comparison.
	UseAliases bool

	// IncludeAll returns the input unchanged when the target resolves to
	// the wildcard.
	IncludeAll bool
}

// DefaultFilterOptions returns the lenient defaults: partial matching on,
// case-insensitive, wildcard bypass on, aliases off.
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{
		AllowPartialMatch: true,
		IncludeAll:        true,
	}
}

// Filter returns the items matching target, preserving relative order.
// The target is normalized first, so an unknown target degrades to the
// wildcard and (with IncludeAll) filters nothing. O(n) in input size,
// no I/O.
func Filter[T Taggable](n *Normalizer, items []T, target string, opts FilterOptions) []T {
	targetID := n.Normalize(target).ID
	if targetID == Wildcard && opts.IncludeAll {
		return items
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		if matches(item.SportTag(), target, targetID, opts) {
			out = append(out, item)
		}
	}
	return out
}

// matches checks one record tag against the normalized target.
func matches(tag, rawTarget, targetID string, opts FilterOptions) bool {
	if resolveTag(tag, opts.UseAliases) == targetID {
		return true
	}

	if !opts.AllowPartialMatch {
		return false
	}

	a, b := tag, rawTarget
	if !opts.CaseSensitive {
		a, b = strings.ToLower(a), strings.ToLower(b)
	}
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// UniqueSports returns the distinct canonical sports present in items,
// stable-sorted with the wildcard first.
func UniqueSports[T Taggable](items []T) []string {
	seen := make(map[string]bool)
	for _, item := range items {
		id := resolveTag(item.SportTag(), true)
		if id != "" && id != Wildcard {
			seen[id] = true
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return append([]string{Wildcard}, ids...)
}

// GroupBySport groups items by canonical sport id, preserving insertion
// order within each group.
func GroupBySport[T Taggable](items []T) map[string][]T {
	groups := make(map[string][]T)
	for _, item := range items {
		id := resolveTag(item.SportTag(), true)
		groups[id] = append(groups[id], item)
	}
	return groups
}

// CountBySport counts items per canonical sport id.
func CountBySport[T Taggable](items []T) map[string]int {
	counts := make(map[string]int)
	for _, item := range items {
		counts[resolveTag(item.SportTag(), true)]++
	}
	return counts
}
