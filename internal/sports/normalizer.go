package sports

import (
	"log/slog"
	"regexp"
	"strings"
)

// aliases is the single canonical alias table, shared by normalization and
// filtering so the two cannot drift apart. Keys are in canonicalized form
// (lowercase, hyphen-separated).
var aliases = map[string]string{
	"basketball":          "nba",
	"pro-basketball":      "nba",
	"football":            "nfl",
	"american-football":   "nfl",
	"baseball":            "mlb",
	"hockey":              "nhl",
	"ice-hockey":          "nhl",
	"college-basketball":  "ncaab",
	"cbb":                 "ncaab",
	"college-football":    "ncaaf",
	"cfb":                 "ncaaf",
	"golf":                "pga",
	"ufc":                 "mma",
	"mixed-martial-arts":  "mma",
	"futbol":              "soccer",
	"epl":                 "soccer",
	"premier-league":      "soccer",
	"womens-basketball":   "wnba",
	"esport":              "esports",
	"e-sports":            "esports",
	"csgo":                "esports",
	"league-of-legends":   "esports",
	"any":                 Wildcard,
	"everything":          Wildcard,
}

var separatorRuns = regexp.MustCompile(`[\s_-]+`)

// canonicalize lowercases the input and collapses runs of hyphens,
// underscores, and whitespace into single hyphens.
func canonicalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Trim(separatorRuns.ReplaceAllString(s, "-"), "-")
}

// Result is a normalization outcome. Defaulted is set when the input did not
// resolve to a registered sport and was substituted with the wildcard, so
// callers can distinguish an explicit "all" from a degraded unknown input.
type Result struct {
	ID        string
	Defaulted bool
}

// Normalizer maps arbitrary input strings to canonical sport ids. It is a
// pure function of its input plus the static alias and registry tables; the
// only side effect is a warn-level log when input degrades to the wildcard.
type Normalizer struct {
	registry *Registry
	logger   *slog.Logger
}

// NewNormalizer creates a normalizer over the given registry.
func NewNormalizer(registry *Registry, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{registry: registry, logger: logger}
}

// Registry returns the registry this normalizer resolves against.
func (n *Normalizer) Registry() *Registry {
	return n.registry
}

// Normalize resolves an arbitrary input string to a canonical sport id.
// Normalization is total: empty input and explicit wildcards resolve to the
// wildcard id, and unrecognized input degrades to the wildcard with
// Defaulted=true rather than returning an error.
func (n *Normalizer) Normalize(input string) Result {
	canon := canonicalize(input)
	if canon == "" || canon == Wildcard {
		return Result{ID: Wildcard}
	}

	if id, ok := aliases[canon]; ok {
		return Result{ID: id}
	}

	if n.registry.IsRegistered(canon) {
		return Result{ID: canon}
	}

	n.logger.Warn("unknown sport, defaulting to wildcard", "input", input)
	return Result{ID: Wildcard, Defaulted: true}
}

// resolveTag maps a record's free-text sport tag to its canonical form
// without the degrade-to-wildcard policy: unknown tags keep their
// canonicalized spelling so grouping does not conflate them with "all".
func resolveTag(tag string, useAliases bool) string {
	canon := canonicalize(tag)
	if useAliases {
		if id, ok := aliases[canon]; ok {
			return id
		}
	}
	return canon
}
