package unified

import (
	"fmt"

	"github.com/itzcole03/atlas/pkg/models"
)

// Cache key layout: endpoint:sport:serialized-filters. The sport sits in its
// own segment so per-sport invalidation can delete by prefix.
const (
	endpointOpportunities = "opportunities"
	endpointProps         = "props"
	endpointEvents        = "events"
	endpointSports        = "sports"
)

// cacheKey builds the cache key for an endpoint and canonicalized filters.
// The sport id must already be normalized so case variants of the same
// request share one entry.
func cacheKey(endpoint, sportID string, f models.FetchFilters) string {
	return fmt.Sprintf("%s:%s:conf=%g:sort=%s:max=%d",
		endpoint, sportID, f.MinConfidence, f.SortBy, f.MaxResults)
}

// sportPrefix is the key prefix covering every entry for one sport under an
// endpoint.
func sportPrefix(endpoint, sportID string) string {
	return endpoint + ":" + sportID + ":"
}
