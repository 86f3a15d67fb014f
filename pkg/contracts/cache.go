package contracts

import (
	"context"
	"time"
)

// CacheStore is the interface for the facade's response cache. Payloads are
// opaque byte slices (the facade stores marshaled response envelopes), so an
// in-memory store and a Redis-backed store are interchangeable.
//
// An entry is valid iff now - creation < ttl; expired entries are treated as
// absent and removed lazily on the next lookup.
type CacheStore interface {
	// Get returns the payload for key, or found=false on a miss or an
	// expired entry.
	Get(ctx context.Context, key string) (payload []byte, found bool, err error)

	// Set stores payload under key with the given time-to-live.
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error

	// Delete removes a single entry. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every entry whose key starts with prefix and
	// returns how many were removed.
	DeletePrefix(ctx context.Context, prefix string) (int, error)

	// Flush removes all entries.
	Flush(ctx context.Context) error

	// Len returns the number of live entries.
	Len(ctx context.Context) (int, error)
}
