package cache

import (
	"context"
	"fmt"

	"time"

	"github.com/redis/go-redis/v9"

	"github.com/itzcole03/atlas/pkg/contracts"
)

// keyNamespace prefixes every cache key in Redis so a shared instance can
// host other services without collisions.
const keyNamespace = "atlas:cache:"

// Redis is a CacheStore backed by a Redis instance. TTL enforcement is
// delegated to Redis key expiry; capacity is managed by Redis itself
// (maxmemory policy), so there is no LRU bookkeeping here.
type Redis struct {
	client *redis.Client
}

var _ contracts.CacheStore = (*Redis)(nil)

// NewRedis creates a Redis-backed store over an existing client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Get returns the payload for key, or found=false on a miss.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	payload, err := r.client.Get(ctx, keyNamespace+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return payload, true, nil
}

// Set stores payload under key with Redis-side expiry.
func (r *Redis) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, keyNamespace+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes a single entry.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, keyNamespace+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// DeletePrefix removes every entry whose key starts with prefix, scanning
// in batches to avoid blocking Redis.
func (r *Redis) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	var cursor uint64
	removed := 0

	for {
		keys, next, err := r.client.Scan(ctx, cursor, keyNamespace+prefix+"*", 200).Result()
		if err != nil {
			return removed, fmt.Errorf("redis scan: %w", err)
		}

		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return removed, fmt.Errorf("redis del: %w", err)
			}
			removed += len(keys)
		}

		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}

// Flush removes all entries in this store's namespace.
func (r *Redis) Flush(ctx context.Context) error {
	_, err := r.DeletePrefix(ctx, "")
	return err
}

// Len returns the number of live entries in this store's namespace.
func (r *Redis) Len(ctx context.Context) (int, error) {
	var cursor uint64
	count := 0

	for {
		keys, next, err := r.client.Scan(ctx, cursor, keyNamespace+"*", 200).Result()
		if err != nil {
			return count, fmt.Errorf("redis scan: %w", err)
		}
		count += len(keys)

		cursor = next
		if cursor == 0 {
			return count, nil
		}
	}
}
