// Package redis provides a cache.Store backed by Redis, for deployments
// where multiple orchestrator instances share one tool-result cache.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/courtside/courtside/pkg/cache"
)

// keyPrefix namespaces courtside cache entries within a shared Redis.
const keyPrefix = "courtside:cache:"

// Store is a Redis-backed cache.Store. Per-entry TTL maps directly to
// Redis key expiry, so expired entries can never be served.
type Store struct {
	client *redis.Client
}

var _ cache.Store = (*Store)(nil)

// New creates a Store around an existing Redis client. The caller owns
// client configuration (addresses, pooling, auth).
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

// Get returns the value for key, or cache.ErrMiss if absent or expired.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, cache.ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

// Set stores value under key with the given TTL. A non-positive TTL is
// a no-op.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, keyPrefix+key, value, ttl).Err()
}

// Delete removes a key. Absent keys are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, keyPrefix+key).Err()
}

// HealthCheck verifies the Redis connection is alive.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying Redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
