// Package cache provides the tool-result cache store: a key/value store
// with per-entry TTL, deterministic cache keys derived from tool calls,
// and the content-aware TTL policy used by the dispatcher.
//
// An expired entry is never served. A hit is indistinguishable from a
// live fetch except for the source tag and latency.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned when a key is absent or its entry has expired.
var ErrMiss = errors.New("cache miss")

// Store is a key/value store with per-entry TTL. Implementations must
// be safe for concurrent use; writes are idempotent (same key, same
// value bytes for a given upstream response), so no locking is required
// beyond what the store itself provides.
type Store interface {
	// Get returns the value for key, or ErrMiss if absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key with the given TTL. A non-positive TTL
	// means the entry is not cached at all.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases store resources.
	Close() error
}
