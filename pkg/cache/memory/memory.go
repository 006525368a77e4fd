// Package memory provides an in-memory cache.Store for testing and
// single-process deployments. Entries are lost on restart. Optional LRU
// eviction bounds memory usage.
package memory

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/courtside/courtside/pkg/cache"
)

// entry holds a cached value and its expiry.
type entry struct {
	value     []byte
	expiresAt time.Time
	lruElem   *list.Element
}

// Store is an in-memory cache with per-entry TTL and optional LRU
// eviction.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	lruList *list.List // front = most recently used
	maxSize int        // 0 = unlimited

	// now is replaceable for expiry tests.
	now func() time.Time
}

var _ cache.Store = (*Store)(nil)

// New creates an in-memory store. If maxSize is 0 the store grows
// without limit; otherwise the least recently used entry is evicted
// when the limit is reached.
func New(maxSize int) *Store {
	return &Store{
		entries: make(map[string]*entry),
		lruList: list.New(),
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Get returns the value for key, or cache.ErrMiss if absent or expired.
// Expired entries are removed on access.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	if s.now().After(e.expiresAt) {
		s.removeLocked(key, e)
		return nil, cache.ErrMiss
	}

	s.lruList.MoveToFront(e.lruElem)

	// Copy so callers cannot mutate the cached bytes.
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set stores value under key. A non-positive TTL is a no-op.
func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)

	if e, ok := s.entries[key]; ok {
		e.value = stored
		e.expiresAt = s.now().Add(ttl)
		s.lruList.MoveToFront(e.lruElem)
		return nil
	}

	if s.maxSize > 0 && len(s.entries) >= s.maxSize {
		s.evictOldestLocked()
	}

	elem := s.lruList.PushFront(key)
	s.entries[key] = &entry{
		value:     stored,
		expiresAt: s.now().Add(ttl),
		lruElem:   elem,
	}
	return nil
}

// Delete removes a key. Absent keys are not an error.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		s.removeLocked(key, e)
	}
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }

// Len reports the number of entries, including not-yet-collected
// expired ones. Used by tests and the health endpoint.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) removeLocked(key string, e *entry) {
	s.lruList.Remove(e.lruElem)
	delete(s.entries, key)
}

func (s *Store) evictOldestLocked() {
	back := s.lruList.Back()
	if back == nil {
		return
	}
	key := back.Value.(string)
	if e, ok := s.entries[key]; ok {
		s.removeLocked(key, e)
	}
}
