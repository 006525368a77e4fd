package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/courtside/courtside/pkg/cache"
)

func TestSetGet(t *testing.T) {
	s := New(0)
	ctx := context.Background()

	if err := s.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "v" {
		t.Errorf("Get = %q, want %q", got, "v")
	}
}

func TestGetMiss(t *testing.T) {
	s := New(0)
	if _, err := s.Get(context.Background(), "absent"); !errors.Is(err, cache.ErrMiss) {
		t.Errorf("Get on absent key = %v, want ErrMiss", err)
	}
}

func TestExpiry(t *testing.T) {
	s := New(0)
	ctx := context.Background()

	now := time.Now()
	s.now = func() time.Time { return now }

	if err := s.Set(ctx, "k", []byte("v"), 30*time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// Still fresh.
	if _, err := s.Get(ctx, "k"); err != nil {
		t.Fatalf("Get before expiry: %v", err)
	}

	// Advance past the TTL: the entry must never be served.
	now = now.Add(31 * time.Second)
	if _, err := s.Get(ctx, "k"); !errors.Is(err, cache.ErrMiss) {
		t.Errorf("Get after expiry = %v, want ErrMiss", err)
	}
	if s.Len() != 0 {
		t.Errorf("expired entry should be removed on access, len = %d", s.Len())
	}
}

func TestNonPositiveTTLNotCached(t *testing.T) {
	s := New(0)
	ctx := context.Background()

	if err := s.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, cache.ErrMiss) {
		t.Error("zero TTL must not cache")
	}
}

func TestLRUEviction(t *testing.T) {
	s := New(2)
	ctx := context.Background()

	s.Set(ctx, "a", []byte("1"), time.Minute)
	s.Set(ctx, "b", []byte("2"), time.Minute)

	// Touch "a" so "b" becomes the eviction candidate.
	s.Get(ctx, "a")

	s.Set(ctx, "c", []byte("3"), time.Minute)

	if _, err := s.Get(ctx, "b"); !errors.Is(err, cache.ErrMiss) {
		t.Error("least recently used entry should have been evicted")
	}
	if _, err := s.Get(ctx, "a"); err != nil {
		t.Errorf("recently used entry should survive eviction: %v", err)
	}
	if _, err := s.Get(ctx, "c"); err != nil {
		t.Errorf("new entry should be present: %v", err)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s := New(0)
	ctx := context.Background()

	s.Set(ctx, "k", []byte("abc"), time.Minute)

	got, _ := s.Get(ctx, "k")
	got[0] = 'X'

	again, _ := s.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("cached bytes were mutated through the returned slice: %q", again)
	}
}

func TestDelete(t *testing.T) {
	s := New(0)
	ctx := context.Background()

	s.Set(ctx, "k", []byte("v"), time.Minute)
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, cache.ErrMiss) {
		t.Error("deleted key should miss")
	}
	// Deleting an absent key is fine.
	if err := s.Delete(ctx, "absent"); err != nil {
		t.Errorf("Delete absent key: %v", err)
	}
}
