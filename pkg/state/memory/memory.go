// Package memory provides the in-memory conversation state tracker,
// used for tests and single-instance deployments.
package memory

import (
	"context"
	"sync"
)

// Tracker keeps conversation state in process memory.
type Tracker struct {
	mu sync.RWMutex

	// lastByKey maps conversation key to the latest recorded turn ID.
	lastByKey map[string]string

	// knownTurns holds every turn ID ever recorded, so continuity
	// survives a conversation key being overwritten by a newer turn.
	knownTurns map[string]struct{}
}

// New creates an empty in-memory tracker.
func New() *Tracker {
	return &Tracker{
		lastByKey:  make(map[string]string),
		knownTurns: make(map[string]struct{}),
	}
}

func (t *Tracker) Continue(_ context.Context, priorTurnID string) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.knownTurns[priorTurnID]
	return ok, nil
}

func (t *Tracker) Last(_ context.Context, conversationKey string) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastByKey[conversationKey], nil
}

func (t *Tracker) Record(_ context.Context, conversationKey, turnID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if conversationKey != "" {
		t.lastByKey[conversationKey] = turnID
	}
	t.knownTurns[turnID] = struct{}{}
	return nil
}

func (t *Tracker) Reset(_ context.Context, conversationKey string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.lastByKey, conversationKey)
	return nil
}

func (t *Tracker) Close() error { return nil }
