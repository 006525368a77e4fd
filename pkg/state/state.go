// Package state tracks conversation continuity: the identifier of the
// most recently completed turn per conversation key, so a new request
// can continue the conversation without resending the transcript.
//
// Continuity is best-effort. An unknown or expired prior-turn reference
// starts a fresh conversation; it never fails the turn. Two turns
// racing on the same conversation key resolve last-write-wins.
package state

import "context"

// Tracker persists conversation state.
type Tracker interface {
	// Continue reports whether priorTurnID refers to a recorded turn.
	// A false result means the caller proceeds as a fresh conversation.
	Continue(ctx context.Context, priorTurnID string) (bool, error)

	// Last returns the most recently recorded turn ID for a conversation
	// key, or "" when the key has no state.
	Last(ctx context.Context, conversationKey string) (string, error)

	// Record stores turnID as the latest turn for the conversation key,
	// overwriting any prior value. It is the only mutator.
	Record(ctx context.Context, conversationKey, turnID string) error

	// Reset deletes the state for a conversation key. Resetting an
	// absent key is not an error.
	Reset(ctx context.Context, conversationKey string) error

	// Close releases tracker resources.
	Close() error
}
