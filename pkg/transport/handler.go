// Package transport defines the contracts between the HTTP layer and
// the orchestrator, the shared middleware chain, and the mapping from
// turn errors to HTTP status codes.
package transport

import (
	"context"

	"github.com/courtside/courtside/pkg/api"
)

// TurnHandler processes one turn request and writes the result, either
// a stream of events or a single complete turn, to the TurnWriter.
type TurnHandler interface {
	HandleTurn(ctx context.Context, req *api.TurnRequest, w TurnWriter) error
}

// TurnHandlerFunc adapts an ordinary function to a TurnHandler.
type TurnHandlerFunc func(ctx context.Context, req *api.TurnRequest, w TurnWriter) error

// HandleTurn calls f(ctx, req, w).
func (f TurnHandlerFunc) HandleTurn(ctx context.Context, req *api.TurnRequest, w TurnWriter) error {
	return f(ctx, req, w)
}

// TurnWriter abstracts streaming and non-streaming output. The
// transport creates one writer per request; the handler uses WriteEvent
// for streaming turns or WriteTurn for whole-payload turns. The two are
// mutually exclusive on a single writer, and WriteEvent after a
// terminal event is an error.
type TurnWriter interface {
	// WriteEvent sends a single streaming event.
	WriteEvent(ctx context.Context, event api.StreamEvent) error

	// WriteTurn sends a complete non-streaming turn.
	WriteTurn(ctx context.Context, turn *api.Turn) error

	// Flush pushes buffered data to the client. Returns an error if the
	// client has disconnected.
	Flush() error
}

// ConversationResetter deletes conversation state on explicit client
// request. Implemented by the state tracker.
type ConversationResetter interface {
	Reset(ctx context.Context, conversationKey string) error
}

// HealthChecker verifies a dependency is reachable. Stores that cannot
// cheaply probe themselves may return nil unconditionally.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
