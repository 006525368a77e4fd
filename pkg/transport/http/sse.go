package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/courtside/courtside/pkg/api"
	"github.com/courtside/courtside/pkg/transport"
)

// writerState tracks the state of an SSE turn writer.
type writerState int

const (
	writerIdle      writerState = iota // no writes yet
	writerStreaming                    // WriteEvent has been called at least once
	writerCompleted                    // terminal event sent or WriteTurn called
)

// sseTurnWriter implements transport.TurnWriter over HTTP. It handles
// both streaming (SSE) and non-streaming (JSON) output; the two modes
// are mutually exclusive on a single writer.
type sseTurnWriter struct {
	w  http.ResponseWriter
	rc *http.ResponseController

	mu    sync.Mutex
	state writerState
}

var _ transport.TurnWriter = (*sseTurnWriter)(nil)

func newSSETurnWriter(w http.ResponseWriter) *sseTurnWriter {
	return &sseTurnWriter{
		w:  w,
		rc: http.NewResponseController(w),
	}
}

// WriteEvent sends a single SSE event:
//
//	event: {type}\n
//	data: {json}\n
//	\n
//
// After a terminal event, it also sends:
//
//	data: [DONE]\n
//	\n
//
// and refuses any further writes.
func (s *sseTurnWriter) WriteEvent(ctx context.Context, event api.StreamEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == writerCompleted {
		return errors.New("cannot write event: writer is completed")
	}

	// First event: set SSE headers.
	if s.state == writerIdle {
		s.w.Header().Set("Content-Type", "text/event-stream")
		s.w.Header().Set("Cache-Control", "no-cache")
		s.w.Header().Set("Connection", "keep-alive")
		s.state = writerStreaming
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event.Type, data); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	if err := s.rc.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}

	if api.TerminalEvents[event.Type] {
		if _, err := fmt.Fprint(s.w, "data: [DONE]\n\n"); err != nil {
			return fmt.Errorf("failed to write [DONE]: %w", err)
		}
		if err := s.rc.Flush(); err != nil {
			return fmt.Errorf("failed to flush [DONE]: %w", err)
		}
		s.state = writerCompleted
	}

	return nil
}

// WriteTurn sends a complete non-streaming JSON turn.
func (s *sseTurnWriter) WriteTurn(ctx context.Context, turn *api.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == writerStreaming {
		return errors.New("cannot write turn: streaming has already started")
	}
	if s.state == writerCompleted {
		return errors.New("cannot write turn: writer is completed")
	}

	s.w.Header().Set("Content-Type", "application/json")
	s.state = writerCompleted

	if err := json.NewEncoder(s.w).Encode(turn); err != nil {
		return fmt.Errorf("failed to encode turn: %w", err)
	}

	return nil
}

// Flush pushes buffered data to the client.
func (s *sseTurnWriter) Flush() error {
	return s.rc.Flush()
}

// hasStartedStreaming reports whether at least one SSE event was written.
func (s *sseTurnWriter) hasStartedStreaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == writerStreaming || (s.state == writerCompleted && s.w.Header().Get("Content-Type") == "text/event-stream")
}
