package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/courtside/courtside/pkg/api"
)

func TestWriteTurnJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newSSETurnWriter(rec)

	turn := &api.Turn{
		ID:     "turn_abc123",
		Object: "turn",
		Status: api.TurnStatusCompleted,
		Domain: "baseball",
	}

	if err := rw.WriteTurn(context.Background(), turn); err != nil {
		t.Fatalf("WriteTurn error: %v", err)
	}

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}

	var got api.Turn
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if got.ID != "turn_abc123" {
		t.Errorf("ID = %q, want %q", got.ID, "turn_abc123")
	}
	if got.Status != api.TurnStatusCompleted {
		t.Errorf("Status = %q, want %q", got.Status, api.TurnStatusCompleted)
	}
}

func TestWriteEventSSEFormat(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newSSETurnWriter(rec)

	event := api.StreamEvent{
		Type:           api.EventOutputTextDelta,
		SequenceNumber: 1,
		Delta:          "The Dodgers",
		ItemID:         "item_001",
	}

	if err := rw.WriteEvent(context.Background(), event); err != nil {
		t.Fatalf("WriteEvent error: %v", err)
	}

	body := rec.Body.String()

	if !strings.Contains(body, "event: turn.output_text.delta\n") {
		t.Errorf("missing event type line in:\n%s", body)
	}

	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "data: ") {
			var got api.StreamEvent
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &got); err != nil {
				t.Fatalf("failed to parse event JSON: %v", err)
			}
			if got.Type != api.EventOutputTextDelta {
				t.Errorf("event type = %q, want %q", got.Type, api.EventOutputTextDelta)
			}
			if got.Delta != "The Dodgers" {
				t.Errorf("delta = %q, want %q", got.Delta, "The Dodgers")
			}
		}
	}
}

func TestWriteEventSSEHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newSSETurnWriter(rec)

	rw.WriteEvent(context.Background(), api.StreamEvent{Type: api.EventTurnCreated})

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want %q", ct, "text/event-stream")
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Cache-Control = %q, want %q", cc, "no-cache")
	}
	if conn := rec.Header().Get("Connection"); conn != "keep-alive" {
		t.Errorf("Connection = %q, want %q", conn, "keep-alive")
	}
}

func TestWriteEventTerminalSendsDone(t *testing.T) {
	tests := []struct {
		name      string
		eventType api.StreamEventType
	}{
		{"completed", api.EventTurnCompleted},
		{"failed", api.EventTurnFailed},
		{"error", api.EventError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			rw := newSSETurnWriter(rec)

			if err := rw.WriteEvent(context.Background(), api.StreamEvent{Type: tt.eventType}); err != nil {
				t.Fatalf("WriteEvent error: %v", err)
			}

			if !strings.Contains(rec.Body.String(), "data: [DONE]\n\n") {
				t.Errorf("missing [DONE] after terminal event in:\n%s", rec.Body.String())
			}

			// No further writes after the terminal event.
			if err := rw.WriteEvent(context.Background(), api.StreamEvent{Type: api.EventOutputTextDelta}); err == nil {
				t.Error("expected error writing after terminal event")
			}
		})
	}
}

func TestNonTerminalEventNoDone(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newSSETurnWriter(rec)

	rw.WriteEvent(context.Background(), api.StreamEvent{Type: api.EventTurnInProgress})

	if strings.Contains(rec.Body.String(), "[DONE]") {
		t.Errorf("unexpected [DONE] after non-terminal event in:\n%s", rec.Body.String())
	}
}

func TestWriteTurnAfterStreamingRejected(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newSSETurnWriter(rec)

	rw.WriteEvent(context.Background(), api.StreamEvent{Type: api.EventTurnCreated})

	if err := rw.WriteTurn(context.Background(), &api.Turn{ID: "turn_x"}); err == nil {
		t.Error("expected error writing turn after streaming started")
	}
}

func TestWriteEventAfterTurnRejected(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newSSETurnWriter(rec)

	if err := rw.WriteTurn(context.Background(), &api.Turn{ID: "turn_x"}); err != nil {
		t.Fatalf("WriteTurn error: %v", err)
	}
	if err := rw.WriteEvent(context.Background(), api.StreamEvent{Type: api.EventTurnCreated}); err == nil {
		t.Error("expected error writing event after WriteTurn")
	}
}

func TestHasStartedStreaming(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newSSETurnWriter(rec)

	if rw.hasStartedStreaming() {
		t.Error("hasStartedStreaming true before any write")
	}

	rw.WriteEvent(context.Background(), api.StreamEvent{Type: api.EventTurnCreated})
	if !rw.hasStartedStreaming() {
		t.Error("hasStartedStreaming false after WriteEvent")
	}

	rw.WriteEvent(context.Background(), api.StreamEvent{Type: api.EventTurnCompleted})
	if !rw.hasStartedStreaming() {
		t.Error("hasStartedStreaming false after terminal event")
	}
}
