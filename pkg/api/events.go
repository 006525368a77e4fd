package api

// StreamEventType identifies the type of a streaming event.
type StreamEventType string

// Lifecycle events track the turn state machine.
const (
	EventTurnCreated    StreamEventType = "turn.created"
	EventTurnInProgress StreamEventType = "turn.in_progress"
	EventTurnCompleted  StreamEventType = "turn.completed"
	EventTurnFailed     StreamEventType = "turn.failed"
)

// Progress events convey incremental output as soon as the underlying
// fact becomes true. Ordering is guaranteed by SequenceNumber.
const (
	EventOutputTextDelta   StreamEventType = "turn.output_text.delta"
	EventOutputTextDone    StreamEventType = "turn.output_text.done"
	EventToolCallStarted   StreamEventType = "turn.tool_call.started"
	EventToolCallCompleted StreamEventType = "turn.tool_call.completed"
	EventToolCallFailed    StreamEventType = "turn.tool_call.failed"
)

// EventError is the terminal event for a mid-stream failure. A stream
// never closes silently: clients always see a terminal event.
const EventError StreamEventType = "turn.error"

// StreamEvent is a single server-sent event in a streaming turn.
// SequenceNumber increases monotonically from zero within one turn.
type StreamEvent struct {
	Type           StreamEventType `json:"type"`
	SequenceNumber int             `json:"sequence_number"`
	Turn           *Turn           `json:"turn,omitempty"`
	Item           *Item           `json:"item,omitempty"`
	Delta          string          `json:"delta,omitempty"`
	ItemID         string          `json:"item_id,omitempty"`
	OutputIndex    int             `json:"output_index,omitempty"`
	Error          *TurnError      `json:"error,omitempty"`
}

// TerminalEvents are the event types that end a streaming turn.
var TerminalEvents = map[StreamEventType]bool{
	EventTurnCompleted: true,
	EventTurnFailed:    true,
	EventError:         true,
}
