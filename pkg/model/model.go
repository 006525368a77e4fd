// Package model abstracts the upstream model endpoint. The client is
// protocol-agnostic from the orchestrator's point of view: it accepts
// assembled instructions, the conversation messages, and the selected
// tool specs, and yields either a final answer or tool-call requests.
//
// Implementations must be safe for concurrent use.
package model

import (
	"context"

	"github.com/courtside/courtside/pkg/api"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of the conversation sent to the model. Assistant
// messages may carry tool calls; tool messages carry the result for one
// call, linked through ToolCallID.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []api.ToolCallData
	ToolCallID string
}

// Request is the model-facing request for one inference round.
type Request struct {
	// Instructions is the assembled instruction text (system layer).
	Instructions string

	// Messages is the conversation so far, oldest first. Tool results
	// from earlier rounds of the same turn appear as RoleTool messages.
	Messages []Message

	// Tools are the specs selected for the turn's domain.
	Tools []api.ToolSpec

	// PriorTurnID references an earlier turn for server-side continuity.
	PriorTurnID string

	// Stream requests incremental delivery.
	Stream bool
}

// Response is a complete (non-streaming) inference result: final answer
// text, tool-call requests, or both.
type Response struct {
	Text      string
	ToolCalls []api.ToolCallData
}

// EventType classifies a streaming event from the model.
type EventType int

const (
	// EventTextDelta carries an incremental piece of answer text.
	EventTextDelta EventType = iota

	// EventToolCall carries one fully assembled tool-call request.
	EventToolCall

	// EventCompleted is the terminal success event; Response holds the
	// accumulated result.
	EventCompleted

	// EventError is the terminal failure event.
	EventError
)

// Event is a single streaming event. Exactly one terminal event
// (EventCompleted or EventError) ends every stream.
type Event struct {
	Type     EventType
	Delta    string
	ToolCall *api.ToolCallData
	Response *Response
	Err      error
}

// Client performs inference against the model endpoint.
type Client interface {
	// Complete performs non-streaming inference.
	Complete(ctx context.Context, req *Request) (*Response, error)

	// Stream performs streaming inference. The returned channel is
	// closed by the client after the terminal event.
	Stream(ctx context.Context, req *Request) (<-chan Event, error)

	// Close releases client resources.
	Close() error
}
