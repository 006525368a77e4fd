package api

import "encoding/json"

// TurnRequest is the client-facing request for one conversational turn.
// A turn is immutable once dispatched: the orchestrator never mutates the
// request after validation.
type TurnRequest struct {
	// Input is the natural-language text for this turn.
	Input string `json:"input"`

	// Domain selects the instruction layer and tool set (e.g. "baseball").
	// Unknown or empty domains fall back to the global instruction set.
	Domain string `json:"domain,omitempty"`

	// PreviousTurnID continues an earlier conversation. Continuity is
	// best-effort: an unknown or expired ID starts a fresh conversation.
	PreviousTurnID string `json:"previous_turn_id,omitempty"`

	// ConversationKey is the opaque user/session identifier under which
	// the completed turn ID is recorded for the next request.
	ConversationKey string `json:"conversation_key,omitempty"`

	// UserID is the authenticated caller, set by the transport from the
	// request identity. Never decoded from the wire; preference lookups
	// key on it when present.
	UserID string `json:"-"`

	// Memory carries small key/value hints merged into the user
	// preference layer for this turn only. Never persisted.
	Memory map[string]string `json:"memory,omitempty"`

	// Stream requests server-sent events instead of a single payload.
	Stream bool `json:"stream,omitempty"`
}

// TurnStatus is the overall status of a turn.
type TurnStatus string

const (
	TurnStatusInProgress TurnStatus = "in_progress"
	TurnStatusCompleted  TurnStatus = "completed"
	TurnStatusFailed     TurnStatus = "failed"
)

// Turn is the response object for one completed (or failed) turn.
type Turn struct {
	ID             string     `json:"id"`
	Object         string     `json:"object"`
	CreatedAt      int64      `json:"created_at"`
	CompletedAt    *int64     `json:"completed_at"`
	Status         TurnStatus `json:"status"`
	Domain         string     `json:"domain,omitempty"`
	PreviousTurnID *string    `json:"previous_turn_id"`
	Output         []Item     `json:"output"`
	Error          *TurnError `json:"error"`
}

// ItemType classifies an output item.
type ItemType string

const (
	ItemTypeMessage    ItemType = "message"
	ItemTypeToolCall   ItemType = "tool_call"
	ItemTypeToolResult ItemType = "tool_result"
)

// ItemStatus is the processing status of a single item.
type ItemStatus string

const (
	ItemStatusInProgress ItemStatus = "in_progress"
	ItemStatusCompleted  ItemStatus = "completed"
	ItemStatusFailed     ItemStatus = "failed"
)

// Item is a single element of a turn's output: assistant text, a tool
// call requested by the model, or the result fed back from a backend.
type Item struct {
	ID     string     `json:"id"`
	Type   ItemType   `json:"type"`
	Status ItemStatus `json:"status"`

	Message    *MessageData    `json:"message,omitempty"`
	ToolCall   *ToolCallData   `json:"tool_call,omitempty"`
	ToolResult *ToolResultData `json:"tool_result,omitempty"`
}

// MessageData holds assistant output text.
type MessageData struct {
	Text string `json:"text"`
}

// ToolCallData is the model's request to invoke a tool. Arguments is the
// raw JSON argument object as emitted by the model; it is validated
// against the registry's declared schema before dispatch.
type ToolCallData struct {
	CallID    string          `json:"call_id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ResultSource tells the caller whether a tool result was served from
// the cache or fetched live from the backend. A cache hit must be
// indistinguishable from a live fetch except for this tag and latency.
type ResultSource string

const (
	SourceLive  ResultSource = "live"
	SourceCache ResultSource = "cache"
)

// ToolResultData is the normalized outcome of one dispatched tool call.
type ToolResultData struct {
	CallID  string          `json:"call_id"`
	Backend string          `json:"backend,omitempty"`
	Source  ResultSource    `json:"source,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	IsError bool            `json:"is_error,omitempty"`
}

// ToolSpec declares one meta-tool: a single named tool multiplexing
// several backend operations through a discriminator argument. Static
// per domain, loaded at startup.
type ToolSpec struct {
	// Name is the tool name exposed to the model.
	Name string `json:"name" yaml:"name"`

	// Description tells the model what the tool does.
	Description string `json:"description,omitempty" yaml:"description"`

	// Backend identifies the backend service that owns this tool.
	Backend string `json:"-" yaml:"backend"`

	// Operations enumerates the backend operations multiplexed through
	// the discriminator argument.
	Operations []string `json:"-" yaml:"operations"`

	// Discriminator is the argument field that selects the operation.
	// Defaults to "endpoint".
	Discriminator string `json:"-" yaml:"discriminator"`

	// Parameters is the JSON-schema argument contract sent to the model
	// and used to validate incoming tool calls.
	Parameters json.RawMessage `json:"parameters,omitempty" yaml:"-"`
}

// ResolveMatch classifies how an entity resolver matched a free-text name.
type ResolveMatch string

const (
	MatchExact ResolveMatch = "exact"
	MatchAlias ResolveMatch = "alias"
	MatchFuzzy ResolveMatch = "fuzzy"
	MatchNone  ResolveMatch = "none"
)

// ResolveResult is the normalized payload shape produced by the entity
// resolvers consumed through the dispatcher.
type ResolveResult struct {
	ID          string       `json:"id,omitempty"`
	Name        string       `json:"name,omitempty"`
	Confidence  float64      `json:"confidence"`
	Match       ResolveMatch `json:"match"`
	Suggestions []string     `json:"suggestions,omitempty"`
}
