package api

import "fmt"

// ErrorKind is the category of a turn error. The set is closed: every
// failure surfaced to a client or fed back to the model carries exactly
// one of these kinds.
type ErrorKind string

const (
	// ErrKindValidation: the turn request itself is malformed. Fatal.
	ErrKindValidation ErrorKind = "validation_error"

	// ErrKindUnresolvableTool: the model named a tool no backend owns.
	ErrKindUnresolvableTool ErrorKind = "unresolvable_tool"

	// ErrKindBackendUnavailable: timeout or 5xx after the single retry.
	ErrKindBackendUnavailable ErrorKind = "backend_unavailable"

	// ErrKindBackendRejected: the backend returned a 4xx-class error.
	// Never retried.
	ErrKindBackendRejected ErrorKind = "backend_rejected"

	// ErrKindToolCallLoopExceeded: the model requested more tool-call
	// rounds than the configured bound. Fatal.
	ErrKindToolCallLoopExceeded ErrorKind = "tool_call_loop_exceeded"

	// ErrKindConversationStateMiss: the prior turn ID was unknown or
	// expired. Non-fatal; the turn proceeds as a fresh conversation.
	ErrKindConversationStateMiss ErrorKind = "conversation_state_miss"

	// ErrKindUpstreamModel: the model endpoint failed. Fatal.
	ErrKindUpstreamModel ErrorKind = "upstream_model_error"
)

// TurnError is the structured error surfaced to clients. The message is
// human-readable and sanitized: internal stack traces and backend
// credentials never appear here.
type TurnError struct {
	Kind      ErrorKind `json:"kind"`
	Message   string    `json:"message"`
	Param     string    `json:"param,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

// Error implements the error interface.
func (e *TurnError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s (param: %s)", e.Kind, e.Message, e.Param)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Fatal reports whether this error kind fails the whole turn. Non-fatal
// kinds are recovered locally: the turn continues and the model is told
// the tool failed.
func (e *TurnError) Fatal() bool {
	switch e.Kind {
	case ErrKindValidation, ErrKindToolCallLoopExceeded, ErrKindUpstreamModel:
		return true
	}
	return false
}

// ErrorResponse wraps a TurnError as the top-level JSON error body.
type ErrorResponse struct {
	Error *TurnError `json:"error"`
}

// NewValidationError creates a fatal validation_error for a bad request field.
func NewValidationError(param, message string) *TurnError {
	return &TurnError{Kind: ErrKindValidation, Param: param, Message: message}
}

// NewUnresolvableToolError creates an unresolvable_tool error for a tool
// name with no backend binding.
func NewUnresolvableToolError(toolName string) *TurnError {
	return &TurnError{
		Kind:    ErrKindUnresolvableTool,
		Param:   toolName,
		Message: fmt.Sprintf("no backend is bound to tool %q", toolName),
	}
}

// NewBackendUnavailableError creates a backend_unavailable error.
func NewBackendUnavailableError(backend, message string) *TurnError {
	return &TurnError{
		Kind:    ErrKindBackendUnavailable,
		Param:   backend,
		Message: message,
	}
}

// NewBackendRejectedError creates a backend_rejected error.
func NewBackendRejectedError(backend, message string) *TurnError {
	return &TurnError{
		Kind:    ErrKindBackendRejected,
		Param:   backend,
		Message: message,
	}
}

// NewLoopExceededError creates a tool_call_loop_exceeded error.
func NewLoopExceededError(rounds int) *TurnError {
	return &TurnError{
		Kind:    ErrKindToolCallLoopExceeded,
		Message: fmt.Sprintf("model requested tool calls beyond the %d-round bound", rounds),
	}
}

// NewStateMissError creates a non-fatal conversation_state_miss error.
func NewStateMissError(turnID string) *TurnError {
	return &TurnError{
		Kind:    ErrKindConversationStateMiss,
		Param:   turnID,
		Message: "previous turn is unknown or expired; starting a fresh conversation",
	}
}

// NewUpstreamModelError creates an upstream_model_error.
func NewUpstreamModelError(message string) *TurnError {
	return &TurnError{Kind: ErrKindUpstreamModel, Message: message}
}
