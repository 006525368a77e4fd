package api

import "unicode/utf8"

const (
	// MaxInputChars bounds the turn input text.
	MaxInputChars = 32_000

	// MaxMemoryHints bounds the number of key/value memory hints.
	MaxMemoryHints = 16

	// MaxMemoryValueChars bounds each memory hint value.
	MaxMemoryValueChars = 512

	// MaxConversationKeyChars bounds the opaque conversation key.
	MaxConversationKeyChars = 128
)

// ValidateTurnRequest checks a turn request for structural problems.
// Returns a validation_error describing the first problem found, or nil.
//
// A malformed previous_turn_id is deliberately NOT a validation error:
// continuity is best-effort, so the orchestrator treats it as a
// conversation state miss instead.
func ValidateTurnRequest(req *TurnRequest) *TurnError {
	if req == nil {
		return NewValidationError("", "request body is required")
	}
	if req.Input == "" {
		return NewValidationError("input", "input text is required")
	}
	if !utf8.ValidString(req.Input) {
		return NewValidationError("input", "input must be valid UTF-8")
	}
	if utf8.RuneCountInString(req.Input) > MaxInputChars {
		return NewValidationError("input", "input exceeds maximum length")
	}
	if len(req.ConversationKey) > MaxConversationKeyChars {
		return NewValidationError("conversation_key", "conversation key exceeds maximum length")
	}
	if len(req.Memory) > MaxMemoryHints {
		return NewValidationError("memory", "too many memory hints")
	}
	for k, v := range req.Memory {
		if k == "" {
			return NewValidationError("memory", "memory hint keys must be non-empty")
		}
		if utf8.RuneCountInString(v) > MaxMemoryValueChars {
			return NewValidationError("memory", "memory hint value exceeds maximum length")
		}
	}
	return nil
}
