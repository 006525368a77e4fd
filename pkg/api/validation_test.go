package api

import (
	"strings"
	"testing"
)

func TestValidateTurnRequest(t *testing.T) {
	tests := []struct {
		name      string
		req       *TurnRequest
		wantErr   bool
		wantParam string
	}{
		{
			name: "minimal valid request",
			req:  &TurnRequest{Input: "Tell me about the Yankees"},
		},
		{
			name: "full valid request",
			req: &TurnRequest{
				Input:           "Who leads the league in home runs?",
				Domain:          "baseball",
				PreviousTurnID:  "turn_abcdefghijklmnopqrstuvwx",
				ConversationKey: "user-42",
				Memory:          map[string]string{"favorite_team": "NYY"},
				Stream:          true,
			},
		},
		{
			name:    "nil request",
			req:     nil,
			wantErr: true,
		},
		{
			name:      "missing input",
			req:       &TurnRequest{Domain: "baseball"},
			wantErr:   true,
			wantParam: "input",
		},
		{
			name:      "oversized input",
			req:       &TurnRequest{Input: strings.Repeat("a", MaxInputChars+1)},
			wantErr:   true,
			wantParam: "input",
		},
		{
			name:      "oversized conversation key",
			req:       &TurnRequest{Input: "hi", ConversationKey: strings.Repeat("k", MaxConversationKeyChars+1)},
			wantErr:   true,
			wantParam: "conversation_key",
		},
		{
			name:      "empty memory key",
			req:       &TurnRequest{Input: "hi", Memory: map[string]string{"": "x"}},
			wantErr:   true,
			wantParam: "memory",
		},
		{
			name:      "oversized memory value",
			req:       &TurnRequest{Input: "hi", Memory: map[string]string{"k": strings.Repeat("v", MaxMemoryValueChars+1)}},
			wantErr:   true,
			wantParam: "memory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTurnRequest(tt.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateTurnRequest err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if err.Kind != ErrKindValidation {
					t.Errorf("kind = %s, want validation_error", err.Kind)
				}
				if tt.wantParam != "" && err.Param != tt.wantParam {
					t.Errorf("param = %q, want %q", err.Param, tt.wantParam)
				}
			}
		})
	}
}

// A malformed previous_turn_id must not be a validation error; the
// orchestrator downgrades it to a conversation state miss.
func TestValidateTurnRequestMalformedPriorTurn(t *testing.T) {
	req := &TurnRequest{Input: "hi", PreviousTurnID: "not-a-turn-id"}
	if err := ValidateTurnRequest(req); err != nil {
		t.Errorf("malformed previous_turn_id should pass validation, got %v", err)
	}
}
