package api

import "fmt"

// TurnPhase is a state in the per-turn lifecycle machine:
//
//	received -> instructions_assembled -> tools_selected -> model_invoked
//	  -> (tool_calls_pending -> dispatching -> model_reinvoked)*
//	  -> completed | failed
//
// The tool-call loop is bounded by the orchestrator; termination is
// structural, not recursive.
type TurnPhase string

const (
	PhaseReceived              TurnPhase = "received"
	PhaseInstructionsAssembled TurnPhase = "instructions_assembled"
	PhaseToolsSelected         TurnPhase = "tools_selected"
	PhaseModelInvoked          TurnPhase = "model_invoked"
	PhaseToolCallsPending      TurnPhase = "tool_calls_pending"
	PhaseDispatching           TurnPhase = "dispatching"
	PhaseModelReinvoked        TurnPhase = "model_reinvoked"
	PhaseCompleted             TurnPhase = "completed"
	PhaseFailed                TurnPhase = "failed"
)

var validTurnTransitions = map[TurnPhase][]TurnPhase{
	"":                         {PhaseReceived},
	PhaseReceived:              {PhaseInstructionsAssembled, PhaseFailed},
	PhaseInstructionsAssembled: {PhaseToolsSelected, PhaseFailed},
	PhaseToolsSelected:         {PhaseModelInvoked, PhaseFailed},
	PhaseModelInvoked:          {PhaseToolCallsPending, PhaseCompleted, PhaseFailed},
	PhaseToolCallsPending:      {PhaseDispatching, PhaseFailed},
	PhaseDispatching:           {PhaseModelReinvoked, PhaseFailed},
	PhaseModelReinvoked:        {PhaseToolCallsPending, PhaseCompleted, PhaseFailed},
	// completed and failed are terminal.
	PhaseCompleted: {},
	PhaseFailed:    {},
}

// ValidateTurnTransition checks whether a phase transition is legal.
// An empty "from" phase represents the initial state.
func ValidateTurnTransition(from, to TurnPhase) error {
	allowed, exists := validTurnTransitions[from]
	if !exists {
		return fmt.Errorf("unknown turn phase %q", from)
	}
	for _, p := range allowed {
		if p == to {
			return nil
		}
	}
	return fmt.Errorf("invalid turn transition from %s to %s", from, to)
}

// ValidateItemTransition checks whether an item status transition is
// legal. Terminal statuses (completed, failed) allow no outgoing
// transitions.
func ValidateItemTransition(from, to ItemStatus) error {
	valid := map[ItemStatus][]ItemStatus{
		"":                   {ItemStatusInProgress},
		ItemStatusInProgress: {ItemStatusCompleted, ItemStatusFailed},
	}
	allowed, exists := valid[from]
	if !exists {
		return fmt.Errorf("unknown item status %q", from)
	}
	for _, s := range allowed {
		if s == to {
			return nil
		}
	}
	return fmt.Errorf("invalid item transition from %s to %s", from, to)
}
