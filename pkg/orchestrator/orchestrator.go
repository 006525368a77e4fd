// Package orchestrator is the composition root for turn processing. It
// assembles instructions, selects the domain's tools, drives the
// bounded tool-call loop against the model, routes tool calls through
// the dispatcher, and delivers the answer whole or as a stream.
package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/courtside/courtside/pkg/api"
	"github.com/courtside/courtside/pkg/backend"
	"github.com/courtside/courtside/pkg/model"
	"github.com/courtside/courtside/pkg/observability"
	"github.com/courtside/courtside/pkg/prompt"
	"github.com/courtside/courtside/pkg/registry"
	"github.com/courtside/courtside/pkg/state"
	"github.com/courtside/courtside/pkg/transport"
)

// Config bounds a turn's execution.
type Config struct {
	// MaxToolRounds caps how many model invocations may request tool
	// dispatches within one turn. Exceeding it fails the turn with
	// tool_call_loop_exceeded.
	MaxToolRounds int

	// TurnBudget is the wall-clock limit for a whole turn.
	TurnBudget time.Duration
}

func (c *Config) defaults() {
	if c.MaxToolRounds <= 0 {
		c.MaxToolRounds = 6
	}
	if c.TurnBudget <= 0 {
		c.TurnBudget = 90 * time.Second
	}
}

// Orchestrator processes turns. All dependencies are injected; there
// are no process-wide singletons, so multiple orchestrators with
// different configurations can coexist in one process.
type Orchestrator struct {
	assembler  *prompt.Assembler
	registry   *registry.Registry
	dispatcher *backend.Dispatcher
	model      model.Client
	tracker    state.Tracker
	cfg        Config
}

var _ transport.TurnHandler = (*Orchestrator)(nil)

// New creates an Orchestrator.
func New(assembler *prompt.Assembler, reg *registry.Registry, dispatcher *backend.Dispatcher, mc model.Client, tracker state.Tracker, cfg Config) *Orchestrator {
	cfg.defaults()
	return &Orchestrator{
		assembler:  assembler,
		registry:   reg,
		dispatcher: dispatcher,
		model:      mc,
		tracker:    tracker,
		cfg:        cfg,
	}
}

// turnRun carries one turn's mutable processing state. A turn is
// processed by a single goroutine; concurrency exists only inside a
// dispatch round.
type turnRun struct {
	turn  *api.Turn
	phase api.TurnPhase
}

// advance moves the turn to the next phase. Transitions are validated
// against the lifecycle machine; a violation is a programming error.
func (r *turnRun) advance(to api.TurnPhase) {
	if err := api.ValidateTurnTransition(r.phase, to); err != nil {
		panic(err)
	}
	r.phase = to
}

// HandleTurn processes one turn request, implementing the transport
// handler contract.
func (o *Orchestrator) HandleTurn(ctx context.Context, req *api.TurnRequest, w transport.TurnWriter) error {
	if terr := api.ValidateTurnRequest(req); terr != nil {
		terr.RequestID = transport.RequestIDFromContext(ctx)
		return terr
	}

	ctx, cancel := context.WithTimeout(ctx, o.cfg.TurnBudget)
	defer cancel()

	priorID := o.resolvePrior(ctx, req)

	now := time.Now().Unix()
	run := &turnRun{
		turn: &api.Turn{
			ID:        api.NewTurnID(),
			Object:    "turn",
			CreatedAt: now,
			Status:    api.TurnStatusInProgress,
			Domain:    req.Domain,
		},
	}
	if priorID != "" {
		run.turn.PreviousTurnID = &priorID
	}
	run.advance(api.PhaseReceived)

	start := time.Now()
	var err error
	if req.Stream {
		err = o.runStreaming(ctx, req, priorID, run, w)
	} else {
		err = o.run(ctx, req, priorID, run, w)
	}

	status := "completed"
	if err != nil || run.turn.Status == api.TurnStatusFailed {
		status = "failed"
	}
	domain := req.Domain
	if domain == "" {
		domain = "global"
	}
	observability.TurnsTotal.WithLabelValues(domain, status).Inc()
	observability.TurnDuration.WithLabelValues(domain).Observe(time.Since(start).Seconds())
	return err
}

// resolvePrior resolves the prior-turn reference for this request.
// Continuity is best-effort: an unknown or expired reference logs a
// state miss and starts a fresh conversation.
func (o *Orchestrator) resolvePrior(ctx context.Context, req *api.TurnRequest) string {
	priorID := req.PreviousTurnID
	if priorID == "" && req.ConversationKey != "" {
		last, err := o.tracker.Last(ctx, req.ConversationKey)
		if err != nil {
			slog.Warn("conversation state lookup failed",
				"conversation_key", req.ConversationKey, "error", err.Error())
			return ""
		}
		priorID = last
	}
	if priorID == "" {
		return ""
	}

	known, err := o.tracker.Continue(ctx, priorID)
	if err != nil {
		slog.Warn("prior turn check failed", "prior_turn_id", priorID, "error", err.Error())
		return ""
	}
	if !known {
		miss := api.NewStateMissError(priorID)
		slog.Info("proceeding as fresh conversation",
			"prior_turn_id", priorID, "kind", string(miss.Kind))
		return ""
	}
	return priorID
}

// record persists the completed turn for future continuity. It runs on
// an uncancelled context so a client disconnect after completion does
// not lose the state write.
func (o *Orchestrator) record(ctx context.Context, conversationKey, turnID string) {
	if err := o.tracker.Record(context.WithoutCancel(ctx), conversationKey, turnID); err != nil {
		slog.Warn("recording conversation state failed",
			"turn_id", turnID, "error", err.Error())
	}
}

// failTurn marks the turn failed with the given error, stamping the
// request ID for client correlation.
func (r *turnRun) failTurn(ctx context.Context, terr *api.TurnError) *api.TurnError {
	terr.RequestID = transport.RequestIDFromContext(ctx)
	now := time.Now().Unix()
	r.turn.Status = api.TurnStatusFailed
	r.turn.CompletedAt = &now
	r.turn.Error = terr
	if r.phase != api.PhaseFailed {
		r.advance(api.PhaseFailed)
	}
	return terr
}

// completeTurn marks the turn completed.
func (r *turnRun) completeTurn() {
	now := time.Now().Unix()
	r.turn.Status = api.TurnStatusCompleted
	r.turn.CompletedAt = &now
	r.advance(api.PhaseCompleted)
}
