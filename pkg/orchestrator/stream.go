package orchestrator

import (
	"context"
	"time"

	"github.com/courtside/courtside/pkg/api"
	"github.com/courtside/courtside/pkg/model"
	"github.com/courtside/courtside/pkg/observability"
	"github.com/courtside/courtside/pkg/transport"
)

// streamState tracks event sequencing across one streaming turn. The
// sequence number is monotonic for the whole turn, never reset between
// tool-call rounds, so no event can be emitted out of the order in
// which its underlying fact became true.
type streamState struct {
	seq         int
	outputIndex int
}

func (s *streamState) nextSeq() int {
	n := s.seq
	s.seq++
	return n
}

// runStreaming drives the streaming turn loop. Progress events are
// emitted as soon as they are known; exactly one terminal event ends
// the stream.
func (o *Orchestrator) runStreaming(ctx context.Context, req *api.TurnRequest, priorID string, run *turnRun, w transport.TurnWriter) error {
	st := &streamState{}

	if err := w.WriteEvent(ctx, api.StreamEvent{
		Type: api.EventTurnCreated, SequenceNumber: st.nextSeq(),
		Turn: snapshot(run.turn),
	}); err != nil {
		return err
	}
	if err := w.WriteEvent(ctx, api.StreamEvent{
		Type: api.EventTurnInProgress, SequenceNumber: st.nextSeq(),
		Turn: snapshot(run.turn),
	}); err != nil {
		return err
	}

	instructions := o.assembler.Assemble(ctx, req.Domain, prefUserID(req), req.Memory)
	run.advance(api.PhaseInstructionsAssembled)

	tools := o.registry.ToolsFor(req.Domain)
	run.advance(api.PhaseToolsSelected)

	messages := []model.Message{{Role: model.RoleUser, Content: req.Input}}
	rounds := 0

	for {
		start := time.Now()
		eventCh, err := o.model.Stream(ctx, &model.Request{
			Instructions: instructions,
			Messages:     messages,
			Tools:        tools,
			PriorTurnID:  priorID,
			Stream:       true,
		})
		if err != nil {
			observability.ModelCallsTotal.WithLabelValues("error").Inc()
			return o.emitFailed(ctx, run, st, w, asTurnError(err))
		}

		resp, terr := o.consumeModelStream(ctx, eventCh, run, st, w)
		observability.ModelLatency.Observe(time.Since(start).Seconds())
		if terr != nil {
			observability.ModelCallsTotal.WithLabelValues("error").Inc()
			return o.emitFailed(ctx, run, st, w, terr)
		}
		observability.ModelCallsTotal.WithLabelValues("ok").Inc()

		if rounds == 0 {
			run.advance(api.PhaseModelInvoked)
		} else {
			run.advance(api.PhaseModelReinvoked)
		}

		if len(resp.ToolCalls) == 0 {
			observability.ToolCallRounds.Observe(float64(rounds))
			run.completeTurn()
			o.record(ctx, req.ConversationKey, run.turn.ID)
			return w.WriteEvent(ctx, api.StreamEvent{
				Type: api.EventTurnCompleted, SequenceNumber: st.nextSeq(),
				Turn: run.turn,
			})
		}

		rounds++
		if rounds > o.cfg.MaxToolRounds {
			return o.emitFailed(ctx, run, st, w, api.NewLoopExceededError(o.cfg.MaxToolRounds))
		}
		run.advance(api.PhaseToolCallsPending)

		// Announce every dispatch before any runs, in request order.
		callItems := make([]api.Item, len(resp.ToolCalls))
		for i := range resp.ToolCalls {
			item := toolCallItem(&resp.ToolCalls[i])
			item.Status = api.ItemStatusInProgress
			callItems[i] = item

			st.outputIndex++
			if err := w.WriteEvent(ctx, api.StreamEvent{
				Type: api.EventToolCallStarted, SequenceNumber: st.nextSeq(),
				Item: &callItems[i], OutputIndex: st.outputIndex,
			}); err != nil {
				return err
			}
		}
		messages = append(messages, assistantMessage(resp))

		run.advance(api.PhaseDispatching)
		results, err := o.dispatchRound(ctx, resp.ToolCalls)
		if err != nil {
			// Budget expired or client gone; in-flight dispatches finish
			// in the background, their results are not delivered.
			return o.emitFailed(ctx, run, st, w, api.NewUpstreamModelError("turn exceeded its time budget"))
		}

		for i := range results {
			callItems[i].Status = api.ItemStatusCompleted
			run.turn.Output = append(run.turn.Output, callItems[i])

			resultItem := toolResultItem(&results[i])
			run.turn.Output = append(run.turn.Output, resultItem)
			messages = append(messages, toolMessage(&results[i]))

			eventType := api.EventToolCallCompleted
			if results[i].IsError {
				eventType = api.EventToolCallFailed
			}
			st.outputIndex++
			if err := w.WriteEvent(ctx, api.StreamEvent{
				Type: eventType, SequenceNumber: st.nextSeq(),
				Item: &resultItem, OutputIndex: st.outputIndex,
			}); err != nil {
				return err
			}
		}
	}
}

// consumeModelStream relays one model round's events to the client:
// text deltas as they arrive, then the text-done marker. Tool calls are
// returned to the caller for dispatch; their lifecycle events belong to
// the dispatch phase, not the model phase.
func (o *Orchestrator) consumeModelStream(ctx context.Context, eventCh <-chan model.Event, run *turnRun, st *streamState, w transport.TurnWriter) (*model.Response, *api.TurnError) {
	itemID := api.NewItemID()
	sawText := false

	for ev := range eventCh {
		if ctx.Err() != nil {
			return nil, api.NewUpstreamModelError("turn exceeded its time budget")
		}

		switch ev.Type {
		case model.EventTextDelta:
			sawText = true
			st.outputIndex++
			if err := w.WriteEvent(ctx, api.StreamEvent{
				Type: api.EventOutputTextDelta, SequenceNumber: st.nextSeq(),
				ItemID: itemID, Delta: ev.Delta, OutputIndex: st.outputIndex,
			}); err != nil {
				return nil, api.NewUpstreamModelError("client connection lost")
			}

		case model.EventError:
			return nil, asTurnError(ev.Err)

		case model.EventCompleted:
			if sawText && ev.Response.Text != "" {
				item := messageItem(ev.Response.Text)
				item.ID = itemID
				run.turn.Output = append(run.turn.Output, item)

				if err := w.WriteEvent(ctx, api.StreamEvent{
					Type: api.EventOutputTextDone, SequenceNumber: st.nextSeq(),
					ItemID: itemID, Item: &item,
				}); err != nil {
					return nil, api.NewUpstreamModelError("client connection lost")
				}
			}
			return ev.Response, nil
		}
	}

	return nil, api.NewUpstreamModelError("model stream ended unexpectedly")
}

// emitFailed marks the turn failed and emits the terminal failure
// event. The stream never closes without a terminal event; if even the
// terminal write fails the client is already gone.
func (o *Orchestrator) emitFailed(ctx context.Context, run *turnRun, st *streamState, w transport.TurnWriter, terr *api.TurnError) error {
	run.failTurn(ctx, terr)
	if err := w.WriteEvent(ctx, api.StreamEvent{
		Type: api.EventTurnFailed, SequenceNumber: st.nextSeq(),
		Turn: run.turn, Error: terr,
	}); err != nil {
		return err
	}
	return terr
}

// snapshot copies the turn for event payloads, so later mutation does
// not retroactively change already-emitted events.
func snapshot(t *api.Turn) *api.Turn {
	cp := *t
	cp.Output = append([]api.Item(nil), t.Output...)
	return &cp
}
