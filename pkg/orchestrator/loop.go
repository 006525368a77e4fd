package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/courtside/courtside/pkg/api"
	"github.com/courtside/courtside/pkg/model"
	"github.com/courtside/courtside/pkg/observability"
	"github.com/courtside/courtside/pkg/transport"
)

// run drives the non-streaming turn loop: invoke the model, dispatch
// any requested tool calls, feed results back, repeat within the round
// bound, then deliver the whole turn at once.
func (o *Orchestrator) run(ctx context.Context, req *api.TurnRequest, priorID string, run *turnRun, w transport.TurnWriter) error {
	instructions := o.assembler.Assemble(ctx, req.Domain, prefUserID(req), req.Memory)
	run.advance(api.PhaseInstructionsAssembled)

	tools := o.registry.ToolsFor(req.Domain)
	run.advance(api.PhaseToolsSelected)

	messages := []model.Message{{Role: model.RoleUser, Content: req.Input}}
	rounds := 0

	for {
		resp, terr := o.invokeModel(ctx, &model.Request{
			Instructions: instructions,
			Messages:     messages,
			Tools:        tools,
			PriorTurnID:  priorID,
		})
		if terr != nil {
			return run.failTurn(ctx, terr)
		}
		if rounds == 0 {
			run.advance(api.PhaseModelInvoked)
		} else {
			run.advance(api.PhaseModelReinvoked)
		}

		if resp.Text != "" {
			run.turn.Output = append(run.turn.Output, messageItem(resp.Text))
		}

		// No tool calls: the model produced its final answer. A turn
		// with zero dispatches completes like any other.
		if len(resp.ToolCalls) == 0 {
			observability.ToolCallRounds.Observe(float64(rounds))
			run.completeTurn()
			o.record(ctx, req.ConversationKey, run.turn.ID)
			return w.WriteTurn(ctx, run.turn)
		}

		rounds++
		if rounds > o.cfg.MaxToolRounds {
			return run.failTurn(ctx, api.NewLoopExceededError(o.cfg.MaxToolRounds))
		}
		run.advance(api.PhaseToolCallsPending)

		for i := range resp.ToolCalls {
			run.turn.Output = append(run.turn.Output, toolCallItem(&resp.ToolCalls[i]))
		}
		messages = append(messages, assistantMessage(resp))

		run.advance(api.PhaseDispatching)
		results, err := o.dispatchRound(ctx, resp.ToolCalls)
		if err != nil {
			return run.failTurn(ctx, api.NewUpstreamModelError("turn exceeded its time budget"))
		}

		for i := range results {
			run.turn.Output = append(run.turn.Output, toolResultItem(&results[i]))
			messages = append(messages, toolMessage(&results[i]))
		}
	}
}

// prefUserID selects the preference key for a turn: the authenticated
// subject when the transport set one, otherwise the conversation key.
func prefUserID(req *api.TurnRequest) string {
	if req.UserID != "" {
		return req.UserID
	}
	return req.ConversationKey
}

// invokeModel calls the model endpoint with metrics, normalizing any
// failure to the upstream error kind.
func (o *Orchestrator) invokeModel(ctx context.Context, mreq *model.Request) (*model.Response, *api.TurnError) {
	start := time.Now()
	resp, err := o.model.Complete(ctx, mreq)
	observability.ModelLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		observability.ModelCallsTotal.WithLabelValues("error").Inc()
		return nil, asTurnError(err)
	}
	observability.ModelCallsTotal.WithLabelValues("ok").Inc()
	return resp, nil
}

// dispatchRound executes one round's tool calls concurrently and
// reassembles the results in the order the model requested them.
// Dispatch failures are not fatal: the dispatcher folds them into the
// result as error-tagged model feedback.
//
// Dispatches run on an uncancelled context: when the client disconnects
// or the turn budget expires, in-flight backend calls finish in the
// background (populating the cache for future requests) while the round
// returns early with the context error and the results are discarded.
func (o *Orchestrator) dispatchRound(ctx context.Context, calls []api.ToolCallData) ([]api.ToolResultData, error) {
	detached := context.WithoutCancel(ctx)
	results := make([]api.ToolResultData, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(idx int, tc api.ToolCallData) {
			defer wg.Done()
			res, _ := o.dispatcher.Dispatch(detached, tc)
			results[idx] = res
		}(i, call)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return results, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func asTurnError(err error) *api.TurnError {
	var terr *api.TurnError
	if errors.As(err, &terr) {
		return terr
	}
	return api.NewUpstreamModelError("model call failed")
}

func messageItem(text string) api.Item {
	return api.Item{
		ID:      api.NewItemID(),
		Type:    api.ItemTypeMessage,
		Status:  api.ItemStatusCompleted,
		Message: &api.MessageData{Text: text},
	}
}

func toolCallItem(call *api.ToolCallData) api.Item {
	return api.Item{
		ID:       api.NewItemID(),
		Type:     api.ItemTypeToolCall,
		Status:   api.ItemStatusCompleted,
		ToolCall: call,
	}
}

func toolResultItem(result *api.ToolResultData) api.Item {
	status := api.ItemStatusCompleted
	if result.IsError {
		status = api.ItemStatusFailed
	}
	return api.Item{
		ID:         api.NewItemID(),
		Type:       api.ItemTypeToolResult,
		Status:     status,
		ToolResult: result,
	}
}

// assistantMessage rebuilds the model's own turn as a conversation
// message; per convention it must precede the tool result messages.
func assistantMessage(resp *model.Response) model.Message {
	return model.Message{
		Role:      model.RoleAssistant,
		Content:   resp.Text,
		ToolCalls: resp.ToolCalls,
	}
}

func toolMessage(result *api.ToolResultData) model.Message {
	return model.Message{
		Role:       model.RoleTool,
		Content:    string(result.Payload),
		ToolCallID: result.CallID,
	}
}
