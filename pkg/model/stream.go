package model

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"

	"github.com/courtside/courtside/pkg/api"
)

// chatChunk is one SSE data frame from a streaming Chat Completions
// endpoint.
type chatChunk struct {
	Choices []struct {
		Delta struct {
			Role      string `json:"role"`
			Content   string `json:"content"`
			ToolCalls []struct {
				Index    int    `json:"index"`
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// toolCallBuffer assembles one tool call's arguments across chunks.
type toolCallBuffer struct {
	id   string
	name string
	args strings.Builder
}

// parseStream reads SSE frames, emits text deltas and assembled tool
// calls, and ends with exactly one terminal event. Malformed frames are
// logged and skipped.
func parseStream(ctx context.Context, body io.Reader, ch chan<- Event) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	buffers := make(map[int]*toolCallBuffer)
	order := []int{}
	var text strings.Builder
	terminal := false

	finish := func() {
		if terminal {
			return
		}
		terminal = true

		resp := &Response{Text: text.String()}
		for _, idx := range order {
			buf := buffers[idx]
			call := api.ToolCallData{
				CallID:    buf.id,
				Name:      buf.name,
				Arguments: json.RawMessage(buf.args.String()),
			}
			resp.ToolCalls = append(resp.ToolCalls, call)
			ch <- Event{Type: EventToolCall, ToolCall: &call}
		}
		ch <- Event{Type: EventCompleted, Response: resp}
	}

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")

		if payload == "[DONE]" {
			finish()
			return
		}

		var chunk chatChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			slog.Warn("skipping malformed model stream frame", "error", err.Error())
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		choice := chunk.Choices[0]

		for _, tc := range choice.Delta.ToolCalls {
			buf, ok := buffers[tc.Index]
			if !ok {
				buf = &toolCallBuffer{id: tc.ID, name: tc.Function.Name}
				buffers[tc.Index] = buf
				order = append(order, tc.Index)
			}
			buf.args.WriteString(tc.Function.Arguments)
		}

		if choice.Delta.Content != "" {
			text.WriteString(choice.Delta.Content)
			ch <- Event{Type: EventTextDelta, Delta: choice.Delta.Content}
		}

		if choice.FinishReason != nil {
			finish()
			return
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		ch <- Event{
			Type: EventError,
			Err:  api.NewUpstreamModelError("model stream interrupted"),
		}
		return
	}
	// Stream ended without [DONE] or finish_reason. Treat what arrived
	// as the complete answer rather than discarding it.
	finish()
}
