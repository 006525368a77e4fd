package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/courtside/courtside/pkg/api"
)

func TestCompleteTranslatesRequest(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"hi"},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	c := NewChatClient(srv.URL, "key", "gw-large", time.Second)
	defer c.Close()

	resp, err := c.Complete(context.Background(), &Request{
		Instructions: "be helpful",
		Messages:     []Message{{Role: RoleUser, Content: "hello"}},
		Tools: []api.ToolSpec{
			{Name: "sports_data", Description: "stats", Parameters: json.RawMessage(`{"type":"object"}`)},
		},
		PriorTurnID: "turn_abc",
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Text != "hi" {
		t.Errorf("Text = %q", resp.Text)
	}

	if got.Model != "gw-large" {
		t.Errorf("model = %q", got.Model)
	}
	if got.PreviousTurnID != "turn_abc" {
		t.Errorf("previous_turn_id = %q", got.PreviousTurnID)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" {
		t.Errorf("messages = %+v, want system then user", got.Messages)
	}
	if len(got.Tools) != 1 || got.Tools[0].Function.Name != "sports_data" {
		t.Errorf("tools = %+v", got.Tools)
	}
}

func TestCompleteParsesToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"content":"","tool_calls":[
			{"id":"call_1","type":"function","function":{"name":"resolve_entity","arguments":"{\"endpoint\":\"resolve_team\",\"name\":\"Yankees\"}"}}
		]},"finish_reason":"tool_calls"}]}`)
	}))
	defer srv.Close()

	c := NewChatClient(srv.URL, "", "m", time.Second)
	resp, err := c.Complete(context.Background(), &Request{
		Messages: []Message{{Role: RoleUser, Content: "yankees?"}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(resp.ToolCalls) != 1 {
		t.Fatalf("got %d tool calls", len(resp.ToolCalls))
	}
	tc := resp.ToolCalls[0]
	if tc.CallID != "call_1" || tc.Name != "resolve_entity" {
		t.Errorf("tool call = %+v", tc)
	}
}

func TestCompleteUpstreamStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "internal: db password xyz leaked", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewChatClient(srv.URL, "", "m", time.Second)
	_, err := c.Complete(context.Background(), &Request{})

	var te *api.TurnError
	if !errors.As(err, &te) || te.Kind != api.ErrKindUpstreamModel {
		t.Fatalf("err = %v, want upstream_model_error", err)
	}
	// The upstream body must not leak through the boundary.
	if te.Message == "" || te.Message != "model endpoint returned status 500" {
		t.Errorf("message = %q", te.Message)
	}
}

func TestCompleteUnreachable(t *testing.T) {
	c := NewChatClient("http://127.0.0.1:1", "", "m", 200*time.Millisecond)
	_, err := c.Complete(context.Background(), &Request{})

	var te *api.TurnError
	if !errors.As(err, &te) || te.Kind != api.ErrKindUpstreamModel {
		t.Fatalf("err = %v, want upstream_model_error", err)
	}
}

func TestStreamTextAndToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		frames := []string{
			`{"choices":[{"delta":{"role":"assistant","content":"The "}}]}`,
			`{"choices":[{"delta":{"content":"Yankees"}}]}`,
			`{"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"sports_data","arguments":"{\"endpoint\":"}}]}}]}`,
			`{"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"team_stats\"}"}}]}}]}`,
			`{"choices":[{"delta":{},"finish_reason":"tool_calls"}]}`,
		}
		for _, f := range frames {
			fmt.Fprintf(w, "data: %s\n\n", f)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	c := NewChatClient(srv.URL, "", "m", time.Second)
	ch, err := c.Stream(context.Background(), &Request{})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	var deltas, calls int
	var final *Response
	for ev := range ch {
		switch ev.Type {
		case EventTextDelta:
			deltas++
		case EventToolCall:
			calls++
			if ev.ToolCall.Name != "sports_data" {
				t.Errorf("tool call name = %q", ev.ToolCall.Name)
			}
		case EventCompleted:
			final = ev.Response
		case EventError:
			t.Fatalf("stream error: %v", ev.Err)
		}
	}

	if deltas != 2 {
		t.Errorf("text deltas = %d, want 2", deltas)
	}
	if calls != 1 {
		t.Errorf("tool call events = %d, want 1", calls)
	}
	if final == nil {
		t.Fatal("no terminal completed event")
	}
	if final.Text != "The Yankees" {
		t.Errorf("accumulated text = %q", final.Text)
	}
	if len(final.ToolCalls) != 1 {
		t.Fatalf("final tool calls = %d", len(final.ToolCalls))
	}
	var args map[string]string
	if err := json.Unmarshal(final.ToolCalls[0].Arguments, &args); err != nil {
		t.Fatalf("assembled arguments invalid: %v", err)
	}
	if args["endpoint"] != "team_stats" {
		t.Errorf("arguments = %v", args)
	}
}

func TestStreamTruncatedEndsWithCompleted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"partial\"}}]}\n\n")
		// Connection ends without [DONE].
	}))
	defer srv.Close()

	c := NewChatClient(srv.URL, "", "m", time.Second)
	ch, err := c.Stream(context.Background(), &Request{})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	var final *Response
	for ev := range ch {
		if ev.Type == EventCompleted {
			final = ev.Response
		}
	}
	if final == nil || final.Text != "partial" {
		t.Errorf("truncated stream should surface accumulated text, got %+v", final)
	}
}
