package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/courtside/courtside/pkg/api"
)

// ChatClient talks to a Chat-Completions-compatible model endpoint over
// HTTP. Any failure at this boundary is reported to callers as an
// upstream model error; backend-internal detail stays in the logs.
type ChatClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

var _ Client = (*ChatClient)(nil)

// NewChatClient creates a ChatClient. The timeout bounds non-streaming
// calls; streaming calls are bounded by context instead, since a stream
// can legitimately outlast any fixed timeout.
func NewChatClient(baseURL, apiKey, modelName string, timeout time.Duration) *ChatClient {
	baseURL = strings.TrimRight(baseURL, "/")
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &ChatClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      modelName,
	}
}

// Wire types for the Chat Completions protocol.

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Tools          []chatTool    `json:"tools,omitempty"`
	PreviousTurnID string        `json:"previous_turn_id,omitempty"`
	Stream         bool          `json:"stream,omitempty"`
}

type chatMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type chatToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function chatFunction `json:"function"`
}

type chatFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatTool struct {
	Type     string          `json:"type"`
	Function chatFunctionDef `json:"function"`
}

type chatFunctionDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string         `json:"content"`
			ToolCalls []chatToolCall `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (c *ChatClient) translate(req *Request) chatRequest {
	out := chatRequest{
		Model:          c.model,
		PreviousTurnID: req.PriorTurnID,
		Stream:         req.Stream,
	}

	if req.Instructions != "" {
		out.Messages = append(out.Messages, chatMessage{
			Role:    string(RoleSystem),
			Content: req.Instructions,
		})
	}
	for _, m := range req.Messages {
		cm := chatMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			cm.ToolCalls = append(cm.ToolCalls, chatToolCall{
				ID:   tc.CallID,
				Type: "function",
				Function: chatFunction{
					Name:      tc.Name,
					Arguments: string(tc.Arguments),
				},
			})
		}
		out.Messages = append(out.Messages, cm)
	}

	for _, spec := range req.Tools {
		out.Tools = append(out.Tools, chatTool{
			Type: "function",
			Function: chatFunctionDef{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  spec.Parameters,
			},
		})
	}
	return out
}

func (c *ChatClient) newHTTPRequest(ctx context.Context, req *Request, stream bool) (*http.Request, error) {
	wire := c.translate(req)
	wire.Stream = stream

	body, err := json.Marshal(wire)
	if err != nil {
		return nil, api.NewUpstreamModelError("encoding model request failed")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, api.NewUpstreamModelError("building model request failed")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return httpReq, nil
}

// Complete performs one non-streaming inference round.
func (c *ChatClient) Complete(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := c.newHTTPRequest(ctx, req, false)
	if err != nil {
		return nil, err
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, mapTransportError(err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, mapStatusError(httpResp.StatusCode)
	}

	var wire chatResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&wire); err != nil {
		return nil, api.NewUpstreamModelError("model returned an unreadable response")
	}
	if len(wire.Choices) == 0 {
		return nil, api.NewUpstreamModelError("model returned no choices")
	}

	choice := wire.Choices[0]
	resp := &Response{Text: choice.Message.Content}
	for _, tc := range choice.Message.ToolCalls {
		resp.ToolCalls = append(resp.ToolCalls, api.ToolCallData{
			CallID:    tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}
	return resp, nil
}

// Stream performs streaming inference. The channel is closed after the
// terminal event.
func (c *ChatClient) Stream(ctx context.Context, req *Request) (<-chan Event, error) {
	httpReq, err := c.newHTTPRequest(ctx, req, true)
	if err != nil {
		return nil, err
	}

	// No fixed timeout for streams; the context bounds the lifetime.
	streamClient := &http.Client{Transport: c.httpClient.Transport}

	httpResp, err := streamClient.Do(httpReq)
	if err != nil {
		return nil, mapTransportError(err)
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		httpResp.Body.Close()
		return nil, mapStatusError(httpResp.StatusCode)
	}

	ch := make(chan Event, 16)
	go func() {
		defer close(ch)
		defer httpResp.Body.Close()
		parseStream(ctx, httpResp.Body, ch)
	}()
	return ch, nil
}

// Close releases idle connections.
func (c *ChatClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func mapTransportError(err error) *api.TurnError {
	if err == nil {
		return nil
	}
	// The raw error may carry hostnames or credentials in the URL.
	return api.NewUpstreamModelError("model endpoint unreachable")
}

func mapStatusError(status int) *api.TurnError {
	return api.NewUpstreamModelError(
		fmt.Sprintf("model endpoint returned status %d", status))
}
