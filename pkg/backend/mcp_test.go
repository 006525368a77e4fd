package backend

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// connectTestBackend wires an MCPBackend to an in-process MCP server
// over in-memory transports.
func connectTestBackend(t *testing.T, tools map[string]mcp.ToolHandler) *MCPBackend {
	t.Helper()

	server := mcp.NewServer(
		&mcp.Implementation{Name: "test-stats-server", Version: "1.0.0"},
		nil,
	)
	for name, handler := range tools {
		server.AddTool(
			&mcp.Tool{
				Name:        name,
				Description: "Test operation: " + name,
				InputSchema: map[string]any{"type": "object"},
			},
			handler,
		)
	}

	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ctx := context.Background()
	go func() {
		_ = server.Run(ctx, serverTransport)
	}()

	be := NewMCPBackend(MCPConfig{Name: "stats"})
	if err := be.ConnectWithTransport(ctx, clientTransport); err != nil {
		t.Fatalf("ConnectWithTransport failed: %v", err)
	}
	t.Cleanup(func() { _ = be.Close() })

	return be
}

func TestMCPInvokeJSONResult(t *testing.T) {
	be := connectTestBackend(t, map[string]mcp.ToolHandler{
		"team_stats": func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: `{"team":"LAD","wins":98}`}},
			}, nil
		},
	})

	payload, err := be.Invoke(context.Background(), "team_stats", json.RawMessage(`{"team":"LAD"}`))
	if err != nil {
		t.Fatalf("Invoke error: %v", err)
	}

	var got struct {
		Team string `json:"team"`
		Wins int    `json:"wins"`
	}
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	if got.Team != "LAD" || got.Wins != 98 {
		t.Errorf("payload = %s", payload)
	}
}

func TestMCPInvokePlainTextWrapped(t *testing.T) {
	be := connectTestBackend(t, map[string]mcp.ToolHandler{
		"schedule": func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: "next game Tuesday"}},
			}, nil
		},
	})

	payload, err := be.Invoke(context.Background(), "schedule", nil)
	if err != nil {
		t.Fatalf("Invoke error: %v", err)
	}

	var got map[string]string
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	if got["text"] != "next game Tuesday" {
		t.Errorf("payload = %s", payload)
	}
}

func TestMCPToolErrorIsRejection(t *testing.T) {
	be := connectTestBackend(t, map[string]mcp.ToolHandler{
		"player_stats": func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return &mcp.CallToolResult{
				IsError: true,
				Content: []mcp.Content{&mcp.TextContent{Text: "unknown player id"}},
			}, nil
		},
	})

	_, err := be.Invoke(context.Background(), "player_stats", json.RawMessage(`{"id":"nope"}`))
	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("err = %v, want RejectedError", err)
	}
	if rejected.Reason != "unknown player id" {
		t.Errorf("reason = %q", rejected.Reason)
	}
}

func TestMCPInvokeBadArgsRejected(t *testing.T) {
	be := connectTestBackend(t, map[string]mcp.ToolHandler{
		"team_stats": func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return &mcp.CallToolResult{}, nil
		},
	})

	_, err := be.Invoke(context.Background(), "team_stats", json.RawMessage(`[1,2,3]`))
	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("err = %v, want RejectedError", err)
	}
}

func TestMCPUnconnectedIsTransient(t *testing.T) {
	be := NewMCPBackend(MCPConfig{Name: "stats"})

	_, err := be.Invoke(context.Background(), "team_stats", nil)
	var transient *TransientError
	if !errors.As(err, &transient) {
		t.Fatalf("err = %v, want TransientError", err)
	}
}
