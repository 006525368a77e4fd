package backend

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCPConfig describes one MCP-bound backend: the server endpoint and
// the transport flavor it speaks.
type MCPConfig struct {
	// Name is the backend identifier used in registry bindings.
	Name string `yaml:"name"`

	// URL is the MCP server endpoint.
	URL string `yaml:"url"`

	// Transport selects "streamable-http" (default) or "sse".
	Transport string `yaml:"transport"`
}

// MCPBackend dispatches operations as MCP tool calls: the operation
// name maps to the server-side tool, the argument object passes through
// unchanged. This is the low-latency binding for backends that are not
// plain HTTP services.
type MCPBackend struct {
	cfg     MCPConfig
	client  *mcp.Client
	session *mcp.ClientSession
}

var _ Backend = (*MCPBackend)(nil)

// NewMCPBackend creates an unconnected MCP backend. Call Connect before
// the first Invoke.
func NewMCPBackend(cfg MCPConfig) *MCPBackend {
	return &MCPBackend{cfg: cfg}
}

// Connect performs the MCP handshake against the configured server.
func (b *MCPBackend) Connect(ctx context.Context) error {
	return b.ConnectWithTransport(ctx, nil)
}

// ConnectWithTransport connects using the given transport; a nil
// transport is built from the configuration. Tests inject in-memory
// transports here.
func (b *MCPBackend) ConnectWithTransport(ctx context.Context, transport mcp.Transport) error {
	b.client = mcp.NewClient(
		&mcp.Implementation{Name: "courtside", Version: "1.0.0"},
		&mcp.ClientOptions{Capabilities: &mcp.ClientCapabilities{}},
	)

	if transport == nil {
		t, err := b.createTransport()
		if err != nil {
			return fmt.Errorf("creating transport for backend %q: %w", b.cfg.Name, err)
		}
		transport = t
	}

	session, err := b.client.Connect(ctx, transport, nil)
	if err != nil {
		return fmt.Errorf("connecting to MCP backend %q: %w", b.cfg.Name, err)
	}
	b.session = session
	return nil
}

func (b *MCPBackend) createTransport() (mcp.Transport, error) {
	switch b.cfg.Transport {
	case "sse":
		return &mcp.SSEClientTransport{Endpoint: b.cfg.URL}, nil
	case "streamable-http", "":
		return &mcp.StreamableClientTransport{Endpoint: b.cfg.URL}, nil
	default:
		return nil, fmt.Errorf("unsupported transport type %q", b.cfg.Transport)
	}
}

func (b *MCPBackend) Name() string { return b.cfg.Name }

func (b *MCPBackend) Invoke(ctx context.Context, operation string, args json.RawMessage) (json.RawMessage, error) {
	if b.session == nil {
		return nil, &TransientError{Reason: "backend session not connected"}
	}

	var argMap map[string]any
	if len(args) > 0 {
		if err := json.Unmarshal(args, &argMap); err != nil {
			return nil, &RejectedError{Reason: "arguments are not a JSON object"}
		}
	}

	result, err := b.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      operation,
		Arguments: argMap,
	})
	if err != nil {
		return nil, &TransientError{Reason: "backend tool call failed"}
	}
	if result.IsError {
		return nil, &RejectedError{Reason: extractText(result)}
	}

	return payloadFromResult(result), nil
}

// payloadFromResult normalizes an MCP tool result to a JSON payload:
// text content that parses as JSON passes through raw, anything else is
// wrapped as {"text": ...}.
func payloadFromResult(result *mcp.CallToolResult) json.RawMessage {
	text := extractText(result)
	if json.Valid([]byte(text)) && text != "" {
		return json.RawMessage(text)
	}
	wrapped, _ := json.Marshal(map[string]string{"text": text})
	return wrapped
}

func extractText(result *mcp.CallToolResult) string {
	var out string
	for _, content := range result.Content {
		if tc, ok := content.(*mcp.TextContent); ok {
			if out != "" {
				out += "\n"
			}
			out += tc.Text
		}
	}
	return out
}

func (b *MCPBackend) Close() error {
	if b.session != nil {
		return b.session.Close()
	}
	return nil
}
