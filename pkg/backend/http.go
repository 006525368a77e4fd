package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// invokeRequest is the wire shape of the operation-dispatch entry point.
type invokeRequest struct {
	Operation string          `json:"operation"`
	Arguments json.RawMessage `json:"arguments"`
}

// invokeResponse is the backend's reply: exactly one of Result or Error
// is set.
type invokeResponse struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// HTTPBackend talks to a backend service over its HTTP dispatch
// endpoint, POST {base}/invoke. Per-attempt timeouts come from the
// caller's context; the dispatcher owns retry policy.
type HTTPBackend struct {
	name       string
	baseURL    string
	httpClient *http.Client
}

var _ Backend = (*HTTPBackend)(nil)

// NewHTTPBackend creates a backend client. No client-level timeout is
// set; every Invoke carries a context deadline from the dispatcher.
func NewHTTPBackend(name, baseURL string) *HTTPBackend {
	return &HTTPBackend{
		name:       name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

func (b *HTTPBackend) Name() string { return b.name }

func (b *HTTPBackend) Invoke(ctx context.Context, operation string, args json.RawMessage) (json.RawMessage, error) {
	body, err := json.Marshal(invokeRequest{Operation: operation, Arguments: args})
	if err != nil {
		return nil, &RejectedError{Reason: "arguments are not encodable"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/invoke", bytes.NewReader(body))
	if err != nil {
		return nil, &TransientError{Reason: "building backend request failed"}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		// Timeouts and connection failures land here. The raw error may
		// embed URLs with credentials, so only a generic reason crosses.
		return nil, &TransientError{Reason: "backend unreachable or timed out"}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, &TransientError{Reason: fmt.Sprintf("backend returned status %d", resp.StatusCode)}
	case resp.StatusCode >= 400:
		return nil, &RejectedError{Reason: rejectionReason(resp)}
	}

	var out invokeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &TransientError{Reason: "backend returned an unreadable response"}
	}
	if out.Error != "" {
		return nil, &RejectedError{Reason: out.Error}
	}
	return out.Result, nil
}

// rejectionReason extracts the backend's structured error message from
// a 4xx body when present, falling back to the status code. Free-text
// bodies are not forwarded.
func rejectionReason(resp *http.Response) string {
	var out invokeResponse
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && json.Unmarshal(data, &out) == nil && out.Error != "" {
		return out.Error
	}
	return fmt.Sprintf("backend rejected the call with status %d", resp.StatusCode)
}

func (b *HTTPBackend) Close() error {
	b.httpClient.CloseIdleConnections()
	return nil
}
