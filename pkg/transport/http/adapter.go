package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/courtside/courtside/pkg/api"
	"github.com/courtside/courtside/pkg/auth"
	"github.com/courtside/courtside/pkg/transport"
)

// Adapter serves the turn API over HTTP. It routes requests to the
// appropriate handler and serializes turns and streams.
type Adapter struct {
	handler  transport.TurnHandler
	resetter transport.ConversationResetter // nil if reset is not available
	probes   map[string]transport.HealthChecker
	mux      *http.ServeMux
	config   Config
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	Addr        string
	MaxBodySize int64
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		Addr:        ":8080",
		MaxBodySize: 1 << 20, // 1 MB
	}
}

// NewAdapter creates an HTTP adapter around the given turn handler.
// The resetter is optional; when nil, DELETE /v1/conversations/{key}
// reports the operation as unavailable. Probes are named dependency
// health checks surfaced by GET /healthz. Middleware is applied to the
// handler in the given order.
func NewAdapter(handler transport.TurnHandler, resetter transport.ConversationResetter, probes map[string]transport.HealthChecker, cfg Config, middlewares ...transport.Middleware) *Adapter {
	if len(middlewares) > 0 {
		handler = transport.Chain(middlewares...)(handler)
	}

	a := &Adapter{
		handler:  handler,
		resetter: resetter,
		probes:   probes,
		mux:      http.NewServeMux(),
		config:   cfg,
	}

	a.mux.HandleFunc("POST /v1/turns", a.handleCreateTurn)
	a.mux.HandleFunc("DELETE /v1/conversations/{key}", a.handleResetConversation)
	a.mux.HandleFunc("GET /healthz", a.handleHealth)
	a.mux.Handle("GET /metrics", promhttp.Handler())

	return a
}

// Handler returns the http.Handler for this adapter. The returned
// handler includes HTTP-level middleware for request ID propagation.
func (a *Adapter) Handler() http.Handler {
	return httpRequestIDMiddleware(a.mux)
}

// httpRequestIDMiddleware propagates the X-Request-ID header. A
// client-supplied ID is carried into the context; either way the ID in
// effect after the transport middleware runs is echoed back on the
// response before the first write.
func httpRequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get("X-Request-ID"); id != "" {
			ctx := transport.ContextWithRequestID(r.Context(), id)
			r = r.WithContext(ctx)
		}
		rw := &requestIDResponseWriter{ResponseWriter: w, r: r}
		next.ServeHTTP(rw, r)
	})
}

// requestIDResponseWriter wraps http.ResponseWriter to inject the
// X-Request-ID header before the first write.
type requestIDResponseWriter struct {
	http.ResponseWriter
	r           *http.Request
	headersSent bool
}

func (w *requestIDResponseWriter) WriteHeader(statusCode int) {
	w.ensureRequestIDHeader()
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *requestIDResponseWriter) Write(b []byte) (int, error) {
	w.ensureRequestIDHeader()
	return w.ResponseWriter.Write(b)
}

func (w *requestIDResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap returns the underlying ResponseWriter for http.NewResponseController.
func (w *requestIDResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *requestIDResponseWriter) ensureRequestIDHeader() {
	if w.headersSent {
		return
	}
	w.headersSent = true
	if id := transport.RequestIDFromContext(w.r.Context()); id != "" {
		w.ResponseWriter.Header().Set("X-Request-ID", id)
	}
}

// handleCreateTurn handles POST /v1/turns.
func (a *Adapter) handleCreateTurn(w http.ResponseWriter, r *http.Request) {
	ct := r.Header.Get("Content-Type")
	if ct != "" && ct != "application/json" {
		writeError(w, api.NewValidationError("content_type", "Content-Type must be application/json"),
			http.StatusUnsupportedMediaType, r)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	var req api.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, api.NewValidationError("body", fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize)),
				http.StatusRequestEntityTooLarge, r)
			return
		}
		writeError(w, api.NewValidationError("body", "invalid JSON: "+err.Error()),
			http.StatusBadRequest, r)
		return
	}

	applyIdentity(r.Context(), &req)

	// The request context cancels on client disconnect; the handler
	// decides what to abandon and what to finish in the background.
	rw := newSSETurnWriter(w)
	if err := a.handler.HandleTurn(r.Context(), &req, rw); err != nil {
		a.writeHandlerError(w, r, rw, err)
	}
}

// handleResetConversation handles DELETE /v1/conversations/{key}.
func (a *Adapter) handleResetConversation(w http.ResponseWriter, r *http.Request) {
	if a.resetter == nil {
		writeError(w, api.NewValidationError("", "conversation reset is not available"),
			http.StatusNotImplemented, r)
		return
	}

	key := r.PathValue("key")
	if key == "" {
		writeError(w, api.NewValidationError("key", "conversation key must not be empty"),
			http.StatusBadRequest, r)
		return
	}
	if id := auth.IdentityFromContext(r.Context()); id != nil && id.Subject != "" {
		key = scopeConversationKey(id.Subject, key)
	}

	if err := a.resetter.Reset(r.Context(), key); err != nil {
		transport.WriteTurnError(w, err, transport.RequestIDFromContext(r.Context()))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleHealth handles GET /healthz, probing each named dependency.
func (a *Adapter) handleHealth(w http.ResponseWriter, r *http.Request) {
	type probeResult struct {
		Status string `json:"status"`
		Error  string `json:"error,omitempty"`
	}

	status := http.StatusOK
	checks := make(map[string]probeResult, len(a.probes))
	for name, probe := range a.probes {
		if err := probe.HealthCheck(r.Context()); err != nil {
			status = http.StatusServiceUnavailable
			checks[name] = probeResult{Status: "unhealthy", Error: err.Error()}
		} else {
			checks[name] = probeResult{Status: "ok"}
		}
	}

	body := map[string]any{"status": "ok", "checks": checks}
	if status != http.StatusOK {
		body["status"] = "unhealthy"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// applyIdentity binds the request to the authenticated caller: the
// preference lookup is keyed by the caller's subject and the
// conversation key is scoped under it, so one caller cannot continue
// another caller's conversation by guessing its key. Anonymous
// deployments pass the request through unchanged.
func applyIdentity(ctx context.Context, req *api.TurnRequest) {
	id := auth.IdentityFromContext(ctx)
	if id == nil || id.Subject == "" {
		return
	}
	req.UserID = id.Subject
	req.ConversationKey = scopeConversationKey(id.Subject, req.ConversationKey)
}

// scopeConversationKey namespaces a client-chosen conversation key
// under the authenticated subject. An empty key selects the caller's
// default conversation.
func scopeConversationKey(subject, key string) string {
	if key == "" {
		return subject
	}
	return subject + ":" + key
}

// writeError writes a JSON error body with an explicit status code.
func writeError(w http.ResponseWriter, terr *api.TurnError, status int, r *http.Request) {
	if terr.RequestID == "" {
		terr.RequestID = transport.RequestIDFromContext(r.Context())
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(api.ErrorResponse{Error: terr})
}

// writeHandlerError reports a handler failure. If streaming has begun
// the handler already owed the client a terminal event; a best-effort
// turn.error is attempted and silently dropped if the stream is done.
func (a *Adapter) writeHandlerError(w http.ResponseWriter, r *http.Request, rw *sseTurnWriter, err error) {
	if rw.hasStartedStreaming() {
		var terr *api.TurnError
		if !errors.As(err, &terr) {
			terr = api.NewUpstreamModelError("internal server error")
		}
		rw.WriteEvent(context.Background(), api.StreamEvent{
			Type:  api.EventError,
			Error: terr,
		})
		return
	}

	transport.WriteTurnError(w, err, transport.RequestIDFromContext(r.Context()))
}
