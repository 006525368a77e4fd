package backend

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/courtside/courtside/pkg/api"
	"github.com/courtside/courtside/pkg/cache"
	"github.com/courtside/courtside/pkg/observability"
	"github.com/courtside/courtside/pkg/registry"
)

// Dispatch defaults. Each backend attempt carries its own timeout; a
// transient failure gets exactly one retry after a fixed backoff.
const (
	DefaultAttemptTimeout = 5 * time.Second
	DefaultRetryBackoff   = 250 * time.Millisecond
)

// Dispatcher routes validated tool calls to their owning backends,
// consulting the result cache first.
type Dispatcher struct {
	registry *registry.Registry
	backends map[string]Backend
	cache    cache.Store
	policy   cache.TTLPolicy
	timeout  time.Duration
	backoff  time.Duration
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithAttemptTimeout overrides the per-attempt backend timeout.
func WithAttemptTimeout(d time.Duration) DispatcherOption {
	return func(dp *Dispatcher) { dp.timeout = d }
}

// WithRetryBackoff overrides the fixed delay before the single retry.
func WithRetryBackoff(d time.Duration) DispatcherOption {
	return func(dp *Dispatcher) { dp.backoff = d }
}

// NewDispatcher creates a Dispatcher. The cache store may be nil, in
// which case every dispatch is a live fetch.
func NewDispatcher(reg *registry.Registry, backends map[string]Backend, cacheStore cache.Store, policy cache.TTLPolicy, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry: reg,
		backends: backends,
		cache:    cacheStore,
		policy:   policy,
		timeout:  DefaultAttemptTimeout,
		backoff:  DefaultRetryBackoff,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch routes one tool call. The returned result is always usable
// as model feedback; a non-nil error carries the typed classification
// for the caller's propagation policy (none of the dispatch error kinds
// are fatal to a turn).
func (d *Dispatcher) Dispatch(ctx context.Context, call api.ToolCallData) (api.ToolResultData, *api.TurnError) {
	if terr := d.registry.ValidateCall(call); terr != nil {
		return failedResult(call.CallID, "", terr), terr
	}

	spec, _ := d.registry.Lookup(call.Name)
	operation := d.registry.Operation(call)

	key := cache.Key(call.Name, call.Arguments)
	if d.cache != nil {
		if payload, err := d.cache.Get(ctx, key); err == nil {
			observability.CacheRequestsTotal.WithLabelValues("hit").Inc()
			observability.DispatchesTotal.WithLabelValues(spec.Backend, call.Name, "cache").Inc()
			return api.ToolResultData{
				CallID:  call.CallID,
				Backend: spec.Backend,
				Source:  api.SourceCache,
				Payload: payload,
			}, nil
		}
		observability.CacheRequestsTotal.WithLabelValues("miss").Inc()
	}

	be, ok := d.backends[spec.Backend]
	if !ok {
		terr := api.NewBackendUnavailableError(spec.Backend, "backend is not configured")
		return failedResult(call.CallID, spec.Backend, terr), terr
	}

	start := time.Now()
	payload, terr := d.invokeWithRetry(ctx, be, operation, call.Arguments)
	observability.DispatchLatency.WithLabelValues(spec.Backend).Observe(time.Since(start).Seconds())

	if terr != nil {
		observability.DispatchesTotal.WithLabelValues(spec.Backend, call.Name, "error").Inc()
		slog.Warn("tool dispatch failed",
			"tool", call.Name,
			"backend", spec.Backend,
			"operation", operation,
			"kind", string(terr.Kind),
		)
		return failedResult(call.CallID, spec.Backend, terr), terr
	}

	observability.DispatchesTotal.WithLabelValues(spec.Backend, call.Name, "ok").Inc()

	if d.cache != nil {
		ttl := d.policy.For(call.Name, call.Arguments)
		// Cache population must survive the turn being abandoned.
		if err := d.cache.Set(context.WithoutCancel(ctx), key, payload, ttl); err != nil {
			slog.Warn("tool result cache write failed", "tool", call.Name, "error", err.Error())
		}
	}

	return api.ToolResultData{
		CallID:  call.CallID,
		Backend: spec.Backend,
		Source:  api.SourceLive,
		Payload: payload,
	}, nil
}

// invokeWithRetry performs the invocation with a per-attempt timeout
// and one retry on transient failure. Rejections are never retried.
func (d *Dispatcher) invokeWithRetry(ctx context.Context, be Backend, operation string, args json.RawMessage) (json.RawMessage, *api.TurnError) {
	payload, err := d.invokeOnce(ctx, be, operation, args)
	if err == nil {
		return payload, nil
	}

	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return nil, api.NewBackendRejectedError(be.Name(), rejected.Reason)
	}

	select {
	case <-time.After(d.backoff):
	case <-ctx.Done():
		return nil, api.NewBackendUnavailableError(be.Name(), "backend call abandoned")
	}

	payload, err = d.invokeOnce(ctx, be, operation, args)
	if err == nil {
		return payload, nil
	}
	if errors.As(err, &rejected) {
		return nil, api.NewBackendRejectedError(be.Name(), rejected.Reason)
	}
	return nil, api.NewBackendUnavailableError(be.Name(), reason(err))
}

func (d *Dispatcher) invokeOnce(ctx context.Context, be Backend, operation string, args json.RawMessage) (json.RawMessage, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return be.Invoke(attemptCtx, operation, args)
}

func reason(err error) string {
	var transient *TransientError
	if errors.As(err, &transient) {
		return transient.Reason
	}
	return "backend call failed"
}

// failedResult packages a dispatch failure as model feedback: the error
// kind and message become the payload, flagged IsError.
func failedResult(callID, backendName string, terr *api.TurnError) api.ToolResultData {
	payload, _ := json.Marshal(map[string]string{
		"error": terr.Message,
		"kind":  string(terr.Kind),
	})
	return api.ToolResultData{
		CallID:  callID,
		Backend: backendName,
		Source:  api.SourceLive,
		Payload: payload,
		IsError: true,
	}
}
