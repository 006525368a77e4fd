// Package backend routes tool invocations to the scoped backend
// services that own them. Each backend exposes a single
// operation-dispatch entry point accepting {operation, arguments} and
// returning a result payload or an error.
//
// The Dispatcher in this package is cache-first: a fresh cache entry is
// served instead of invoking the backend, tagged with its source so a
// hit is indistinguishable from a live fetch except for the tag and
// latency.
package backend

import (
	"context"
	"encoding/json"
)

// Backend invokes one operation on the owning service.
//
// Implementations classify failures: a *TransientError is worth exactly
// one retry (timeout, 5xx-class), a *RejectedError is permanent (4xx-class)
// and never retried. Any other error is treated as transient.
type Backend interface {
	// Name returns the backend identifier used in registry bindings.
	Name() string

	// Invoke executes one operation and returns the raw result payload.
	Invoke(ctx context.Context, operation string, args json.RawMessage) (json.RawMessage, error)

	// Close releases backend resources.
	Close() error
}

// TransientError marks a failure that may succeed on retry: a timeout
// or a 5xx-class response. The reason is already sanitized; it never
// carries upstream stack traces or credentials.
type TransientError struct {
	Reason string
}

func (e *TransientError) Error() string { return e.Reason }

// RejectedError marks a permanent rejection by the backend: a 4xx-class
// response. Never retried.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string { return e.Reason }
