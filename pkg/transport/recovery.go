package transport

import (
	"context"
	"log/slog"

	"github.com/courtside/courtside/pkg/api"
)

// Recovery returns middleware that converts handler panics into a
// structured turn error. The panic value and stack stay in the server
// log; the client sees only the sanitized message. The server keeps
// accepting requests after a recovered panic.
func Recovery() Middleware {
	return func(next TurnHandler) TurnHandler {
		return TurnHandlerFunc(func(ctx context.Context, req *api.TurnRequest, w TurnWriter) (retErr error) {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("panic while processing turn",
						"request_id", RequestIDFromContext(ctx),
						"panic", r,
					)
					terr := api.NewUpstreamModelError("internal server error")
					terr.RequestID = RequestIDFromContext(ctx)
					retErr = terr
				}
			}()
			return next.HandleTurn(ctx, req, w)
		})
	}
}
