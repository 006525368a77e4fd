package transport

import (
	"context"
	"log/slog"
	"time"

	"github.com/courtside/courtside/pkg/api"
)

// Logging returns middleware that emits one structured log entry per
// turn: request ID, domain, streaming flag, duration, and outcome.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next TurnHandler) TurnHandler {
		return TurnHandlerFunc(func(ctx context.Context, req *api.TurnRequest, w TurnWriter) error {
			start := time.Now()
			requestID := RequestIDFromContext(ctx)

			err := next.HandleTurn(ctx, req, w)

			attrs := []slog.Attr{
				slog.String("request_id", requestID),
				slog.String("domain", req.Domain),
				slog.Bool("stream", req.Stream),
				slog.Duration("duration", time.Since(start)),
			}
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
				logger.LogAttrs(ctx, slog.LevelError, "turn failed", attrs...)
			} else {
				logger.LogAttrs(ctx, slog.LevelInfo, "turn completed", attrs...)
			}
			return err
		})
	}
}
