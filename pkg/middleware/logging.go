package middleware

import (
	"context"
	"log/slog"

	"github.com/vango-dev/nestroute/pkg/router"
)

// Logging returns middleware that writes one record per finished
// transition. Committed and unchanged transitions are logged at debug,
// everything else at info. A nil logger uses slog.Default().
func Logging(logger *slog.Logger) router.Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "transition")

	return router.MiddlewareFunc(func(ctx context.Context, t *router.Transition, next func(context.Context) error) error {
		err := next(ctx)

		level := slog.LevelInfo
		switch t.Outcome {
		case router.OutcomeCommitted, router.OutcomeUnchanged:
			level = slog.LevelDebug
		}
		if err != nil {
			level = slog.LevelWarn
		}
		if !logger.Enabled(ctx, level) {
			return err
		}

		attrs := []slog.Attr{
			slog.String("transition_id", t.ID),
			slog.String("kind", t.Kind.String()),
			slog.String("outcome", t.Outcome.String()),
			slog.String("segment", t.NewSegment),
			slog.Duration("duration", t.Duration),
		}
		if t.To != nil && t.To.Router != nil {
			attrs = append(attrs, slog.String("route", t.To.Router.FullName()))
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		logger.LogAttrs(ctx, level, "transition", attrs...)
		return err
	})
}
