package observability

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/parkdash/pkg/domain"
)

// LogHooks returns lifecycle hooks writing one structured line per event.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnDispatch: func(ctx context.Context, e *domain.Event) {
			logger.DebugContext(ctx, "operation dispatched",
				"slice", e.Slice,
				"operation", e.Operation,
				"generation", e.Generation,
			)
		},
		OnSettle: func(ctx context.Context, e *domain.Event, d time.Duration) {
			attrs := []any{
				"slice", e.Slice,
				"operation", e.Operation,
				"generation", e.Generation,
				"status", string(e.Type),
				"duration", d,
			}
			if e.Err != nil {
				attrs = append(attrs, "err", e.Err.Message, "status_code", e.Err.StatusCode)
				logger.WarnContext(ctx, "operation rejected", attrs...)
				return
			}
			logger.InfoContext(ctx, "operation fulfilled", attrs...)
		},
		OnDiscard: func(ctx context.Context, e *domain.Event) {
			logger.DebugContext(ctx, "operation discarded",
				"slice", e.Slice,
				"operation", e.Operation,
				"generation", e.Generation,
			)
		},
	}
}
