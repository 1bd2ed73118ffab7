package middleware

import (
	"context"
	"log/slog"
	"time"

	"locadz/internal/app/apperr"
	"locadz/internal/app/commands"
	"locadz/internal/app/policies"
)

// Logging records every command outcome. Expected refusals (validation,
// conflicts, access) are logged at Info; anything unclassified at Error.
func Logging(logger *slog.Logger) CommandMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := next.Dispatch(ctx, cmd)
			attrs := []any{"command", cmd.Key(), "duration", time.Since(start)}
			if p, ok := cmd.(policies.Restricted); ok {
				attrs = append(attrs, "actor_id", string(p.Principal().ID))
			}
			switch {
			case err == nil:
				logger.DebugContext(ctx, "command handled", attrs...)
			case apperr.KindOf(err) == "":
				logger.ErrorContext(ctx, "command failed", append(attrs, "error", err)...)
			default:
				logger.InfoContext(ctx, "command refused", append(attrs, "kind", string(apperr.KindOf(err)), "error", err)...)
			}
			return res, err
		})
	}
}
