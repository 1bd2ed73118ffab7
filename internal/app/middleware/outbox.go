package middleware

import (
	"context"
	"log/slog"

	"locadz/internal/app/commands"
	"locadz/internal/app/outbox"
)

// OutboxFlush hands committed events to the relay. It sits outside the
// transaction, so a flush failure is logged: the command already committed
// and the records stay pending for the next flush.
func OutboxFlush(box outbox.Outbox, logger *slog.Logger) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := next.Dispatch(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := box.Flush(context.WithoutCancel(ctx)); err != nil && logger != nil {
				logger.WarnContext(ctx, "outbox flush failed", "command", cmd.Key(), "error", err)
			}
			return res, nil
		})
	}
}
