package support

import (
	"context"
	"log/slog"

	"locadz/internal/app/policies"
	"locadz/internal/app/uow"
)

// NotifyAfterCommit queues a notice for dispatch once the transaction is
// committed. Delivery failures are logged and never reach the caller.
func NotifyAfterCommit(ctx context.Context, notifier policies.Notifier, logger *slog.Logger, notice policies.Notice) {
	if notifier == nil || notice.RecipientID == "" {
		return
	}
	uow.AfterCommit(ctx, func(hookCtx context.Context) {
		if err := notifier.Notify(context.WithoutCancel(hookCtx), notice); err != nil && logger != nil {
			logger.Warn("notification dispatch failed",
				"recipient_id", notice.RecipientID,
				"type", string(notice.Type),
				"error", err,
			)
		}
	})
}
