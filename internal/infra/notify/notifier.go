package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"locadz/internal/app/policies"
	"locadz/internal/app/uow"
	domainnotifications "locadz/internal/domain/notifications"
)

var ErrNotConfigured = errors.New("notify: unit of work factory missing")

// InboxNotifier persists notices as notifications in the recipient's inbox.
// It opens its own unit of work, so it must run after the caller committed.
type InboxNotifier struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
	Now        func() time.Time
	NewID      func() string
}

func (n *InboxNotifier) Notify(ctx context.Context, notice policies.Notice) error {
	if n.UoWFactory == nil {
		return ErrNotConfigured
	}
	item := &domainnotifications.Notification{
		ID:          n.newID(),
		RecipientID: notice.RecipientID,
		Type:        notice.Type,
		Title:       notice.Title,
		Body:        notice.Body,
		Data:        notice.Data,
		CreatedAt:   n.now(),
	}
	unit, err := n.UoWFactory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return fmt.Errorf("notify: begin: %w", err)
	}
	if err := unit.Notifications().Save(ctx, item); err != nil {
		_ = unit.Rollback(ctx)
		return fmt.Errorf("notify: save: %w", err)
	}
	if err := unit.Commit(ctx); err != nil {
		return fmt.Errorf("notify: commit: %w", err)
	}
	if n.Logger != nil {
		n.Logger.Debug("notification stored", "notification_id", item.ID, "recipient_id", item.RecipientID, "type", string(item.Type))
	}
	return nil
}

func (n *InboxNotifier) now() time.Time {
	if n.Now != nil {
		return n.Now().UTC()
	}
	return time.Now().UTC()
}

func (n *InboxNotifier) newID() string {
	if n.NewID != nil {
		return n.NewID()
	}
	return uuid.NewString()
}

var _ policies.Notifier = (*InboxNotifier)(nil)
