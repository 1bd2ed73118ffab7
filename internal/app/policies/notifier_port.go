package policies

import (
	"context"

	domainnotifications "locadz/internal/domain/notifications"
)

type Notice struct {
	RecipientID string
	Type        domainnotifications.Type
	Title       string
	Body        string
	Data        map[string]string
}

// Notifier is fire-and-forget from the caller's point of view: errors are
// reported for logging only.
type Notifier interface {
	Notify(ctx context.Context, notice Notice) error
}
