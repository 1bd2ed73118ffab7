package notifications

import (
	"context"

	"locadz/internal/app/apperr"
	"locadz/internal/app/commands"
	"locadz/internal/app/dto"
	handlersupport "locadz/internal/app/handlers/support"
	"locadz/internal/app/queries"
	"locadz/internal/app/uow"
	"locadz/internal/domain/user"
)

const (
	listNotificationsKey = "notifications.list"
	markReadKey          = "notifications.mark_read"
	markAllReadKey       = "notifications.mark_all_read"

	defaultLimit = 50
	maxLimit     = 200
)

type ListNotificationsQuery struct {
	Actor user.Actor `validate:"-"`
	Limit int        `validate:"gte=0"`
}

func (q ListNotificationsQuery) Key() string { return listNotificationsKey }

func (q ListNotificationsQuery) Principal() user.Actor     { return q.Actor }
func (q ListNotificationsQuery) AllowedRoles() []user.Role { return nil }

type ListNotificationsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListNotificationsHandler) Handle(ctx context.Context, q ListNotificationsQuery) (dto.NotificationCollection, error) {
	if !q.Actor.Authenticated() {
		return dto.NotificationCollection{}, apperr.Unauthorized(user.ErrUnauthenticated)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.NotificationCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	items, err := unit.Notifications().ListByRecipient(execCtx, string(q.Actor.ID), limit)
	if err != nil {
		return dto.NotificationCollection{}, err
	}
	return dto.MapNotifications(items), nil
}

type MarkReadCommand struct {
	Actor          user.Actor `validate:"-"`
	NotificationID string     `validate:"required"`
}

func (c MarkReadCommand) Key() string { return markReadKey }

func (c MarkReadCommand) Principal() user.Actor     { return c.Actor }
func (c MarkReadCommand) AllowedRoles() []user.Role { return nil }

type MarkAllReadCommand struct {
	Actor user.Actor `validate:"-"`
}

func (c MarkAllReadCommand) Key() string { return markAllReadKey }

func (c MarkAllReadCommand) Principal() user.Actor     { return c.Actor }
func (c MarkAllReadCommand) AllowedRoles() []user.Role { return nil }

type MarkAllReadResult struct {
	Updated int `json:"updated"`
}

// MarkReadHandler only touches notifications addressed to the actor; another
// recipient's id reads as not found.
type MarkReadHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *MarkReadHandler) Handle(ctx context.Context, cmd MarkReadCommand) (struct{}, error) {
	unit, execCtx, finish, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return struct{}{}, err
	}
	err = unit.Notifications().MarkRead(execCtx, string(cmd.Actor.ID), cmd.NotificationID)
	if err := finish(err); err != nil {
		return struct{}{}, handlersupport.Classify(err)
	}
	return struct{}{}, nil
}

func (h *MarkReadHandler) HandleAll(ctx context.Context, cmd MarkAllReadCommand) (*MarkAllReadResult, error) {
	unit, execCtx, finish, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	updated, err := unit.Notifications().MarkAllRead(execCtx, string(cmd.Actor.ID))
	if err := finish(err); err != nil {
		return nil, handlersupport.Classify(err)
	}
	return &MarkAllReadResult{Updated: updated}, nil
}

var (
	_ queries.Handler[ListNotificationsQuery, dto.NotificationCollection] = (*ListNotificationsHandler)(nil)
	_ commands.Handler[MarkReadCommand, struct{}]                         = (*MarkReadHandler)(nil)
	_ commands.Handler[MarkAllReadCommand, *MarkAllReadResult]            = commands.HandlerFunc[MarkAllReadCommand, *MarkAllReadResult]((*MarkReadHandler)(nil).HandleAll)
)
