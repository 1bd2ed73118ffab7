package me

import (
	"context"
	"log/slog"
	"sort"

	"locadz/internal/app/dto"
	handlersupport "locadz/internal/app/handlers/support"
	"locadz/internal/app/policies"
	"locadz/internal/app/queries"
	"locadz/internal/app/uow"
	"locadz/internal/domain/user"
)

const listGuestBookingsKey = "me.bookings.list"

type ListGuestBookingsQuery struct {
	Actor user.Actor `validate:"-"`
}

func (q ListGuestBookingsQuery) Key() string { return listGuestBookingsKey }

func (q ListGuestBookingsQuery) Principal() user.Actor     { return q.Actor }
func (q ListGuestBookingsQuery) AllowedRoles() []user.Role { return nil }

type ListGuestBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListGuestBookingsHandler) Handle(ctx context.Context, q ListGuestBookingsQuery) (dto.BookingCollection, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	bookings, err := unit.Bookings().ListByGuest(execCtx, string(q.Actor.ID))
	if err != nil {
		return dto.BookingCollection{}, err
	}
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})
	if h.Logger != nil {
		h.Logger.Debug("guest bookings listed", "guest_id", string(q.Actor.ID), "count", len(bookings))
	}
	return dto.MapBookingCollection(bookings), nil
}

var _ queries.Handler[ListGuestBookingsQuery, dto.BookingCollection] = (*ListGuestBookingsHandler)(nil)
var _ policies.Restricted = ListGuestBookingsQuery{}
