package booking

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"locadz/internal/app/dto"
	handlersupport "locadz/internal/app/handlers/support"
	"locadz/internal/app/queries"
	"locadz/internal/app/uow"
	domainbooking "locadz/internal/domain/booking"
	domainlistings "locadz/internal/domain/listings"
	"locadz/internal/domain/user"
)

const (
	listHostBookingsKey    = "host.bookings.list"
	allStatusesFilterValue = "ALL"
)

// ListHostBookingsQuery filters by a comma separated status list; empty means
// pending requests, ALL disables the filter.
type ListHostBookingsQuery struct {
	Actor  user.Actor `validate:"-"`
	Status string
}

func (q ListHostBookingsQuery) Key() string { return listHostBookingsKey }

func (q ListHostBookingsQuery) Principal() user.Actor { return q.Actor }
func (q ListHostBookingsQuery) AllowedRoles() []user.Role {
	return []user.Role{user.RoleHost, user.RoleAdmin}
}

type ListHostBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListHostBookingsHandler) Handle(ctx context.Context, q ListHostBookingsQuery) (dto.BookingCollection, error) {
	filter := strings.ToUpper(strings.TrimSpace(q.Status))
	var statuses []domainbooking.Status
	switch filter {
	case "":
		statuses = []domainbooking.Status{domainbooking.StatusPendingApproval}
	case allStatusesFilterValue:
	default:
		parsed, err := domainbooking.ParseStatuses(filter)
		if err != nil {
			return dto.BookingCollection{}, handlersupport.Classify(err)
		}
		statuses = parsed
	}

	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	bookings, err := unit.Bookings().ListByHost(execCtx, domainlistings.HostID(q.Actor.ID), statuses)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})

	if h.Logger != nil {
		h.Logger.Debug("host bookings listed", "host_id", string(q.Actor.ID), "count", len(bookings), "status", filter)
	}
	return dto.MapBookingCollection(bookings), nil
}

var _ queries.Handler[ListHostBookingsQuery, dto.BookingCollection] = (*ListHostBookingsHandler)(nil)
