package availability

import (
	"context"
	"time"

	"locadz/internal/app/dto"
	handlersupport "locadz/internal/app/handlers/support"
	"locadz/internal/app/queries"
	"locadz/internal/app/uow"
	domainlistings "locadz/internal/domain/listings"
	domainrange "locadz/internal/domain/shared/daterange"
)

const (
	getCalendarKey       = "availability.calendar"
	checkAvailabilityKey = "availability.check"
)

type GetCalendarQuery struct {
	ListingID string `validate:"required"`
}

func (q GetCalendarQuery) Key() string { return getCalendarKey }

type GetCalendarHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetCalendarHandler) Handle(ctx context.Context, q GetCalendarQuery) (dto.Calendar, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Calendar{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	id := domainlistings.ListingID(q.ListingID)
	if _, err := unit.Listings().ByID(execCtx, id); err != nil {
		return dto.Calendar{}, handlersupport.Classify(err)
	}
	calendar, err := unit.Calendars().Calendar(execCtx, id)
	if err != nil {
		return dto.Calendar{}, err
	}
	return dto.MapCalendar(calendar), nil
}

type CheckAvailabilityQuery struct {
	ListingID string    `validate:"required"`
	CheckIn   time.Time `validate:"required"`
	CheckOut  time.Time `validate:"required"`
}

func (q CheckAvailabilityQuery) Key() string { return checkAvailabilityKey }

type CheckAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
	Checker    *Checker
}

func (h *CheckAvailabilityHandler) Handle(ctx context.Context, q CheckAvailabilityQuery) (dto.Availability, error) {
	dr, err := domainrange.New(q.CheckIn, q.CheckOut)
	if err != nil {
		return dto.Availability{}, handlersupport.Classify(err)
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Availability{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.Availability{}, handlersupport.Classify(err)
	}
	free, err := h.Checker.IsRangeAvailable(execCtx, unit.Bookings(), listing.ID, dr, "")
	if err != nil {
		return dto.Availability{}, err
	}
	return dto.Availability{
		ListingID: string(listing.ID),
		CheckIn:   dr.Start.Format(domainrange.DateLayout),
		CheckOut:  dr.End.Format(domainrange.DateLayout),
		Available: free,
	}, nil
}

var (
	_ queries.Handler[GetCalendarQuery, dto.Calendar]           = (*GetCalendarHandler)(nil)
	_ queries.Handler[CheckAvailabilityQuery, dto.Availability] = (*CheckAvailabilityHandler)(nil)
)
