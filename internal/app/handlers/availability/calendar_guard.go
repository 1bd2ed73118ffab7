package availability

import (
	"context"
	"errors"
	"time"

	"locadz/internal/app/apperr"
	"locadz/internal/app/uow"
	domainavailability "locadz/internal/domain/availability"
	domainbooking "locadz/internal/domain/booking"
	"locadz/internal/domain/shared/events"
)

// SyncCalendar reserves the booking's range while its status blocks dates and
// releases it otherwise. The calendar is saved with an optimistic version
// check, so two transactions racing for the same dates cannot both commit.
// The calendar's own events are returned for the outbox.
func SyncCalendar(ctx context.Context, unit uow.UnitOfWork, policy domainavailability.Policy, b *domainbooking.Booking, now time.Time) ([]events.DomainEvent, error) {
	cal, err := unit.Calendars().Calendar(ctx, b.ListingID)
	if err != nil {
		return nil, err
	}
	ref := string(b.ID)
	switch {
	case policy.Blocks(b.Status):
		if cal.Holds(ref) {
			return nil, nil
		}
		if err := cal.Reserve(b.Range, ref, policy.Mode, now); err != nil {
			if errors.Is(err, domainavailability.ErrOverlappingRange) {
				return nil, apperr.Conflict(errors.Join(ErrDatesUnavailable, err))
			}
			return nil, err
		}
	case cal.Holds(ref):
		if err := cal.Release(ref, now); err != nil {
			return nil, err
		}
	default:
		return nil, nil
	}
	if err := unit.Calendars().Save(ctx, cal); err != nil {
		if errors.Is(err, uow.ErrConcurrentUpdate) {
			return nil, apperr.Conflict(errors.Join(ErrDatesUnavailable, err))
		}
		return nil, err
	}
	return cal.Drain(), nil
}
