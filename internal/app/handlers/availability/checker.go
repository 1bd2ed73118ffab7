package availability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"locadz/internal/app/apperr"
	domainavailability "locadz/internal/domain/availability"
	domainbooking "locadz/internal/domain/booking"
	domainlistings "locadz/internal/domain/listings"
	domainrange "locadz/internal/domain/shared/daterange"
)

var ErrDatesUnavailable = errors.New("availability: dates are not available")

// Checker answers whether a range is free by reading the blocking bookings of a
// listing. When the read fails it reports the range as taken unless FailOpen is set.
type Checker struct {
	Policy   domainavailability.Policy
	FailOpen bool
	Logger   *slog.Logger
}

func (c *Checker) IsRangeAvailable(
	ctx context.Context,
	bookings domainbooking.Repository,
	listingID domainlistings.ListingID,
	r domainrange.DateRange,
	ignore domainbooking.BookingID,
) (bool, error) {
	existing, err := bookings.ListByListings(ctx, []domainlistings.ListingID{listingID}, c.Policy.Blocking)
	if err != nil {
		if c.Logger != nil {
			c.Logger.Warn("availability lookup failed",
				"listing_id", string(listingID),
				"range", r.String(),
				"fail_open", c.FailOpen,
				"error", err,
			)
		}
		if c.FailOpen {
			return true, nil
		}
		return false, apperr.Unavailable(fmt.Errorf("availability: cannot verify dates: %w", err))
	}
	return c.Policy.IsFree(existing, r, ignore), nil
}
