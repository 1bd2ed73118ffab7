package availability

import (
	"errors"

	"locadz/internal/domain/booking"
	"locadz/internal/domain/shared/daterange"
)

var ErrEmptyBlockingSet = errors.New("availability: blocking status set must not be empty")

// Policy decides which bookings occupy their dates and how ranges are compared.
type Policy struct {
	Blocking []booking.Status
	Mode     daterange.OverlapMode
}

// DefaultPolicy lets pending requests compete; only host-approved stays hold dates.
var DefaultPolicy = Policy{
	Blocking: []booking.Status{booking.StatusApproved, booking.StatusPaid},
	Mode:     daterange.OverlapInclusive,
}

func (p Policy) Validate() error {
	if len(p.Blocking) == 0 {
		return ErrEmptyBlockingSet
	}
	if _, err := daterange.ParseOverlapMode(string(p.Mode)); err != nil {
		return err
	}
	return nil
}

func (p Policy) Blocks(status booking.Status) bool {
	for _, s := range p.Blocking {
		if s == status {
			return true
		}
	}
	return false
}

// IsFree reports whether r clashes with none of the blocking bookings. The
// booking identified by ignore is skipped so a booking never conflicts with itself.
func (p Policy) IsFree(existing []*booking.Booking, r daterange.DateRange, ignore booking.BookingID) bool {
	for _, b := range existing {
		if b == nil || b.ID == ignore || !p.Blocks(b.Status) {
			continue
		}
		if b.Range.Overlaps(r, p.Mode) {
			return false
		}
	}
	return true
}
