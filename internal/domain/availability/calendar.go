package availability

import (
	"context"
	"errors"
	"time"

	"locadz/internal/domain/listings"
	"locadz/internal/domain/shared/daterange"
	"locadz/internal/domain/shared/events"
)

var (
	ErrOverlappingRange = errors.New("availability: range overlaps with an existing block")
	ErrRangeNotFound    = errors.New("availability: range not found")
)

// Block is a range held by a booking in a blocking status.
type Block struct {
	Range     daterange.DateRange
	Reference string
	CreatedAt time.Time
}

// Calendar is the per-listing set of reserved ranges. Saving it with a stale
// Version fails, which makes reserve-then-save an atomic guard against double booking.
type Calendar struct {
	ListingID listings.ListingID
	Blocks    []Block
	Version   int64
	events.EventRecorder
}

type Repository interface {
	// Calendar returns an empty calendar when none was stored yet.
	Calendar(ctx context.Context, id listings.ListingID) (*Calendar, error)
	Save(ctx context.Context, calendar *Calendar) error
}

func NewCalendar(id listings.ListingID) *Calendar {
	return &Calendar{ListingID: id}
}

func (c *Calendar) CanReserve(r daterange.DateRange, mode daterange.OverlapMode) bool {
	for _, block := range c.Blocks {
		if block.Range.Overlaps(r, mode) {
			return false
		}
	}
	return true
}

// Holds reports whether reference already has a block.
func (c *Calendar) Holds(reference string) bool {
	return c.indexOf(reference) >= 0
}

func (c *Calendar) Reserve(r daterange.DateRange, reference string, mode daterange.OverlapMode, now time.Time) error {
	if c.Holds(reference) {
		return nil
	}
	in, out := days(r)
	if !c.CanReserve(r, mode) {
		c.Record(DoubleBookingRejected{ListingID: string(c.ListingID), BookingID: reference, CheckIn: in, CheckOut: out, Mode: string(mode), At: now.UTC()})
		return ErrOverlappingRange
	}
	c.Blocks = append(c.Blocks, Block{Range: r, Reference: reference, CreatedAt: now.UTC()})
	c.Record(DatesReserved{ListingID: string(c.ListingID), BookingID: reference, CheckIn: in, CheckOut: out, At: now.UTC()})
	return nil
}

func (c *Calendar) Release(reference string, now time.Time) error {
	idx := c.indexOf(reference)
	if idx < 0 {
		return ErrRangeNotFound
	}
	removed := c.Blocks[idx]
	c.Blocks = append(c.Blocks[:idx], c.Blocks[idx+1:]...)
	in, out := days(removed.Range)
	c.Record(DatesReleased{ListingID: string(c.ListingID), BookingID: reference, CheckIn: in, CheckOut: out, At: now.UTC()})
	return nil
}

func (c *Calendar) indexOf(reference string) int {
	for i, block := range c.Blocks {
		if block.Reference == reference {
			return i
		}
	}
	return -1
}
