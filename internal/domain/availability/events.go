package availability

import (
	"time"

	"locadz/internal/domain/shared/daterange"
)

// DatesReserved is raised when a booking entering a blocking status takes its range.
type DatesReserved struct {
	ListingID string    `json:"listing_id"`
	BookingID string    `json:"booking_id"`
	CheckIn   string    `json:"check_in"`
	CheckOut  string    `json:"check_out"`
	At        time.Time `json:"at"`
}

func (e DatesReserved) EventName() string     { return "availability.dates_reserved" }
func (e DatesReserved) AggregateID() string   { return e.ListingID }
func (e DatesReserved) OccurredAt() time.Time { return e.At }

// DatesReleased is raised when a booking leaves the blocking set.
type DatesReleased struct {
	ListingID string    `json:"listing_id"`
	BookingID string    `json:"booking_id"`
	CheckIn   string    `json:"check_in"`
	CheckOut  string    `json:"check_out"`
	At        time.Time `json:"at"`
}

func (e DatesReleased) EventName() string     { return "availability.dates_released" }
func (e DatesReleased) AggregateID() string   { return e.ListingID }
func (e DatesReleased) OccurredAt() time.Time { return e.At }

// DoubleBookingRejected records a reservation refused by the calendar.
type DoubleBookingRejected struct {
	ListingID string    `json:"listing_id"`
	BookingID string    `json:"booking_id"`
	CheckIn   string    `json:"check_in"`
	CheckOut  string    `json:"check_out"`
	Mode      string    `json:"overlap_mode"`
	At        time.Time `json:"at"`
}

func (e DoubleBookingRejected) EventName() string     { return "availability.double_booking_rejected" }
func (e DoubleBookingRejected) AggregateID() string   { return e.ListingID }
func (e DoubleBookingRejected) OccurredAt() time.Time { return e.At }

func days(r daterange.DateRange) (string, string) {
	return r.Start.Format(daterange.DateLayout), r.End.Format(daterange.DateLayout)
}
