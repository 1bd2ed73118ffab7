package booking

import (
	"time"

	"locadz/internal/domain/listings"
	"locadz/internal/domain/shared/daterange"
	"locadz/internal/domain/shared/money"
)

type BookingRequested struct {
	BookingID BookingID
	ListingID listings.ListingID
	HostID    listings.HostID
	GuestID   string
	Range     daterange.DateRange
	Guests    int
	Total     money.Money
	At        time.Time
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type BookingApproved struct {
	BookingID BookingID
	ListingID listings.ListingID
	Range     daterange.DateRange
	At        time.Time
}

func (e BookingApproved) EventName() string     { return "booking.approved" }
func (e BookingApproved) AggregateID() string   { return string(e.BookingID) }
func (e BookingApproved) OccurredAt() time.Time { return e.At }

type BookingRejected struct {
	BookingID BookingID
	Reason    string
	At        time.Time
}

func (e BookingRejected) EventName() string     { return "booking.rejected" }
func (e BookingRejected) AggregateID() string   { return string(e.BookingID) }
func (e BookingRejected) OccurredAt() time.Time { return e.At }

type BookingPaid struct {
	BookingID BookingID
	ProofID   string
	Total     money.Money
	At        time.Time
}

func (e BookingPaid) EventName() string     { return "booking.paid" }
func (e BookingPaid) AggregateID() string   { return string(e.BookingID) }
func (e BookingPaid) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID BookingID
	Reason    string
	At        time.Time
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }
