package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"locadz/internal/domain/listings"
	"locadz/internal/domain/pricing"
	"locadz/internal/domain/shared/daterange"
	"locadz/internal/domain/shared/events"
)

var (
	ErrInvalidGuests        = errors.New("booking: guests count must be positive")
	ErrInvalidState         = errors.New("booking: invalid status transition")
	ErrBookingNotFound      = errors.New("booking: not found")
	ErrGuestRequired        = errors.New("booking: guest id required")
	ErrCheckInInPast        = errors.New("booking: check-in date is in the past")
	ErrInvalidPaymentMethod = errors.New("booking: unknown payment method")
	ErrInvalidStatus        = errors.New("booking: unknown status")
	ErrPriceRequired        = errors.New("booking: detailed price breakdown required")
)

type BookingID string

type Status string

const (
	StatusPendingApproval Status = "PENDING_APPROVAL"
	StatusApproved        Status = "APPROVED"
	StatusPaid            Status = "PAID"
	StatusRejected        Status = "REJECTED"
	StatusCancelled       Status = "CANCELLED"
)

var transitions = map[Status][]Status{
	StatusPendingApproval: {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:        {StatusPaid, StatusCancelled},
}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case StatusPendingApproval, StatusApproved, StatusPaid, StatusRejected, StatusCancelled:
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
}

// ParseStatuses reads a comma separated status list, ignoring blanks.
func ParseStatuses(raw string) ([]Status, error) {
	var out []Status
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		s, err := ParseStatus(part)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

type PaymentMethod string

const (
	PaymentOnArrival PaymentMethod = "ON_ARRIVAL"
	PaymentBaridiMob PaymentMethod = "BARIDIMOB"
	PaymentRIB       PaymentMethod = "RIB"
	PaymentPayPal    PaymentMethod = "PAYPAL"
)

func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToUpper(strings.TrimSpace(raw)))
	switch m {
	case PaymentOnArrival, PaymentBaridiMob, PaymentRIB, PaymentPayPal:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, raw)
}

// RequiresProof is false for methods settled in person.
func (m PaymentMethod) RequiresProof() bool {
	return m != PaymentOnArrival
}

type Booking struct {
	ID                BookingID
	ListingID         listings.ListingID
	HostID            listings.HostID
	ListingTitle      string
	GuestID           string
	Range             daterange.DateRange
	Guests            int
	TravelerBirthdate time.Time
	PaymentMethod     PaymentMethod
	PaymentRef        string
	ReceiptKey        string
	Price             pricing.Breakdown
	Status            Status
	Reason            string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Version           int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	Delete(ctx context.Context, id BookingID) error
	// FindPending returns the pending request of guestID for exactly r, or ErrBookingNotFound.
	FindPending(ctx context.Context, listingID listings.ListingID, guestID string, r daterange.DateRange) (*Booking, error)
	ListByListings(ctx context.Context, ids []listings.ListingID, statuses []Status) ([]*Booking, error)
	ListByGuest(ctx context.Context, guestID string) ([]*Booking, error)
	ListByHost(ctx context.Context, hostID listings.HostID, statuses []Status) ([]*Booking, error)
	ListByStatuses(ctx context.Context, statuses []Status) ([]*Booking, error)
}

type CreateParams struct {
	ID                BookingID
	Listing           *listings.Listing
	GuestID           string
	Range             daterange.DateRange
	Guests            int
	TravelerBirthdate time.Time
	PaymentMethod     PaymentMethod
	PaymentRef        string
	Price             pricing.Breakdown
	CreatedAt         time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(params.GuestID) == "" {
		return nil, ErrGuestRequired
	}
	if params.Listing == nil {
		return nil, listings.ErrListingNotFound
	}
	if params.Guests <= 0 {
		return nil, ErrInvalidGuests
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	now := params.CreatedAt.UTC()
	if params.Range.Start.Before(daterange.Day(now)) {
		return nil, ErrCheckInInPast
	}
	if _, err := ParsePaymentMethod(string(params.PaymentMethod)); err != nil {
		return nil, err
	}
	if !params.Price.Detailed {
		return nil, ErrPriceRequired
	}
	if err := params.Price.Reconcile(); err != nil {
		return nil, err
	}
	b := &Booking{
		ID:                params.ID,
		ListingID:         params.Listing.ID,
		HostID:            params.Listing.Host,
		ListingTitle:      params.Listing.Title,
		GuestID:           params.GuestID,
		Range:             params.Range,
		Guests:            params.Guests,
		TravelerBirthdate: params.TravelerBirthdate,
		PaymentMethod:     params.PaymentMethod,
		PaymentRef:        strings.TrimSpace(params.PaymentRef),
		Price:             params.Price,
		Status:            StatusPendingApproval,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	b.Record(BookingRequested{
		BookingID: b.ID,
		ListingID: b.ListingID,
		HostID:    b.HostID,
		GuestID:   b.GuestID,
		Range:     b.Range,
		Guests:    b.Guests,
		Total:     b.Price.Total,
		At:        now,
	})
	return b, nil
}

func (b *Booking) transition(next Status, now time.Time) error {
	if !b.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidState, b.Status, next)
	}
	b.Status = next
	b.UpdatedAt = now.UTC()
	return nil
}

func (b *Booking) Approve(now time.Time) error {
	if err := b.transition(StatusApproved, now); err != nil {
		return err
	}
	b.Record(BookingApproved{BookingID: b.ID, ListingID: b.ListingID, Range: b.Range, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Reject(reason string, now time.Time) error {
	if err := b.transition(StatusRejected, now); err != nil {
		return err
	}
	b.Reason = strings.TrimSpace(reason)
	b.Record(BookingRejected{BookingID: b.ID, Reason: b.Reason, At: b.UpdatedAt})
	return nil
}

// MarkPaid settles an approved booking once its payment proof is accepted.
// receiptKey is the storage key of the accepted evidence; links to it are
// presigned on read.
func (b *Booking) MarkPaid(proofID string, receiptKey string, now time.Time) error {
	if err := b.transition(StatusPaid, now); err != nil {
		return err
	}
	if receiptKey != "" {
		b.ReceiptKey = receiptKey
	}
	b.Record(BookingPaid{BookingID: b.ID, ProofID: proofID, Total: b.Price.Total, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Cancel(reason string, now time.Time) error {
	if err := b.transition(StatusCancelled, now); err != nil {
		return err
	}
	b.Reason = strings.TrimSpace(reason)
	b.Record(BookingCancelled{BookingID: b.ID, Reason: b.Reason, At: b.UpdatedAt})
	return nil
}

// AcceptsPaymentProof reports whether a traveler may upload evidence now.
func (b *Booking) AcceptsPaymentProof() bool {
	return b.Status == StatusApproved && b.PaymentMethod.RequiresProof()
}
