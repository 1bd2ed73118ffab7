package listings

import (
	"context"
	"errors"
	"strings"
	"time"

	"locadz/internal/domain/shared/money"
)

var (
	ErrListingNotFound = errors.New("listings: not found")
	ErrTitleRequired   = errors.New("listings: title is required")
	ErrHostRequired    = errors.New("listings: host is required")
	ErrNightlyRate     = errors.New("listings: nightly rate must be positive")
	ErrNotBookable     = errors.New("listings: listing is not accepting bookings")
	ErrOwnListing      = errors.New("listings: host cannot book own listing")
	ErrGuestsLimit     = errors.New("listings: guests exceed listing capacity")
)

type ListingID string
type HostID string

type ListingState string

const (
	ListingDraft     ListingState = "DRAFT"
	ListingActive    ListingState = "ACTIVE"
	ListingSuspended ListingState = "SUSPENDED"
)

// Listing is the slice of the property catalog the booking flow reads.
type Listing struct {
	ID          ListingID
	Host        HostID
	Title       string
	Location    string
	NightlyRate money.Money
	GuestsLimit int
	State       ListingState
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ListingRepository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error
	ListByHost(ctx context.Context, host HostID) ([]*Listing, error)
}

type CreateListingParams struct {
	ID          ListingID
	Host        HostID
	Title       string
	Location    string
	NightlyRate money.Money
	GuestsLimit int
	State       ListingState
	Now         time.Time
}

func NewListing(params CreateListingParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("listings: id is required")
	}
	if strings.TrimSpace(string(params.Host)) == "" {
		return nil, ErrHostRequired
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if !params.NightlyRate.IsPositive() || params.NightlyRate.Currency == "" {
		return nil, ErrNightlyRate
	}
	state := params.State
	if state == "" {
		state = ListingDraft
	}
	return &Listing{
		ID:          params.ID,
		Host:        params.Host,
		Title:       strings.TrimSpace(params.Title),
		Location:    strings.TrimSpace(params.Location),
		NightlyRate: params.NightlyRate,
		GuestsLimit: params.GuestsLimit,
		State:       state,
		CreatedAt:   params.Now.UTC(),
		UpdatedAt:   params.Now.UTC(),
	}, nil
}

// CanBeBookedBy reports whether guestID may request a stay for the given party size.
func (l *Listing) CanBeBookedBy(guestID string, guests int) error {
	if l.State != ListingActive {
		return ErrNotBookable
	}
	if string(l.Host) == guestID {
		return ErrOwnListing
	}
	if l.GuestsLimit > 0 && guests > l.GuestsLimit {
		return ErrGuestsLimit
	}
	return nil
}
