package uow

import (
	"context"
	"errors"

	domainavailability "locadz/internal/domain/availability"
	domainbooking "locadz/internal/domain/booking"
	domainlistings "locadz/internal/domain/listings"
	domainnotifications "locadz/internal/domain/notifications"
	domainpayments "locadz/internal/domain/payments"
	domainpayouts "locadz/internal/domain/payouts"
)

// ErrConcurrentUpdate is returned by repositories when a versioned write lost a race.
var ErrConcurrentUpdate = errors.New("uow: concurrent update detected")

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Listings() domainlistings.ListingRepository
	Calendars() domainavailability.Repository
	Bookings() domainbooking.Repository
	PaymentProofs() domainpayments.Repository
	Payouts() domainpayouts.Repository
	Notifications() domainnotifications.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
