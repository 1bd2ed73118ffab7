package memory

import (
	"context"
	"errors"

	"locadz/internal/app/uow"
	domainavailability "locadz/internal/domain/availability"
	domainbooking "locadz/internal/domain/booking"
	domainlistings "locadz/internal/domain/listings"
	domainnotifications "locadz/internal/domain/notifications"
	domainpayments "locadz/internal/domain/payments"
	domainpayouts "locadz/internal/domain/payouts"
)

var (
	// ErrFactoryMisconfigured indicates a factory without a store.
	ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")
	ErrUnitClosed           = errors.New("memory: unit of work already finished")
	ErrReadOnly             = errors.New("memory: write in read-only unit of work")
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	Store *Store
}

// Begin starts a unit that sees committed state plus its own writes. Commit
// fails with uow.ErrConcurrentUpdate when another unit committed a newer
// version of a row this unit wrote.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.Store == nil {
		return nil, ErrFactoryMisconfigured
	}
	u := &Unit{
		store:         f.Store,
		readOnly:      opts.ReadOnly,
		listings:      newStaged[domainlistings.ListingID, *domainlistings.Listing](),
		calendars:     newStaged[domainlistings.ListingID, *domainavailability.Calendar](),
		bookings:      newStaged[domainbooking.BookingID, *domainbooking.Booking](),
		proofs:        newStaged[domainpayments.ProofID, *domainpayments.PaymentProof](),
		payouts:       newStaged[string, *domainpayouts.Record](),
		notifications: newStaged[string, *domainnotifications.Notification](),
	}
	return u, nil
}

// Unit is a uow.UnitOfWork backed by the in-memory Store.
type Unit struct {
	store    *Store
	readOnly bool
	done     bool

	listings      *staged[domainlistings.ListingID, *domainlistings.Listing]
	calendars     *staged[domainlistings.ListingID, *domainavailability.Calendar]
	bookings      *staged[domainbooking.BookingID, *domainbooking.Booking]
	proofs        *staged[domainpayments.ProofID, *domainpayments.PaymentProof]
	payouts       *staged[string, *domainpayouts.Record]
	notifications *staged[string, *domainnotifications.Notification]
}

func (u *Unit) Listings() domainlistings.ListingRepository { return listingRepository{u} }

func (u *Unit) Calendars() domainavailability.Repository { return calendarRepository{u} }

func (u *Unit) Bookings() domainbooking.Repository { return bookingRepository{u} }

func (u *Unit) PaymentProofs() domainpayments.Repository { return proofRepository{u} }

func (u *Unit) Payouts() domainpayouts.Repository { return payoutRepository{u} }

func (u *Unit) Notifications() domainnotifications.Repository { return notificationRepository{u} }

func (u *Unit) writable() error {
	if u.done {
		return ErrUnitClosed
	}
	if u.readOnly {
		return ErrReadOnly
	}
	return nil
}

func (u *Unit) Commit(ctx context.Context) error {
	if u.done {
		return ErrUnitClosed
	}
	u.done = true
	s := u.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkVersions(s.bookings, u.bookings, func(b *domainbooking.Booking) int64 { return b.Version }); err != nil {
		return err
	}
	if err := checkVersions(s.calendars, u.calendars, func(c *domainavailability.Calendar) int64 { return c.Version }); err != nil {
		return err
	}
	if err := checkVersions(s.proofs, u.proofs, func(p *domainpayments.PaymentProof) int64 { return p.Version }); err != nil {
		return err
	}
	if err := u.checkPendingUnique(); err != nil {
		return err
	}

	u.listings.apply(s.listings)
	u.calendars.apply(s.calendars)
	u.bookings.apply(s.bookings)
	u.proofs.apply(s.proofs)
	u.payouts.apply(s.payouts)
	u.notifications.apply(s.notifications)
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	u.done = true
	return nil
}

func checkVersions[K comparable, V any](committed map[K]V, s *staged[K, V], version func(V) int64) error {
	for key, base := range s.base {
		current, ok := committed[key]
		switch {
		case !ok && base != 0:
			return uow.ErrConcurrentUpdate
		case ok && version(current) != base:
			return uow.ErrConcurrentUpdate
		}
	}
	return nil
}

// checkPendingUnique keeps one pending request per guest, listing and range.
func (u *Unit) checkPendingUnique() error {
	for _, b := range u.bookings.writes {
		if b.Status != domainbooking.StatusPendingApproval {
			continue
		}
		for id, existing := range u.store.bookings {
			if id == b.ID || existing.Status != domainbooking.StatusPendingApproval {
				continue
			}
			if _, gone := u.bookings.deletes[id]; gone {
				continue
			}
			if _, over := u.bookings.writes[id]; over {
				continue
			}
			if existing.ListingID == b.ListingID && existing.GuestID == b.GuestID && existing.Range.Equal(b.Range) {
				return uow.ErrConcurrentUpdate
			}
		}
	}
	return nil
}

var _ uow.UoWFactory = Factory{}
