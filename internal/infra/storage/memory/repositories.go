package memory

import (
	"context"
	"errors"
	"sort"
	"strings"

	"locadz/internal/app/uow"
	domainavailability "locadz/internal/domain/availability"
	domainbooking "locadz/internal/domain/booking"
	domainlistings "locadz/internal/domain/listings"
	domainnotifications "locadz/internal/domain/notifications"
	domainpayments "locadz/internal/domain/payments"
	domainpayouts "locadz/internal/domain/payouts"
	domainrange "locadz/internal/domain/shared/daterange"
)

var ErrGuestRequired = errors.New("memory: guest id required")

type listingRepository struct{ u *Unit }

func (r listingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	if l, found, deleted := r.u.listings.lookup(id); found {
		return cloneListing(l), nil
	} else if deleted {
		return nil, domainlistings.ErrListingNotFound
	}
	s := r.u.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.listings[id]
	if !ok {
		return nil, domainlistings.ErrListingNotFound
	}
	return cloneListing(l), nil
}

func (r listingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	r.u.listings.put(listing.ID, cloneListing(listing))
	return nil
}

func (r listingRepository) ListByHost(ctx context.Context, host domainlistings.HostID) ([]*domainlistings.Listing, error) {
	s := r.u.store
	s.mu.RLock()
	all := merged(s.listings, r.u.listings)
	s.mu.RUnlock()
	out := make([]*domainlistings.Listing, 0)
	for _, l := range all {
		if l.Host == host {
			out = append(out, cloneListing(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type calendarRepository struct{ u *Unit }

func (r calendarRepository) Calendar(ctx context.Context, id domainlistings.ListingID) (*domainavailability.Calendar, error) {
	if cal, found, _ := r.u.calendars.lookup(id); found {
		return cloneCalendar(cal), nil
	}
	s := r.u.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cal, ok := s.calendars[id]; ok {
		return cloneCalendar(cal), nil
	}
	return domainavailability.NewCalendar(id), nil
}

func (r calendarRepository) Save(ctx context.Context, calendar *domainavailability.Calendar) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	current := int64(0)
	if staged, found, _ := r.u.calendars.lookup(calendar.ListingID); found {
		current = staged.Version
	} else {
		s := r.u.store
		s.mu.RLock()
		if cal, ok := s.calendars[calendar.ListingID]; ok {
			current = cal.Version
		}
		s.mu.RUnlock()
	}
	if current != calendar.Version {
		return uow.ErrConcurrentUpdate
	}
	if _, tracked := r.u.calendars.base[calendar.ListingID]; !tracked {
		r.u.calendars.base[calendar.ListingID] = calendar.Version
	}
	calendar.Version++
	r.u.calendars.put(calendar.ListingID, cloneCalendar(calendar))
	return nil
}

type bookingRepository struct{ u *Unit }

func (r bookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	if b, found, deleted := r.u.bookings.lookup(id); found {
		return cloneBooking(b), nil
	} else if deleted {
		return nil, domainbooking.ErrBookingNotFound
	}
	s := r.u.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return cloneBooking(b), nil
}

// committedVersion returns the version the unit currently sees for id.
func (r bookingRepository) committedVersion(id domainbooking.BookingID) (int64, bool) {
	if b, found, deleted := r.u.bookings.lookup(id); found {
		return b.Version, true
	} else if deleted {
		return 0, false
	}
	s := r.u.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return 0, false
	}
	return b.Version, true
}

func (r bookingRepository) Save(ctx context.Context, booking *domainbooking.Booking) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	current, _ := r.committedVersion(booking.ID)
	if current != booking.Version {
		return uow.ErrConcurrentUpdate
	}
	if _, tracked := r.u.bookings.base[booking.ID]; !tracked {
		r.u.bookings.base[booking.ID] = booking.Version
	}
	booking.Version++
	r.u.bookings.put(booking.ID, cloneBooking(booking))
	return nil
}

func (r bookingRepository) Delete(ctx context.Context, id domainbooking.BookingID) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	current, ok := r.committedVersion(id)
	if !ok {
		return domainbooking.ErrBookingNotFound
	}
	if _, tracked := r.u.bookings.base[id]; !tracked {
		r.u.bookings.base[id] = current
	}
	r.u.bookings.remove(id)
	return nil
}

func (r bookingRepository) all() []*domainbooking.Booking {
	s := r.u.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	return merged(s.bookings, r.u.bookings)
}

func (r bookingRepository) filter(keep func(*domainbooking.Booking) bool) []*domainbooking.Booking {
	out := make([]*domainbooking.Booking, 0)
	for _, b := range r.all() {
		if keep(b) {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r bookingRepository) FindPending(ctx context.Context, listingID domainlistings.ListingID, guestID string, dr domainrange.DateRange) (*domainbooking.Booking, error) {
	matches := r.filter(func(b *domainbooking.Booking) bool {
		return b.Status == domainbooking.StatusPendingApproval && b.ListingID == listingID && b.GuestID == guestID && b.Range.Equal(dr)
	})
	if len(matches) == 0 {
		return nil, domainbooking.ErrBookingNotFound
	}
	return matches[0], nil
}

func (r bookingRepository) ListByListings(ctx context.Context, ids []domainlistings.ListingID, statuses []domainbooking.Status) ([]*domainbooking.Booking, error) {
	wanted := make(map[domainlistings.ListingID]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	return r.filter(func(b *domainbooking.Booking) bool {
		_, ok := wanted[b.ListingID]
		return ok && statusIn(b.Status, statuses)
	}), nil
}

func (r bookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	id := strings.TrimSpace(guestID)
	if id == "" {
		return nil, ErrGuestRequired
	}
	return r.filter(func(b *domainbooking.Booking) bool { return b.GuestID == id }), nil
}

func (r bookingRepository) ListByHost(ctx context.Context, hostID domainlistings.HostID, statuses []domainbooking.Status) ([]*domainbooking.Booking, error) {
	return r.filter(func(b *domainbooking.Booking) bool {
		return b.HostID == hostID && statusIn(b.Status, statuses)
	}), nil
}

func (r bookingRepository) ListByStatuses(ctx context.Context, statuses []domainbooking.Status) ([]*domainbooking.Booking, error) {
	return r.filter(func(b *domainbooking.Booking) bool { return statusIn(b.Status, statuses) }), nil
}

// statusIn treats an empty filter as "any status".
func statusIn(status domainbooking.Status, statuses []domainbooking.Status) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

type proofRepository struct{ u *Unit }

func (r proofRepository) ByID(ctx context.Context, id domainpayments.ProofID) (*domainpayments.PaymentProof, error) {
	if p, found, _ := r.u.proofs.lookup(id); found {
		return cloneProof(p), nil
	}
	s := r.u.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.proofs[id]
	if !ok {
		return nil, domainpayments.ErrProofNotFound
	}
	return cloneProof(p), nil
}

func (r proofRepository) Save(ctx context.Context, proof *domainpayments.PaymentProof) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	current := int64(0)
	if staged, found, _ := r.u.proofs.lookup(proof.ID); found {
		current = staged.Version
	} else {
		s := r.u.store
		s.mu.RLock()
		if p, ok := s.proofs[proof.ID]; ok {
			current = p.Version
		}
		s.mu.RUnlock()
	}
	if current != proof.Version {
		return uow.ErrConcurrentUpdate
	}
	if _, tracked := r.u.proofs.base[proof.ID]; !tracked {
		r.u.proofs.base[proof.ID] = proof.Version
	}
	proof.Version++
	r.u.proofs.put(proof.ID, cloneProof(proof))
	return nil
}

func (r proofRepository) filter(keep func(*domainpayments.PaymentProof) bool) []*domainpayments.PaymentProof {
	s := r.u.store
	s.mu.RLock()
	all := merged(s.proofs, r.u.proofs)
	s.mu.RUnlock()
	out := make([]*domainpayments.PaymentProof, 0)
	for _, p := range all {
		if keep(p) {
			out = append(out, cloneProof(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r proofRepository) ListByBooking(ctx context.Context, id domainbooking.BookingID) ([]*domainpayments.PaymentProof, error) {
	return r.filter(func(p *domainpayments.PaymentProof) bool { return p.BookingID == id }), nil
}

func (r proofRepository) ListByStatus(ctx context.Context, status domainpayments.ProofStatus) ([]*domainpayments.PaymentProof, error) {
	return r.filter(func(p *domainpayments.PaymentProof) bool { return p.Status == status }), nil
}

type payoutRepository struct{ u *Unit }

func (r payoutRepository) Save(ctx context.Context, record *domainpayouts.Record) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	r.u.payouts.put(record.ID, clonePayout(record))
	return nil
}

func (r payoutRepository) ListByHost(ctx context.Context, host domainlistings.HostID) ([]*domainpayouts.Record, error) {
	s := r.u.store
	s.mu.RLock()
	all := merged(s.payouts, r.u.payouts)
	s.mu.RUnlock()
	out := make([]*domainpayouts.Record, 0)
	for _, rec := range all {
		if rec.HostID == host {
			out = append(out, clonePayout(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

type notificationRepository struct{ u *Unit }

func (r notificationRepository) Save(ctx context.Context, n *domainnotifications.Notification) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	r.u.notifications.put(n.ID, cloneNotification(n))
	return nil
}

func (r notificationRepository) mine(recipientID string) []*domainnotifications.Notification {
	s := r.u.store
	s.mu.RLock()
	all := merged(s.notifications, r.u.notifications)
	s.mu.RUnlock()
	out := make([]*domainnotifications.Notification, 0)
	for _, n := range all {
		if n.RecipientID == recipientID {
			out = append(out, cloneNotification(n))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r notificationRepository) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]*domainnotifications.Notification, error) {
	out := r.mine(recipientID)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r notificationRepository) MarkRead(ctx context.Context, recipientID, id string) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	for _, n := range r.mine(recipientID) {
		if n.ID == id {
			n.Read = true
			r.u.notifications.put(n.ID, n)
			return nil
		}
	}
	return domainnotifications.ErrNotificationNotFound
}

func (r notificationRepository) MarkAllRead(ctx context.Context, recipientID string) (int, error) {
	if err := r.u.writable(); err != nil {
		return 0, err
	}
	updated := 0
	for _, n := range r.mine(recipientID) {
		if n.Read {
			continue
		}
		n.Read = true
		r.u.notifications.put(n.ID, n)
		updated++
	}
	return updated, nil
}

var (
	_ domainlistings.ListingRepository = listingRepository{}
	_ domainavailability.Repository    = calendarRepository{}
	_ domainbooking.Repository         = bookingRepository{}
	_ domainpayments.Repository        = proofRepository{}
	_ domainpayouts.Repository         = payoutRepository{}
	_ domainnotifications.Repository   = notificationRepository{}
)
