package memory

import (
	"sync"

	domainavailability "locadz/internal/domain/availability"
	domainbooking "locadz/internal/domain/booking"
	domainlistings "locadz/internal/domain/listings"
	domainnotifications "locadz/internal/domain/notifications"
	domainpayments "locadz/internal/domain/payments"
	domainpayouts "locadz/internal/domain/payouts"
)

// Store is the committed state shared by every unit of work. Units read
// copies and stage their writes until Commit.
type Store struct {
	mu            sync.RWMutex
	listings      map[domainlistings.ListingID]*domainlistings.Listing
	calendars     map[domainlistings.ListingID]*domainavailability.Calendar
	bookings      map[domainbooking.BookingID]*domainbooking.Booking
	proofs        map[domainpayments.ProofID]*domainpayments.PaymentProof
	payouts       map[string]*domainpayouts.Record
	notifications map[string]*domainnotifications.Notification
}

func NewStore() *Store {
	return &Store{
		listings:      make(map[domainlistings.ListingID]*domainlistings.Listing),
		calendars:     make(map[domainlistings.ListingID]*domainavailability.Calendar),
		bookings:      make(map[domainbooking.BookingID]*domainbooking.Booking),
		proofs:        make(map[domainpayments.ProofID]*domainpayments.PaymentProof),
		payouts:       make(map[string]*domainpayouts.Record),
		notifications: make(map[string]*domainnotifications.Notification),
	}
}

// staged keeps the uncommitted writes of one table.
type staged[K comparable, V any] struct {
	writes  map[K]V
	deletes map[K]struct{}
	// base is the committed version each write was made against.
	base map[K]int64
}

func newStaged[K comparable, V any]() *staged[K, V] {
	return &staged[K, V]{
		writes:  make(map[K]V),
		deletes: make(map[K]struct{}),
		base:    make(map[K]int64),
	}
}

func (s *staged[K, V]) put(key K, value V) {
	delete(s.deletes, key)
	s.writes[key] = value
}

func (s *staged[K, V]) remove(key K) {
	delete(s.writes, key)
	s.deletes[key] = struct{}{}
}

// lookup reports the staged value of key. deleted is true when the unit removed it.
func (s *staged[K, V]) lookup(key K) (value V, found, deleted bool) {
	if _, gone := s.deletes[key]; gone {
		return value, false, true
	}
	value, found = s.writes[key]
	return value, found, false
}

func (s *staged[K, V]) apply(committed map[K]V) {
	for key := range s.deletes {
		delete(committed, key)
	}
	for key, value := range s.writes {
		committed[key] = value
	}
}

// merged returns committed rows overlaid with staged writes and deletes.
func merged[K comparable, V any](committed map[K]V, s *staged[K, V]) []V {
	out := make([]V, 0, len(committed)+len(s.writes))
	for key, value := range committed {
		if _, gone := s.deletes[key]; gone {
			continue
		}
		if _, over := s.writes[key]; over {
			continue
		}
		out = append(out, value)
	}
	for _, value := range s.writes {
		out = append(out, value)
	}
	return out
}

func cloneListing(l *domainlistings.Listing) *domainlistings.Listing {
	c := *l
	return &c
}

func cloneCalendar(cal *domainavailability.Calendar) *domainavailability.Calendar {
	c := *cal
	c.ClearEvents()
	c.Blocks = append([]domainavailability.Block(nil), cal.Blocks...)
	return &c
}

func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	c := *b
	c.ClearEvents()
	return &c
}

func cloneProof(p *domainpayments.PaymentProof) *domainpayments.PaymentProof {
	c := *p
	c.ClearEvents()
	return &c
}

func clonePayout(r *domainpayouts.Record) *domainpayouts.Record {
	c := *r
	return &c
}

func cloneNotification(n *domainnotifications.Notification) *domainnotifications.Notification {
	c := *n
	if n.Data != nil {
		c.Data = make(map[string]string, len(n.Data))
		for k, v := range n.Data {
			c.Data[k] = v
		}
	}
	return &c
}

// SeedListings stores listings directly as committed state.
func (s *Store) SeedListings(listings ...*domainlistings.Listing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range listings {
		if l == nil {
			continue
		}
		s.listings[l.ID] = cloneListing(l)
	}
}
