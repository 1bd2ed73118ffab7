package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locadz/internal/app/middleware"
	appoutbox "locadz/internal/app/outbox"
	"locadz/internal/app/uow"
	domainbooking "locadz/internal/domain/booking"
	domainlistings "locadz/internal/domain/listings"
	domainpricing "locadz/internal/domain/pricing"
	"locadz/internal/domain/shared/daterange"
	"locadz/internal/domain/shared/money"
)

var createdAt = time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)

func seededStore() *Store {
	s := NewStore()
	s.SeedListings(&domainlistings.Listing{
		ID:          "listing-1",
		Host:        "host-1",
		Title:       "Villa in Tipaza",
		NightlyRate: money.Must(15000, "DZD"),
		GuestsLimit: 4,
		State:       domainlistings.ListingActive,
	})
	return s
}

func pendingBooking(t *testing.T, id string) *domainbooking.Booking {
	t.Helper()
	r, err := daterange.Parse("2025-06-10", "2025-06-13")
	require.NoError(t, err)
	price, err := domainpricing.Compute(domainpricing.DefaultFeeRates, money.Must(15000, "DZD"), r.Nights())
	require.NoError(t, err)
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID: domainbooking.BookingID(id),
		Listing: &domainlistings.Listing{
			ID:          "listing-1",
			Host:        "host-1",
			Title:       "Villa in Tipaza",
			NightlyRate: money.Must(15000, "DZD"),
			State:       domainlistings.ListingActive,
		},
		GuestID:       "guest-1",
		Range:         r,
		Guests:        2,
		PaymentMethod: domainbooking.PaymentBaridiMob,
		Price:         price,
		CreatedAt:     createdAt,
	})
	require.NoError(t, err)
	return b
}

func begin(t *testing.T, f Factory) uow.UnitOfWork {
	t.Helper()
	unit, err := f.Begin(context.Background(), uow.TxOptions{})
	require.NoError(t, err)
	return unit
}

func TestCommittedWritesAreVisibleToLaterUnits(t *testing.T) {
	f := Factory{Store: seededStore()}
	ctx := context.Background()

	unit := begin(t, f)
	require.NoError(t, unit.Bookings().Save(ctx, pendingBooking(t, "b-1")))
	other := begin(t, f)
	_, err := other.Bookings().ByID(ctx, "b-1")
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
	require.NoError(t, unit.Commit(ctx))

	got, err := begin(t, f).Bookings().ByID(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
}

func TestRollbackDiscardsWrites(t *testing.T) {
	f := Factory{Store: seededStore()}
	ctx := context.Background()

	unit := begin(t, f)
	require.NoError(t, unit.Bookings().Save(ctx, pendingBooking(t, "b-1")))
	require.NoError(t, unit.Rollback(ctx))
	assert.ErrorIs(t, unit.Commit(ctx), ErrUnitClosed)

	_, err := begin(t, f).Bookings().ByID(ctx, "b-1")
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
}

func TestConcurrentDecisionsLoseOnVersion(t *testing.T) {
	f := Factory{Store: seededStore()}
	ctx := context.Background()

	seed := begin(t, f)
	require.NoError(t, seed.Bookings().Save(ctx, pendingBooking(t, "b-1")))
	require.NoError(t, seed.Commit(ctx))

	approve := begin(t, f)
	reject := begin(t, f)
	a, err := approve.Bookings().ByID(ctx, "b-1")
	require.NoError(t, err)
	r, err := reject.Bookings().ByID(ctx, "b-1")
	require.NoError(t, err)

	require.NoError(t, a.Approve(createdAt))
	require.NoError(t, r.Reject("busy", createdAt))
	require.NoError(t, approve.Bookings().Save(ctx, a))
	require.NoError(t, reject.Bookings().Save(ctx, r))

	require.NoError(t, approve.Commit(ctx))
	assert.ErrorIs(t, reject.Commit(ctx), uow.ErrConcurrentUpdate)

	got, err := begin(t, f).Bookings().ByID(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusApproved, got.Status)
}

func TestStaleSaveIsRejectedImmediately(t *testing.T) {
	f := Factory{Store: seededStore()}
	ctx := context.Background()
	unit := begin(t, f)
	b := pendingBooking(t, "b-1")
	b.Version = 3
	assert.ErrorIs(t, unit.Bookings().Save(ctx, b), uow.ErrConcurrentUpdate)
}

func TestSinglePendingRequestPerGuestAndRange(t *testing.T) {
	f := Factory{Store: seededStore()}
	ctx := context.Background()

	first := begin(t, f)
	second := begin(t, f)
	require.NoError(t, first.Bookings().Save(ctx, pendingBooking(t, "b-1")))
	require.NoError(t, second.Bookings().Save(ctx, pendingBooking(t, "b-2")))

	require.NoError(t, first.Commit(ctx))
	assert.ErrorIs(t, second.Commit(ctx), uow.ErrConcurrentUpdate)

	replace := begin(t, f)
	require.NoError(t, replace.Bookings().Delete(ctx, "b-1"))
	require.NoError(t, replace.Bookings().Save(ctx, pendingBooking(t, "b-3")))
	require.NoError(t, replace.Commit(ctx))

	r, err := daterange.Parse("2025-06-10", "2025-06-13")
	require.NoError(t, err)
	pending, err := begin(t, f).Bookings().FindPending(ctx, "listing-1", "guest-1", r)
	require.NoError(t, err)
	assert.Equal(t, domainbooking.BookingID("b-3"), pending.ID)
}

func TestReadOnlyUnitRefusesWrites(t *testing.T) {
	f := Factory{Store: seededStore()}
	unit, err := f.Begin(context.Background(), uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	assert.ErrorIs(t, unit.Bookings().Save(context.Background(), pendingBooking(t, "b-1")), ErrReadOnly)
}

func TestOutboxPublishesCommittedRecordsOnly(t *testing.T) {
	box := NewOutbox()

	committedCtx, committed := uow.ContextWithHooks(context.Background())
	require.NoError(t, box.Add(committedCtx, appoutbox.EventRecord{ID: "e-1", Name: "booking.requested"}))
	abortedCtx, aborted := uow.ContextWithHooks(context.Background())
	require.NoError(t, box.Add(abortedCtx, appoutbox.EventRecord{ID: "e-2", Name: "booking.requested"}))

	require.NoError(t, box.Flush(context.Background()))
	assert.Empty(t, box.Published())

	aborted.Discard()
	committed.Run(context.Background())
	require.NoError(t, box.Flush(context.Background()))

	published := box.Published()
	require.Len(t, published, 1)
	assert.Equal(t, "e-1", published[0].ID)
}

func TestIdempotencyRecordsExpire(t *testing.T) {
	store := NewIdempotencyStore(time.Millisecond)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: "k", OccurredAt: time.Now().Add(-time.Second)}))
	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}
