package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locadz/internal/domain/listings"
	"locadz/internal/domain/pricing"
	"locadz/internal/domain/shared/daterange"
	"locadz/internal/domain/shared/money"
)

var now = time.Date(2025, time.June, 1, 9, 30, 0, 0, time.UTC)

func testListing() *listings.Listing {
	return &listings.Listing{
		ID:          "listing-1",
		Host:        "host-1",
		Title:       "Villa in Tipaza",
		NightlyRate: money.Must(15000, "DZD"),
		State:       listings.ListingActive,
	}
}

func newPending(t *testing.T, method PaymentMethod) *Booking {
	t.Helper()
	r, err := daterange.Parse("2025-06-10", "2025-06-13")
	require.NoError(t, err)
	price, err := pricing.Compute(pricing.DefaultFeeRates, money.Must(15000, "DZD"), r.Nights())
	require.NoError(t, err)
	b, err := NewBooking(CreateParams{
		ID:            "booking-1",
		Listing:       testListing(),
		GuestID:       "guest-1",
		Range:         r,
		Guests:        2,
		PaymentMethod: method,
		Price:         price,
		CreatedAt:     now,
	})
	require.NoError(t, err)
	return b
}

func TestNewBookingStartsPendingWithLockedPrice(t *testing.T) {
	b := newPending(t, PaymentBaridiMob)

	assert.Equal(t, StatusPendingApproval, b.Status)
	assert.Equal(t, listings.HostID("host-1"), b.HostID)
	assert.Equal(t, "Villa in Tipaza", b.ListingTitle)
	assert.Equal(t, int64(48600), b.Price.Total.Amount)
	assert.Equal(t, int64(8100), b.Price.PlatformRevenue().Amount)

	evts := b.PendingEvents()
	require.Len(t, evts, 1)
	assert.Equal(t, "booking.requested", evts[0].EventName())
}

func TestNewBookingValidation(t *testing.T) {
	r, err := daterange.Parse("2025-06-10", "2025-06-13")
	require.NoError(t, err)
	price, err := pricing.Compute(pricing.DefaultFeeRates, money.Must(100, "DZD"), 3)
	require.NoError(t, err)
	past, err := daterange.Parse("2025-05-20", "2025-05-22")
	require.NoError(t, err)

	base := CreateParams{ID: "b", Listing: testListing(), GuestID: "g", Range: r, Guests: 1, PaymentMethod: PaymentRIB, Price: price, CreatedAt: now}

	cases := []struct {
		name   string
		mutate func(*CreateParams)
		want   error
	}{
		{"missing guest", func(p *CreateParams) { p.GuestID = " " }, ErrGuestRequired},
		{"zero guests", func(p *CreateParams) { p.Guests = 0 }, ErrInvalidGuests},
		{"empty range", func(p *CreateParams) { p.Range = daterange.DateRange{} }, daterange.ErrInvalidRange},
		{"past check-in", func(p *CreateParams) { p.Range = past }, ErrCheckInInPast},
		{"unknown method", func(p *CreateParams) { p.PaymentMethod = "CASHAPP" }, ErrInvalidPaymentMethod},
		{"legacy price", func(p *CreateParams) { p.Price = pricing.Legacy(money.Must(1, "DZD"), money.Must(0, "DZD")) }, ErrPriceRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := base
			tc.mutate(&params)
			_, err := NewBooking(params)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestStatusTransitionTable(t *testing.T) {
	all := []Status{StatusPendingApproval, StatusApproved, StatusPaid, StatusRejected, StatusCancelled}
	legal := map[Status]map[Status]bool{
		StatusPendingApproval: {StatusApproved: true, StatusRejected: true, StatusCancelled: true},
		StatusApproved:        {StatusPaid: true, StatusCancelled: true},
	}
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, legal[from][to], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
	assert.True(t, StatusPaid.Terminal())
	assert.True(t, StatusRejected.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusApproved.Terminal())
}

func TestHostCannotRedecide(t *testing.T) {
	b := newPending(t, PaymentRIB)
	require.NoError(t, b.Approve(now))
	assert.ErrorIs(t, b.Approve(now), ErrInvalidState)
	assert.ErrorIs(t, b.Reject("late", now), ErrInvalidState)
	assert.Equal(t, StatusApproved, b.Status)

	r := newPending(t, PaymentRIB)
	require.NoError(t, r.Reject(" dates taken ", now))
	assert.Equal(t, "dates taken", r.Reason)
	assert.ErrorIs(t, r.Approve(now), ErrInvalidState)
}

func TestMarkPaidRequiresApproval(t *testing.T) {
	b := newPending(t, PaymentPayPal)
	assert.ErrorIs(t, b.MarkPaid("proof-1", "", now), ErrInvalidState)

	require.NoError(t, b.Approve(now))
	assert.True(t, b.AcceptsPaymentProof())
	require.NoError(t, b.MarkPaid("proof-1", "proofs/booking-1/x.png", now.Add(time.Hour)))
	assert.Equal(t, StatusPaid, b.Status)
	assert.Equal(t, "proofs/booking-1/x.png", b.ReceiptKey)
	assert.False(t, b.AcceptsPaymentProof())
	assert.ErrorIs(t, b.Cancel("too late", now), ErrInvalidState)
}

func TestOnArrivalNeverAcceptsProof(t *testing.T) {
	b := newPending(t, PaymentOnArrival)
	require.NoError(t, b.Approve(now))
	assert.False(t, b.AcceptsPaymentProof())
}

func TestCancelFromOpenStates(t *testing.T) {
	b := newPending(t, PaymentRIB)
	require.NoError(t, b.Cancel("host unreachable", now))
	assert.Equal(t, StatusCancelled, b.Status)

	a := newPending(t, PaymentRIB)
	require.NoError(t, a.Approve(now))
	require.NoError(t, a.Cancel("", now))
	names := make([]string, 0)
	for _, e := range a.Drain() {
		names = append(names, e.EventName())
	}
	assert.Equal(t, []string{"booking.requested", "booking.approved", "booking.cancelled"}, names)
}

func TestParseStatuses(t *testing.T) {
	got, err := ParseStatuses("approved, PAID,,")
	require.NoError(t, err)
	assert.Equal(t, []Status{StatusApproved, StatusPaid}, got)

	_, err = ParseStatuses("APPROVED,DONE")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
