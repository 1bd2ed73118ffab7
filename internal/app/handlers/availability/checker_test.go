package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locadz/internal/app/apperr"
	domainavailability "locadz/internal/domain/availability"
	domainbooking "locadz/internal/domain/booking"
	domainlistings "locadz/internal/domain/listings"
	domainrange "locadz/internal/domain/shared/daterange"
)

var errStoreDown = errors.New("bookings store down")

// stubBookings serves ListByListings only; other methods are not used by the checker.
type stubBookings struct {
	domainbooking.Repository
	existing []*domainbooking.Booking
	err      error
	asked    []domainbooking.Status
}

func (s *stubBookings) ListByListings(ctx context.Context, ids []domainlistings.ListingID, statuses []domainbooking.Status) ([]*domainbooking.Booking, error) {
	s.asked = statuses
	return s.existing, s.err
}

func mustRange(t *testing.T, in, out string) domainrange.DateRange {
	t.Helper()
	r, err := domainrange.Parse(in, out)
	require.NoError(t, err)
	return r
}

func approvedStay(t *testing.T, id, in, out string) *domainbooking.Booking {
	t.Helper()
	return &domainbooking.Booking{
		ID:        domainbooking.BookingID(id),
		ListingID: "listing-1",
		Range:     mustRange(t, in, out),
		Status:    domainbooking.StatusApproved,
		UpdatedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCheckerFailsClosedWhenLookupFails(t *testing.T) {
	checker := &Checker{Policy: domainavailability.DefaultPolicy}

	ok, err := checker.IsRangeAvailable(context.Background(), &stubBookings{err: errStoreDown}, "listing-1", mustRange(t, "2025-06-10", "2025-06-15"), "")

	assert.False(t, ok)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnavailable, apperr.KindOf(err))
	assert.ErrorIs(t, err, errStoreDown)
}

func TestCheckerFailOpenReportsFree(t *testing.T) {
	checker := &Checker{Policy: domainavailability.DefaultPolicy, FailOpen: true}

	ok, err := checker.IsRangeAvailable(context.Background(), &stubBookings{err: errStoreDown}, "listing-1", mustRange(t, "2025-06-10", "2025-06-15"), "")

	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckerReadsBlockingStatuses(t *testing.T) {
	repo := &stubBookings{existing: []*domainbooking.Booking{approvedStay(t, "b-1", "2025-06-10", "2025-06-15")}}
	checker := &Checker{Policy: domainavailability.DefaultPolicy}
	ctx := context.Background()

	ok, err := checker.IsRangeAvailable(ctx, repo, "listing-1", mustRange(t, "2025-06-12", "2025-06-18"), "")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, domainavailability.DefaultPolicy.Blocking, repo.asked)

	ok, err = checker.IsRangeAvailable(ctx, repo, "listing-1", mustRange(t, "2025-06-16", "2025-06-18"), "")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = checker.IsRangeAvailable(ctx, repo, "listing-1", mustRange(t, "2025-06-12", "2025-06-18"), "b-1")
	require.NoError(t, err)
	assert.True(t, ok, "a booking never blocks itself")
}
