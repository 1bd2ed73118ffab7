package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locadz/internal/domain/booking"
	"locadz/internal/domain/shared/daterange"
)

var now = time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

func mustRange(t *testing.T, start, end string) daterange.DateRange {
	t.Helper()
	r, err := daterange.Parse(start, end)
	require.NoError(t, err)
	return r
}

func TestPolicyIgnoresNonBlockingStatuses(t *testing.T) {
	june := mustRange(t, "2025-06-10", "2025-06-15")
	existing := []*booking.Booking{
		{ID: "pending", Status: booking.StatusPendingApproval, Range: june},
		{ID: "rejected", Status: booking.StatusRejected, Range: june},
		{ID: "cancelled", Status: booking.StatusCancelled, Range: june},
	}
	assert.True(t, DefaultPolicy.IsFree(existing, june, ""))

	strict := Policy{Blocking: []booking.Status{booking.StatusPendingApproval, booking.StatusApproved, booking.StatusPaid}, Mode: daterange.OverlapInclusive}
	assert.False(t, strict.IsFree(existing, june, ""))
}

func TestPolicyInclusiveBoundaries(t *testing.T) {
	existing := []*booking.Booking{{ID: "x", Status: booking.StatusApproved, Range: mustRange(t, "2025-06-10", "2025-06-15")}}

	assert.False(t, DefaultPolicy.IsFree(existing, mustRange(t, "2025-06-14", "2025-06-20"), ""))
	assert.False(t, DefaultPolicy.IsFree(existing, mustRange(t, "2025-06-15", "2025-06-20"), ""))
	assert.False(t, DefaultPolicy.IsFree(existing, mustRange(t, "2025-06-05", "2025-06-10"), ""))
	assert.True(t, DefaultPolicy.IsFree(existing, mustRange(t, "2025-06-16", "2025-06-20"), ""))
	assert.True(t, DefaultPolicy.IsFree(existing, mustRange(t, "2025-06-01", "2025-06-09"), ""))
	assert.True(t, DefaultPolicy.IsFree(existing, existing[0].Range, "x"))
}

func TestPolicyCheckoutFreeBoundaries(t *testing.T) {
	p := Policy{Blocking: DefaultPolicy.Blocking, Mode: daterange.OverlapCheckoutFree}
	existing := []*booking.Booking{{ID: "x", Status: booking.StatusPaid, Range: mustRange(t, "2025-06-10", "2025-06-15")}}

	assert.True(t, p.IsFree(existing, mustRange(t, "2025-06-15", "2025-06-20"), ""))
	assert.True(t, p.IsFree(existing, mustRange(t, "2025-06-05", "2025-06-10"), ""))
	assert.False(t, p.IsFree(existing, mustRange(t, "2025-06-14", "2025-06-20"), ""))
}

func TestPolicyValidate(t *testing.T) {
	assert.NoError(t, DefaultPolicy.Validate())
	assert.ErrorIs(t, Policy{Mode: daterange.OverlapInclusive}.Validate(), ErrEmptyBlockingSet)
	assert.ErrorIs(t, Policy{Blocking: DefaultPolicy.Blocking, Mode: "fuzzy"}.Validate(), daterange.ErrInvalidOverlapMode)
}

func TestCalendarReserveRejectsOverlap(t *testing.T) {
	cal := NewCalendar("listing-1")
	require.NoError(t, cal.Reserve(mustRange(t, "2025-06-10", "2025-06-15"), "b1", daterange.OverlapInclusive, now))

	err := cal.Reserve(mustRange(t, "2025-06-15", "2025-06-18"), "b2", daterange.OverlapInclusive, now)
	assert.ErrorIs(t, err, ErrOverlappingRange)
	require.NoError(t, cal.Reserve(mustRange(t, "2025-06-15", "2025-06-18"), "b2", daterange.OverlapCheckoutFree, now))

	// re-reserving the same reference is a no-op
	require.NoError(t, cal.Reserve(mustRange(t, "2025-06-10", "2025-06-15"), "b1", daterange.OverlapInclusive, now))
	assert.Len(t, cal.Blocks, 2)

	names := []string{}
	for _, e := range cal.Drain() {
		names = append(names, e.EventName())
	}
	assert.Equal(t, []string{"availability.dates_reserved", "availability.double_booking_rejected", "availability.dates_reserved"}, names)
}

func TestCalendarRelease(t *testing.T) {
	cal := NewCalendar("listing-1")
	r := mustRange(t, "2025-06-10", "2025-06-15")
	require.NoError(t, cal.Reserve(r, "b1", daterange.OverlapInclusive, now))
	require.True(t, cal.Holds("b1"))

	require.NoError(t, cal.Release("b1", now))
	assert.False(t, cal.Holds("b1"))
	assert.ErrorIs(t, cal.Release("b1", now), ErrRangeNotFound)
	assert.True(t, cal.CanReserve(r, daterange.OverlapInclusive))
}
