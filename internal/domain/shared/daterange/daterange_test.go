package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValidatesOrder(t *testing.T) {
	r, err := Parse("2025-06-10", "2025-06-13")
	require.NoError(t, err)
	assert.Equal(t, 3, r.Nights())
	assert.Equal(t, "2025-06-10..2025-06-13", r.String())

	_, err = Parse("2025-06-10", "2025-06-10")
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = Parse("2025-06-10", "2025-06-01")
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = Parse("10/06/2025", "2025-06-13")
	assert.Error(t, err)
}

func TestNewTruncatesToDays(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	r, err := New(time.Date(2025, 6, 10, 23, 15, 0, 0, loc), time.Date(2025, 6, 12, 1, 0, 0, 0, loc))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), r.Start)
	assert.Equal(t, 2, r.Nights())
}

func TestOverlapModes(t *testing.T) {
	a, _ := Parse("2025-06-10", "2025-06-15")
	touching, _ := Parse("2025-06-15", "2025-06-20")
	after, _ := Parse("2025-06-16", "2025-06-20")
	inside, _ := Parse("2025-06-11", "2025-06-12")

	assert.True(t, a.Overlaps(touching, OverlapInclusive))
	assert.True(t, touching.Overlaps(a, OverlapInclusive))
	assert.False(t, a.Overlaps(touching, OverlapCheckoutFree))
	assert.False(t, a.Overlaps(after, OverlapInclusive))
	assert.True(t, a.Overlaps(inside, OverlapCheckoutFree))
	assert.True(t, inside.Overlaps(a, OverlapInclusive))
}

func TestParseOverlapMode(t *testing.T) {
	m, err := ParseOverlapMode("")
	require.NoError(t, err)
	assert.Equal(t, OverlapInclusive, m)

	m, err = ParseOverlapMode(" Checkout_Free ")
	require.NoError(t, err)
	assert.Equal(t, OverlapCheckoutFree, m)

	_, err = ParseOverlapMode("half")
	assert.ErrorIs(t, err, ErrInvalidOverlapMode)
}
