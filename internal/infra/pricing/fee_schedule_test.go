package pricing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainlistings "locadz/internal/domain/listings"
	domainpricing "locadz/internal/domain/pricing"
	domainrange "locadz/internal/domain/shared/daterange"
	"locadz/internal/domain/shared/money"
)

func TestFeeScheduleQuotesFromNightlyRate(t *testing.T) {
	schedule, err := NewFeeSchedule(domainpricing.DefaultFeeRates)
	require.NoError(t, err)

	dr, err := domainrange.Parse("2030-07-01", "2030-07-04")
	require.NoError(t, err)
	listing := &domainlistings.Listing{ID: "villa-tipaza", NightlyRate: money.Must(15000, "DZD")}

	quote, err := schedule.Quote(context.Background(), listing, dr)
	require.NoError(t, err)
	assert.Equal(t, 3, quote.Nights)
	assert.Equal(t, int64(48600), quote.Total.Amount)
	assert.Equal(t, int64(40500), quote.PayoutHost.Amount)
}

func TestFeeScheduleRejectsInvalidInput(t *testing.T) {
	_, err := NewFeeSchedule(domainpricing.FeeRates{ClientBps: 20000})
	assert.ErrorIs(t, err, domainpricing.ErrInvalidRate)

	schedule := &FeeSchedule{Rates: domainpricing.DefaultFeeRates}
	_, err = schedule.Quote(context.Background(), nil, domainrange.DateRange{})
	assert.ErrorIs(t, err, ErrListingMissing)
}
