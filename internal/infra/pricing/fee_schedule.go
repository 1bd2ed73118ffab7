package pricing

import (
	"context"
	"errors"

	"locadz/internal/app/policies"
	domainlistings "locadz/internal/domain/listings"
	domainpricing "locadz/internal/domain/pricing"
	domainrange "locadz/internal/domain/shared/daterange"
)

var ErrListingMissing = errors.New("pricing: listing missing")

// FeeSchedule quotes stays from the listing's nightly rate and the platform
// fee rates loaded at startup.
type FeeSchedule struct {
	Rates domainpricing.FeeRates
}

func NewFeeSchedule(rates domainpricing.FeeRates) (*FeeSchedule, error) {
	if err := rates.Validate(); err != nil {
		return nil, err
	}
	return &FeeSchedule{Rates: rates}, nil
}

func (s *FeeSchedule) Quote(ctx context.Context, listing *domainlistings.Listing, dr domainrange.DateRange) (domainpricing.Breakdown, error) {
	if listing == nil {
		return domainpricing.Breakdown{}, ErrListingMissing
	}
	return domainpricing.Compute(s.Rates, listing.NightlyRate, dr.Nights())
}

var _ policies.PricingPort = (*FeeSchedule)(nil)
