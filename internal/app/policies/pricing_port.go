package policies

import (
	"context"

	domainlistings "locadz/internal/domain/listings"
	domainpricing "locadz/internal/domain/pricing"
	domainrange "locadz/internal/domain/shared/daterange"
)

// PricingPort quotes a stay from the listing's current nightly rate.
type PricingPort interface {
	Quote(ctx context.Context, listing *domainlistings.Listing, dr domainrange.DateRange) (domainpricing.Breakdown, error)
}
