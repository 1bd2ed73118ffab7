package availability

import (
	"context"
	"time"

	"locadz/internal/app/dto"
	handlersupport "locadz/internal/app/handlers/support"
	"locadz/internal/app/policies"
	"locadz/internal/app/queries"
	"locadz/internal/app/uow"
	domainlistings "locadz/internal/domain/listings"
	domainrange "locadz/internal/domain/shared/daterange"
)

const quoteKey = "availability.quote"

// QuoteQuery previews the price a booking for the range would lock in.
type QuoteQuery struct {
	ListingID string    `validate:"required"`
	CheckIn   time.Time `validate:"required"`
	CheckOut  time.Time `validate:"required"`
}

func (q QuoteQuery) Key() string { return quoteKey }

type QuoteHandler struct {
	UoWFactory uow.UoWFactory
	Pricing    policies.PricingPort
}

func (h *QuoteHandler) Handle(ctx context.Context, q QuoteQuery) (dto.Quote, error) {
	dr, err := domainrange.New(q.CheckIn, q.CheckOut)
	if err != nil {
		return dto.Quote{}, handlersupport.Classify(err)
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Quote{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.Quote{}, handlersupport.Classify(err)
	}
	price, err := h.Pricing.Quote(execCtx, listing, dr)
	if err != nil {
		return dto.Quote{}, handlersupport.Classify(err)
	}
	return dto.Quote{
		ListingID: string(listing.ID),
		CheckIn:   dr.Start.Format(domainrange.DateLayout),
		CheckOut:  dr.End.Format(domainrange.DateLayout),
		Price:     dto.MapPriceBreakdown(price),
	}, nil
}

var _ queries.Handler[QuoteQuery, dto.Quote] = (*QuoteHandler)(nil)
