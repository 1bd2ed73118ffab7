package listings

import (
	"context"

	"locadz/internal/app/dto"
	handlersupport "locadz/internal/app/handlers/support"
	"locadz/internal/app/queries"
	"locadz/internal/app/uow"
	domainlistings "locadz/internal/domain/listings"
	"locadz/internal/domain/user"
)

const (
	getListingKey       = "listings.get"
	listHostListingsKey = "host.listings.list"
)

type GetListingQuery struct {
	ListingID string `validate:"required"`
}

func (q GetListingQuery) Key() string { return getListingKey }

type GetListingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetListingHandler) Handle(ctx context.Context, q GetListingQuery) (dto.Listing, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Listing{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.Listing{}, handlersupport.Classify(err)
	}
	return dto.MapListing(listing), nil
}

// ListHostListingsQuery returns the caller's own listings, any state.
type ListHostListingsQuery struct {
	Actor user.Actor `validate:"-"`
}

func (q ListHostListingsQuery) Key() string { return listHostListingsKey }

func (q ListHostListingsQuery) Principal() user.Actor { return q.Actor }
func (q ListHostListingsQuery) AllowedRoles() []user.Role {
	return []user.Role{user.RoleHost}
}

type ListHostListingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListHostListingsHandler) Handle(ctx context.Context, q ListHostListingsQuery) (dto.ListingCollection, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ListingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	found, err := unit.Listings().ListByHost(execCtx, domainlistings.HostID(q.Actor.ID))
	if err != nil {
		return dto.ListingCollection{}, err
	}
	out := dto.ListingCollection{Items: make([]dto.Listing, 0, len(found))}
	for _, l := range found {
		out.Items = append(out.Items, dto.MapListing(l))
	}
	return out, nil
}

var (
	_ queries.Handler[GetListingQuery, dto.Listing]                 = (*GetListingHandler)(nil)
	_ queries.Handler[ListHostListingsQuery, dto.ListingCollection] = (*ListHostListingsHandler)(nil)
)
