package revenue

import (
	"context"
	"errors"
	"strings"

	"locadz/internal/app/apperr"
	"locadz/internal/app/dto"
	handlersupport "locadz/internal/app/handlers/support"
	"locadz/internal/app/queries"
	"locadz/internal/app/uow"
	domainlistings "locadz/internal/domain/listings"
	domainrevenue "locadz/internal/domain/revenue"
	"locadz/internal/domain/shared/money"
	"locadz/internal/domain/user"
)

const (
	platformStatsKey = "revenue.platform"
	hostRevenueKey   = "revenue.host"
)

var ErrListingNotOwned = errors.New("revenue: listing belongs to another host")

type PlatformStatsQuery struct {
	Actor user.Actor `validate:"-"`
}

func (q PlatformStatsQuery) Key() string { return platformStatsKey }

func (q PlatformStatsQuery) Principal() user.Actor     { return q.Actor }
func (q PlatformStatsQuery) AllowedRoles() []user.Role { return []user.Role{user.RoleAdmin} }

type PlatformStatsHandler struct {
	UoWFactory uow.UoWFactory
	Currency   string
}

func (h *PlatformStatsHandler) Handle(ctx context.Context, q PlatformStatsQuery) (dto.PlatformStats, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.PlatformStats{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	bookings, err := unit.Bookings().ListByStatuses(execCtx, domainrevenue.CountedStatuses)
	if err != nil {
		return dto.PlatformStats{}, err
	}
	stats := domainrevenue.Platform(bookings, currencyOrDefault(h.Currency))
	return dto.PlatformStats{
		TotalVolume:     dto.MapMoney(stats.TotalVolume),
		TotalCommission: dto.MapMoney(stats.TotalCommission),
		Count:           stats.Count,
	}, nil
}

// HostRevenueQuery sums payouts over ListingIDs, or over every listing of
// the host when none are given.
type HostRevenueQuery struct {
	Actor      user.Actor `validate:"-"`
	ListingIDs []string
}

func (q HostRevenueQuery) Key() string { return hostRevenueKey }

func (q HostRevenueQuery) Principal() user.Actor { return q.Actor }
func (q HostRevenueQuery) AllowedRoles() []user.Role {
	return []user.Role{user.RoleHost, user.RoleAdmin}
}

type HostRevenueHandler struct {
	UoWFactory uow.UoWFactory
	Currency   string
}

func (h *HostRevenueHandler) Handle(ctx context.Context, q HostRevenueQuery) (dto.HostRevenue, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.HostRevenue{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	hostID := domainlistings.HostID(q.Actor.ID)
	ids, err := h.resolveListings(execCtx, unit, q, hostID)
	if err != nil {
		return dto.HostRevenue{}, err
	}
	currency := currencyOrDefault(h.Currency)
	out := dto.HostRevenue{
		HostID:     string(hostID),
		ListingIDs: make([]string, 0, len(ids)),
		Revenue:    dto.MapMoney(money.Zero(currency)),
	}
	for _, id := range ids {
		out.ListingIDs = append(out.ListingIDs, string(id))
	}
	if len(ids) == 0 {
		return out, nil
	}

	bookings, err := unit.Bookings().ListByListings(execCtx, ids, domainrevenue.CountedStatuses)
	if err != nil {
		return dto.HostRevenue{}, err
	}
	total, count := domainrevenue.Host(bookings, currency)
	out.Revenue = dto.MapMoney(total)
	out.Count = count
	return out, nil
}

func (h *HostRevenueHandler) resolveListings(ctx context.Context, unit uow.UnitOfWork, q HostRevenueQuery, hostID domainlistings.HostID) ([]domainlistings.ListingID, error) {
	requested := make([]domainlistings.ListingID, 0, len(q.ListingIDs))
	seen := make(map[string]struct{}, len(q.ListingIDs))
	for _, raw := range q.ListingIDs {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		requested = append(requested, domainlistings.ListingID(id))
	}

	if len(requested) == 0 {
		owned, err := unit.Listings().ListByHost(ctx, hostID)
		if err != nil {
			return nil, err
		}
		ids := make([]domainlistings.ListingID, 0, len(owned))
		for _, l := range owned {
			ids = append(ids, l.ID)
		}
		return ids, nil
	}

	for _, id := range requested {
		listing, err := unit.Listings().ByID(ctx, id)
		if err != nil {
			return nil, handlersupport.Classify(err)
		}
		if listing.Host != hostID && !q.Actor.IsAdmin() {
			return nil, apperr.Forbidden(ErrListingNotOwned)
		}
	}
	return requested, nil
}

func currencyOrDefault(currency string) string {
	if currency == "" {
		return money.DefaultCurrency
	}
	return currency
}

var (
	_ queries.Handler[PlatformStatsQuery, dto.PlatformStats] = (*PlatformStatsHandler)(nil)
	_ queries.Handler[HostRevenueQuery, dto.HostRevenue]     = (*HostRevenueHandler)(nil)
)
