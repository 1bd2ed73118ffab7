package revenue

import (
	"locadz/internal/domain/booking"
	"locadz/internal/domain/shared/money"
)

// CountedStatuses are the statuses that represent committed revenue.
var CountedStatuses = []booking.Status{booking.StatusApproved, booking.StatusPaid}

type PlatformStats struct {
	TotalVolume     money.Money
	TotalCommission money.Money
	Count           int
}

func counted(b *booking.Booking) bool {
	if b == nil {
		return false
	}
	for _, s := range CountedStatuses {
		if b.Status == s {
			return true
		}
	}
	return false
}

// Platform sums traveler totals and platform commission over counted bookings.
// Bookings in another currency than currency are skipped.
func Platform(bookings []*booking.Booking, currency string) PlatformStats {
	stats := PlatformStats{TotalVolume: money.Zero(currency), TotalCommission: money.Zero(currency)}
	for _, b := range bookings {
		if !counted(b) || b.Price.Total.Currency != stats.TotalVolume.Currency {
			continue
		}
		stats.TotalVolume.Amount += b.Price.Total.Amount
		stats.TotalCommission.Amount += b.Price.PlatformRevenue().Amount
		stats.Count++
	}
	return stats
}

// Host sums host payouts over counted bookings, using total minus commission
// for records that predate the detailed breakdown.
func Host(bookings []*booking.Booking, currency string) (money.Money, int) {
	total := money.Zero(currency)
	n := 0
	for _, b := range bookings {
		if !counted(b) {
			continue
		}
		payout := b.Price.HostPayout()
		if payout.Currency != total.Currency {
			continue
		}
		total.Amount += payout.Amount
		n++
	}
	return total, n
}
