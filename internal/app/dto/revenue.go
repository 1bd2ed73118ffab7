package dto

import (
	"time"

	domainpayouts "locadz/internal/domain/payouts"
)

type PlatformStats struct {
	TotalVolume     MoneyDTO `json:"total_volume"`
	TotalCommission MoneyDTO `json:"total_commission"`
	Count           int      `json:"count"`
}

type HostRevenue struct {
	HostID     string   `json:"host_id"`
	ListingIDs []string `json:"listing_ids"`
	Revenue    MoneyDTO `json:"revenue"`
	Count      int      `json:"count"`
}

type PayoutRecord struct {
	ID        string    `json:"id"`
	Amount    MoneyDTO  `json:"amount"`
	Date      time.Time `json:"date"`
	Method    string    `json:"method"`
	Status    string    `json:"status"`
	Reference string    `json:"reference,omitempty"`
}

type PayoutCollection struct {
	Items []PayoutRecord `json:"items"`
}

func MapPayouts(records []*domainpayouts.Record) PayoutCollection {
	out := PayoutCollection{Items: make([]PayoutRecord, 0, len(records))}
	for _, r := range records {
		out.Items = append(out.Items, PayoutRecord{
			ID:        r.ID,
			Amount:    MapMoney(r.Amount),
			Date:      r.Date,
			Method:    string(r.Method),
			Status:    string(r.Status),
			Reference: r.Reference,
		})
	}
	return out
}
