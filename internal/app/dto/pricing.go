package dto

import (
	domainpricing "locadz/internal/domain/pricing"
	"locadz/internal/domain/shared/daterange"
)

const dateLayout = daterange.DateLayout

type PriceBreakdown struct {
	Nights           int      `json:"nights,omitempty"`
	NightlyRate      MoneyDTO `json:"nightly_rate"`
	BasePrice        MoneyDTO `json:"base_price"`
	ServiceFeeClient MoneyDTO `json:"service_fee_client"`
	HostCommission   MoneyDTO `json:"host_commission"`
	TotalPrice       MoneyDTO `json:"total_price"`
	PayoutHost       MoneyDTO `json:"payout_host"`
	CommissionFee    MoneyDTO `json:"commission_fee"`
}

type Quote struct {
	ListingID string         `json:"listing_id"`
	CheckIn   string         `json:"check_in"`
	CheckOut  string         `json:"check_out"`
	Price     PriceBreakdown `json:"price"`
}

func MapPriceBreakdown(b domainpricing.Breakdown) PriceBreakdown {
	return PriceBreakdown{
		Nights:           b.Nights,
		NightlyRate:      MapMoney(b.NightlyRate),
		BasePrice:        MapMoney(b.Base),
		ServiceFeeClient: MapMoney(b.ServiceFeeClient),
		HostCommission:   MapMoney(b.HostCommission),
		TotalPrice:       MapMoney(b.Total),
		PayoutHost:       MapMoney(b.HostPayout()),
		CommissionFee:    MapMoney(b.PlatformRevenue()),
	}
}
