package pricing

import (
	"errors"

	"locadz/internal/domain/shared/money"
)

var (
	ErrInvalidRate        = errors.New("pricing: fee rate must be between 0 and 10000 basis points")
	ErrInvalidNightlyRate = errors.New("pricing: nightly rate must be positive")
	ErrCurrencyUnset      = errors.New("pricing: currency must be defined")
	ErrUnbalanced         = errors.New("pricing: breakdown does not reconcile")
)

// FeeRates holds the platform fee percentages in basis points (800 = 8%).
type FeeRates struct {
	ClientBps int64
	HostBps   int64
}

// DefaultFeeRates: 8% charged to the traveler, 10% withheld from the host.
var DefaultFeeRates = FeeRates{ClientBps: 800, HostBps: 1000}

func (r FeeRates) Validate() error {
	if r.ClientBps < 0 || r.ClientBps > 10000 || r.HostBps < 0 || r.HostBps > 10000 {
		return ErrInvalidRate
	}
	return nil
}

// Breakdown is the price snapshot locked onto a booking at creation.
type Breakdown struct {
	Nights           int
	NightlyRate      money.Money
	Base             money.Money
	ServiceFeeClient money.Money
	HostCommission   money.Money
	Total            money.Money
	PayoutHost       money.Money
	// Detailed is false for legacy records that only carry Total and PlatformRevenue.
	Detailed bool

	legacyCommission money.Money
}

// PlatformRevenue is the commission fee: client fee plus host commission.
func (b Breakdown) PlatformRevenue() money.Money {
	if !b.Detailed {
		return b.legacyCommission
	}
	out, _ := b.ServiceFeeClient.Add(b.HostCommission)
	return out
}

// HostPayout falls back to total minus commission for legacy records.
func (b Breakdown) HostPayout() money.Money {
	if b.Detailed {
		return b.PayoutHost
	}
	out, err := b.Total.Sub(b.legacyCommission)
	if err != nil {
		return money.Zero(b.Total.Currency)
	}
	return out
}

// Legacy rebuilds a breakdown from records created before the detailed fields existed.
func Legacy(total, commission money.Money) Breakdown {
	return Breakdown{Total: total, legacyCommission: commission}
}

// Reconcile checks total = base + client fee and payout = base - host commission.
func (b Breakdown) Reconcile() error {
	if !b.Detailed {
		return nil
	}
	total, err := b.Base.Add(b.ServiceFeeClient)
	if err != nil {
		return err
	}
	payout, err := b.Base.Sub(b.HostCommission)
	if err != nil {
		return err
	}
	if total != b.Total || payout != b.PayoutHost {
		return ErrUnbalanced
	}
	return nil
}

// Compute derives the full breakdown for a stay. Non-positive night counts are coerced to one.
func Compute(rates FeeRates, nightly money.Money, nights int) (Breakdown, error) {
	if err := rates.Validate(); err != nil {
		return Breakdown{}, err
	}
	if nightly.Currency == "" {
		return Breakdown{}, ErrCurrencyUnset
	}
	if !nightly.IsPositive() {
		return Breakdown{}, ErrInvalidNightlyRate
	}
	if nights < 1 {
		nights = 1
	}
	base := nightly.Multiply(int64(nights))
	clientFee := base.Percent(rates.ClientBps)
	hostCommission := base.Percent(rates.HostBps)
	total, _ := base.Add(clientFee)
	payout, _ := base.Sub(hostCommission)
	return Breakdown{
		Nights:           nights,
		NightlyRate:      nightly,
		Base:             base,
		ServiceFeeClient: clientFee,
		HostCommission:   hostCommission,
		Total:            total,
		PayoutHost:       payout,
		Detailed:         true,
	}, nil
}
