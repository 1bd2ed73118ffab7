package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"locadz/internal/domain/shared/money"
)

func TestComputeThreeNightsAtDefaultRates(t *testing.T) {
	b, err := Compute(DefaultFeeRates, money.Must(15000, "DZD"), 3)
	require.NoError(t, err)

	assert.Equal(t, int64(45000), b.Base.Amount)
	assert.Equal(t, int64(3600), b.ServiceFeeClient.Amount)
	assert.Equal(t, int64(4500), b.HostCommission.Amount)
	assert.Equal(t, int64(48600), b.Total.Amount)
	assert.Equal(t, int64(40500), b.PayoutHost.Amount)
	assert.Equal(t, int64(8100), b.PlatformRevenue().Amount)
	assert.NoError(t, b.Reconcile())
}

func TestComputeCoercesNights(t *testing.T) {
	for _, nights := range []int{0, -4} {
		b, err := Compute(DefaultFeeRates, money.Must(9999, "DZD"), nights)
		require.NoError(t, err)
		assert.Equal(t, 1, b.Nights)
		assert.Equal(t, int64(9999), b.Base.Amount)
	}
}

func TestComputeRoundsHalfUp(t *testing.T) {
	b, err := Compute(FeeRates{ClientBps: 800, HostBps: 500}, money.Must(10, "DZD"), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), b.ServiceFeeClient.Amount) // 0.8
	assert.Equal(t, int64(1), b.HostCommission.Amount)   // 0.5

	b, err = Compute(FeeRates{ClientBps: 800, HostBps: 1000}, money.Must(6, "DZD"), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), b.ServiceFeeClient.Amount) // 0.48
	assert.Equal(t, int64(1), b.HostCommission.Amount)   // 0.6
}

func TestComputeInvariantsHoldAcrossInputs(t *testing.T) {
	rates := []FeeRates{DefaultFeeRates, {ClientBps: 500, HostBps: 1000}, {ClientBps: 333, HostBps: 1250}}
	for _, r := range rates {
		for nightly := int64(1); nightly < 50000; nightly += 1237 {
			for nights := 1; nights <= 30; nights += 7 {
				first, err := Compute(r, money.Must(nightly, "DZD"), nights)
				require.NoError(t, err)
				again, err := Compute(r, money.Must(nightly, "DZD"), nights)
				require.NoError(t, err)
				require.Equal(t, first, again)

				require.Equal(t, first.Base.Amount+first.ServiceFeeClient.Amount, first.Total.Amount)
				require.Equal(t, first.ServiceFeeClient.Amount+first.HostCommission.Amount, first.PlatformRevenue().Amount)
				require.Equal(t, first.Base.Amount-first.HostCommission.Amount, first.PayoutHost.Amount)
			}
		}
	}
}

func TestComputeRejectsBadInput(t *testing.T) {
	_, err := Compute(FeeRates{ClientBps: -1}, money.Must(100, "DZD"), 1)
	assert.ErrorIs(t, err, ErrInvalidRate)

	_, err = Compute(DefaultFeeRates, money.Must(0, "DZD"), 2)
	assert.ErrorIs(t, err, ErrInvalidNightlyRate)

	_, err = Compute(DefaultFeeRates, money.Money{Amount: 100}, 2)
	assert.ErrorIs(t, err, ErrCurrencyUnset)
}

func TestLegacyBreakdownFallsBackToTotalMinusCommission(t *testing.T) {
	b := Legacy(money.Must(10800, "DZD"), money.Must(1800, "DZD"))
	assert.Equal(t, int64(9000), b.HostPayout().Amount)
	assert.Equal(t, int64(1800), b.PlatformRevenue().Amount)
	assert.NoError(t, b.Reconcile())
}
