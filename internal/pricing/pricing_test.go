package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/beauty-meet/internal/httperr"
)

func TestCalculateReferenceQuote(t *testing.T) {
	q, err := Calculate(Input{ServicePriceCents: 12000}, DefaultRates())
	require.NoError(t, err)

	assert.Equal(t, int64(3000), q.DepositBaseCents)
	assert.Equal(t, int64(90), q.DepositFeeCents)
	assert.Equal(t, int64(3090), q.DepositCents)
	assert.Equal(t, int64(9270), q.RemainderCents)
	assert.Equal(t, int64(12360), q.TotalCents)
	assert.Equal(t, int64(600), q.PlatformFeeCents)
	assert.Equal(t, int64(0), q.DepositApplicationFeeCents)
	assert.Equal(t, q.TotalCents, q.DepositCents+q.RemainderCents)
}

func TestCalculateWithTravelDiscountAndAffiliate(t *testing.T) {
	q, err := Calculate(Input{
		ServicePriceCents:    8000,
		TravelFeeCents:       1250,
		DiscountPct:          10,
		HasAffiliate:         true,
		HasPayoutDestination: true,
	}, DefaultRates())
	require.NoError(t, err)

	assert.Equal(t, int64(800), q.DiscountCents)
	assert.Equal(t, int64(8450), q.SubtotalCents)
	// 8450 * 25% = 2112.5 rounds up.
	assert.Equal(t, int64(2113), q.DepositBaseCents)
	assert.Equal(t, int64(63), q.DepositFeeCents)
	assert.Equal(t, int64(6337), q.RemainingBaseCents)
	assert.Equal(t, int64(190), q.RemainderFeeCents)
	assert.Equal(t, int64(800), q.AffiliateCommissionCents)
	assert.Equal(t, int64(400), q.PlatformFeeCents)
	assert.Equal(t, int64(300), q.DepositApplicationFeeCents)
	assert.Equal(t, q.SubtotalCents+q.ProcessingFeeCents, q.TotalCents)
	assert.LessOrEqual(t, q.DepositCents, q.TotalCents)
}

func TestCalculateDepositFloor(t *testing.T) {
	q, err := Calculate(Input{ServicePriceCents: 1}, DefaultRates())
	require.NoError(t, err)
	assert.Equal(t, int64(1), q.DepositBaseCents)
	assert.Equal(t, int64(0), q.RemainingBaseCents)
}

func TestCalculateRejectsBadInput(t *testing.T) {
	_, err := Calculate(Input{ServicePriceCents: 0}, DefaultRates())
	assert.True(t, httperr.IsKind(err, httperr.KindValidation))

	_, err = Calculate(Input{ServicePriceCents: 100, DiscountPct: 101}, DefaultRates())
	assert.True(t, httperr.IsKind(err, httperr.KindValidation))

	_, err = Calculate(Input{ServicePriceCents: 100}, Rates{DepositBps: 0})
	assert.True(t, httperr.IsKind(err, httperr.KindValidation))
}

func TestReconstructDepositBase(t *testing.T) {
	assert.Equal(t, int64(3000), ReconstructDepositBase(3090, 300))
	assert.Equal(t, int64(2113), ReconstructDepositBase(2176, 300))
	// 1000 / 1.03 = 970.87
	assert.Equal(t, int64(971), ReconstructDepositBase(1000, 300))
	assert.Equal(t, int64(1000), ReconstructDepositBase(1000, 0))
}

func TestRemainderApplicationFee(t *testing.T) {
	assert.Equal(t, int64(900), RemainderApplicationFee(400, 800, 300, 6527))
	assert.Equal(t, int64(0), RemainderApplicationFee(400, 0, 500, 6527))
	assert.Equal(t, int64(50), RemainderApplicationFee(400, 800, 300, 50))
}

func TestApplyBpsRoundsHalfUp(t *testing.T) {
	assert.Equal(t, int64(1), ApplyBps(50, 100))
	assert.Equal(t, int64(0), ApplyBps(49, 100))
	assert.Equal(t, int64(3), ApplyBps(100, 300))
}
