package domain_test

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/reserve-lister/internal/core/domain"
	"pgregory.net/rapid"
)

const (
	admin    = "0x7070707070707070707070707070707070707070"
	operator = "0x8080808080808080808080808080808080808080"
)

func TestFeeLedgerOperators(t *testing.T) {
	t.Parallel()

	l := newTestFeeLedger(t)

	err := l.AddOperator(operator, operator)
	require.ErrorIs(t, err, domain.ErrNotAuthorized)
	require.False(t, l.IsOperator(operator))

	err = l.AddOperator(admin, operator)
	require.NoError(t, err)
	require.True(t, l.IsOperator(operator))
	require.Equal(t, []string{operator}, l.ListOperators())

	err = l.RemoveOperator(admin, operator)
	require.NoError(t, err)
	require.False(t, l.IsOperator(operator))
	require.Empty(t, l.ListOperators())
}

func TestFeeLedgerSetRate(t *testing.T) {
	t.Parallel()

	l := newTestFeeLedger(t)

	err := l.SetRate(units(600), false, 2)
	require.ErrorIs(t, err, domain.ErrOracleInvalid)
	require.True(t, baseRate.Equal(l.CachedRate))
	require.Equal(t, int64(1), l.RateUpdatedAt)

	err = l.SetRate(decimal.Zero, true, 2)
	require.ErrorIs(t, err, domain.ErrOracleInvalid)
	require.True(t, baseRate.Equal(l.CachedRate))

	err = l.SetRate(units(600), true, 3)
	require.NoError(t, err)
	require.True(t, units(600).Equal(l.CachedRate))
	require.Equal(t, int64(3), l.RateUpdatedAt)
}

func TestFeeLedgerRegisterReserve(t *testing.T) {
	t.Parallel()

	l := newTestFeeLedger(t)

	err := l.RegisterReserve(operator, reserve, domain.ReserveBurnFeeBps)
	require.ErrorIs(t, err, domain.ErrNotAuthorized)
	require.False(t, l.IsRegistered(reserve))

	require.NoError(t, l.AddOperator(admin, operator))

	err = l.RegisterReserve(operator, reserve, 10000)
	require.ErrorIs(t, err, domain.ErrInvalidBurnFeeBps)

	err = l.RegisterReserve(operator, reserve, domain.ReserveBurnFeeBps)
	require.NoError(t, err)
	require.True(t, l.IsRegistered(reserve))

	err = l.RecordTrade(nextReserve, units(1))
	require.ErrorIs(t, err, domain.ErrReserveNotRegistered)

	err = l.RecordTrade(reserve, decimal.Zero)
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestBurnFees(t *testing.T) {
	t.Parallel()

	l := newTestFeeLedger(t)
	require.NoError(t, l.AddOperator(admin, operator))
	require.NoError(t, l.RegisterReserve(operator, reserve, domain.ReserveBurnFeeBps))

	burn, err := l.BurnFees(operator, reserve, 10)
	require.ErrorIs(t, err, domain.ErrNoAccruedVolume)
	require.Nil(t, burn)

	require.NoError(t, l.RecordTrade(reserve, units(3)))
	require.NoError(t, l.RecordTrade(reserve, units(2)))

	burn, err = l.BurnFees(admin, reserve, 10)
	require.ErrorIs(t, err, domain.ErrNotAuthorized)
	require.Nil(t, burn)

	burn, err = l.BurnFees(operator, reserve, 10)
	require.NoError(t, err)
	require.NotNil(t, burn)
	require.NotEmpty(t, burn.ID)
	require.Equal(t, reserve, burn.Reserve)
	// 5 * 500 = 2500 tokens traded, 25 bps burned minus one unit.
	require.Equal(t, "6249999999999999999", burn.Amount.String())
	require.True(t, units(5).Equal(burn.Volume))
	require.Equal(t, int64(10), burn.Timestamp)

	fees, err := l.ReserveFees(reserve)
	require.NoError(t, err)
	require.True(t, fees.AccruedVolume.IsZero())
	require.True(t, burn.Amount.Equal(fees.TotalBurned))

	_, err = l.BurnFees(operator, reserve, 11)
	require.ErrorIs(t, err, domain.ErrNoAccruedVolume)
}

func TestBurnFeesAmountTooLow(t *testing.T) {
	t.Parallel()

	l := newTestFeeLedger(t)
	require.NoError(t, l.AddOperator(admin, operator))
	require.NoError(t, l.RegisterReserve(operator, reserve, domain.ReserveBurnFeeBps))
	require.NoError(t, l.RecordTrade(reserve, decimal.NewFromInt(1)))

	_, err := l.BurnFees(operator, reserve, 10)
	require.ErrorIs(t, err, domain.ErrBurnAmountTooLow)

	fees, err := l.ReserveFees(reserve)
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(1).Equal(fees.AccruedVolume))
	require.True(t, fees.TotalBurned.IsZero())
}

func TestFeeAmount(t *testing.T) {
	t.Parallel()

	precision := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

	rapid.Check(t, func(t *rapid.T) {
		volume := rapid.Uint64Range(1, 1<<62).Draw(t, "volume")
		rate := rapid.Uint64Range(1, 1<<62).Draw(t, "rate")
		bps := rapid.Uint32Range(0, domain.MaxBasisPoints-1).Draw(t, "bps")

		l, err := domain.NewFeeLedger(admin, decimal.NewFromBigInt(new(big.Int).SetUint64(rate), 0), 1)
		require.NoError(t, err)

		expected := new(big.Int).Mul(new(big.Int).SetUint64(volume), new(big.Int).SetUint64(rate))
		expected.Quo(expected, precision)
		expected.Mul(expected, big.NewInt(int64(bps)))
		expected.Quo(expected, big.NewInt(domain.MaxBasisPoints))
		expected.Sub(expected, big.NewInt(1))

		fee := l.FeeAmount(decimal.NewFromBigInt(new(big.Int).SetUint64(volume), 0), bps)
		require.Equal(t, expected.String(), fee.String())
	})
}

func TestCloneFeeLedger(t *testing.T) {
	t.Parallel()

	l := newTestFeeLedger(t)
	c := l.Clone()
	require.NoError(t, c.AddOperator(admin, operator))
	require.False(t, l.IsOperator(operator))
}

func newTestFeeLedger(t *testing.T) *domain.FeeLedger {
	l, err := domain.NewFeeLedger(admin, baseRate, 1)
	require.NoError(t, err)
	return l
}
