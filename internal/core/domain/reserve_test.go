package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/reserve-lister/internal/core/domain"
)

const (
	lister = "0x9999999999999999999999999999999999999999"
	maker  = "0x1010101010101010101010101010101010101010"
	other  = "0x2020202020202020202020202020202020202020"
)

var (
	contracts = domain.ReserveContracts{
		GovernanceToken:  "0x3030303030303030303030303030303030303030",
		Registry:         "0x4040404040404040404040404040404040404040",
		Oracle:           "0x5050505050505050505050505050505050505050",
		OrderbookFactory: "0x6060606060606060606060606060606060606060",
	}
	minListingValueUsd = decimal.NewFromInt(1000)
	// 200 USD per base asset unit.
	usdPrice = units(200)
	// 500 governance tokens per base asset unit.
	baseRate     = units(500)
	minOrderSize = units(5)
)

func units(v int64) decimal.Decimal {
	return decimal.New(v, 18)
}

func TestNewReserve(t *testing.T) {
	t.Parallel()

	r, err := domain.NewReserve(
		reserve, asset, lister, domain.ReserveBurnFeeBps, 5,
		minListingValueUsd, contracts,
	)
	require.NoError(t, err)
	require.NotNil(t, r)
	require.Equal(t, reserve, r.Address)
	require.Equal(t, asset, r.Asset)
	require.Equal(t, uint32(domain.ReserveBurnFeeBps), r.BurnFeeBps)
	require.Equal(t, uint32(5), r.Limits.MaxOrdersPerTrade)
	require.Equal(t, contracts, r.Contracts)
	require.False(t, r.IsInitialized())
}

func TestFailingNewReserve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name               string
		address            string
		burnFeeBps         uint32
		maxOrdersPerTrade  uint32
		minListingValueUsd decimal.Decimal
		contracts          domain.ReserveContracts
		expectedError      error
	}{
		{
			name:               "invalid_address",
			address:            zeroAddress,
			burnFeeBps:         25,
			maxOrdersPerTrade:  5,
			minListingValueUsd: minListingValueUsd,
			contracts:          contracts,
			expectedError:      domain.ErrInvalidAddress,
		},
		{
			name:               "invalid_contract",
			address:            reserve,
			burnFeeBps:         25,
			maxOrdersPerTrade:  5,
			minListingValueUsd: minListingValueUsd,
			contracts:          domain.ReserveContracts{},
			expectedError:      domain.ErrInvalidAddress,
		},
		{
			name:               "burn_fee_too_high",
			address:            reserve,
			burnFeeBps:         10000,
			maxOrdersPerTrade:  5,
			minListingValueUsd: minListingValueUsd,
			contracts:          contracts,
			expectedError:      domain.ErrInvalidBurnFeeBps,
		},
		{
			name:               "max_orders_too_low",
			address:            reserve,
			burnFeeBps:         25,
			maxOrdersPerTrade:  1,
			minListingValueUsd: minListingValueUsd,
			contracts:          contracts,
			expectedError:      domain.ErrInvalidMaxOrdersPerTrade,
		},
		{
			name:               "zero_min_listing_value",
			address:            reserve,
			burnFeeBps:         25,
			maxOrdersPerTrade:  5,
			minListingValueUsd: decimal.Zero,
			contracts:          contracts,
			expectedError:      domain.ErrInvalidMinListingValue,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r, err := domain.NewReserve(
				tt.address, asset, lister, tt.burnFeeBps, tt.maxOrdersPerTrade,
				tt.minListingValueUsd, tt.contracts,
			)
			require.ErrorIs(t, err, tt.expectedError)
			require.ErrorIs(t, err, domain.ErrInvalidArgument)
			require.Nil(t, r)
		})
	}
}

func TestReserveInit(t *testing.T) {
	t.Parallel()

	r := newTestReserve(t)

	err := r.Init(nil, baseRate, usdPrice)
	require.ErrorIs(t, err, domain.ErrMissingOrderLists)

	err = r.Init([]string{"sell", "buy"}, baseRate, decimal.Zero)
	require.ErrorIs(t, err, domain.ErrOracleInvalid)
	require.False(t, r.IsInitialized())

	err = r.Init([]string{"sell", "buy"}, baseRate, usdPrice)
	require.NoError(t, err)
	require.True(t, r.IsInitialized())
	require.Equal(t, baseRate, r.BaseRatePrecision)
	require.True(t, minOrderSize.Equal(r.Limits.MinOrderSizeInBaseAsset))

	err = r.Init([]string{"sell", "buy"}, baseRate, usdPrice)
	require.ErrorIs(t, err, domain.ErrReserveAlreadyInitialized)
}

func TestReserveValidateInit(t *testing.T) {
	t.Parallel()

	r := newTestReserve(t)
	tooHighPrice, _ := decimal.NewFromString("2000000000000000000000000000000000000000")

	tests := []struct {
		name        string
		baseRate    decimal.Decimal
		usdPrice    decimal.Decimal
		expectedErr error
	}{
		{"zero base rate", decimal.Zero, usdPrice, domain.ErrInvalidRate},
		{"zero usd price", baseRate, decimal.Zero, domain.ErrOracleInvalid},
		{"min order size floors to zero", baseRate, tooHighPrice, domain.ErrOracleInvalid},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.ValidateInit(tt.baseRate, tt.usdPrice)
			require.ErrorIs(t, err, tt.expectedErr)
		})
	}

	size, err := r.ValidateInit(baseRate, usdPrice)
	require.NoError(t, err)
	require.True(t, minOrderSize.Equal(size))
	require.False(t, r.IsInitialized())
	require.True(t, r.Limits.MinOrderSizeInBaseAsset.IsZero())
}

func TestReserveFunds(t *testing.T) {
	t.Parallel()

	r := newTestReserve(t)

	err := r.Deposit(maker, domain.AssetKindBase, units(10))
	require.NoError(t, err)
	err = r.Deposit(maker, domain.AssetKindTraded, units(3))
	require.NoError(t, err)
	require.True(t, units(10).Equal(r.MakerFunds(maker, domain.AssetKindBase)))
	require.True(t, units(3).Equal(r.MakerFunds(maker, domain.AssetKindTraded)))
	require.True(t, r.MakerFunds(other, domain.AssetKindBase).IsZero())

	err = r.Withdraw(maker, domain.AssetKindBase, units(11))
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	err = r.Withdraw(maker, domain.AssetKindBase, units(4))
	require.NoError(t, err)
	require.True(t, units(6).Equal(r.MakerFunds(maker, domain.AssetKindBase)))

	err = r.Deposit(maker, domain.AssetKind(7), units(1))
	require.ErrorIs(t, err, domain.ErrInvalidAssetKind)

	err = r.Deposit(maker, domain.AssetKindBase, decimal.NewFromFloat(0.5))
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestReserveStake(t *testing.T) {
	t.Parallel()

	r := newTestReserve(t)

	err := r.DepositStake(maker, units(100))
	require.NoError(t, err)

	err = r.LockStakeForOrder(maker, units(101))
	require.ErrorIs(t, err, domain.ErrInsufficientStake)

	err = r.LockStakeForOrder(maker, units(60))
	require.NoError(t, err)
	require.True(t, units(40).Equal(r.MakerUnlockedStake(maker)))
	require.True(t, units(60).Equal(r.MakerRequiredStake(maker)))

	err = r.WithdrawStake(maker, units(41))
	require.ErrorIs(t, err, domain.ErrInsufficientStake)

	err = r.WithdrawStake(maker, units(40))
	require.NoError(t, err)
	require.True(t, r.MakerUnlockedStake(maker).IsZero())
}

func TestReserveRequiredStake(t *testing.T) {
	t.Parallel()

	r := newTestReserve(t)

	// 5 * 25 / 10000 * 500 = 6.25 governance tokens burned, staked 5 times.
	require.Equal(t, "6250000000000000000", r.BurnAmount(minOrderSize, baseRate).String())
	require.Equal(t, "31250000000000000000", r.RequiredStake(minOrderSize, baseRate).String())
	require.True(t, r.RequiredStake(decimal.NewFromInt(1), baseRate).IsZero())
}

func TestSubmitOrder(t *testing.T) {
	t.Parallel()

	t.Run("at_min_size", func(t *testing.T) {
		t.Parallel()

		r := newFundedReserve(t)
		requiredStake := r.RequiredStake(minOrderSize, baseRate)

		id, err := r.SubmitOrder(maker, minOrderSize, units(2750), baseRate)
		require.NoError(t, err)
		require.Equal(t, uint32(1), id)
		require.Len(t, r.MakerOrders(maker), 1)
		require.True(t, requiredStake.Equal(r.MakerRequiredStake(maker)))
		require.True(t, units(600).Sub(requiredStake).Equal(r.MakerUnlockedStake(maker)))
		require.True(t, units(100).Sub(minOrderSize).Equal(
			r.MakerFunds(maker, domain.AssetKindBase),
		))
	})

	t.Run("order_count_exceeded", func(t *testing.T) {
		t.Parallel()

		r := newFundedReserve(t)
		for i := 0; i < 5; i++ {
			_, err := r.SubmitOrder(maker, minOrderSize, units(2750), baseRate)
			require.NoError(t, err)
		}

		_, err := r.SubmitOrder(maker, minOrderSize, units(2750), baseRate)
		require.ErrorIs(t, err, domain.ErrOrderCountExceeded)
		require.Equal(t, 5, r.OpenOrdersCount(maker))
	})

	tests := []struct {
		name          string
		reserve       func(t *testing.T) *domain.Reserve
		maker         string
		srcAmount     decimal.Decimal
		rate          decimal.Decimal
		expectedError error
	}{
		{
			name:          "not_initialized",
			reserve:       newTestReserve,
			maker:         maker,
			srcAmount:     minOrderSize,
			rate:          baseRate,
			expectedError: domain.ErrReserveNotInitialized,
		},
		{
			name:          "too_small",
			reserve:       newFundedReserve,
			maker:         maker,
			srcAmount:     minOrderSize.Sub(decimal.NewFromInt(1)),
			rate:          baseRate,
			expectedError: domain.ErrOrderTooSmall,
		},
		{
			name:          "insufficient_balance",
			reserve:       newFundedReserve,
			maker:         maker,
			srcAmount:     units(101),
			rate:          baseRate,
			expectedError: domain.ErrInsufficientBalance,
		},
		{
			name:          "insufficient_stake",
			reserve:       newFundedReserve,
			maker:         maker,
			srcAmount:     units(100),
			rate:          baseRate,
			expectedError: domain.ErrInsufficientStake,
		},
		{
			name:          "rate_blocks_trade",
			reserve:       newFundedReserve,
			maker:         maker,
			srcAmount:     minOrderSize,
			rate:          baseRate.Mul(decimal.NewFromInt(6)),
			expectedError: domain.ErrRateBlocksTrade,
		},
		{
			name:          "invalid_maker",
			reserve:       newFundedReserve,
			maker:         "maker",
			srcAmount:     minOrderSize,
			rate:          baseRate,
			expectedError: domain.ErrInvalidAddress,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := tt.reserve(t)
			before := r.Clone()

			_, err := r.SubmitOrder(tt.maker, tt.srcAmount, units(1), tt.rate)
			require.ErrorIs(t, err, tt.expectedError)
			require.Equal(t, before, r.Clone())
		})
	}
}

func TestCancelAndTakeOrder(t *testing.T) {
	t.Parallel()

	r := newFundedReserve(t)

	first, err := r.SubmitOrder(maker, minOrderSize, units(2750), baseRate)
	require.NoError(t, err)
	second, err := r.SubmitOrder(maker, minOrderSize, units(2800), baseRate)
	require.NoError(t, err)

	err = r.CancelOrder(other, first)
	require.ErrorIs(t, err, domain.ErrNotAuthorized)

	err = r.CancelOrder(maker, first)
	require.NoError(t, err)
	require.Len(t, r.MakerOrders(maker), 1)

	err = r.CancelOrder(maker, first)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)

	order, err := r.TakeOrder(second)
	require.NoError(t, err)
	require.True(t, minOrderSize.Equal(order.SrcAmount))
	require.Empty(t, r.MakerOrders(maker))
	require.True(t, r.MakerRequiredStake(maker).IsZero())
	require.True(t, units(600).Equal(r.MakerUnlockedStake(maker)))
	require.True(t, units(95).Equal(r.MakerFunds(maker, domain.AssetKindBase)))
	require.True(t, units(2900).Equal(r.MakerFunds(maker, domain.AssetKindTraded)))

	_, err = r.TakeOrder(second)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestRateDeviationBlocksTrust(t *testing.T) {
	t.Parallel()

	r := newTestReserve(t)
	require.False(t, r.RateDeviationBlocksTrust(units(1)))

	err := r.Init([]string{"sell", "buy"}, decimal.NewFromInt(600), usdPrice)
	require.NoError(t, err)

	tests := []struct {
		rate    int64
		blocked bool
	}{
		{600, false},
		{3599, false},
		{3600, true},
		{100000, true},
		{101, false},
		{100, true},
		{1, true},
	}

	for _, tt := range tests {
		require.Equal(
			t, tt.blocked, r.RateDeviationBlocksTrust(decimal.NewFromInt(tt.rate)),
			"rate %d", tt.rate,
		)
	}
}

func TestCloneReserve(t *testing.T) {
	t.Parallel()

	r := newFundedReserve(t)
	c := r.Clone()

	_, err := c.SubmitOrder(maker, minOrderSize, units(1), baseRate)
	require.NoError(t, err)

	require.Empty(t, r.MakerOrders(maker))
	require.True(t, units(100).Equal(r.MakerFunds(maker, domain.AssetKindBase)))
	require.True(t, units(600).Equal(r.MakerUnlockedStake(maker)))
}

func newTestReserve(t *testing.T) *domain.Reserve {
	r, err := domain.NewReserve(
		reserve, asset, lister, domain.ReserveBurnFeeBps, 5,
		minListingValueUsd, contracts,
	)
	require.NoError(t, err)
	return r
}

func newFundedReserve(t *testing.T) *domain.Reserve {
	r := newTestReserve(t)
	require.NoError(t, r.Init([]string{"sell", "buy"}, baseRate, usdPrice))
	require.NoError(t, r.Deposit(maker, domain.AssetKindBase, units(100)))
	require.NoError(t, r.Deposit(maker, domain.AssetKindTraded, units(100)))
	require.NoError(t, r.DepositStake(maker, units(600)))
	return r
}
