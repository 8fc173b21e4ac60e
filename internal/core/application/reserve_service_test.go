package application_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/reserve-lister/internal/core/domain"
)

func TestReserveScenario(t *testing.T) {
	t.Parallel()

	svc := newTestServices(t)
	reserve := svc.listAsset(t)

	err := svc.reserve.Deposit(ctx, reserve, maker, domain.AssetKindBase, units(100))
	require.NoError(t, err)
	err = svc.reserve.DepositStake(ctx, reserve, maker, units(1000))
	require.NoError(t, err)

	_, err = svc.reserve.SubmitOrder(ctx, reserve, maker, units(4), units(4))
	require.ErrorIs(t, err, domain.ErrOrderTooSmall)

	// 5 * 25 / 10000 * 600 = 7.5 tokens burned, 5 times that staked.
	requiredStake := "37500000000000000000"
	for i := 1; i <= 5; i++ {
		id, err := svc.reserve.SubmitOrder(
			ctx, reserve, maker, minOrderSize, units(1000),
		)
		require.NoError(t, err)
		require.Equal(t, uint32(i), id)
	}

	_, err = svc.reserve.SubmitOrder(ctx, reserve, maker, minOrderSize, units(1000))
	require.ErrorIs(t, err, domain.ErrOrderCountExceeded)

	r, err := svc.reserve.GetReserve(ctx, reserve)
	require.NoError(t, err)
	require.Equal(t, 5, r.OpenOrdersCount(maker))
	require.Equal(t, units(75).String(), r.MakerFunds(maker, domain.AssetKindBase).String())
	require.Equal(
		t, "187500000000000000000", r.MakerRequiredStake(maker).String(),
	)
	require.Equal(
		t, "812500000000000000000", r.MakerUnlockedStake(maker).String(),
	)

	err = svc.reserve.CancelOrder(ctx, reserve, maker, 5)
	require.NoError(t, err)
	err = svc.reserve.CancelOrder(ctx, reserve, maker, 5)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)

	order, err := svc.reserve.TakeOrder(ctx, reserve, 1)
	require.NoError(t, err)
	require.Equal(t, requiredStake, order.Stake.String())

	r, err = svc.reserve.GetReserve(ctx, reserve)
	require.NoError(t, err)
	require.Equal(t, 3, r.OpenOrdersCount(maker))
	require.Equal(t, units(80).String(), r.MakerFunds(maker, domain.AssetKindBase).String())
	require.Equal(t, units(1000).String(), r.MakerFunds(maker, domain.AssetKindTraded).String())

	ledger, err := svc.feeLedger.GetFeeLedger(ctx)
	require.NoError(t, err)
	fees, err := ledger.ReserveFees(reserve)
	require.NoError(t, err)
	require.Equal(t, minOrderSize.String(), fees.AccruedVolume.String())

	err = svc.reserve.WithdrawStake(ctx, reserve, maker, units(1000))
	require.ErrorIs(t, err, domain.ErrInsufficientStake)
	err = svc.reserve.WithdrawStake(ctx, reserve, maker, units(800))
	require.NoError(t, err)
	err = svc.reserve.Withdraw(ctx, reserve, maker, domain.AssetKindTraded, units(1000))
	require.NoError(t, err)
}

func TestSubmitOrderBlockedByRate(t *testing.T) {
	t.Parallel()

	svc := newTestServices(t)
	reserve := svc.listAsset(t)

	err := svc.reserve.Deposit(ctx, reserve, maker, domain.AssetKindBase, units(100))
	require.NoError(t, err)
	err = svc.reserve.DepositStake(ctx, reserve, maker, units(1000))
	require.NoError(t, err)
	id, err := svc.reserve.SubmitOrder(ctx, reserve, maker, minOrderSize, units(1000))
	require.NoError(t, err)

	svc.moveRate(t, units(3600))

	_, err = svc.reserve.SubmitOrder(ctx, reserve, maker, minOrderSize, units(1000))
	require.ErrorIs(t, err, domain.ErrRateBlocksTrade)
	_, err = svc.reserve.TakeOrder(ctx, reserve, id)
	require.ErrorIs(t, err, domain.ErrRateBlocksTrade)

	// Makers can always leave.
	err = svc.reserve.CancelOrder(ctx, reserve, maker, id)
	require.NoError(t, err)
	err = svc.reserve.WithdrawStake(ctx, reserve, maker, units(1000))
	require.NoError(t, err)
}

func TestTakeOrderNotListed(t *testing.T) {
	t.Parallel()

	svc := newTestServices(t)
	reserve, err := svc.lister.AddAsset(ctx, asset)
	require.NoError(t, err)
	require.NoError(t, svc.lister.InitAsset(ctx, asset))

	err = svc.reserve.Deposit(ctx, reserve, maker, domain.AssetKindBase, units(100))
	require.NoError(t, err)
	err = svc.reserve.DepositStake(ctx, reserve, maker, units(1000))
	require.NoError(t, err)
	id, err := svc.reserve.SubmitOrder(ctx, reserve, maker, minOrderSize, units(1000))
	require.NoError(t, err)

	_, err = svc.reserve.TakeOrder(ctx, reserve, id)
	require.ErrorIs(t, err, domain.ErrReserveNotListed)

	_, err = svc.reserve.GetReserve(ctx, maker)
	require.ErrorIs(t, err, domain.ErrReserveNotFound)
}
