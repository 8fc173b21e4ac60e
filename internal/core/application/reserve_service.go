package application

import (
	"context"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/reserve-lister/internal/core/domain"
	"github.com/tdex-network/reserve-lister/internal/core/ports"
)

// ReserveService exposes the operations makers and takers perform on
// reserves.
type ReserveService interface {
	GetReserve(ctx context.Context, reserve string) (*domain.Reserve, error)
	GetReserveTrust(ctx context.Context, reserve string) (*ReserveTrust, error)
	Deposit(
		ctx context.Context, reserve, maker string,
		kind domain.AssetKind, amount decimal.Decimal,
	) error
	Withdraw(
		ctx context.Context, reserve, maker string,
		kind domain.AssetKind, amount decimal.Decimal,
	) error
	DepositStake(ctx context.Context, reserve, maker string, amount decimal.Decimal) error
	WithdrawStake(ctx context.Context, reserve, maker string, amount decimal.Decimal) error
	SubmitOrder(
		ctx context.Context, reserve, maker string,
		srcAmount, dstAmount decimal.Decimal,
	) (uint32, error)
	CancelOrder(ctx context.Context, reserve, maker string, orderID uint32) error
	// TakeOrder fills an order of a listed reserve and accrues the traded
	// volume in the fee ledger.
	TakeOrder(ctx context.Context, reserve string, orderID uint32) (*domain.Order, error)
}

// ReserveTrust reports whether the governance rate moved enough from the
// reserve base rate to invalidate the stake of its makers.
type ReserveTrust struct {
	Reserve     string
	BaseRate    decimal.Decimal
	CurrentRate decimal.Decimal
	Blocked     bool
}

type reserveService struct {
	repoManager ports.RepoManager
	metrics     *Metrics
}

func NewReserveService(repoManager ports.RepoManager) (ReserveService, error) {
	if repoManager == nil {
		return nil, ErrMissingRepoManager
	}
	return &reserveService{repoManager, NewMetrics()}, nil
}

func (s *reserveService) GetReserve(
	ctx context.Context, reserve string,
) (*domain.Reserve, error) {
	if !domain.IsValidAddress(reserve) {
		return nil, domain.ErrInvalidAddress
	}
	return s.repoManager.ReserveRepository().GetReserve(
		ctx, domain.NormalizeAddress(reserve),
	)
}

func (s *reserveService) GetReserveTrust(
	ctx context.Context, reserve string,
) (*ReserveTrust, error) {
	r, err := s.GetReserve(ctx, reserve)
	if err != nil {
		return nil, err
	}
	ledger, err := s.repoManager.FeeLedgerRepository().GetFeeLedger(ctx)
	if err != nil {
		return nil, err
	}

	return &ReserveTrust{
		Reserve:     r.Address,
		BaseRate:    r.BaseRatePrecision,
		CurrentRate: ledger.CachedRate,
		Blocked:     r.RateDeviationBlocksTrust(ledger.CachedRate),
	}, nil
}

func (s *reserveService) Deposit(
	ctx context.Context, reserve, maker string,
	kind domain.AssetKind, amount decimal.Decimal,
) error {
	err := s.updateReserve(ctx, reserve, func(r *domain.Reserve) error {
		return r.Deposit(maker, kind, amount)
	})
	s.metrics.ReserveOperations.WithLabelValues("deposit", status(err)).Inc()
	return err
}

func (s *reserveService) Withdraw(
	ctx context.Context, reserve, maker string,
	kind domain.AssetKind, amount decimal.Decimal,
) error {
	err := s.updateReserve(ctx, reserve, func(r *domain.Reserve) error {
		return r.Withdraw(maker, kind, amount)
	})
	s.metrics.ReserveOperations.WithLabelValues("withdraw", status(err)).Inc()
	return err
}

func (s *reserveService) DepositStake(
	ctx context.Context, reserve, maker string, amount decimal.Decimal,
) error {
	err := s.updateReserve(ctx, reserve, func(r *domain.Reserve) error {
		return r.DepositStake(maker, amount)
	})
	s.metrics.ReserveOperations.WithLabelValues("deposit_stake", status(err)).Inc()
	return err
}

func (s *reserveService) WithdrawStake(
	ctx context.Context, reserve, maker string, amount decimal.Decimal,
) error {
	err := s.updateReserve(ctx, reserve, func(r *domain.Reserve) error {
		return r.WithdrawStake(maker, amount)
	})
	s.metrics.ReserveOperations.WithLabelValues("withdraw_stake", status(err)).Inc()
	return err
}

func (s *reserveService) SubmitOrder(
	ctx context.Context, reserve, maker string,
	srcAmount, dstAmount decimal.Decimal,
) (uint32, error) {
	var orderID uint32
	_, err := s.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			ledger, err := s.repoManager.FeeLedgerRepository().GetFeeLedger(ctx)
			if err != nil {
				return nil, err
			}
			return nil, s.updateReserve(ctx, reserve, func(r *domain.Reserve) error {
				id, err := r.SubmitOrder(maker, srcAmount, dstAmount, ledger.CachedRate)
				if err != nil {
					return err
				}
				orderID = id
				return nil
			})
		},
	)
	s.metrics.ReserveOperations.WithLabelValues("submit_order", status(err)).Inc()
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"reserve": reserve,
		"maker":   maker,
		"order":   orderID,
	}).Debug("order submitted")
	return orderID, nil
}

func (s *reserveService) CancelOrder(
	ctx context.Context, reserve, maker string, orderID uint32,
) error {
	err := s.updateReserve(ctx, reserve, func(r *domain.Reserve) error {
		return r.CancelOrder(maker, orderID)
	})
	s.metrics.ReserveOperations.WithLabelValues("cancel_order", status(err)).Inc()
	return err
}

func (s *reserveService) TakeOrder(
	ctx context.Context, reserve string, orderID uint32,
) (*domain.Order, error) {
	res, err := s.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			r, err := s.GetReserve(ctx, reserve)
			if err != nil {
				return nil, err
			}
			listing, err := s.repoManager.ListingRepository().GetListing(ctx, r.Asset)
			if err != nil {
				return nil, err
			}
			if listing == nil || !listing.IsListed() || listing.Reserve != r.Address {
				return nil, domain.ErrReserveNotListed
			}
			ledger, err := s.repoManager.FeeLedgerRepository().GetFeeLedger(ctx)
			if err != nil {
				return nil, err
			}
			if r.RateDeviationBlocksTrust(ledger.CachedRate) {
				return nil, domain.ErrRateBlocksTrade
			}

			order, err := r.TakeOrder(orderID)
			if err != nil {
				return nil, err
			}
			if err := ledger.RecordTrade(r.Address, order.SrcAmount); err != nil {
				return nil, err
			}

			if err := s.repoManager.ReserveRepository().UpdateReserve(
				ctx, r.Address, func(_ *domain.Reserve) (*domain.Reserve, error) {
					return r, nil
				},
			); err != nil {
				return nil, err
			}
			if err := s.repoManager.FeeLedgerRepository().UpdateFeeLedger(
				ctx, func(_ *domain.FeeLedger) (*domain.FeeLedger, error) {
					return ledger, nil
				},
			); err != nil {
				return nil, err
			}
			return order, nil
		},
	)
	s.metrics.ReserveOperations.WithLabelValues("take_order", status(err)).Inc()
	if err != nil {
		return nil, err
	}

	order := res.(*domain.Order)
	s.metrics.TradedVolume.Add(toFloat(order.SrcAmount))
	log.WithFields(log.Fields{
		"reserve": reserve,
		"order":   order.ID,
		"volume":  order.SrcAmount.String(),
	}).Info("order taken")
	return order, nil
}

func (s *reserveService) updateReserve(
	ctx context.Context, reserve string, updateFn func(r *domain.Reserve) error,
) error {
	if !domain.IsValidAddress(reserve) {
		return domain.ErrInvalidAddress
	}
	return s.repoManager.ReserveRepository().UpdateReserve(
		ctx, domain.NormalizeAddress(reserve),
		func(r *domain.Reserve) (*domain.Reserve, error) {
			if err := updateFn(r); err != nil {
				return nil, err
			}
			return r, nil
		},
	)
}
