package application

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/reserve-lister/internal/core/domain"
	"github.com/tdex-network/reserve-lister/internal/core/ports"
)

// FeeLedgerService manages the fee ledger: its operators, the cached
// governance rate and the fee burns.
type FeeLedgerService interface {
	// Init creates the fee ledger, if not existing yet, with the rate
	// currently reported by the oracle.
	Init(ctx context.Context) error
	GetFeeLedger(ctx context.Context) (*domain.FeeLedger, error)
	AddOperator(ctx context.Context, caller, operator string) error
	RemoveOperator(ctx context.Context, caller, operator string) error
	// RefreshRate caches the latest rate reported by the oracle and returns
	// it. If the oracle is not valid, the previous rate is left untouched.
	RefreshRate(ctx context.Context) (decimal.Decimal, error)
	BurnFees(ctx context.Context, caller, reserve string) (*domain.Burn, error)
	ListBurns(ctx context.Context, reserve string) ([]domain.Burn, error)
}

type feeLedgerService struct {
	admin       string
	rateOracle  ports.RateOracle
	repoManager ports.RepoManager
	pubsub      PubSubService
	metrics     *Metrics
}

// NewFeeLedgerService returns a new fee ledger service whose ledger is
// administered by admin.
func NewFeeLedgerService(
	admin string, rateOracle ports.RateOracle,
	repoManager ports.RepoManager, pubsub PubSubService,
) (FeeLedgerService, error) {
	if !domain.IsValidAddress(admin) {
		return nil, domain.ErrInvalidAddress
	}
	if rateOracle == nil {
		return nil, ErrMissingRateOracle
	}
	if repoManager == nil {
		return nil, ErrMissingRepoManager
	}
	if pubsub == nil {
		pubsub = NewPubSubService(nil)
	}

	return &feeLedgerService{
		admin:       domain.NormalizeAddress(admin),
		rateOracle:  rateOracle,
		repoManager: repoManager,
		pubsub:      pubsub,
		metrics:     NewMetrics(),
	}, nil
}

func (s *feeLedgerService) Init(ctx context.Context) error {
	ledger, err := s.repoManager.FeeLedgerRepository().GetFeeLedger(ctx)
	if err != nil && !errors.Is(err, domain.ErrFeeLedgerNotFound) {
		return err
	}
	if ledger != nil {
		if ledger.Admin != s.admin {
			log.WithField("admin", ledger.Admin).Warn(
				"fee ledger already exists with a different admin",
			)
		}
		return nil
	}

	rate, valid := s.rateOracle.CurrentRate(ctx)
	if !valid {
		log.Warn("rate oracle not valid, fee ledger created without rate")
		rate = decimal.Zero
	}
	ledger, err = domain.NewFeeLedger(s.admin, rate, time.Now().Unix())
	if err != nil {
		return err
	}
	if err := s.repoManager.FeeLedgerRepository().AddFeeLedger(ctx, ledger); err != nil {
		return err
	}
	if rate.IsPositive() {
		s.metrics.GovernanceRate.Set(toFloat(rate))
	}

	log.WithField("admin", s.admin).Info("fee ledger created")
	return nil
}

func (s *feeLedgerService) GetFeeLedger(ctx context.Context) (*domain.FeeLedger, error) {
	return s.repoManager.FeeLedgerRepository().GetFeeLedger(ctx)
}

func (s *feeLedgerService) AddOperator(
	ctx context.Context, caller, operator string,
) error {
	if err := s.repoManager.FeeLedgerRepository().UpdateFeeLedger(
		ctx, func(l *domain.FeeLedger) (*domain.FeeLedger, error) {
			if err := l.AddOperator(caller, operator); err != nil {
				return nil, err
			}
			return l, nil
		},
	); err != nil {
		return err
	}

	log.WithField("operator", operator).Info("fee ledger operator added")
	return nil
}

func (s *feeLedgerService) RemoveOperator(
	ctx context.Context, caller, operator string,
) error {
	if err := s.repoManager.FeeLedgerRepository().UpdateFeeLedger(
		ctx, func(l *domain.FeeLedger) (*domain.FeeLedger, error) {
			if err := l.RemoveOperator(caller, operator); err != nil {
				return nil, err
			}
			return l, nil
		},
	); err != nil {
		return err
	}

	log.WithField("operator", operator).Info("fee ledger operator removed")
	return nil
}

func (s *feeLedgerService) RefreshRate(ctx context.Context) (decimal.Decimal, error) {
	rate, valid := s.rateOracle.CurrentRate(ctx)

	err := s.repoManager.FeeLedgerRepository().UpdateFeeLedger(
		ctx, func(l *domain.FeeLedger) (*domain.FeeLedger, error) {
			if err := l.SetRate(rate, valid, time.Now().Unix()); err != nil {
				return nil, err
			}
			return l, nil
		},
	)
	s.metrics.RateRefreshes.WithLabelValues(status(err)).Inc()
	if err != nil {
		return decimal.Zero, err
	}

	s.metrics.GovernanceRate.Set(toFloat(rate))
	log.WithField("rate", rate.String()).Debug("governance rate refreshed")
	return rate, nil
}

func (s *feeLedgerService) BurnFees(
	ctx context.Context, caller, reserve string,
) (*domain.Burn, error) {
	res, err := s.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			var burn *domain.Burn
			if err := s.repoManager.FeeLedgerRepository().UpdateFeeLedger(
				ctx, func(l *domain.FeeLedger) (*domain.FeeLedger, error) {
					b, err := l.BurnFees(caller, reserve, time.Now().Unix())
					if err != nil {
						return nil, err
					}
					burn = b
					return l, nil
				},
			); err != nil {
				return nil, err
			}
			if err := s.repoManager.BurnRepository().AddBurn(ctx, burn); err != nil {
				return nil, err
			}
			return burn, nil
		},
	)
	if err != nil {
		return nil, err
	}

	burn := res.(*domain.Burn)
	s.metrics.Burns.Inc()
	s.metrics.FeesBurned.Add(toFloat(burn.Amount))
	log.WithFields(log.Fields{
		"reserve": burn.Reserve,
		"amount":  burn.Amount.String(),
	}).Info("fees burned")
	s.pubsub.PublishFeesBurnedEvent(*burn)
	return burn, nil
}

func (s *feeLedgerService) ListBurns(
	ctx context.Context, reserve string,
) ([]domain.Burn, error) {
	if !domain.IsValidAddress(reserve) {
		return nil, domain.ErrInvalidAddress
	}
	return s.repoManager.BurnRepository().GetBurnsByReserve(
		ctx, domain.NormalizeAddress(reserve),
	)
}
