package inmemory

import (
	"context"

	"github.com/tdex-network/reserve-lister/internal/core/domain"
)

type feeLedgerRepository struct {
	rm *RepoManager
}

func (r feeLedgerRepository) GetFeeLedger(ctx context.Context) (*domain.FeeLedger, error) {
	var ledger *domain.FeeLedger
	err := r.rm.read(ctx, func(s *state) error {
		if s.feeLedger == nil {
			return domain.ErrFeeLedgerNotFound
		}
		ledger = s.feeLedger.Clone()
		return nil
	})
	return ledger, err
}

func (r feeLedgerRepository) AddFeeLedger(
	ctx context.Context, ledger *domain.FeeLedger,
) error {
	return r.rm.write(ctx, func(s *state) error {
		s.feeLedger = ledger.Clone()
		return nil
	})
}

func (r feeLedgerRepository) UpdateFeeLedger(
	ctx context.Context, updateFn func(l *domain.FeeLedger) (*domain.FeeLedger, error),
) error {
	return r.rm.write(ctx, func(s *state) error {
		if s.feeLedger == nil {
			return domain.ErrFeeLedgerNotFound
		}
		updated, err := updateFn(s.feeLedger.Clone())
		if err != nil {
			return err
		}
		s.feeLedger = updated.Clone()
		return nil
	})
}
