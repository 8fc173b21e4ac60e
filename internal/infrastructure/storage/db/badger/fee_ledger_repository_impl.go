package dbbadger

import (
	"context"

	"github.com/dgraph-io/badger/v3"
	"github.com/tdex-network/reserve-lister/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type feeLedgerRepository struct {
	rm *repoManager
}

func (r feeLedgerRepository) GetFeeLedger(ctx context.Context) (*domain.FeeLedger, error) {
	var ledger *domain.FeeLedger
	err := r.rm.view(ctx, func(tx *badger.Txn) error {
		l, err := r.getFeeLedger(tx)
		ledger = l
		return err
	})
	return ledger, err
}

func (r feeLedgerRepository) AddFeeLedger(
	ctx context.Context, ledger *domain.FeeLedger,
) error {
	return r.rm.update(ctx, func(tx *badger.Txn) error {
		return r.rm.store.TxUpsert(tx, domain.FeeLedgerKey, ledger)
	})
}

func (r feeLedgerRepository) UpdateFeeLedger(
	ctx context.Context, updateFn func(l *domain.FeeLedger) (*domain.FeeLedger, error),
) error {
	return r.rm.update(ctx, func(tx *badger.Txn) error {
		current, err := r.getFeeLedger(tx)
		if err != nil {
			return err
		}
		updated, err := updateFn(current)
		if err != nil {
			return err
		}
		return r.rm.store.TxUpdate(tx, domain.FeeLedgerKey, updated)
	})
}

func (r feeLedgerRepository) getFeeLedger(tx *badger.Txn) (*domain.FeeLedger, error) {
	var ledger domain.FeeLedger
	if err := r.rm.store.TxGet(tx, domain.FeeLedgerKey, &ledger); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, domain.ErrFeeLedgerNotFound
		}
		return nil, err
	}
	return &ledger, nil
}
