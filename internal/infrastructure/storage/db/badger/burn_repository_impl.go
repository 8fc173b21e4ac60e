package dbbadger

import (
	"context"
	"sort"

	"github.com/dgraph-io/badger/v3"
	"github.com/tdex-network/reserve-lister/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type burnRepository struct {
	rm *repoManager
}

func (r burnRepository) AddBurn(ctx context.Context, burn *domain.Burn) error {
	return r.rm.update(ctx, func(tx *badger.Txn) error {
		return r.rm.store.TxInsert(tx, burn.ID, burn)
	})
}

func (r burnRepository) GetBurnsByReserve(
	ctx context.Context, reserve string,
) ([]domain.Burn, error) {
	burns := make([]domain.Burn, 0)
	query := badgerhold.Where("Reserve").Eq(reserve)
	err := r.rm.view(ctx, func(tx *badger.Txn) error {
		return r.rm.store.TxFind(tx, &burns, query)
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(burns, func(i, j int) bool {
		return burns[i].Timestamp < burns[j].Timestamp
	})
	return burns, nil
}
