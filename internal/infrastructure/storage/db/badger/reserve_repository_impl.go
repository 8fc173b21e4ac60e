package dbbadger

import (
	"context"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v3"
	"github.com/tdex-network/reserve-lister/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type reserveRepository struct {
	rm *repoManager
}

func (r reserveRepository) AddReserve(ctx context.Context, reserve *domain.Reserve) error {
	return r.rm.update(ctx, func(tx *badger.Txn) error {
		if err := r.rm.store.TxInsert(tx, reserve.Address, reserve); err != nil {
			if err == badgerhold.ErrKeyExists {
				return fmt.Errorf("reserve %s already exists", reserve.Address)
			}
			return err
		}
		return nil
	})
}

func (r reserveRepository) GetReserve(
	ctx context.Context, address string,
) (*domain.Reserve, error) {
	var reserve *domain.Reserve
	err := r.rm.view(ctx, func(tx *badger.Txn) error {
		rr, err := r.getReserve(tx, address)
		reserve = rr
		return err
	})
	return reserve, err
}

func (r reserveRepository) GetReservesByAsset(
	ctx context.Context, asset string,
) ([]domain.Reserve, error) {
	reserves := make([]domain.Reserve, 0)
	query := badgerhold.Where("Asset").Eq(asset)
	err := r.rm.view(ctx, func(tx *badger.Txn) error {
		return r.rm.store.TxFind(tx, &reserves, query)
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(reserves, func(i, j int) bool {
		return reserves[i].Address < reserves[j].Address
	})
	return reserves, nil
}

func (r reserveRepository) UpdateReserve(
	ctx context.Context, address string,
	updateFn func(r *domain.Reserve) (*domain.Reserve, error),
) error {
	return r.rm.update(ctx, func(tx *badger.Txn) error {
		current, err := r.getReserve(tx, address)
		if err != nil {
			return err
		}
		updated, err := updateFn(current)
		if err != nil {
			return err
		}
		return r.rm.store.TxUpdate(tx, address, updated)
	})
}

func (r reserveRepository) getReserve(tx *badger.Txn, address string) (*domain.Reserve, error) {
	var reserve domain.Reserve
	if err := r.rm.store.TxGet(tx, address, &reserve); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, domain.ErrReserveNotFound
		}
		return nil, err
	}
	return &reserve, nil
}
