package dbbadger

import (
	"context"
	"sort"

	"github.com/dgraph-io/badger/v3"
	"github.com/tdex-network/reserve-lister/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type listingRepository struct {
	rm *repoManager
}

func (r listingRepository) GetListing(
	ctx context.Context, asset string,
) (*domain.Listing, error) {
	var listing *domain.Listing
	err := r.rm.view(ctx, func(tx *badger.Txn) error {
		l, err := r.getListing(tx, asset)
		listing = l
		return err
	})
	return listing, err
}

func (r listingRepository) GetAllListings(ctx context.Context) ([]domain.Listing, error) {
	listings := make([]domain.Listing, 0)
	err := r.rm.view(ctx, func(tx *badger.Txn) error {
		return r.rm.store.TxFind(tx, &listings, nil)
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(listings, func(i, j int) bool {
		return listings[i].Asset < listings[j].Asset
	})
	return listings, nil
}

func (r listingRepository) UpdateListing(
	ctx context.Context, asset string,
	updateFn func(l *domain.Listing) (*domain.Listing, error),
) error {
	return r.rm.update(ctx, func(tx *badger.Txn) error {
		current, err := r.getListing(tx, asset)
		if err != nil {
			return err
		}
		if current == nil {
			if current, err = domain.NewListing(asset); err != nil {
				return err
			}
		}

		updated, err := updateFn(current)
		if err != nil {
			return err
		}
		return r.rm.store.TxUpsert(tx, asset, updated)
	})
}

func (r listingRepository) getListing(tx *badger.Txn, asset string) (*domain.Listing, error) {
	var listing domain.Listing
	if err := r.rm.store.TxGet(tx, asset, &listing); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &listing, nil
}
