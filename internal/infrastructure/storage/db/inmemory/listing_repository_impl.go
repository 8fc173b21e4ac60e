package inmemory

import (
	"context"
	"sort"

	"github.com/tdex-network/reserve-lister/internal/core/domain"
)

type listingRepository struct {
	rm *RepoManager
}

func (r listingRepository) GetListing(
	ctx context.Context, asset string,
) (*domain.Listing, error) {
	var listing *domain.Listing
	err := r.rm.read(ctx, func(s *state) error {
		if l, ok := s.listings[asset]; ok {
			listing = l.Clone()
		}
		return nil
	})
	return listing, err
}

func (r listingRepository) GetAllListings(ctx context.Context) ([]domain.Listing, error) {
	listings := make([]domain.Listing, 0)
	err := r.rm.read(ctx, func(s *state) error {
		for _, l := range s.listings {
			listings = append(listings, *l.Clone())
		}
		return nil
	})
	sort.SliceStable(listings, func(i, j int) bool {
		return listings[i].Asset < listings[j].Asset
	})
	return listings, err
}

func (r listingRepository) UpdateListing(
	ctx context.Context, asset string,
	updateFn func(l *domain.Listing) (*domain.Listing, error),
) error {
	return r.rm.write(ctx, func(s *state) error {
		var current *domain.Listing
		if l, ok := s.listings[asset]; ok {
			current = l.Clone()
		} else {
			l, err := domain.NewListing(asset)
			if err != nil {
				return err
			}
			current = l
		}

		updated, err := updateFn(current)
		if err != nil {
			return err
		}
		s.listings[asset] = *updated.Clone()
		return nil
	})
}
