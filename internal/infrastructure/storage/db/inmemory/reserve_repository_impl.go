package inmemory

import (
	"context"
	"fmt"
	"sort"

	"github.com/tdex-network/reserve-lister/internal/core/domain"
)

type reserveRepository struct {
	rm *RepoManager
}

func (r reserveRepository) AddReserve(ctx context.Context, reserve *domain.Reserve) error {
	return r.rm.write(ctx, func(s *state) error {
		if _, ok := s.reserves[reserve.Address]; ok {
			return fmt.Errorf("reserve %s already exists", reserve.Address)
		}
		s.reserves[reserve.Address] = *reserve.Clone()
		return nil
	})
}

func (r reserveRepository) GetReserve(
	ctx context.Context, address string,
) (*domain.Reserve, error) {
	var reserve *domain.Reserve
	err := r.rm.read(ctx, func(s *state) error {
		rr, ok := s.reserves[address]
		if !ok {
			return domain.ErrReserveNotFound
		}
		reserve = rr.Clone()
		return nil
	})
	return reserve, err
}

func (r reserveRepository) GetReservesByAsset(
	ctx context.Context, asset string,
) ([]domain.Reserve, error) {
	reserves := make([]domain.Reserve, 0)
	err := r.rm.read(ctx, func(s *state) error {
		for _, rr := range s.reserves {
			if rr.Asset == asset {
				reserves = append(reserves, *rr.Clone())
			}
		}
		return nil
	})
	sort.SliceStable(reserves, func(i, j int) bool {
		return reserves[i].Address < reserves[j].Address
	})
	return reserves, err
}

func (r reserveRepository) UpdateReserve(
	ctx context.Context, address string,
	updateFn func(r *domain.Reserve) (*domain.Reserve, error),
) error {
	return r.rm.write(ctx, func(s *state) error {
		current, ok := s.reserves[address]
		if !ok {
			return domain.ErrReserveNotFound
		}
		updated, err := updateFn(current.Clone())
		if err != nil {
			return err
		}
		s.reserves[address] = *updated.Clone()
		return nil
	})
}
