package inmemory

import (
	"context"

	"github.com/tdex-network/reserve-lister/internal/core/domain"
)

type burnRepository struct {
	rm *RepoManager
}

func (r burnRepository) AddBurn(ctx context.Context, burn *domain.Burn) error {
	return r.rm.write(ctx, func(s *state) error {
		s.burns[burn.Reserve] = append(s.burns[burn.Reserve], *burn)
		return nil
	})
}

func (r burnRepository) GetBurnsByReserve(
	ctx context.Context, reserve string,
) ([]domain.Burn, error) {
	burns := make([]domain.Burn, 0)
	err := r.rm.read(ctx, func(s *state) error {
		burns = append(burns, s.burns[reserve]...)
		return nil
	})
	return burns, err
}
