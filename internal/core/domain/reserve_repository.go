package domain

import "context"

// ReserveRepository is the abstraction for any kind of database intended to
// persist Reserves.
type ReserveRepository interface {
	// AddReserve adds a new reserve to the repository.
	AddReserve(ctx context.Context, reserve *Reserve) error
	// GetReserve returns the reserve with the given address or
	// ErrReserveNotFound.
	GetReserve(ctx context.Context, address string) (*Reserve, error)
	// GetReservesByAsset returns every reserve ever created for the asset.
	GetReservesByAsset(ctx context.Context, asset string) ([]Reserve, error)
	// UpdateReserve updates the state of a reserve. The closure allows to
	// commit multiple changes in a transactional way.
	UpdateReserve(
		ctx context.Context, address string,
		updateFn func(r *Reserve) (*Reserve, error),
	) error
}
