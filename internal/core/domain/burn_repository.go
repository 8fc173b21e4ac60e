package domain

import "context"

// BurnRepository is the abstraction for any kind of database intended to
// persist the history of fee burns.
type BurnRepository interface {
	AddBurn(ctx context.Context, burn *Burn) error
	// GetBurnsByReserve returns the burns of the reserve, oldest first.
	GetBurnsByReserve(ctx context.Context, reserve string) ([]Burn, error)
}
