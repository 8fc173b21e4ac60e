package ports

import (
	"context"
	"errors"
)

var (
	// ErrReserveAlreadyListed is returned by ListReserve when the very same
	// reserve is already listed for the asset.
	ErrReserveAlreadyListed = errors.New("reserve is already listed")
	// ErrReserveNotListed is returned by DelistReserve when the reserve is
	// not listed at all.
	ErrReserveNotListed = errors.New("reserve is not listed")
)

// NetworkRegistry is the trading network reserves must be listed into to be
// visible by traders. Every mutation requires the caller to be one of the
// registry operators.
type NetworkRegistry interface {
	Address() string
	IsOperator(ctx context.Context, identity string) (bool, error)
	// ListReserve appends the reserve to those trading the asset, or returns
	// ErrReserveAlreadyListed.
	ListReserve(ctx context.Context, caller, asset, reserve string) error
	// DelistReserve removes the reserve found at the given index of the
	// network reserve list, or returns ErrReserveNotListed.
	DelistReserve(
		ctx context.Context, caller, asset, reserve string, index int,
	) error
}
