package registry

import (
	"errors"

	"github.com/tdex-network/reserve-lister/internal/core/ports"
)

var (
	// ErrNotOperator is returned when the caller lacks registry permissions.
	ErrNotOperator = errors.New("caller is not a registry operator")
	// ErrNotAdmin ...
	ErrNotAdmin = errors.New("caller is not the registry admin")
	// ErrInvalidAddress ...
	ErrInvalidAddress = errors.New("invalid address")
	// ErrReserveAlreadyListed ...
	ErrReserveAlreadyListed = ports.ErrReserveAlreadyListed
	// ErrReserveNotListed ...
	ErrReserveNotListed = ports.ErrReserveNotListed
	// ErrReserveIndexMismatch is returned when the reserve is not found at
	// the given index of the reserve list.
	ErrReserveIndexMismatch = errors.New("reserve not found at index")
)
