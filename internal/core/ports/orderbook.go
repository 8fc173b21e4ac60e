package ports

import "context"

// OrderbookFactory allocates the order lists a reserve keeps its maker
// orders into.
type OrderbookFactory interface {
	Address() string
	// NewOrderList returns the id of a new order list owned by the given
	// reserve.
	NewOrderList(ctx context.Context, owner string) (string, error)
}
