package ports

import (
	"context"

	"github.com/tdex-network/reserve-lister/internal/core/domain"
)

// RepoManager gives access to every repository and allows to run a sequence
// of repository operations as an all-or-nothing transaction.
type RepoManager interface {
	ListingRepository() domain.ListingRepository
	ReserveRepository() domain.ReserveRepository
	FeeLedgerRepository() domain.FeeLedgerRepository
	BurnRepository() domain.BurnRepository

	// RunTransaction invokes handler with a context bound to a new
	// transaction. The transaction is committed only if handler returns no
	// error, otherwise every change is discarded.
	RunTransaction(
		ctx context.Context,
		readOnly bool,
		handler func(ctx context.Context) (interface{}, error),
	) (interface{}, error)
	Close()
}
