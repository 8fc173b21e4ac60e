package domain

import "context"

// FeeLedgerRepository is the abstraction for any kind of database intended
// to persist the fee ledger. There is only one ledger per daemon.
type FeeLedgerRepository interface {
	// GetFeeLedger returns the ledger or ErrFeeLedgerNotFound.
	GetFeeLedger(ctx context.Context) (*FeeLedger, error)
	// AddFeeLedger stores the ledger, overwriting any previous one.
	AddFeeLedger(ctx context.Context, ledger *FeeLedger) error
	// UpdateFeeLedger updates the state of the ledger. The closure allows to
	// commit multiple changes in a transactional way.
	UpdateFeeLedger(
		ctx context.Context, updateFn func(l *FeeLedger) (*FeeLedger, error),
	) error
}
