package dbbadger

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	"github.com/tdex-network/reserve-lister/internal/core/domain"
	"github.com/tdex-network/reserve-lister/internal/core/ports"
	"github.com/timshannon/badgerhold/v4"
)

type txKey struct{}

type repoManager struct {
	store *badgerhold.Store
	// lock serializes read-write transactions, so that they never conflict.
	lock *sync.Mutex

	listingRepository   domain.ListingRepository
	reserveRepository   domain.ReserveRepository
	feeLedgerRepository domain.FeeLedgerRepository
	burnRepository      domain.BurnRepository
}

// NewRepoManager opens (or creates if not exists) the badger store on disk.
// It expects a base data dir and an optional logger. If the data dir is
// empty, the store is kept in memory.
func NewRepoManager(baseDbDir string, logger badger.Logger) (ports.RepoManager, error) {
	var dbDir string
	if len(baseDbDir) > 0 {
		dbDir = filepath.Join(baseDbDir, "main")
	}

	store, err := createDb(dbDir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening main db: %w", err)
	}

	rm := &repoManager{
		store: store,
		lock:  &sync.Mutex{},
	}
	rm.listingRepository = listingRepository{rm}
	rm.reserveRepository = reserveRepository{rm}
	rm.feeLedgerRepository = feeLedgerRepository{rm}
	rm.burnRepository = burnRepository{rm}
	return rm, nil
}

func (rm *repoManager) ListingRepository() domain.ListingRepository {
	return rm.listingRepository
}

func (rm *repoManager) ReserveRepository() domain.ReserveRepository {
	return rm.reserveRepository
}

func (rm *repoManager) FeeLedgerRepository() domain.FeeLedgerRepository {
	return rm.feeLedgerRepository
}

func (rm *repoManager) BurnRepository() domain.BurnRepository {
	return rm.burnRepository
}

// RunTransaction binds a new badger transaction to the context given to
// handler and commits it only if handler succeeds. A handler invoked with a
// context already bound to a transaction joins it.
func (rm *repoManager) RunTransaction(
	ctx context.Context,
	readOnly bool,
	handler func(ctx context.Context) (interface{}, error),
) (interface{}, error) {
	if _, ok := ctx.Value(txKey{}).(*badger.Txn); ok {
		return handler(ctx)
	}

	if !readOnly {
		rm.lock.Lock()
		defer rm.lock.Unlock()
	}

	tx := rm.store.Badger().NewTransaction(!readOnly)
	defer tx.Discard()

	res, err := handler(context.WithValue(ctx, txKey{}, tx))
	if err != nil {
		return nil, err
	}
	if !readOnly {
		if err := tx.Commit(); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (rm *repoManager) Close() {
	rm.store.Close()
}

// view runs fn with the transaction bound to ctx, or with a new read-only
// one.
func (rm *repoManager) view(ctx context.Context, fn func(tx *badger.Txn) error) error {
	_, err := rm.RunTransaction(
		ctx, true, func(ctx context.Context) (interface{}, error) {
			return nil, fn(ctx.Value(txKey{}).(*badger.Txn))
		},
	)
	return err
}

// update runs fn with the transaction bound to ctx, or with a new read-write
// one.
func (rm *repoManager) update(ctx context.Context, fn func(tx *badger.Txn) error) error {
	_, err := rm.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			return nil, fn(ctx.Value(txKey{}).(*badger.Txn))
		},
	)
	return err
}

func createDb(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	return badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
}
