package inmemory

import (
	"context"
	"sync"

	"github.com/tdex-network/reserve-lister/internal/core/domain"
	"github.com/tdex-network/reserve-lister/internal/core/ports"
)

type txKey struct{}

// state is the whole content of the in-memory database. Transactions work on
// a copy of it that replaces the original only on commit.
type state struct {
	listings  map[string]domain.Listing
	reserves  map[string]domain.Reserve
	feeLedger *domain.FeeLedger
	burns     map[string][]domain.Burn
}

func newState() *state {
	return &state{
		listings: make(map[string]domain.Listing),
		reserves: make(map[string]domain.Reserve),
		burns:    make(map[string][]domain.Burn),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.listings {
		c.listings[k] = *v.Clone()
	}
	for k, v := range s.reserves {
		c.reserves[k] = *v.Clone()
	}
	if s.feeLedger != nil {
		c.feeLedger = s.feeLedger.Clone()
	}
	for k, v := range s.burns {
		c.burns[k] = append([]domain.Burn(nil), v...)
	}
	return c
}

type transaction struct {
	state *state
}

// RepoManager is the in-memory implementation of ports.RepoManager. All
// transactions are serialized.
type RepoManager struct {
	state *state
	lock  *sync.Mutex

	listingRepository   domain.ListingRepository
	reserveRepository   domain.ReserveRepository
	feeLedgerRepository domain.FeeLedgerRepository
	burnRepository      domain.BurnRepository
}

func NewRepoManager() ports.RepoManager {
	rm := &RepoManager{
		state: newState(),
		lock:  &sync.Mutex{},
	}
	rm.listingRepository = listingRepository{rm}
	rm.reserveRepository = reserveRepository{rm}
	rm.feeLedgerRepository = feeLedgerRepository{rm}
	rm.burnRepository = burnRepository{rm}
	return rm
}

func (rm *RepoManager) ListingRepository() domain.ListingRepository {
	return rm.listingRepository
}

func (rm *RepoManager) ReserveRepository() domain.ReserveRepository {
	return rm.reserveRepository
}

func (rm *RepoManager) FeeLedgerRepository() domain.FeeLedgerRepository {
	return rm.feeLedgerRepository
}

func (rm *RepoManager) BurnRepository() domain.BurnRepository {
	return rm.burnRepository
}

// RunTransaction runs handler against a private copy of the database. A
// handler invoked with a context already bound to a transaction joins it.
func (rm *RepoManager) RunTransaction(
	ctx context.Context,
	readOnly bool,
	handler func(ctx context.Context) (interface{}, error),
) (interface{}, error) {
	if _, ok := ctx.Value(txKey{}).(*transaction); ok {
		return handler(ctx)
	}

	rm.lock.Lock()
	defer rm.lock.Unlock()

	tx := &transaction{rm.state.clone()}
	res, err := handler(context.WithValue(ctx, txKey{}, tx))
	if err != nil {
		return nil, err
	}
	if !readOnly {
		rm.state = tx.state
	}
	return res, nil
}

func (rm *RepoManager) Close() {}

func (rm *RepoManager) read(ctx context.Context, fn func(s *state) error) error {
	if tx, ok := ctx.Value(txKey{}).(*transaction); ok {
		return fn(tx.state)
	}

	rm.lock.Lock()
	defer rm.lock.Unlock()

	return fn(rm.state)
}

func (rm *RepoManager) write(ctx context.Context, fn func(s *state) error) error {
	_, err := rm.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			tx := ctx.Value(txKey{}).(*transaction)
			return nil, fn(tx.state)
		},
	)
	return err
}
