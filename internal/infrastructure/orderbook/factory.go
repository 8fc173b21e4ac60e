package orderbook

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

var (
	// ErrInvalidOwner ...
	ErrInvalidOwner = errors.New("invalid order list owner")
	// ErrFactoryDisabled is returned when the factory stops issuing lists.
	ErrFactoryDisabled = errors.New("order list factory is disabled")
)

// OrderList is a sorted order container owned by a reserve.
type OrderList struct {
	Address string
	Owner   string
}

// Factory issues new order lists. Every list gets a unique address, derived
// from the factory address and a random salt.
type Factory struct {
	address string

	lock     *sync.RWMutex
	disabled bool
	lists    map[string]OrderList
}

func NewFactory(address string) (*Factory, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid factory address %q", address)
	}
	return &Factory{
		address: common.HexToAddress(address).Hex(),
		lock:    &sync.RWMutex{},
		lists:   make(map[string]OrderList),
	}, nil
}

func (f *Factory) Address() string {
	return f.address
}

func (f *Factory) NewOrderList(_ context.Context, owner string) (string, error) {
	if !common.IsHexAddress(owner) ||
		common.HexToAddress(owner) == (common.Address{}) {
		return "", ErrInvalidOwner
	}

	f.lock.Lock()
	defer f.lock.Unlock()

	if f.disabled {
		return "", ErrFactoryDisabled
	}

	salt := uuid.New()
	addr := crypto.CreateAddress2(
		common.HexToAddress(f.address), crypto.Keccak256Hash(salt[:]),
		crypto.Keccak256(common.HexToAddress(owner).Bytes()),
	).Hex()

	f.lists[addr] = OrderList{
		Address: addr,
		Owner:   common.HexToAddress(owner).Hex(),
	}
	return addr, nil
}

// GetOrderList returns the list with the given address, if any.
func (f *Factory) GetOrderList(address string) (OrderList, bool) {
	f.lock.RLock()
	defer f.lock.RUnlock()

	l, ok := f.lists[common.HexToAddress(address).Hex()]
	return l, ok
}

// SetDisabled toggles the ability of the factory to issue new lists.
func (f *Factory) SetDisabled(disabled bool) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.disabled = disabled
}
