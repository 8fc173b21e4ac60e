package registry

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
)

// Network is a local, in-memory, trading network registry. It keeps the
// list of all listed reserves and the reserves listed per asset, and lets
// only its operators mutate them.
type Network struct {
	address string
	admin   string

	lock             *sync.RWMutex
	operators        map[string]bool
	reserves         []string
	reservesPerAsset map[string][]string
}

// NewNetwork returns a new registry administered by admin, with the given
// initial operators.
func NewNetwork(address, admin string, operators ...string) (*Network, error) {
	if !isValidAddress(address) || !isValidAddress(admin) {
		return nil, ErrInvalidAddress
	}
	ops := make(map[string]bool)
	for _, op := range operators {
		if !isValidAddress(op) {
			return nil, ErrInvalidAddress
		}
		ops[normalize(op)] = true
	}

	return &Network{
		address:          normalize(address),
		admin:            normalize(admin),
		lock:             &sync.RWMutex{},
		operators:        ops,
		reserves:         make([]string, 0),
		reservesPerAsset: make(map[string][]string),
	}, nil
}

func (n *Network) Address() string {
	return n.address
}

func (n *Network) IsOperator(_ context.Context, identity string) (bool, error) {
	n.lock.RLock()
	defer n.lock.RUnlock()

	return n.isOperator(identity), nil
}

// AddOperator grants operator permissions. Only the admin can call this.
func (n *Network) AddOperator(caller, operator string) error {
	n.lock.Lock()
	defer n.lock.Unlock()

	if !isValidAddress(caller) || normalize(caller) != n.admin {
		return ErrNotAdmin
	}
	if !isValidAddress(operator) {
		return ErrInvalidAddress
	}
	n.operators[normalize(operator)] = true
	return nil
}

// RemoveOperator revokes operator permissions. Only the admin can call this.
func (n *Network) RemoveOperator(caller, operator string) error {
	n.lock.Lock()
	defer n.lock.Unlock()

	if !isValidAddress(caller) || normalize(caller) != n.admin {
		return ErrNotAdmin
	}
	if !isValidAddress(operator) {
		return ErrInvalidAddress
	}
	delete(n.operators, normalize(operator))
	return nil
}

func (n *Network) ListReserve(
	_ context.Context, caller, asset, reserve string,
) error {
	n.lock.Lock()
	defer n.lock.Unlock()

	if !n.isOperator(caller) {
		return ErrNotOperator
	}
	if !isValidAddress(asset) || !isValidAddress(reserve) {
		return ErrInvalidAddress
	}
	asset, reserve = normalize(asset), normalize(reserve)
	if indexOf(n.reserves, reserve) >= 0 {
		return ErrReserveAlreadyListed
	}

	n.reserves = append(n.reserves, reserve)
	n.reservesPerAsset[asset] = append(n.reservesPerAsset[asset], reserve)

	log.WithFields(log.Fields{
		"asset":   asset,
		"reserve": reserve,
		"index":   len(n.reserves) - 1,
	}).Debug("registry: reserve listed")
	return nil
}

// DelistReserve removes the reserve found at index of the reserve list. The
// last reserve of the list takes its place.
func (n *Network) DelistReserve(
	_ context.Context, caller, asset, reserve string, index int,
) error {
	n.lock.Lock()
	defer n.lock.Unlock()

	if !n.isOperator(caller) {
		return ErrNotOperator
	}
	if !isValidAddress(asset) || !isValidAddress(reserve) {
		return ErrInvalidAddress
	}
	asset, reserve = normalize(asset), normalize(reserve)
	if indexOf(n.reserves, reserve) < 0 {
		return ErrReserveNotListed
	}
	if index < 0 || index >= len(n.reserves) || n.reserves[index] != reserve {
		return ErrReserveIndexMismatch
	}

	last := len(n.reserves) - 1
	n.reserves[index] = n.reserves[last]
	n.reserves = n.reserves[:last]

	perAsset := n.reservesPerAsset[asset]
	if i := indexOf(perAsset, reserve); i >= 0 {
		perAsset = append(perAsset[:i], perAsset[i+1:]...)
	}
	if len(perAsset) <= 0 {
		delete(n.reservesPerAsset, asset)
	} else {
		n.reservesPerAsset[asset] = perAsset
	}

	log.WithFields(log.Fields{
		"asset":   asset,
		"reserve": reserve,
		"index":   index,
	}).Debug("registry: reserve delisted")
	return nil
}

// Reserves returns the list of all listed reserves.
func (n *Network) Reserves() []string {
	n.lock.RLock()
	defer n.lock.RUnlock()

	return append([]string(nil), n.reserves...)
}

// ReservesPerAsset returns the reserves listed for the given asset.
func (n *Network) ReservesPerAsset(asset string) []string {
	n.lock.RLock()
	defer n.lock.RUnlock()

	return append([]string(nil), n.reservesPerAsset[normalize(asset)]...)
}

// IndexOf returns the index of the reserve in the reserve list, -1 if not
// listed.
func (n *Network) IndexOf(reserve string) int {
	n.lock.RLock()
	defer n.lock.RUnlock()

	return indexOf(n.reserves, normalize(reserve))
}

func (n *Network) isOperator(identity string) bool {
	if !isValidAddress(identity) {
		return false
	}
	return n.operators[normalize(identity)]
}

func indexOf(list []string, item string) int {
	for i, v := range list {
		if v == item {
			return i
		}
	}
	return -1
}

func isValidAddress(addr string) bool {
	return common.IsHexAddress(addr) && common.HexToAddress(addr) != (common.Address{})
}

func normalize(addr string) string {
	return common.HexToAddress(addr).Hex()
}
