package staticoracle

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// Oracle is a rate oracle whose rate is set manually. It's used for
// assets without a market feed and in tests.
type Oracle struct {
	address string

	lock  *sync.RWMutex
	rate  decimal.Decimal
	valid bool
}

func NewOracle(address string, rate decimal.Decimal) *Oracle {
	return &Oracle{
		address: address,
		lock:    &sync.RWMutex{},
		rate:    rate,
		valid:   rate.IsPositive(),
	}
}

func (o *Oracle) Address() string {
	return o.address
}

func (o *Oracle) CurrentRate(_ context.Context) (decimal.Decimal, bool) {
	o.lock.RLock()
	defer o.lock.RUnlock()

	return o.rate, o.valid
}

// SetRate updates the rate returned by the oracle. A non-positive rate
// makes the oracle invalid.
func (o *Oracle) SetRate(rate decimal.Decimal) {
	o.lock.Lock()
	defer o.lock.Unlock()

	o.rate = rate
	o.valid = rate.IsPositive()
}

// Invalidate makes the oracle report its current rate as not valid.
func (o *Oracle) Invalidate() {
	o.lock.Lock()
	defer o.lock.Unlock()

	o.valid = false
}
