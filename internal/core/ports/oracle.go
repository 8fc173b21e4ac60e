package ports

import (
	"context"

	"github.com/shopspring/decimal"
)

// RateOracle supplies a single exchange rate, expressed in 1e18 precision
// units, along with whether it can be trusted.
type RateOracle interface {
	// Address returns the identity of the oracle.
	Address() string
	CurrentRate(ctx context.Context) (rate decimal.Decimal, valid bool)
}
