package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Burn records a fee burn of a reserve.
type Burn struct {
	ID      string
	Reserve string
	// Amount of governance token burned.
	Amount decimal.Decimal
	// Volume is the base asset volume the fee was computed on.
	Volume    decimal.Decimal
	Rate      decimal.Decimal
	Timestamp int64
}

// NewBurn returns a new burn record with a random id.
func NewBurn(
	reserve string, amount, volume, rate decimal.Decimal, timestamp int64,
) *Burn {
	return &Burn{
		ID:        uuid.New().String(),
		Reserve:   reserve,
		Amount:    amount,
		Volume:    volume,
		Rate:      rate,
		Timestamp: timestamp,
	}
}
