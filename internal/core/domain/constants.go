package domain

import (
	"github.com/shopspring/decimal"
	"github.com/tdex-network/reserve-lister/pkg/mathutil"
)

const (
	// ReserveBurnFeeBps is the protocol fee burned on the base asset volume
	// traded by any permissionless reserve, in basis points.
	ReserveBurnFeeBps = 25
	// BurnToStakeFactor is the multiple of the burn fee a maker must lock as
	// stake to back an open order. The same multiple, plus one, bounds how far
	// the governance rate may drift before a reserve stops being trusted.
	BurnToStakeFactor = 5
	// MaxBasisPoints is the basis point denominator.
	MaxBasisPoints = 10000

	// FeeLedgerKey identifies the single fee ledger in storage.
	FeeLedgerKey = "fee-ledger"
)

var (
	// RatePrecision is the fixed-point precision of every exchange rate.
	RatePrecision = mathutil.PrecisionUnits

	burnToStakeFactor   = decimal.NewFromInt(BurnToStakeFactor)
	trustDeviationBound = decimal.NewFromInt(BurnToStakeFactor + 1)
)
