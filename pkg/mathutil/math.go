package mathutil

import (
	"github.com/shopspring/decimal"
)

var (
	// PrecisionUnits is the fixed-point unit (18 decimals) rates and prices are
	// expressed in.
	PrecisionUnits = decimal.New(1, 18)
	// TenThousands is the basis point denominator.
	TenThousands = decimal.NewFromInt(10000)
)

// DivFloor returns floor(x / y) for non negative operands. It returns zero if
// y is zero.
func DivFloor(x, y decimal.Decimal) decimal.Decimal {
	if y.IsZero() {
		return decimal.Zero
	}
	q, _ := x.QuoRem(y, 0)
	return q
}

// MulDivFloor returns floor(x * y / z) without intermediate rounding.
func MulDivFloor(x, y, z decimal.Decimal) decimal.Decimal {
	return DivFloor(x.Mul(y), z)
}

// IsWholeAmount returns whether x is a positive integer amount.
func IsWholeAmount(x decimal.Decimal) bool {
	return x.IsPositive() && x.Equal(x.Truncate(0))
}

// ToPrecisionUnits converts a human readable value (ie. 200.5) into an
// integer expressed in PrecisionUnits, truncating the excess decimals.
func ToPrecisionUnits(x decimal.Decimal) decimal.Decimal {
	return x.Mul(PrecisionUnits).Truncate(0)
}

// FromPrecisionUnits is the inverse of ToPrecisionUnits.
func FromPrecisionUnits(x decimal.Decimal) decimal.Decimal {
	return x.DivRound(PrecisionUnits, 18)
}
