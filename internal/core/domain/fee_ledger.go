package domain

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/tdex-network/reserve-lister/pkg/mathutil"
)

// ReserveFeeData is the fee accounting of a single reserve.
type ReserveFeeData struct {
	BurnFeeBps uint32
	// AccruedVolume is the base asset volume traded since the last burn.
	AccruedVolume decimal.Decimal
	TotalBurned   decimal.Decimal
}

// FeeLedger keeps track of the fees owed by reserves, denominated in
// governance token at the cached rate.
type FeeLedger struct {
	// Admin is the only one allowed to manage the operator set.
	Admin     string
	Operators map[string]bool
	// CachedRate is the amount of governance token per base asset unit, in
	// RatePrecision units. It changes only with SetRate.
	CachedRate    decimal.Decimal
	RateUpdatedAt int64
	Reserves      map[string]ReserveFeeData
}

// NewFeeLedger returns a new fee ledger owned by admin. A zero initial rate
// is allowed and means that no rate has been fetched yet.
func NewFeeLedger(admin string, rate decimal.Decimal, at int64) (*FeeLedger, error) {
	admin, err := validateAddress(admin)
	if err != nil {
		return nil, err
	}
	if rate.IsNegative() || !rate.Equal(rate.Truncate(0)) {
		return nil, ErrInvalidRate
	}
	l := &FeeLedger{
		Admin:      admin,
		Operators:  make(map[string]bool),
		CachedRate: rate,
		Reserves:   make(map[string]ReserveFeeData),
	}
	if rate.IsPositive() {
		l.RateUpdatedAt = at
	}
	return l, nil
}

// AddOperator authorizes the given identity. Only the admin can call this.
func (l *FeeLedger) AddOperator(caller, operator string) error {
	if err := l.validateAdmin(caller); err != nil {
		return err
	}
	operator, err := validateAddress(operator)
	if err != nil {
		return err
	}
	if l.Operators == nil {
		l.Operators = make(map[string]bool)
	}
	l.Operators[operator] = true
	return nil
}

// RemoveOperator revokes the authorization of the given identity. Only the
// admin can call this.
func (l *FeeLedger) RemoveOperator(caller, operator string) error {
	if err := l.validateAdmin(caller); err != nil {
		return err
	}
	operator, err := validateAddress(operator)
	if err != nil {
		return err
	}
	delete(l.Operators, operator)
	return nil
}

// IsOperator ...
func (l *FeeLedger) IsOperator(identity string) bool {
	if !IsValidAddress(identity) {
		return false
	}
	return l.Operators[NormalizeAddress(identity)]
}

// ListOperators returns the sorted operator set.
func (l *FeeLedger) ListOperators() []string {
	operators := make([]string, 0, len(l.Operators))
	for op, ok := range l.Operators {
		if ok {
			operators = append(operators, op)
		}
	}
	sort.Strings(operators)
	return operators
}

// SetRate caches the rate reported by the oracle. If the oracle reported
// invalid data the previous cached rate is left untouched.
func (l *FeeLedger) SetRate(rate decimal.Decimal, valid bool, at int64) error {
	if !valid || !mathutil.IsWholeAmount(rate) {
		return ErrOracleInvalid
	}
	l.CachedRate = rate
	l.RateUpdatedAt = at
	return nil
}

// RegisterReserve makes the reserve an authorized fee source. Registering a
// reserve twice only updates its burn fee.
func (l *FeeLedger) RegisterReserve(caller, reserve string, burnFeeBps uint32) error {
	if !l.IsOperator(caller) {
		return ErrNotAuthorized
	}
	reserve, err := validateAddress(reserve)
	if err != nil {
		return err
	}
	if !isValidBasisPoints(burnFeeBps) {
		return ErrInvalidBurnFeeBps
	}

	if l.Reserves == nil {
		l.Reserves = make(map[string]ReserveFeeData)
	}
	data, ok := l.Reserves[reserve]
	if !ok {
		data = ReserveFeeData{
			AccruedVolume: decimal.Zero,
			TotalBurned:   decimal.Zero,
		}
	}
	data.BurnFeeBps = burnFeeBps
	l.Reserves[reserve] = data
	return nil
}

// IsRegistered ...
func (l *FeeLedger) IsRegistered(reserve string) bool {
	if !IsValidAddress(reserve) {
		return false
	}
	_, ok := l.Reserves[NormalizeAddress(reserve)]
	return ok
}

// ReserveFees returns the fee data of the given reserve.
func (l *FeeLedger) ReserveFees(reserve string) (ReserveFeeData, error) {
	reserve, err := validateAddress(reserve)
	if err != nil {
		return ReserveFeeData{}, err
	}
	data, ok := l.Reserves[reserve]
	if !ok {
		return ReserveFeeData{}, ErrReserveNotRegistered
	}
	return data, nil
}

// RecordTrade accrues the base asset volume traded by the reserve.
func (l *FeeLedger) RecordTrade(reserve string, volume decimal.Decimal) error {
	data, err := l.ReserveFees(reserve)
	if err != nil {
		return err
	}
	if !mathutil.IsWholeAmount(volume) {
		return ErrInvalidAmount
	}
	data.AccruedVolume = data.AccruedVolume.Add(volume)
	l.Reserves[NormalizeAddress(reserve)] = data
	return nil
}

// FeeAmount returns the governance token fee for the given base asset volume
// at the cached rate:
//
//	floor(floor(volume * rate / 1e18) * bps / 10000) - 1
//
// The trailing unit is always subtracted, even when both divisions are exact.
func (l *FeeLedger) FeeAmount(volume decimal.Decimal, burnFeeBps uint32) decimal.Decimal {
	valueInToken := mathutil.MulDivFloor(volume, l.CachedRate, RatePrecision)
	bps := decimal.NewFromInt(int64(burnFeeBps))
	fee := mathutil.MulDivFloor(valueInToken, bps, mathutil.TenThousands)
	return fee.Sub(decimal.NewFromInt(1))
}

// BurnFees burns the fees accrued by the reserve since the last burn and
// resets its volume counter. It fails without side effects if the resulting
// amount is not positive.
func (l *FeeLedger) BurnFees(caller, reserve string, at int64) (*Burn, error) {
	if !l.IsOperator(caller) {
		return nil, ErrNotAuthorized
	}
	data, err := l.ReserveFees(reserve)
	if err != nil {
		return nil, err
	}
	if !data.AccruedVolume.IsPositive() {
		return nil, ErrNoAccruedVolume
	}

	fee := l.FeeAmount(data.AccruedVolume, data.BurnFeeBps)
	if !fee.IsPositive() {
		return nil, ErrBurnAmountTooLow
	}

	burn := NewBurn(
		NormalizeAddress(reserve), fee, data.AccruedVolume, l.CachedRate, at,
	)
	data.TotalBurned = data.TotalBurned.Add(fee)
	data.AccruedVolume = decimal.Zero
	l.Reserves[burn.Reserve] = data
	return burn, nil
}

// Clone returns a deep copy of the ledger.
func (l *FeeLedger) Clone() *FeeLedger {
	c := *l
	c.Operators = make(map[string]bool, len(l.Operators))
	for k, v := range l.Operators {
		c.Operators[k] = v
	}
	c.Reserves = make(map[string]ReserveFeeData, len(l.Reserves))
	for k, v := range l.Reserves {
		c.Reserves[k] = v
	}
	return &c
}

func (l *FeeLedger) validateAdmin(caller string) error {
	if !IsValidAddress(caller) || NormalizeAddress(caller) != l.Admin {
		return ErrNotAuthorized
	}
	return nil
}
