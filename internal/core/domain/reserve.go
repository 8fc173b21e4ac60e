package domain

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/tdex-network/reserve-lister/pkg/mathutil"
)

// AssetKind distinguishes the two funds a maker can deposit into a reserve.
type AssetKind int

const (
	AssetKindTraded AssetKind = iota
	AssetKindBase
)

func (k AssetKind) String() string {
	switch k {
	case AssetKindTraded:
		return "traded"
	case AssetKindBase:
		return "base"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// IsValid ...
func (k AssetKind) IsValid() bool {
	return k == AssetKindTraded || k == AssetKindBase
}

// ReserveLimits are the order admission limits of a reserve.
type ReserveLimits struct {
	MaxOrdersPerTrade  uint32
	MinListingValueUsd decimal.Decimal
	// MinOrderSizeInBaseAsset is derived from MinListingValueUsd and the
	// base asset USD price at initialization time.
	MinOrderSizeInBaseAsset decimal.Decimal
}

// ReserveContracts are the identities of the collaborators a reserve was
// configured with.
type ReserveContracts struct {
	GovernanceToken  string
	Registry         string
	Oracle           string
	OrderbookFactory string
}

// MakerStake is the governance token stake of a maker.
type MakerStake struct {
	// Locked stake backs open orders.
	Locked decimal.Decimal
	// Unlocked stake is withdrawable.
	Unlocked decimal.Decimal
}

// Order is a maker order selling base asset for the traded asset.
type Order struct {
	ID        uint32
	Maker     string
	SrcAmount decimal.Decimal
	DstAmount decimal.Decimal
	// Stake locked at submission time.
	Stake decimal.Decimal
}

// Reserve is the liquidity source of a single asset.
type Reserve struct {
	Address string
	// Asset is the traded asset.
	Asset      string
	Lister     string
	BurnFeeBps uint32
	Contracts  ReserveContracts
	Limits     ReserveLimits
	// BaseRatePrecision is the governance token rate captured at
	// initialization, the reference point of the trust check.
	BaseRatePrecision decimal.Decimal
	OrderLists        []string

	Funds       map[string]map[AssetKind]decimal.Decimal
	Stakes      map[string]MakerStake
	Orders      map[uint32]Order
	LastOrderID uint32
}

// NewReserve returns a new, not yet initialized, reserve.
func NewReserve(
	address, asset, lister string, burnFeeBps, maxOrdersPerTrade uint32,
	minListingValueUsd decimal.Decimal, contracts ReserveContracts,
) (*Reserve, error) {
	addresses := []*string{
		&address, &asset, &lister, &contracts.GovernanceToken,
		&contracts.Registry, &contracts.Oracle, &contracts.OrderbookFactory,
	}
	for _, addr := range addresses {
		normalized, err := validateAddress(*addr)
		if err != nil {
			return nil, err
		}
		*addr = normalized
	}
	if !isValidBasisPoints(burnFeeBps) {
		return nil, ErrInvalidBurnFeeBps
	}
	if maxOrdersPerTrade <= 1 {
		return nil, ErrInvalidMaxOrdersPerTrade
	}
	if !mathutil.IsWholeAmount(minListingValueUsd) {
		return nil, ErrInvalidMinListingValue
	}

	return &Reserve{
		Address:    address,
		Asset:      asset,
		Lister:     lister,
		BurnFeeBps: burnFeeBps,
		Contracts:  contracts,
		Limits: ReserveLimits{
			MaxOrdersPerTrade:  maxOrdersPerTrade,
			MinListingValueUsd: minListingValueUsd,
		},
		Funds:  make(map[string]map[AssetKind]decimal.Decimal),
		Stakes: make(map[string]MakerStake),
		Orders: make(map[uint32]Order),
	}, nil
}

// IsInitialized ...
func (r *Reserve) IsInitialized() bool {
	return len(r.OrderLists) > 0 && r.BaseRatePrecision.IsPositive()
}

// ValidateInit checks that the reserve can be initialized with the given
// rates and returns the resulting min order size in base asset. It does not
// change the reserve.
func (r *Reserve) ValidateInit(
	baseRate, usdPerBaseAsset decimal.Decimal,
) (decimal.Decimal, error) {
	if r.IsInitialized() {
		return decimal.Zero, ErrReserveAlreadyInitialized
	}
	if !mathutil.IsWholeAmount(baseRate) {
		return decimal.Zero, ErrInvalidRate
	}
	if !mathutil.IsWholeAmount(usdPerBaseAsset) {
		return decimal.Zero, ErrOracleInvalid
	}

	minOrderSize := mathutil.MulDivFloor(
		r.Limits.MinListingValueUsd.Mul(RatePrecision), RatePrecision,
		usdPerBaseAsset,
	)
	if !minOrderSize.IsPositive() {
		return decimal.Zero, ErrOracleInvalid
	}
	return minOrderSize, nil
}

// Init captures the current governance rate as the reserve's base rate and
// derives the min order size from the base asset USD price. Both rates are
// expressed in RatePrecision units.
func (r *Reserve) Init(
	orderLists []string, baseRate, usdPerBaseAsset decimal.Decimal,
) error {
	minOrderSize, err := r.ValidateInit(baseRate, usdPerBaseAsset)
	if err != nil {
		return err
	}
	if len(orderLists) <= 0 {
		return ErrMissingOrderLists
	}

	r.OrderLists = append([]string(nil), orderLists...)
	r.BaseRatePrecision = baseRate
	r.Limits.MinOrderSizeInBaseAsset = minOrderSize
	return nil
}

// Deposit credits the maker's traded or base asset funds.
func (r *Reserve) Deposit(maker string, kind AssetKind, amount decimal.Decimal) error {
	maker, err := validateAddress(maker)
	if err != nil {
		return err
	}
	if !kind.IsValid() {
		return ErrInvalidAssetKind
	}
	if !mathutil.IsWholeAmount(amount) {
		return ErrInvalidAmount
	}

	r.setFunds(maker, kind, r.MakerFunds(maker, kind).Add(amount))
	return nil
}

// DepositStake credits the maker's unlocked governance token stake.
func (r *Reserve) DepositStake(maker string, amount decimal.Decimal) error {
	maker, err := validateAddress(maker)
	if err != nil {
		return err
	}
	if !mathutil.IsWholeAmount(amount) {
		return ErrInvalidAmount
	}

	stake := r.stake(maker)
	stake.Unlocked = stake.Unlocked.Add(amount)
	r.setStake(maker, stake)
	return nil
}

// Withdraw debits the maker's traded or base asset funds.
func (r *Reserve) Withdraw(maker string, kind AssetKind, amount decimal.Decimal) error {
	maker, err := validateAddress(maker)
	if err != nil {
		return err
	}
	if !kind.IsValid() {
		return ErrInvalidAssetKind
	}
	if !mathutil.IsWholeAmount(amount) {
		return ErrInvalidAmount
	}

	funds := r.MakerFunds(maker, kind)
	if funds.LessThan(amount) {
		return ErrInsufficientBalance
	}
	r.setFunds(maker, kind, funds.Sub(amount))
	return nil
}

// WithdrawStake debits the maker's unlocked stake. Locked stake can't be
// withdrawn until the orders it backs are closed.
func (r *Reserve) WithdrawStake(maker string, amount decimal.Decimal) error {
	maker, err := validateAddress(maker)
	if err != nil {
		return err
	}
	if !mathutil.IsWholeAmount(amount) {
		return ErrInvalidAmount
	}

	stake := r.stake(maker)
	if stake.Unlocked.LessThan(amount) {
		return ErrInsufficientStake
	}
	stake.Unlocked = stake.Unlocked.Sub(amount)
	r.setStake(maker, stake)
	return nil
}

// LockStakeForOrder moves the required stake from unlocked to locked.
func (r *Reserve) LockStakeForOrder(maker string, requiredStake decimal.Decimal) error {
	maker, err := validateAddress(maker)
	if err != nil {
		return err
	}
	if requiredStake.IsNegative() {
		return ErrInvalidAmount
	}

	stake := r.stake(maker)
	if stake.Unlocked.LessThan(requiredStake) {
		return ErrInsufficientStake
	}
	stake.Unlocked = stake.Unlocked.Sub(requiredStake)
	stake.Locked = stake.Locked.Add(requiredStake)
	r.setStake(maker, stake)
	return nil
}

// SubmitOrder opens a new order selling srcAmount of base asset for
// dstAmount of traded asset. The stake required to back the order is sized
// with the given current governance rate.
func (r *Reserve) SubmitOrder(
	maker string, srcAmount, dstAmount, currentRate decimal.Decimal,
) (uint32, error) {
	maker, err := validateAddress(maker)
	if err != nil {
		return 0, err
	}
	if !r.IsInitialized() {
		return 0, ErrReserveNotInitialized
	}
	if !mathutil.IsWholeAmount(srcAmount) || !mathutil.IsWholeAmount(dstAmount) {
		return 0, ErrInvalidAmount
	}
	if r.RateDeviationBlocksTrust(currentRate) {
		return 0, ErrRateBlocksTrade
	}
	if srcAmount.LessThan(r.Limits.MinOrderSizeInBaseAsset) {
		return 0, ErrOrderTooSmall
	}
	if r.OpenOrdersCount(maker)+1 > int(r.Limits.MaxOrdersPerTrade) {
		return 0, ErrOrderCountExceeded
	}
	funds := r.MakerFunds(maker, AssetKindBase)
	if funds.LessThan(srcAmount) {
		return 0, ErrInsufficientBalance
	}
	requiredStake := r.RequiredStake(srcAmount, currentRate)
	if r.MakerUnlockedStake(maker).LessThan(requiredStake) {
		return 0, ErrInsufficientStake
	}

	if err := r.LockStakeForOrder(maker, requiredStake); err != nil {
		return 0, err
	}
	r.setFunds(maker, AssetKindBase, funds.Sub(srcAmount))

	r.LastOrderID++
	order := Order{
		ID:        r.LastOrderID,
		Maker:     maker,
		SrcAmount: srcAmount,
		DstAmount: dstAmount,
		Stake:     requiredStake,
	}
	if r.Orders == nil {
		r.Orders = make(map[uint32]Order)
	}
	r.Orders[order.ID] = order
	return order.ID, nil
}

// CancelOrder closes an open order of the maker, refunding the source amount
// and unlocking its stake.
func (r *Reserve) CancelOrder(maker string, orderID uint32) error {
	maker, err := validateAddress(maker)
	if err != nil {
		return err
	}
	order, ok := r.Orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	if order.Maker != maker {
		return ErrNotAuthorized
	}

	r.setFunds(maker, AssetKindBase, r.MakerFunds(maker, AssetKindBase).Add(order.SrcAmount))
	r.releaseStake(maker, order.Stake)
	delete(r.Orders, orderID)
	return nil
}

// TakeOrder fills an open order entirely: the maker is credited with the
// order's traded asset amount and its stake gets unlocked. The returned
// order's source amount is the base asset volume traded.
func (r *Reserve) TakeOrder(orderID uint32) (*Order, error) {
	order, ok := r.Orders[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}

	r.setFunds(
		order.Maker, AssetKindTraded,
		r.MakerFunds(order.Maker, AssetKindTraded).Add(order.DstAmount),
	)
	r.releaseStake(order.Maker, order.Stake)
	delete(r.Orders, orderID)
	return &order, nil
}

// RateDeviationBlocksTrust returns whether the given governance rate moved,
// in either direction, by at least (BurnToStakeFactor + 1) times from the
// reserve's base rate. Once it does, the stake posted by makers no longer
// backs the reserve and it can be unlisted without its cooperation.
func (r *Reserve) RateDeviationBlocksTrust(currentRate decimal.Decimal) bool {
	if !r.BaseRatePrecision.IsPositive() || !currentRate.IsPositive() {
		return false
	}
	base := r.BaseRatePrecision
	return currentRate.GreaterThanOrEqual(base.Mul(trustDeviationBound)) ||
		currentRate.Mul(trustDeviationBound).LessThanOrEqual(base)
}

// BurnAmount returns the governance token amount burned for the given base
// asset value at the given rate.
func (r *Reserve) BurnAmount(value, rate decimal.Decimal) decimal.Decimal {
	bps := decimal.NewFromInt(int64(r.BurnFeeBps))
	return mathutil.MulDivFloor(
		value.Mul(bps), rate, mathutil.TenThousands.Mul(RatePrecision),
	)
}

// RequiredStake returns the stake needed to back an order of the given base
// asset value.
func (r *Reserve) RequiredStake(value, rate decimal.Decimal) decimal.Decimal {
	return r.BurnAmount(value, rate).Mul(burnToStakeFactor)
}

// MakerFunds ...
func (r *Reserve) MakerFunds(maker string, kind AssetKind) decimal.Decimal {
	if funds, ok := r.Funds[NormalizeAddress(maker)]; ok {
		return funds[kind]
	}
	return decimal.Zero
}

// MakerUnlockedStake ...
func (r *Reserve) MakerUnlockedStake(maker string) decimal.Decimal {
	return r.stake(NormalizeAddress(maker)).Unlocked
}

// MakerRequiredStake returns the stake currently locked by the maker's open
// orders.
func (r *Reserve) MakerRequiredStake(maker string) decimal.Decimal {
	return r.stake(NormalizeAddress(maker)).Locked
}

// MakerOrders returns the open orders of the maker sorted by id.
func (r *Reserve) MakerOrders(maker string) []Order {
	maker = NormalizeAddress(maker)
	orders := make([]Order, 0)
	for _, o := range r.Orders {
		if o.Maker == maker {
			orders = append(orders, o)
		}
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].ID < orders[j].ID
	})
	return orders
}

// OpenOrdersCount ...
func (r *Reserve) OpenOrdersCount(maker string) int {
	return len(r.MakerOrders(maker))
}

// Clone returns a deep copy of the reserve.
func (r *Reserve) Clone() *Reserve {
	c := *r
	c.OrderLists = append([]string(nil), r.OrderLists...)
	c.Funds = make(map[string]map[AssetKind]decimal.Decimal, len(r.Funds))
	for maker, funds := range r.Funds {
		m := make(map[AssetKind]decimal.Decimal, len(funds))
		for kind, amount := range funds {
			m[kind] = amount
		}
		c.Funds[maker] = m
	}
	c.Stakes = make(map[string]MakerStake, len(r.Stakes))
	for maker, stake := range r.Stakes {
		c.Stakes[maker] = stake
	}
	c.Orders = make(map[uint32]Order, len(r.Orders))
	for id, order := range r.Orders {
		c.Orders[id] = order
	}
	return &c
}

func (r *Reserve) stake(maker string) MakerStake {
	return r.Stakes[maker]
}

func (r *Reserve) setStake(maker string, stake MakerStake) {
	if r.Stakes == nil {
		r.Stakes = make(map[string]MakerStake)
	}
	r.Stakes[maker] = stake
}

func (r *Reserve) setFunds(maker string, kind AssetKind, amount decimal.Decimal) {
	if r.Funds == nil {
		r.Funds = make(map[string]map[AssetKind]decimal.Decimal)
	}
	if r.Funds[maker] == nil {
		r.Funds[maker] = make(map[AssetKind]decimal.Decimal)
	}
	r.Funds[maker][kind] = amount
}

func (r *Reserve) releaseStake(maker string, amount decimal.Decimal) {
	stake := r.stake(maker)
	if stake.Locked.LessThan(amount) {
		amount = stake.Locked
	}
	stake.Locked = stake.Locked.Sub(amount)
	stake.Unlocked = stake.Unlocked.Add(amount)
	r.setStake(maker, stake)
}

func isValidBasisPoints(bps uint32) bool {
	return bps < MaxBasisPoints
}
