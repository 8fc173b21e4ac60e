package httpinterface

import (
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
	"github.com/tdex-network/reserve-lister/internal/core/application"
	"github.com/tdex-network/reserve-lister/internal/core/domain"
	"github.com/tdex-network/reserve-lister/pkg/mathutil"
)

var assetKinds = map[string]domain.AssetKind{
	domain.AssetKindTraded.String(): domain.AssetKindTraded,
	domain.AssetKindBase.String():   domain.AssetKindBase,
}

func validateAddress(value interface{}) error {
	addr, _ := value.(string)
	if !domain.IsValidAddress(addr) {
		return errors.New("must be a valid non-zero hex address")
	}
	return nil
}

func validateAmount(value interface{}) error {
	amount, _ := value.(decimal.Decimal)
	if !mathutil.IsWholeAmount(amount) {
		return errors.New("must be a positive integer amount")
	}
	return nil
}

func validateAssetKind(value interface{}) error {
	kind, _ := value.(string)
	if _, ok := assetKinds[kind]; !ok {
		return fmt.Errorf("must be one of %s, %s", domain.AssetKindTraded, domain.AssetKindBase)
	}
	return nil
}

type fundsRequest struct {
	Kind   string          `json:"kind"`
	Amount decimal.Decimal `json:"amount"`
}

func (r *fundsRequest) validate() error {
	return validation.ValidateStruct(
		r,
		validation.Field(&r.Kind, validation.By(validateAssetKind)),
		validation.Field(&r.Amount, validation.By(validateAmount)),
	)
}

type stakeRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (r *stakeRequest) validate() error {
	return validation.ValidateStruct(
		r,
		validation.Field(&r.Amount, validation.By(validateAmount)),
	)
}

type orderRequest struct {
	SrcAmount decimal.Decimal `json:"src_amount"`
	DstAmount decimal.Decimal `json:"dst_amount"`
}

func (r *orderRequest) validate() error {
	return validation.ValidateStruct(
		r,
		validation.Field(&r.SrcAmount, validation.By(validateAmount)),
		validation.Field(&r.DstAmount, validation.By(validateAmount)),
	)
}

type operatorRequest struct {
	Operator string `json:"operator"`
}

func (r *operatorRequest) validate() error {
	return validation.ValidateStruct(
		r,
		validation.Field(&r.Operator, validation.By(validateAddress)),
	)
}

type webhookRequest struct {
	Topic    string `json:"topic"`
	Endpoint string `json:"endpoint"`
	Secret   string `json:"secret"`
}

func (r *webhookRequest) validate() error {
	return validation.ValidateStruct(
		r,
		validation.Field(&r.Topic, validation.Required),
		validation.Field(&r.Endpoint, validation.Required),
	)
}

type listingResponse struct {
	Asset        string   `json:"asset"`
	Reserve      string   `json:"reserve"`
	Stage        string   `json:"stage"`
	PastReserves []string `json:"past_reserves"`
}

func newListingResponse(l domain.Listing) listingResponse {
	pastReserves := l.PastReserves
	if pastReserves == nil {
		pastReserves = []string{}
	}
	return listingResponse{
		Asset:        l.Asset,
		Reserve:      l.Reserve,
		Stage:        l.Stage.String(),
		PastReserves: pastReserves,
	}
}

type listerResponse struct {
	Address            string   `json:"address"`
	Registry           string   `json:"registry"`
	OrderbookFactory   string   `json:"orderbook_factory"`
	PriceOracle        string   `json:"price_oracle"`
	GovernanceToken    string   `json:"governance_token"`
	UnsupportedAssets  []string `json:"unsupported_assets"`
	BurnFeeBps         uint32   `json:"burn_fee_bps"`
	MaxOrdersPerTrade  uint32   `json:"max_orders_per_trade"`
	MinListingValueUsd string   `json:"min_listing_value_usd"`
}

func newListerResponse(info application.ListerInfo) listerResponse {
	return listerResponse{
		Address:            info.Address,
		Registry:           info.Registry,
		OrderbookFactory:   info.OrderbookFactory,
		PriceOracle:        info.PriceOracle,
		GovernanceToken:    info.GovernanceToken,
		UnsupportedAssets:  info.UnsupportedAssets,
		BurnFeeBps:         info.BurnFeeBps,
		MaxOrdersPerTrade:  info.MaxOrdersPerTrade,
		MinListingValueUsd: info.MinListingValueUsd.String(),
	}
}

type orderResponse struct {
	ID        uint32 `json:"id"`
	Maker     string `json:"maker"`
	SrcAmount string `json:"src_amount"`
	DstAmount string `json:"dst_amount"`
	Stake     string `json:"stake"`
}

func newOrderResponse(o domain.Order) orderResponse {
	return orderResponse{
		ID:        o.ID,
		Maker:     o.Maker,
		SrcAmount: o.SrcAmount.String(),
		DstAmount: o.DstAmount.String(),
		Stake:     o.Stake.String(),
	}
}

type makerResponse struct {
	TradedFunds   string          `json:"traded_funds"`
	BaseFunds     string          `json:"base_funds"`
	LockedStake   string          `json:"locked_stake"`
	UnlockedStake string          `json:"unlocked_stake"`
	Orders        []orderResponse `json:"orders"`
}

type reserveResponse struct {
	Address                 string                   `json:"address"`
	Asset                   string                   `json:"asset"`
	Lister                  string                   `json:"lister"`
	BurnFeeBps              uint32                   `json:"burn_fee_bps"`
	GovernanceToken         string                   `json:"governance_token"`
	Registry                string                   `json:"registry"`
	Oracle                  string                   `json:"oracle"`
	OrderbookFactory        string                   `json:"orderbook_factory"`
	MaxOrdersPerTrade       uint32                   `json:"max_orders_per_trade"`
	MinListingValueUsd      string                   `json:"min_listing_value_usd"`
	MinOrderSizeInBaseAsset string                   `json:"min_order_size_in_base_asset"`
	BaseRatePrecision       string                   `json:"base_rate_precision"`
	OrderLists              []string                 `json:"order_lists"`
	Makers                  map[string]makerResponse `json:"makers"`
}

func newReserveResponse(r domain.Reserve) reserveResponse {
	makers := make(map[string]makerResponse)
	addMaker := func(maker string) {
		if _, ok := makers[maker]; ok {
			return
		}
		orders := make([]orderResponse, 0)
		for _, o := range r.MakerOrders(maker) {
			orders = append(orders, newOrderResponse(o))
		}
		makers[maker] = makerResponse{
			TradedFunds:   r.MakerFunds(maker, domain.AssetKindTraded).String(),
			BaseFunds:     r.MakerFunds(maker, domain.AssetKindBase).String(),
			LockedStake:   r.MakerRequiredStake(maker).String(),
			UnlockedStake: r.MakerUnlockedStake(maker).String(),
			Orders:        orders,
		}
	}
	for maker := range r.Funds {
		addMaker(maker)
	}
	for maker := range r.Stakes {
		addMaker(maker)
	}

	orderLists := r.OrderLists
	if orderLists == nil {
		orderLists = []string{}
	}
	return reserveResponse{
		Address:                 r.Address,
		Asset:                   r.Asset,
		Lister:                  r.Lister,
		BurnFeeBps:              r.BurnFeeBps,
		GovernanceToken:         r.Contracts.GovernanceToken,
		Registry:                r.Contracts.Registry,
		Oracle:                  r.Contracts.Oracle,
		OrderbookFactory:        r.Contracts.OrderbookFactory,
		MaxOrdersPerTrade:       r.Limits.MaxOrdersPerTrade,
		MinListingValueUsd:      r.Limits.MinListingValueUsd.String(),
		MinOrderSizeInBaseAsset: r.Limits.MinOrderSizeInBaseAsset.String(),
		BaseRatePrecision:       r.BaseRatePrecision.String(),
		OrderLists:              orderLists,
		Makers:                  makers,
	}
}

type trustResponse struct {
	Reserve     string `json:"reserve"`
	BaseRate    string `json:"base_rate"`
	CurrentRate string `json:"current_rate"`
	Blocked     bool   `json:"blocked"`
}

type reserveFeesResponse struct {
	BurnFeeBps    uint32 `json:"burn_fee_bps"`
	AccruedVolume string `json:"accrued_volume"`
	TotalBurned   string `json:"total_burned"`
}

type feeLedgerResponse struct {
	Admin         string                         `json:"admin"`
	Operators     []string                       `json:"operators"`
	CachedRate    string                         `json:"cached_rate"`
	RateUpdatedAt string                         `json:"rate_updated_at"`
	Reserves      map[string]reserveFeesResponse `json:"reserves"`
}

func newFeeLedgerResponse(l domain.FeeLedger) feeLedgerResponse {
	reserves := make(map[string]reserveFeesResponse)
	for addr, data := range l.Reserves {
		reserves[addr] = reserveFeesResponse{
			BurnFeeBps:    data.BurnFeeBps,
			AccruedVolume: data.AccruedVolume.String(),
			TotalBurned:   data.TotalBurned.String(),
		}
	}
	return feeLedgerResponse{
		Admin:         l.Admin,
		Operators:     l.ListOperators(),
		CachedRate:    l.CachedRate.String(),
		RateUpdatedAt: time.Unix(l.RateUpdatedAt, 0).UTC().Format(time.RFC3339),
		Reserves:      reserves,
	}
}

type burnResponse struct {
	ID      string `json:"id"`
	Reserve string `json:"reserve"`
	Amount  string `json:"amount"`
	Volume  string `json:"volume"`
	Rate    string `json:"rate"`
	Date    string `json:"date"`
}

func newBurnResponse(b domain.Burn) burnResponse {
	return burnResponse{
		ID:      b.ID,
		Reserve: b.Reserve,
		Amount:  b.Amount.String(),
		Volume:  b.Volume.String(),
		Rate:    b.Rate.String(),
		Date:    time.Unix(b.Timestamp, 0).UTC().Format(time.RFC3339),
	}
}

type webhookResponse struct {
	ID       string `json:"id"`
	Topic    string `json:"topic"`
	Endpoint string `json:"endpoint"`
	Secured  bool   `json:"secured"`
}
