package application_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/reserve-lister/internal/core/application"
	"github.com/tdex-network/reserve-lister/internal/core/domain"
)

const (
	listerAddress    = "0x1010101010101010101010101010101010101010"
	adminAddress     = "0x7070707070707070707070707070707070707070"
	registryAddress  = "0x4040404040404040404040404040404040404040"
	factoryAddress   = "0x5050505050505050505050505050505050505050"
	priceOracleAddr  = "0x6060606060606060606060606060606060606060"
	rateOracleAddr   = "0x6161616161616161616161616161616161616161"
	governanceToken  = "0x8080808080808080808080808080808080808080"
	asset            = "0x1111111111111111111111111111111111111111"
	unsupportedAsset = "0x9191919191919191919191919191919191919191"
	maker            = "0x2121212121212121212121212121212121212121"
	orderList        = "0x3131313131313131313131313131313131313131"
	zeroAddress      = "0x0000000000000000000000000000000000000000"
)

var (
	ctx = context.Background()

	// 600 governance tokens per unit of base asset.
	baseRate = units(600)
	// 200 USD per unit of base asset.
	usdPrice = units(200)
	// 1000 USD at 200 USD per unit.
	minOrderSize = units(5)
)

func units(v int64) decimal.Decimal {
	return decimal.NewFromInt(v).Mul(domain.RatePrecision)
}

type testServices struct {
	registry    *mockNetworkRegistry
	factory     *mockOrderbookFactory
	priceOracle *mockRateOracle
	rateOracle  *mockRateOracle

	lister    application.ListerService
	reserve   application.ReserveService
	feeLedger application.FeeLedgerService
}

// newTestServices returns services wired to mocked collaborators that
// accept every request. The fee ledger is created with baseRate and the
// lister is one of its operators.
func newTestServices(t *testing.T) *testServices {
	registry := &mockNetworkRegistry{}
	registry.On("Address").Return(registryAddress)
	registry.On("IsOperator", mock.Anything, listerAddress).Return(true, nil)
	registry.On(
		"ListReserve", mock.Anything, listerAddress, asset, mock.Anything,
	).Return(nil)
	registry.On(
		"DelistReserve", mock.Anything, listerAddress, asset, mock.Anything, 0,
	).Return(nil)

	factory := &mockOrderbookFactory{}
	factory.On("Address").Return(factoryAddress)
	factory.On("NewOrderList", mock.Anything, mock.Anything).Return(orderList, nil)

	priceOracle := &mockRateOracle{}
	priceOracle.On("Address").Return(priceOracleAddr)
	priceOracle.On("CurrentRate", mock.Anything).Return(usdPrice, true)

	rateOracle := &mockRateOracle{}
	rateOracle.On("Address").Return(rateOracleAddr)
	rateOracle.On("CurrentRate", mock.Anything).Return(baseRate, true).Once()

	cfg := &application.Config{
		DBType:       application.DBInMemory,
		AdminAddress: adminAddress,
		RateOracle:   rateOracle,
		Lister: application.ListerConfig{
			Address:            listerAddress,
			Registry:           registry,
			OrderbookFactory:   factory,
			PriceOracle:        priceOracle,
			GovernanceToken:    governanceToken,
			UnsupportedAssets:  []string{unsupportedAsset},
			MaxOrdersPerTrade:  5,
			MinListingValueUsd: decimal.NewFromInt(1000),
		},
	}
	require.NoError(t, cfg.Validate())

	feeLedger := cfg.FeeLedgerService()
	require.NoError(t, feeLedger.Init(ctx))
	require.NoError(t, feeLedger.AddOperator(ctx, adminAddress, listerAddress))

	return &testServices{
		registry:    registry,
		factory:     factory,
		priceOracle: priceOracle,
		rateOracle:  rateOracle,
		lister:      cfg.ListerService(),
		reserve:     cfg.ReserveService(),
		feeLedger:   feeLedger,
	}
}

// listAsset brings the asset to stage LISTED and returns its reserve.
func (s *testServices) listAsset(t *testing.T) string {
	reserve, err := s.lister.AddAsset(ctx, asset)
	require.NoError(t, err)
	require.NoError(t, s.lister.InitAsset(ctx, asset))
	require.NoError(t, s.lister.ListAsset(ctx, asset))
	return reserve
}

// moveRate makes the rate oracle report the given rate once and refreshes
// the fee ledger cached rate.
func (s *testServices) moveRate(t *testing.T, rate decimal.Decimal) {
	s.rateOracle.On("CurrentRate", mock.Anything).Return(rate, true).Once()
	_, err := s.feeLedger.RefreshRate(ctx)
	require.NoError(t, err)
}

func requireStage(
	t *testing.T, svc application.ListerService,
	expectedReserve string, expectedStage domain.ListingStage,
) {
	reserve, stage, err := svc.QueryStage(ctx, asset)
	require.NoError(t, err)
	require.Equal(t, expectedReserve, reserve)
	require.Equal(t, expectedStage, stage)
}
