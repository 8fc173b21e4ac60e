package application_test

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// **** Oracle ****

type mockRateOracle struct {
	mock.Mock
}

func (m *mockRateOracle) Address() string {
	args := m.Called()
	return args.String(0)
}

func (m *mockRateOracle) CurrentRate(ctx context.Context) (decimal.Decimal, bool) {
	args := m.Called(ctx)

	var res decimal.Decimal
	if a := args.Get(0); a != nil {
		res = a.(decimal.Decimal)
	}
	return res, args.Bool(1)
}

// **** Network registry ****

type mockNetworkRegistry struct {
	mock.Mock
}

func (m *mockNetworkRegistry) Address() string {
	args := m.Called()
	return args.String(0)
}

func (m *mockNetworkRegistry) IsOperator(
	ctx context.Context, identity string,
) (bool, error) {
	args := m.Called(ctx, identity)
	return args.Bool(0), args.Error(1)
}

func (m *mockNetworkRegistry) ListReserve(
	ctx context.Context, caller, asset, reserve string,
) error {
	args := m.Called(ctx, caller, asset, reserve)
	return args.Error(0)
}

func (m *mockNetworkRegistry) DelistReserve(
	ctx context.Context, caller, asset, reserve string, index int,
) error {
	args := m.Called(ctx, caller, asset, reserve, index)
	return args.Error(0)
}

// **** Order book factory ****

type mockOrderbookFactory struct {
	mock.Mock
}

func (m *mockOrderbookFactory) Address() string {
	args := m.Called()
	return args.String(0)
}

func (m *mockOrderbookFactory) NewOrderList(
	ctx context.Context, owner string,
) (string, error) {
	args := m.Called(ctx, owner)
	return args.String(0), args.Error(1)
}
