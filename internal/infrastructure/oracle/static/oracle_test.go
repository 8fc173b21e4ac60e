package staticoracle_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	staticoracle "github.com/tdex-network/reserve-lister/internal/infrastructure/oracle/static"
)

func TestOracle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	o := staticoracle.NewOracle("0x6666666666666666666666666666666666666666", decimal.Zero)
	_, valid := o.CurrentRate(ctx)
	require.False(t, valid)

	o.SetRate(decimal.NewFromInt(600))
	rate, valid := o.CurrentRate(ctx)
	require.True(t, valid)
	require.True(t, rate.Equal(decimal.NewFromInt(600)))

	o.Invalidate()
	rate, valid = o.CurrentRate(ctx)
	require.False(t, valid)
	require.True(t, rate.Equal(decimal.NewFromInt(600)))
}
