package execution

import (
	"errors"
	"testing"
	"time"

	"github.com/guyghost/backtestcore/internal/ledger"
	"github.com/guyghost/backtestcore/internal/order"
	ordererrors "github.com/guyghost/backtestcore/internal/order/errors"
	"github.com/guyghost/backtestcore/internal/strategy"
	"github.com/guyghost/backtestcore/internal/testutils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ts = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func newAccountant(t *testing.T, capital float64) *Accountant {
	t.Helper()
	l, err := ledger.New(decimal.NewFromFloat(capital))
	require.NoError(t, err)
	return NewAccountant(l)
}

func signal(kind strategy.SignalType, price float64) strategy.Signal {
	return strategy.Signal{
		Timestamp:  ts,
		Symbol:     "BTCUSDT",
		Type:       kind,
		Price:      decimal.NewFromFloat(price),
		Confidence: 0.8,
	}
}

func mustPlace(t *testing.T, d order.Decision) order.Order {
	t.Helper()
	o, ok := d.Order()
	require.True(t, ok, "expected an order, got no order: %s", d.Reason())
	return o
}

func TestPlaceOrder_Hold(t *testing.T) {
	a := newAccountant(t, 100000)

	d := a.PlaceOrder(signal(strategy.SignalHold, 45000), 0.1, a.Ledger().Cash())
	assert.Equal(t, order.KindNoOrder, d.Kind())
	assert.Equal(t, ReasonHold, d.Reason())
}

func TestPlaceOrder_BuySizingScenario(t *testing.T) {
	a := newAccountant(t, 100000)
	commissionRate := decimal.NewFromFloat(0.001)

	o := mustPlace(t, a.PlaceOrder(signal(strategy.SignalBuy, 45000), 0.1, a.Ledger().Cash()))
	assert.Equal(t, "order_1", o.ID)
	assert.Equal(t, order.SideBuy, o.Side)
	assert.Equal(t, order.StatusPending, o.Status)
	testutils.AssertDecimalNear(t, 100000*0.1/45000, o.Quantity, 1e-12, "quantity")

	filled, err := a.Execute(o, decimal.NewFromInt(45000), commissionRate)
	require.NoError(t, err)

	assert.Equal(t, order.StatusFilled, filled.Status)
	testutils.AssertDecimalNear(t, 10.0, filled.Commission, 1e-9, "commission")
	testutils.AssertDecimalNear(t, 89990.0, a.Ledger().Cash(), 1e-9, "cash after fill")
	assert.True(t, filled.RealizedPnL.IsZero())
}

func TestPlaceOrder_NoPyramiding(t *testing.T) {
	a := newAccountant(t, 100000)
	o := mustPlace(t, a.PlaceOrder(signal(strategy.SignalBuy, 100), 0.1, a.Ledger().Cash()))
	_, err := a.Execute(o, decimal.NewFromInt(100), decimal.Zero)
	require.NoError(t, err)

	d := a.PlaceOrder(signal(strategy.SignalBuy, 100), 0.1, a.Ledger().Cash())
	assert.Equal(t, order.KindNoOrder, d.Kind())
	assert.Equal(t, ReasonAlreadyLong, d.Reason())
}

func TestPlaceOrder_SellClosesWholeLong(t *testing.T) {
	a := newAccountant(t, 100000)
	_, err := a.Ledger().ApplyFill("BTCUSDT", order.SideBuy, decimal.NewFromInt(1), decimal.NewFromInt(45000), decimal.Zero)
	require.NoError(t, err)
	before := a.Ledger().Cash()

	o := mustPlace(t, a.PlaceOrder(signal(strategy.SignalSell, 46000), 0.1, a.Ledger().Cash()))
	assert.True(t, o.Quantity.Equal(decimal.NewFromInt(1)), "full close ignores sizing")

	filled, err := a.Execute(o, decimal.NewFromInt(46000), decimal.NewFromFloat(0.001))
	require.NoError(t, err)

	testutils.AssertDecimalNear(t, 46, filled.Commission, 1e-9, "commission")
	testutils.AssertDecimalNear(t, 1000, filled.RealizedPnL, 1e-9, "realized")
	testutils.AssertDecimalNear(t, 46954, a.Ledger().Cash().Sub(before), 1e-9, "cash increase")

	pos, _ := a.Ledger().Position("BTCUSDT")
	assert.True(t, pos.IsFlat())
}

func TestPlaceOrder_SellWhenFlatOpensShort(t *testing.T) {
	a := newAccountant(t, 10000)

	o := mustPlace(t, a.PlaceOrder(signal(strategy.SignalSell, 100), 0.5, a.Ledger().Cash()))
	assert.Equal(t, order.SideSell, o.Side)
	assert.True(t, o.Quantity.Equal(decimal.NewFromInt(50)))

	_, err := a.Execute(o, decimal.NewFromInt(100), decimal.Zero)
	require.NoError(t, err)

	pos, _ := a.Ledger().Position("BTCUSDT")
	assert.True(t, pos.Quantity.Equal(decimal.NewFromInt(-50)))
}

func TestPlaceOrder_BuyAgainstShortFlips(t *testing.T) {
	a := newAccountant(t, 10000)
	_, err := a.Ledger().ApplyFill("BTCUSDT", order.SideSell, decimal.NewFromInt(10), decimal.NewFromInt(100), decimal.Zero)
	require.NoError(t, err)

	// 11000 cash * 0.2 / 100 = 22 units, covers 10 and opens 12 long
	o := mustPlace(t, a.PlaceOrder(signal(strategy.SignalBuy, 100), 0.2, a.Ledger().Cash()))
	assert.True(t, o.Quantity.Equal(decimal.NewFromInt(22)))

	_, err = a.Execute(o, decimal.NewFromInt(100), decimal.Zero)
	require.NoError(t, err)

	pos, _ := a.Ledger().Position("BTCUSDT")
	assert.True(t, pos.Quantity.Equal(decimal.NewFromInt(12)))
	assert.True(t, pos.AvgPrice.Equal(decimal.NewFromInt(100)))
}

func TestPlaceOrder_InvalidInputs(t *testing.T) {
	a := newAccountant(t, 10000)

	d := a.PlaceOrder(signal(strategy.SignalBuy, 0), 0.1, a.Ledger().Cash())
	assert.Equal(t, ReasonInvalidPrice, d.Reason())

	d = a.PlaceOrder(signal(strategy.SignalBuy, 100), 0.1, decimal.Zero)
	assert.Equal(t, ReasonZeroQuantity, d.Reason())

	assert.Empty(t, a.Orders())
}

func TestCloseOrder(t *testing.T) {
	a := newAccountant(t, 10000)

	d := a.CloseOrder("BTCUSDT", ts, decimal.NewFromInt(100), "stop loss")
	assert.Equal(t, ReasonFlat, d.Reason())

	_, err := a.Ledger().ApplyFill("BTCUSDT", order.SideSell, decimal.NewFromInt(3), decimal.NewFromInt(100), decimal.Zero)
	require.NoError(t, err)

	o := mustPlace(t, a.CloseOrder("BTCUSDT", ts, decimal.NewFromInt(90), "take profit"))
	assert.Equal(t, order.SideBuy, o.Side)
	assert.True(t, o.Quantity.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, "take profit", o.Reason)

	_, err = a.Execute(o, decimal.NewFromInt(90), decimal.Zero)
	require.NoError(t, err)
	pos, _ := a.Ledger().Position("BTCUSDT")
	assert.True(t, pos.IsFlat())
	assert.True(t, pos.RealizedPnL.Equal(decimal.NewFromInt(30)))
}

func TestExecute_Errors(t *testing.T) {
	a := newAccountant(t, 10000)
	o := mustPlace(t, a.PlaceOrder(signal(strategy.SignalBuy, 100), 0.1, a.Ledger().Cash()))

	_, err := a.Execute(o, decimal.Zero, decimal.Zero)
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrInvalidPrice)
	var oe *ordererrors.OrderError
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, ordererrors.OperationFill, oe.Op)
	assert.Empty(t, a.Orders(), "failed fills are not logged")

	filled, err := a.Execute(o, decimal.NewFromInt(100), decimal.Zero)
	require.NoError(t, err)

	_, err = a.Execute(filled, decimal.NewFromInt(100), decimal.Zero)
	assert.ErrorIs(t, err, ErrNotPending)
	assert.Len(t, a.Orders(), 1)
}

func TestOrders_IsACopy(t *testing.T) {
	a := newAccountant(t, 10000)
	o := mustPlace(t, a.PlaceOrder(signal(strategy.SignalBuy, 100), 0.1, a.Ledger().Cash()))
	_, err := a.Execute(o, decimal.NewFromInt(100), decimal.Zero)
	require.NoError(t, err)

	orders := a.Orders()
	orders[0].Status = order.StatusPending
	assert.Equal(t, order.StatusFilled, a.Orders()[0].Status)
}

func TestReset_RestoresFreshState(t *testing.T) {
	a := newAccountant(t, 10000)
	fresh := newAccountant(t, 10000)

	o := mustPlace(t, a.PlaceOrder(signal(strategy.SignalSell, 100), 0.1, a.Ledger().Cash()))
	_, err := a.Execute(o, decimal.NewFromInt(100), decimal.NewFromFloat(0.001))
	require.NoError(t, err)

	a.Reset()
	assert.Equal(t, fresh, a)

	o = mustPlace(t, a.PlaceOrder(signal(strategy.SignalBuy, 100), 0.1, a.Ledger().Cash()))
	assert.Equal(t, "order_1", o.ID, "id sequence restarts")
}

func TestExecute_ClosedQuantity(t *testing.T) {
	a := newAccountant(t, 100000)
	rate := decimal.NewFromFloat(0.001)

	open := mustPlace(t, a.PlaceOrder(signal(strategy.SignalBuy, 100), 0.1, a.Ledger().Cash()))
	filled, err := a.Execute(open, decimal.NewFromInt(100), rate)
	testutils.AssertNoError(t, err, "open")
	testutils.AssertFalse(t, filled.IsClosing(), "opening fill is not closing")

	closing := mustPlace(t, a.PlaceOrder(signal(strategy.SignalSell, 100), 0.1, a.Ledger().Cash()))
	filled, err = a.Execute(closing, decimal.NewFromInt(100), rate)
	testutils.AssertNoError(t, err, "close")
	testutils.AssertTrue(t, filled.RealizedPnL.IsZero(), "close at entry realizes nothing")
	testutils.AssertTrue(t, filled.IsClosing(), "close at entry is still a closing fill")
	testutils.AssertDecimalNear(t, 100, filled.ClosedQuantity, 1e-9, "closed quantity")

	// short 100, then a larger buy covers 100 and opens the rest long
	_, err = a.Ledger().ApplyFill("BTCUSDT", order.SideSell, decimal.NewFromInt(100), decimal.NewFromInt(100), decimal.Zero)
	testutils.AssertNoError(t, err, "open short")
	flip := order.Order{ID: "flip", Symbol: "BTCUSDT", Side: order.SideBuy, Quantity: decimal.NewFromInt(150), Status: order.StatusPending}
	filled, err = a.Execute(flip, decimal.NewFromInt(90), decimal.Zero)
	testutils.AssertNoError(t, err, "flip")
	testutils.AssertDecimalNear(t, 100, filled.ClosedQuantity, 1e-9, "flip closes the held quantity")
}
