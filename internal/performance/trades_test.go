package performance

import (
	"math"
	"testing"

	"github.com/guyghost/backtestcore/internal/order"
	"github.com/guyghost/backtestcore/internal/testutils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filledOrder(id string, side order.Side, realized, commission float64) order.Order {
	closed := decimal.Zero
	if realized != 0 {
		closed = decimal.NewFromInt(10)
	}
	return order.Order{
		ID:             id,
		Timestamp:      day0,
		Symbol:         "AAPL",
		Side:           side,
		Quantity:       decimal.NewFromInt(10),
		Price:          decimal.NewFromInt(100),
		Status:         order.StatusFilled,
		FilledQuantity: decimal.NewFromInt(10),
		FilledPrice:    decimal.NewFromInt(100),
		Commission:     decimal.NewFromFloat(commission),
		RealizedPnL:    decimal.NewFromFloat(realized),
		ClosedQuantity: closed,
	}
}

func TestTradesFromOrders(t *testing.T) {
	pending := filledOrder("order_3", order.SideBuy, 500, 1)
	pending.Status = order.StatusPending

	orders := []order.Order{
		filledOrder("order_1", order.SideBuy, 0, 1),
		filledOrder("order_2", order.SideSell, 1000, 10),
		pending,
		filledOrder("order_4", order.SideBuy, -200, 5),
	}

	trades := TradesFromOrders(orders)
	require.Len(t, trades, 2)

	assert.Equal(t, "order_2", trades[0].ID)
	assert.Equal(t, "SELL", trades[0].Side)
	assert.InDelta(t, 990.0, trades[0].PnL, 1e-9)
	assert.InDelta(t, 990.0, trades[0].CumulativePnL, 1e-9)

	assert.Equal(t, "order_4", trades[1].ID)
	assert.InDelta(t, -205.0, trades[1].PnL, 1e-9)
	assert.InDelta(t, 785.0, trades[1].CumulativePnL, 1e-9)
}

func TestTradesFromOrders_BreakEvenClose(t *testing.T) {
	open := filledOrder("order_1", order.SideBuy, 0, 0.1)
	closing := filledOrder("order_2", order.SideSell, 0, 0.1)
	closing.ClosedQuantity = closing.FilledQuantity

	trades := TradesFromOrders([]order.Order{open, closing})
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	testutils.AssertEqual(t, "order_2", trades[0].ID, "trade id")
	testutils.AssertTrue(t, math.Abs(trades[0].PnL+0.1) < 1e-12, "break-even close loses its commission")

	stats := TradeStatistics(trades)
	testutils.AssertEqual(t, 1, stats.LosingTrades, "losing trades")
	testutils.AssertEqual(t, 0, stats.WinningTrades, "winning trades")
	testutils.AssertEqual(t, 0.0, stats.WinRate, "win rate")
	testutils.AssertEqual(t, Ratio(0), stats.ProfitFactor, "profit factor")
	testutils.AssertTrue(t, math.Abs(stats.AvgLoss-0.1) < 1e-12, "average loss")
}

func tradesWithPnL(pnls ...float64) []Trade {
	trades := make([]Trade, len(pnls))
	for i, p := range pnls {
		trades[i] = Trade{PnL: p, Commission: 1}
	}
	return trades
}

func TestTradeStatistics(t *testing.T) {
	t.Run("mixed", func(t *testing.T) {
		s := TradeStatistics(tradesWithPnL(100, -50, 200, -25, -25))
		assert.Equal(t, 5, s.TotalTrades)
		assert.Equal(t, 2, s.WinningTrades)
		assert.Equal(t, 3, s.LosingTrades)
		assert.InDelta(t, 0.4, s.WinRate, 1e-12)
		assert.InDelta(t, 150.0, s.AvgWin, 1e-12)
		assert.InDelta(t, 100.0/3, s.AvgLoss, 1e-12)
		assert.Equal(t, 200.0, s.LargestWin)
		assert.Equal(t, 50.0, s.LargestLoss)
		assert.InDelta(t, 3.0, s.ProfitFactor.Float64(), 1e-12)
		assert.InDelta(t, 200.0, s.NetPnL, 1e-12)
		assert.InDelta(t, 5.0, s.TotalCommission, 1e-12)
		assert.Equal(t, 2, s.MaxConsecutiveLosses)
	})

	t.Run("only winners", func(t *testing.T) {
		s := TradeStatistics(tradesWithPnL(10, 20))
		assert.True(t, math.IsInf(s.ProfitFactor.Float64(), 1))
		assert.Equal(t, 1.0, s.WinRate)
	})

	t.Run("no trades", func(t *testing.T) {
		s := TradeStatistics(nil)
		assert.Equal(t, 0, s.TotalTrades)
		assert.Equal(t, Ratio(0), s.ProfitFactor)
		assert.Equal(t, 0.0, s.WinRate)
	})
}
