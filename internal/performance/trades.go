package performance

import (
	"math"
	"time"

	"github.com/guyghost/backtestcore/internal/order"
)

// Trade is a fill that reduced a position. PnL is the P&L it realized net of
// that fill's commission.
type Trade struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	Symbol        string    `json:"symbol"`
	Side          string    `json:"side"`
	Quantity      float64   `json:"quantity"`
	Price         float64   `json:"price"`
	Commission    float64   `json:"commission"`
	PnL           float64   `json:"pnl"`
	CumulativePnL float64   `json:"cumulative_pnl"`
}

// TradesFromOrders builds the trade log from filled orders. Fills that only
// opened or added to a position are not trades; a close at the entry price
// is, and loses its commission.
func TradesFromOrders(orders []order.Order) []Trade {
	var trades []Trade
	cumulative := 0.0
	for _, o := range orders {
		if !o.IsClosing() {
			continue
		}
		pnl := o.RealizedPnL.Sub(o.Commission).InexactFloat64()
		cumulative += pnl
		trades = append(trades, Trade{
			ID:            o.ID,
			Timestamp:     o.Timestamp,
			Symbol:        o.Symbol,
			Side:          string(o.Side),
			Quantity:      o.FilledQuantity.InexactFloat64(),
			Price:         o.FilledPrice.InexactFloat64(),
			Commission:    o.Commission.InexactFloat64(),
			PnL:           pnl,
			CumulativePnL: cumulative,
		})
	}
	return trades
}

// TradeStats summarizes a trade log
type TradeStats struct {
	TotalTrades          int     `json:"total_trades"`
	WinningTrades        int     `json:"winning_trades"`
	LosingTrades         int     `json:"losing_trades"`
	WinRate              float64 `json:"win_rate"`
	AvgWin               float64 `json:"avg_win"`
	AvgLoss              float64 `json:"avg_loss"` // positive magnitude
	LargestWin           float64 `json:"largest_win"`
	LargestLoss          float64 `json:"largest_loss"` // positive magnitude
	ProfitFactor         Ratio   `json:"profit_factor"`
	NetPnL               float64 `json:"net_pnl"`
	TotalCommission      float64 `json:"total_commission"`
	MaxConsecutiveLosses int     `json:"max_consecutive_losses"`
}

// TradeStatistics computes win rate, profit factor and averages. Profit
// factor reads +Inf with wins and no losses, and 0 with neither.
func TradeStatistics(trades []Trade) TradeStats {
	s := TradeStats{TotalTrades: len(trades)}
	if len(trades) == 0 {
		return s
	}

	var grossWin, grossLoss float64
	streak := 0
	for _, t := range trades {
		s.NetPnL += t.PnL
		s.TotalCommission += t.Commission
		switch {
		case t.PnL > 0:
			s.WinningTrades++
			grossWin += t.PnL
			s.LargestWin = math.Max(s.LargestWin, t.PnL)
			streak = 0
		case t.PnL < 0:
			s.LosingTrades++
			grossLoss += -t.PnL
			s.LargestLoss = math.Max(s.LargestLoss, -t.PnL)
			streak++
			if streak > s.MaxConsecutiveLosses {
				s.MaxConsecutiveLosses = streak
			}
		}
	}

	s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades)
	if s.WinningTrades > 0 {
		s.AvgWin = grossWin / float64(s.WinningTrades)
	}
	if s.LosingTrades > 0 {
		s.AvgLoss = grossLoss / float64(s.LosingTrades)
	}

	switch {
	case grossLoss > 0:
		s.ProfitFactor = Ratio(grossWin / grossLoss)
	case grossWin > 0:
		s.ProfitFactor = Ratio(math.Inf(1))
	}
	return s
}
