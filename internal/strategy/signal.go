package strategy

import (
	"time"

	"github.com/guyghost/backtestcore/internal/order"
	"github.com/shopspring/decimal"
)

// SignalType represents the action a strategy asks for
type SignalType string

const (
	SignalBuy  SignalType = "BUY"
	SignalSell SignalType = "SELL"
	SignalHold SignalType = "HOLD"
)

// Metadata keys set by the rule strategy
const (
	MetaStopLoss   = "stop_loss"
	MetaTakeProfit = "take_profit"
)

// Signal represents a trading signal for one symbol at one timestamp
type Signal struct {
	Timestamp  time.Time          `json:"timestamp"`
	Symbol     string             `json:"symbol"`
	Type       SignalType         `json:"signal"`
	Price      decimal.Decimal    `json:"price"`
	Confidence float64            `json:"confidence"` // 0.0 to 1.0
	Reason     string             `json:"reason,omitempty"`
	Metadata   map[string]float64 `json:"metadata,omitempty"`
}

// IsActionable reports whether the signal asks for an order
func (s Signal) IsActionable() bool {
	return s.Type == SignalBuy || s.Type == SignalSell
}

// Side maps the signal to an order side. HOLD has no side.
func (s Signal) Side() (order.Side, bool) {
	switch s.Type {
	case SignalBuy:
		return order.SideBuy, true
	case SignalSell:
		return order.SideSell, true
	default:
		return "", false
	}
}

// Hold returns a HOLD signal with a reason
func Hold(ts time.Time, symbol string, price decimal.Decimal, reason string) Signal {
	return Signal{
		Timestamp: ts,
		Symbol:    symbol,
		Type:      SignalHold,
		Price:     price,
		Reason:    reason,
	}
}
