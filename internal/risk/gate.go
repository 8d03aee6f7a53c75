// Package risk filters strategy signals before they reach the accountant and
// forces exits on positions that hit their stop loss or take profit.
package risk

import (
	"github.com/guyghost/backtestcore/internal/config"
	"github.com/guyghost/backtestcore/internal/ledger"
	"github.com/guyghost/backtestcore/internal/strategy"
	"github.com/shopspring/decimal"
)

// Reasons a signal is demoted to HOLD
const (
	ReasonLowConfidence = "low confidence"
	ReasonMaxExposure   = "max exposure reached"
)

// Exit is the trigger of a forced close
type Exit string

const (
	ExitStopLoss   Exit = "stop_loss"
	ExitTakeProfit Exit = "take_profit"
)

// Gate applies the risk rules. It holds no state between calls.
type Gate struct {
	config config.Risk
}

// NewGate creates a gate
func NewGate(cfg config.Risk) *Gate {
	return &Gate{config: cfg}
}

// Config returns the gate parameters
func (g *Gate) Config() config.Risk {
	return g.config
}

// Filter returns sig, demoted to HOLD with a reason when it fails a rule.
//
// A signal below MinConfidence is dropped. A signal that would grow the
// position is dropped once the current exposure |qty*price| reaches
// cash*MaxPositionSize. Signals reducing the position always pass the
// exposure rule so exits are never blocked.
func (g *Gate) Filter(sig strategy.Signal, pos ledger.Position, cash decimal.Decimal) (strategy.Signal, string) {
	if !sig.IsActionable() {
		return sig, ""
	}

	if sig.Confidence < g.config.MinConfidence {
		return demote(sig, ReasonLowConfidence), ReasonLowConfidence
	}

	if g.config.MaxPositionSize > 0 && !reduces(sig, pos) {
		exposure := pos.Quantity.Mul(sig.Price).Abs()
		limit := cash.Mul(decimal.NewFromFloat(g.config.MaxPositionSize))
		if exposure.GreaterThanOrEqual(limit) {
			return demote(sig, ReasonMaxExposure), ReasonMaxExposure
		}
	}

	return sig, ""
}

// CheckExit reports whether pos must be closed at price. The move is
// measured against the cost basis and signed so that profit is positive
// for longs and shorts alike. A zero threshold disables its rule.
func (g *Gate) CheckExit(pos ledger.Position, price decimal.Decimal) (Exit, bool) {
	if pos.IsFlat() || !price.IsPositive() {
		return "", false
	}

	ret := pos.ReturnPct(price).InexactFloat64()
	switch {
	case g.config.StopLossPct > 0 && ret <= -g.config.StopLossPct:
		return ExitStopLoss, true
	case g.config.TakeProfitPct > 0 && ret >= g.config.TakeProfitPct:
		return ExitTakeProfit, true
	}
	return "", false
}

func reduces(sig strategy.Signal, pos ledger.Position) bool {
	return (sig.Type == strategy.SignalSell && pos.IsLong()) ||
		(sig.Type == strategy.SignalBuy && pos.IsShort())
}

func demote(sig strategy.Signal, reason string) strategy.Signal {
	sig.Type = strategy.SignalHold
	sig.Reason = reason
	return sig
}
