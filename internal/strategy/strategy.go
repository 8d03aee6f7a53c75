// Package strategy turns feature records into trading signals. The backtest
// core treats a Strategy as an opaque, side-effect free function.
package strategy

import (
	"github.com/guyghost/backtestcore/internal/features"
	"github.com/guyghost/backtestcore/internal/ledger"
)

// Strategy generates a signal from the features observed at a tick and the
// current position in that symbol
type Strategy interface {
	Name() string
	GenerateSignal(rec features.Record, pos ledger.Position) Signal
}

// Func adapts a plain function to the Strategy interface
type Func func(rec features.Record, pos ledger.Position) Signal

// Name implements Strategy
func (f Func) Name() string {
	return "func"
}

// GenerateSignal implements Strategy
func (f Func) GenerateSignal(rec features.Record, pos ledger.Position) Signal {
	return f(rec, pos)
}
