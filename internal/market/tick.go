// Package market defines the price data consumed by a backtest.
package market

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tick is one OHLCV bar of a single instrument
type Tick struct {
	Timestamp time.Time       `json:"timestamp"`
	Symbol    string          `json:"symbol"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
}

// Valid reports whether the tick carries a usable close price
func (t Tick) Valid() bool {
	return t.Close.IsPositive()
}

// BySymbol splits ticks per symbol, preserving their order
func BySymbol(ticks []Tick) map[string][]Tick {
	result := make(map[string][]Tick)
	for _, tick := range ticks {
		result[tick.Symbol] = append(result[tick.Symbol], tick)
	}
	return result
}
