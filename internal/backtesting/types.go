// Package backtesting drives a strategy over an ordered tick sequence and
// builds the result of the run.
package backtesting

import (
	"time"

	"github.com/guyghost/backtestcore/internal/equity"
	"github.com/guyghost/backtestcore/internal/features"
	"github.com/guyghost/backtestcore/internal/ledger"
	"github.com/guyghost/backtestcore/internal/market"
	"github.com/guyghost/backtestcore/internal/order"
	"github.com/guyghost/backtestcore/internal/performance"
	"github.com/guyghost/backtestcore/internal/telemetry"
	"github.com/shopspring/decimal"
)

// Tick is one OHLCV bar consumed by the engine
type Tick = market.Tick

// FeatureRecord is the feature set of one (timestamp, symbol)
type FeatureRecord = features.Record

// FeatureSet indexes feature records by (timestamp, symbol)
type FeatureSet = features.Set

// BacktestResult is the outcome of one run
type BacktestResult struct {
	RunID          string          `json:"run_id"`
	Strategy       string          `json:"strategy"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        time.Time       `json:"end_date"`
	InitialCapital decimal.Decimal `json:"initial_capital"`
	FinalCapital   decimal.Decimal `json:"final_capital"`
	TotalReturn    float64         `json:"total_return"`
	// TotalTrades counts filled orders. ClosingTrades counts the fills that
	// reduced a position; WinRate is WinningTrades / ClosingTrades.
	TotalTrades   int     `json:"total_trades"`
	ClosingTrades int     `json:"closing_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`
	MaxDrawdown   float64 `json:"max_drawdown"`
	SharpeRatio   float64 `json:"sharpe_ratio"`

	Positions   []ledger.Position   `json:"positions"`
	Orders      []order.Order       `json:"orders"`
	EquityCurve []equity.Point      `json:"equity_curve"`
	Trades      []performance.Trade `json:"trades"`

	Performance performance.PerformanceMetrics `json:"performance"`
	Report      *performance.PerformanceReport `json:"report"`
	Stats       DetailedStats                  `json:"stats"`
	Telemetry   telemetry.Snapshot             `json:"telemetry"`
}

// SignalStats summarizes the signals that reached the accountant
type SignalStats struct {
	Total         int     `json:"total_signals"`
	Buy           int     `json:"buy_signals"`
	Sell          int     `json:"sell_signals"`
	Hold          int     `json:"hold_signals"`
	BuyRatio      float64 `json:"buy_ratio"`
	SellRatio     float64 `json:"sell_ratio"`
	AvgConfidence float64 `json:"average_confidence"`
}

// FeatureStats describes the feature input of a run
type FeatureStats struct {
	Records int      `json:"total_records"`
	Symbols []string `json:"symbols"`
}

// PeriodStats summarizes the per-point returns of the equity curve
type PeriodStats struct {
	PositivePeriods   int     `json:"positive_periods"`
	NegativePeriods   int     `json:"negative_periods"`
	AvgPositiveReturn float64 `json:"avg_positive_return"`
	AvgNegativeReturn float64 `json:"avg_negative_return"`
	// Volatility is the population standard deviation, not annualized
	Volatility float64 `json:"volatility"`
}

// RiskStats summarizes the exposure left at the end of a run
type RiskStats struct {
	TotalRealizedPnL   decimal.Decimal `json:"total_realized_pnl"`
	TotalUnrealizedPnL decimal.Decimal `json:"total_unrealized_pnl"`
	MaxDrawdown        float64         `json:"max_drawdown"`
	OpenPositions      int             `json:"open_positions"`
	RiskExits          int             `json:"risk_exits"`
	FilteredSignals    int             `json:"filtered_signals"`
}

// DetailedStats groups the run statistics that are not performance metrics
type DetailedStats struct {
	Signals      SignalStats  `json:"signal_stats"`
	Features     FeatureStats `json:"feature_stats"`
	Periods      PeriodStats  `json:"performance_stats"`
	Risk         RiskStats    `json:"risk_stats"`
	SkippedTicks int          `json:"skipped_ticks"`
}
