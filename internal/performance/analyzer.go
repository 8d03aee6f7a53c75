package performance

import (
	"errors"
	"time"

	"github.com/guyghost/backtestcore/internal/config"
	"github.com/guyghost/backtestcore/internal/order"
)

// ErrNoData is returned when there is no equity point to analyze
var ErrNoData = errors.New("no equity data")

// Input is what a run hands to the analyzer
type Input struct {
	InitialCapital float64
	Timestamps     []time.Time
	Values         []float64
	Orders         []order.Order
	// BenchmarkReturns holds one return per equity return period. Benchmark
	// statistics are skipped when the length does not match.
	BenchmarkReturns []float64
}

// ReturnMetrics groups the return figures
type ReturnMetrics struct {
	Total      float64 `json:"total_return"`
	Annualized float64 `json:"annualized_return"`
	Cumulative float64 `json:"cumulative_return"`
}

// RiskMetrics groups the risk figures. VaR and CVaR are historical, at
// Confidence.
type RiskMetrics struct {
	Volatility  float64 `json:"volatility"`
	MaxDrawdown float64 `json:"max_drawdown"`
	VaR         float64 `json:"var"`
	CVaR        float64 `json:"cvar"`
	Confidence  float64 `json:"confidence"`
}

// RiskAdjustedMetrics groups the risk-adjusted ratios
type RiskAdjustedMetrics struct {
	Sharpe  Ratio `json:"sharpe_ratio"`
	Sortino Ratio `json:"sortino_ratio"`
	Calmar  Ratio `json:"calmar_ratio"`
}

// PerformanceMetrics is the full metric set of a run
type PerformanceMetrics struct {
	Returns      ReturnMetrics       `json:"returns"`
	Risk         RiskMetrics         `json:"risk"`
	RiskAdjusted RiskAdjustedMetrics `json:"risk_adjusted_returns"`
	Trading      TradeStats          `json:"trading"`
	Benchmark    BenchmarkStats      `json:"benchmark_comparison"`
}

// Summary describes the analyzed period
type Summary struct {
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	TotalPeriods   int       `json:"total_periods"`
	InitialCapital float64   `json:"initial_capital"`
	FinalValue     float64   `json:"final_value"`
	TotalReturnPct float64   `json:"total_return_pct"`
}

// PerformanceReport is the serializable report of a run
type PerformanceReport struct {
	Summary             Summary             `json:"summary"`
	Returns             ReturnMetrics       `json:"returns"`
	Risk                RiskMetrics         `json:"risk"`
	RiskAdjustedReturns RiskAdjustedMetrics `json:"risk_adjusted_returns"`
	Trading             TradeStats          `json:"trading"`
	BenchmarkComparison BenchmarkStats      `json:"benchmark_comparison"`
	TopDrawdowns        []DrawdownPeriod    `json:"top_drawdowns"`
	DailyReturns        []DailyReturn       `json:"daily_returns,omitempty"`
}

// Analyzer applies the configured conventions. It holds no run state.
type Analyzer struct {
	cfg config.Analysis
}

// NewAnalyzer creates an analyzer
func NewAnalyzer(cfg config.Analysis) *Analyzer {
	if cfg.PeriodsPerYear <= 0 {
		cfg.PeriodsPerYear = DefaultPeriodsPerYear
	}
	return &Analyzer{cfg: cfg}
}

// Metrics computes every metric of in
func (a *Analyzer) Metrics(in Input) (PerformanceMetrics, error) {
	if len(in.Values) == 0 {
		return PerformanceMetrics{}, ErrNoData
	}

	ppy := a.cfg.PeriodsPerYear
	rf := a.cfg.RiskFreeRate
	returns := Returns(in.Values)

	var m PerformanceMetrics
	m.Returns = ReturnMetrics{
		Total:      TotalReturn(in.InitialCapital, in.Values),
		Annualized: AnnualizedReturn(returns, ppy),
		Cumulative: CumulativeReturn(returns),
	}
	m.Risk = RiskMetrics{
		Volatility:  Volatility(returns, ppy),
		MaxDrawdown: MaxDrawdown(in.Values),
		VaR:         ValueAtRisk(returns, a.cfg.Confidence),
		CVaR:        ConditionalValueAtRisk(returns, a.cfg.Confidence),
		Confidence:  a.cfg.Confidence,
	}
	m.RiskAdjusted = RiskAdjustedMetrics{
		Sharpe:  Ratio(SharpeRatio(returns, rf, ppy)),
		Sortino: Ratio(SortinoRatio(returns, rf, ppy)),
		Calmar:  Ratio(CalmarRatio(m.Returns.Annualized, m.Risk.MaxDrawdown)),
	}
	m.Trading = TradeStatistics(TradesFromOrders(in.Orders))
	m.Benchmark = BenchmarkStatistics(returns, in.BenchmarkReturns, rf, ppy)
	return m, nil
}

// Report builds the performance report of in, keeping the configured number
// of deepest drawdown periods
func (a *Analyzer) Report(in Input) (*PerformanceReport, error) {
	m, err := a.Metrics(in)
	if err != nil {
		return nil, err
	}

	n := len(in.Values)
	summary := Summary{
		TotalPeriods:   n,
		InitialCapital: in.InitialCapital,
		FinalValue:     in.Values[n-1],
		TotalReturnPct: m.Returns.Total * 100,
	}
	if len(in.Timestamps) > 0 {
		summary.StartDate = in.Timestamps[0]
		summary.EndDate = in.Timestamps[len(in.Timestamps)-1]
	}

	return &PerformanceReport{
		Summary:             summary,
		Returns:             m.Returns,
		Risk:                m.Risk,
		RiskAdjustedReturns: m.RiskAdjusted,
		Trading:             m.Trading,
		BenchmarkComparison: m.Benchmark,
		TopDrawdowns:        TopDrawdowns(DrawdownPeriods(in.Timestamps, in.Values), a.cfg.TopDrawdowns),
		DailyReturns:        DailyReturns(in.Timestamps, in.Values, in.BenchmarkReturns),
	}, nil
}
