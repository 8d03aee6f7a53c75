package backtesting

import (
	"math"

	"github.com/guyghost/backtestcore/internal/performance"
	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
)

func (e *Engine) buildResult(runID string, feats *FeatureSet) (*BacktestResult, error) {
	points := e.recorder.Points()
	orders := e.accountant.Orders()
	initial := e.ledger.InitialCapital()

	in := performance.Input{
		InitialCapital:   initial.InexactFloat64(),
		Timestamps:       e.recorder.Timestamps(),
		Values:           e.recorder.Values(),
		Orders:           orders,
		BenchmarkReturns: e.benchmarkReturns(),
	}
	report, err := e.analyzer.Report(in)
	if err != nil {
		return nil, err
	}
	metrics, err := e.analyzer.Metrics(in)
	if err != nil {
		return nil, err
	}

	final := points[len(points)-1].Equity
	return &BacktestResult{
		RunID:          runID,
		Strategy:       e.strategy.Name(),
		StartDate:      points[0].Timestamp,
		EndDate:        points[len(points)-1].Timestamp,
		InitialCapital: initial,
		FinalCapital:   final,
		TotalReturn:    metrics.Returns.Total,
		TotalTrades:    len(orders),
		ClosingTrades:  metrics.Trading.TotalTrades,
		WinningTrades:  metrics.Trading.WinningTrades,
		LosingTrades:   metrics.Trading.LosingTrades,
		WinRate:        metrics.Trading.WinRate,
		MaxDrawdown:    metrics.Risk.MaxDrawdown,
		SharpeRatio:    metrics.RiskAdjusted.Sharpe.Float64(),
		Positions:      e.ledger.Positions(),
		Orders:         orders,
		EquityCurve:    points,
		Trades:         performance.TradesFromOrders(orders),
		Performance:    metrics,
		Report:         report,
		Stats:          e.detailedStats(in.Values, metrics.Risk.MaxDrawdown, feats),
		Telemetry:      e.collector.Snapshot(),
	}, nil
}

func (e *Engine) detailedStats(values []float64, maxDrawdown float64, feats *FeatureSet) DetailedStats {
	signals := e.signals
	if signals.Total > 0 {
		signals.BuyRatio = float64(signals.Buy) / float64(signals.Total)
		signals.SellRatio = float64(signals.Sell) / float64(signals.Total)
	}
	if e.confN > 0 {
		signals.AvgConfidence = e.confSum / float64(e.confN)
	}

	riskStats := RiskStats{
		TotalRealizedPnL:   decimal.Zero,
		TotalUnrealizedPnL: decimal.Zero,
		MaxDrawdown:        maxDrawdown,
		RiskExits:          e.exits,
		FilteredSignals:    e.filtered,
	}
	for _, pos := range e.ledger.Positions() {
		riskStats.TotalRealizedPnL = riskStats.TotalRealizedPnL.Add(pos.RealizedPnL)
		riskStats.TotalUnrealizedPnL = riskStats.TotalUnrealizedPnL.Add(pos.UnrealizedPnL)
		if !pos.IsFlat() {
			riskStats.OpenPositions++
		}
	}

	return DetailedStats{
		Signals:      signals,
		Features:     FeatureStats{Records: feats.Len(), Symbols: feats.Symbols()},
		Periods:      periodStats(performance.Returns(values)),
		Risk:         riskStats,
		SkippedTicks: e.skipped,
	}
}

func periodStats(returns []float64) PeriodStats {
	var s PeriodStats
	var pos, neg stats.Float64Data
	for _, r := range returns {
		switch {
		case r > 0:
			pos = append(pos, r)
		case r < 0:
			neg = append(neg, r)
		}
	}
	s.PositivePeriods = len(pos)
	s.NegativePeriods = len(neg)
	if m, err := pos.Mean(); err == nil {
		s.AvgPositiveReturn = m
	}
	if m, err := neg.Mean(); err == nil {
		s.AvgNegativeReturn = m
	}
	if sd, err := stats.StandardDeviationPopulation(returns); err == nil && !math.IsNaN(sd) {
		s.Volatility = sd
	}
	return s
}
