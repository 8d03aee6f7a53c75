package backtesting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/guyghost/backtestcore/internal/config"
	"github.com/guyghost/backtestcore/internal/equity"
	"github.com/guyghost/backtestcore/internal/execution"
	"github.com/guyghost/backtestcore/internal/ledger"
	"github.com/guyghost/backtestcore/internal/logger"
	"github.com/guyghost/backtestcore/internal/order"
	ordererrors "github.com/guyghost/backtestcore/internal/order/errors"
	"github.com/guyghost/backtestcore/internal/performance"
	"github.com/guyghost/backtestcore/internal/risk"
	"github.com/guyghost/backtestcore/internal/strategy"
	"github.com/guyghost/backtestcore/internal/telemetry"
	"github.com/shopspring/decimal"
)

// Skip reasons recorded by the engine
const (
	SkipInvalidPrice    = "invalid_price"
	SkipMissingFeatures = "missing_features"
)

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the engine logger
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithCollector sets the telemetry collector the engine reports to
func WithCollector(c *telemetry.Collector) Option {
	return func(e *Engine) {
		if c != nil {
			e.collector = c
		}
	}
}

// Engine runs one backtest at a time. Each engine owns its ledger,
// accountant and equity recorder; concurrent runs need separate engines.
type Engine struct {
	config   *config.Config
	strategy strategy.Strategy
	gate     *risk.Gate
	analyzer *performance.Analyzer

	ledger     *ledger.Ledger
	accountant *execution.Accountant
	recorder   *equity.Recorder
	collector  *telemetry.Collector
	log        *logger.Logger

	commissionRate decimal.Decimal
	slippageRate   decimal.Decimal

	// benchmark holds caller supplied returns, one per equity return period
	benchmark []float64
	// benchPrices samples the benchmark symbol close at each equity point
	benchPrices []float64
	benchPrice  float64

	signals  SignalStats
	confSum  float64
	confN    int
	skipped  int
	exits    int
	filtered int

	// Callbacks
	onOrder        func(order.Order)
	onEquityUpdate func(equity.Point)
}

// NewEngine creates an engine. A nil cfg uses the defaults.
func NewEngine(cfg *config.Config, strat strategy.Strategy, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if strat == nil {
		return nil, fmt.Errorf("%w: strategy is required", ErrInvalidConfig)
	}

	l, err := ledger.New(decimal.NewFromFloat(cfg.Backtest.InitialCapital))
	if err != nil {
		return nil, err
	}

	e := &Engine{
		config:         cfg,
		strategy:       strat,
		gate:           risk.NewGate(cfg.Risk),
		analyzer:       performance.NewAnalyzer(cfg.Analysis),
		ledger:         l,
		accountant:     execution.NewAccountant(l),
		recorder:       equity.NewRecorder(),
		collector:      telemetry.NewCollector(),
		log:            logger.Default(),
		commissionRate: decimal.NewFromFloat(cfg.Backtest.CommissionRate),
		slippageRate:   decimal.NewFromFloat(cfg.Backtest.SlippageRate),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.Component("backtesting")
	return e, nil
}

// SetOnOrder sets the callback for filled orders
func (e *Engine) SetOnOrder(callback func(order.Order)) {
	e.onOrder = callback
}

// SetOnEquityUpdate sets the callback for recorded equity points
func (e *Engine) SetOnEquityUpdate(callback func(equity.Point)) {
	e.onEquityUpdate = callback
}

// SetBenchmark supplies benchmark returns, one per equity return period.
// They take precedence over the configured benchmark symbol and survive
// Reset.
func (e *Engine) SetBenchmark(returns []float64) {
	e.benchmark = append([]float64(nil), returns...)
}

// Collector returns the telemetry collector of the engine
func (e *Engine) Collector() *telemetry.Collector {
	return e.collector
}

// Ledger returns the ledger of the engine
func (e *Engine) Ledger() *ledger.Ledger {
	return e.ledger
}

// Reset restores the state of a freshly constructed engine. Configuration,
// callbacks and a supplied benchmark are kept.
func (e *Engine) Reset() {
	e.accountant.Reset()
	e.recorder.Reset()
	e.collector.Reset()
	e.benchPrices = nil
	e.benchPrice = 0
	e.signals = SignalStats{}
	e.confSum = 0
	e.confN = 0
	e.skipped = 0
	e.exits = 0
	e.filtered = 0
}

// Run processes ticks in order and builds the result. The engine is reset
// first. Ticks must have non-decreasing timestamps; a tick going back in
// time aborts the run. Ticks with an invalid close or without a feature
// record are skipped and record no equity. Ticks of the benchmark symbol
// only update the benchmark price. ctx is checked before each tick.
func (e *Engine) Run(ctx context.Context, ticks []Tick, feats *FeatureSet) (*BacktestResult, error) {
	e.Reset()
	if len(ticks) == 0 {
		return nil, ErrNoTicks
	}

	runID := uuid.New().String()
	log := e.log.Run(runID)
	log.Info("backtest started", "ticks", len(ticks), "strategy", e.strategy.Name())

	var last time.Time
	for i, tick := range ticks {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("backtest cancelled at tick %d: %w", i, ctx.Err())
		default:
		}

		if i > 0 && tick.Timestamp.Before(last) {
			return nil, fmt.Errorf("%w: tick %d at %s precedes %s", ErrUnorderedTicks, i,
				tick.Timestamp.Format(time.RFC3339), last.Format(time.RFC3339))
		}
		last = tick.Timestamp
		e.collector.RecordTick()

		// benchmark ticks are only sampled, never traded or recorded
		if e.isBenchmark(tick.Symbol) {
			if tick.Valid() {
				e.benchPrice = tick.Close.InexactFloat64()
			}
			continue
		}

		if !tick.Valid() {
			e.skip(log, SkipInvalidPrice, tick, ErrInvalidPrice)
			continue
		}
		rec, ok := feats.Lookup(tick.Timestamp, tick.Symbol)
		if !ok {
			e.skip(log, SkipMissingFeatures, tick, ErrMissingFeatureData)
			continue
		}

		if err := e.processTick(log, tick, rec); err != nil {
			return nil, err
		}
	}

	if e.recorder.Len() == 0 {
		return nil, fmt.Errorf("%w: all %d ticks were skipped", ErrNoTicks, len(ticks))
	}

	result, err := e.buildResult(runID, feats)
	if err != nil {
		return nil, err
	}
	log.Info("backtest completed",
		"final_capital", result.FinalCapital.StringFixed(2),
		"total_return", result.TotalReturn,
		"orders", result.TotalTrades)
	return result, nil
}

func (e *Engine) processTick(log *logger.Logger, tick Tick, rec FeatureRecord) error {
	pos, _ := e.ledger.Position(tick.Symbol)

	sig := e.strategy.GenerateSignal(rec, pos)
	sig.Timestamp = tick.Timestamp
	sig.Symbol = tick.Symbol
	if !sig.Price.IsPositive() {
		sig.Price = tick.Close
	}
	e.collector.RecordSignal(string(sig.Type))

	sig, reason := e.gate.Filter(sig, pos, e.ledger.Cash())
	if reason != "" {
		e.filtered++
		e.collector.RecordFiltered(reason)
		log.Symbol(tick.Symbol).Debug("signal filtered", "reason", reason)
	}
	e.countSignal(sig)

	decision := e.accountant.PlaceOrder(sig, e.config.Backtest.PositionSize, e.ledger.Cash())
	if o, ok := decision.Order(); ok {
		if err := e.fill(log, o, tick.Close); err != nil {
			return err
		}
	}

	pos, _ = e.ledger.Position(tick.Symbol)
	if exit, ok := e.gate.CheckExit(pos, tick.Close); ok {
		decision := e.accountant.CloseOrder(tick.Symbol, tick.Timestamp, tick.Close, string(exit))
		if o, ok := decision.Order(); ok {
			if err := e.fill(log, o, tick.Close); err != nil {
				return err
			}
			e.exits++
			e.collector.RecordRiskExit(string(exit))
		}
	}

	if err := e.ledger.MarkToMarket(tick.Symbol, tick.Close); err != nil {
		return ordererrors.New(ordererrors.OperationMark, tick.Symbol, err)
	}
	return e.recordEquity(tick.Timestamp)
}

// fill executes o at ref adjusted by slippage against the order side
func (e *Engine) fill(log *logger.Logger, o order.Order, ref decimal.Decimal) error {
	filled, err := e.accountant.Execute(o, e.slipped(o.Side, ref), e.commissionRate)
	if err != nil {
		return err
	}

	e.collector.RecordOrder(filled.Symbol, string(filled.Side))
	log.Symbol(filled.Symbol).Fill(map[string]any{
		"order_id":     filled.ID,
		"side":         string(filled.Side),
		"quantity":     filled.FilledQuantity.String(),
		"price":        filled.FilledPrice.String(),
		"commission":   filled.Commission.String(),
		"realized_pnl": filled.RealizedPnL.String(),
		"reason":       filled.Reason,
	})

	if e.onOrder != nil {
		e.onOrder(filled)
	}
	return nil
}

func (e *Engine) slipped(side order.Side, price decimal.Decimal) decimal.Decimal {
	if e.slippageRate.IsZero() {
		return price
	}
	slippage := price.Mul(e.slippageRate)
	if side == order.SideBuy {
		return price.Add(slippage)
	}
	return price.Sub(slippage)
}

func (e *Engine) recordEquity(ts time.Time) error {
	total := e.ledger.TotalEquity()
	if err := e.recorder.Append(ts, total); err != nil {
		return err
	}
	if e.config.Backtest.BenchmarkSymbol != "" {
		e.benchPrices = append(e.benchPrices, e.benchPrice)
	}

	e.collector.RecordEquity(total.InexactFloat64())
	if e.onEquityUpdate != nil {
		e.onEquityUpdate(equity.Point{Timestamp: ts, Equity: total})
	}
	return nil
}

func (e *Engine) skip(log *logger.Logger, reason string, tick Tick, err error) {
	e.skipped++
	e.collector.RecordSkip(reason)
	log.Skip(reason, map[string]any{
		"symbol":    tick.Symbol,
		"timestamp": tick.Timestamp,
		"error":     err.Error(),
	})
}

func (e *Engine) countSignal(sig strategy.Signal) {
	e.signals.Total++
	switch sig.Type {
	case strategy.SignalBuy:
		e.signals.Buy++
	case strategy.SignalSell:
		e.signals.Sell++
	default:
		e.signals.Hold++
	}
	if sig.Confidence > 0 {
		e.confSum += sig.Confidence
		e.confN++
	}
}

func (e *Engine) isBenchmark(symbol string) bool {
	return e.config.Backtest.BenchmarkSymbol != "" && symbol == e.config.Backtest.BenchmarkSymbol
}

// benchmarkReturns returns the supplied benchmark, or the returns of the
// sampled benchmark symbol prices
func (e *Engine) benchmarkReturns() []float64 {
	if e.benchmark != nil {
		return e.benchmark
	}
	if len(e.benchPrices) == 0 {
		return nil
	}
	return performance.Returns(e.benchPrices)
}
