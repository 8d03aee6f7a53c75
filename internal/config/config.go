package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned for construction parameters that can never
// produce a valid run. It is raised at construction, never during a run.
var ErrInvalidConfig = errors.New("invalid configuration")

// Backtest holds the accounting parameters of a single run
type Backtest struct {
	InitialCapital float64 `yaml:"initial_capital"`
	CommissionRate float64 `yaml:"commission_rate"` // e.g., 0.001 for 0.1%
	SlippageRate   float64 `yaml:"slippage_rate"`   // applied against the trader on fills
	PositionSize   float64 `yaml:"position_size"`   // fraction of cash per opening order
	// BenchmarkSymbol enables buy-and-hold benchmark metrics when set
	BenchmarkSymbol string `yaml:"benchmark_symbol"`
}

// Risk holds the signal gate parameters applied by the driver
type Risk struct {
	MinConfidence   float64 `yaml:"min_confidence"`
	MaxPositionSize float64 `yaml:"max_position_size"` // max exposure as a fraction of cash
	StopLossPct     float64 `yaml:"stop_loss_pct"`     // 0 disables
	TakeProfitPct   float64 `yaml:"take_profit_pct"`   // 0 disables
}

// Strategy holds the thresholds of the rule strategy
type Strategy struct {
	RSIOversold       float64 `yaml:"rsi_oversold"`
	RSIOverbought     float64 `yaml:"rsi_overbought"`
	MomentumThreshold float64 `yaml:"momentum_threshold"`
	VolumeConfirm     float64 `yaml:"volume_confirm"`
	StopLossPct       float64 `yaml:"stop_loss_pct"`
	TakeProfitPct     float64 `yaml:"take_profit_pct"`
}

// Analysis holds the conventions of the performance analyzer
type Analysis struct {
	RiskFreeRate   float64 `yaml:"risk_free_rate"`
	PeriodsPerYear float64 `yaml:"periods_per_year"`
	Confidence     float64 `yaml:"confidence"`
	TopDrawdowns   int     `yaml:"top_drawdowns"`
}

// Config is the root configuration of a backtest
type Config struct {
	Backtest Backtest `yaml:"backtest"`
	Risk     Risk     `yaml:"risk"`
	Strategy Strategy `yaml:"strategy"`
	Analysis Analysis `yaml:"analysis"`
}

// DefaultBacktest returns the default accounting parameters
func DefaultBacktest() Backtest {
	return Backtest{
		InitialCapital: 100000,
		CommissionRate: 0.001, // 0.1%
		SlippageRate:   0,
		PositionSize:   0.1, // 10% of cash
	}
}

// DefaultRisk returns the default signal gate parameters
func DefaultRisk() Risk {
	return Risk{
		MinConfidence:   0.3,
		MaxPositionSize: 0.5,
		StopLossPct:     0.05,
		TakeProfitPct:   0.1,
	}
}

// DefaultStrategy returns the default rule strategy thresholds
func DefaultStrategy() Strategy {
	return Strategy{
		RSIOversold:       30,
		RSIOverbought:     70,
		MomentumThreshold: 0.01,
		VolumeConfirm:     1.5,
		StopLossPct:       0.02,
		TakeProfitPct:     0.05,
	}
}

// DefaultAnalysis returns the default analyzer conventions
func DefaultAnalysis() Analysis {
	return Analysis{
		RiskFreeRate:   0.02,
		PeriodsPerYear: 252,
		Confidence:     0.95,
		TopDrawdowns:   5,
	}
}

// Default returns the full default configuration
func Default() *Config {
	return &Config{
		Backtest: DefaultBacktest(),
		Risk:     DefaultRisk(),
		Strategy: DefaultStrategy(),
		Analysis: DefaultAnalysis(),
	}
}

// Validate checks the accounting parameters
func (b Backtest) Validate() error {
	if b.InitialCapital <= 0 {
		return fmt.Errorf("%w: initial capital must be positive, got %v", ErrInvalidConfig, b.InitialCapital)
	}
	if b.CommissionRate < 0 || b.CommissionRate >= 1 {
		return fmt.Errorf("%w: commission rate must be in [0, 1), got %v", ErrInvalidConfig, b.CommissionRate)
	}
	if b.SlippageRate < 0 || b.SlippageRate >= 1 {
		return fmt.Errorf("%w: slippage rate must be in [0, 1), got %v", ErrInvalidConfig, b.SlippageRate)
	}
	if b.PositionSize <= 0 || b.PositionSize > 1 {
		return fmt.Errorf("%w: position size must be in (0, 1], got %v", ErrInvalidConfig, b.PositionSize)
	}
	return nil
}

// Validate checks the signal gate parameters
func (r Risk) Validate() error {
	if r.MinConfidence < 0 || r.MinConfidence > 1 {
		return fmt.Errorf("%w: min confidence must be in [0, 1], got %v", ErrInvalidConfig, r.MinConfidence)
	}
	if r.MaxPositionSize < 0 {
		return fmt.Errorf("%w: max position size must not be negative, got %v", ErrInvalidConfig, r.MaxPositionSize)
	}
	if r.StopLossPct < 0 || r.TakeProfitPct < 0 {
		return fmt.Errorf("%w: stop loss and take profit must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Validate checks the analyzer conventions
func (a Analysis) Validate() error {
	if a.PeriodsPerYear <= 0 {
		return fmt.Errorf("%w: periods per year must be positive, got %v", ErrInvalidConfig, a.PeriodsPerYear)
	}
	if a.Confidence <= 0 || a.Confidence >= 1 {
		return fmt.Errorf("%w: confidence must be in (0, 1), got %v", ErrInvalidConfig, a.Confidence)
	}
	if a.TopDrawdowns < 0 {
		return fmt.Errorf("%w: top drawdowns must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Validate checks every section
func (c *Config) Validate() error {
	if err := c.Backtest.Validate(); err != nil {
		return err
	}
	if err := c.Risk.Validate(); err != nil {
		return err
	}
	return c.Analysis.Validate()
}

// Load builds the configuration from defaults, an optional YAML file and
// environment overrides, in that order.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Backtest.InitialCapital = parseFloatEnv("BACKTEST_INITIAL_CAPITAL", cfg.Backtest.InitialCapital)
	cfg.Backtest.CommissionRate = parseFloatEnv("BACKTEST_COMMISSION_RATE", cfg.Backtest.CommissionRate)
	cfg.Backtest.SlippageRate = parseFloatEnv("BACKTEST_SLIPPAGE_RATE", cfg.Backtest.SlippageRate)
	cfg.Backtest.PositionSize = parseFloatEnv("BACKTEST_POSITION_SIZE", cfg.Backtest.PositionSize)
	if symbol := strings.TrimSpace(os.Getenv("BACKTEST_BENCHMARK_SYMBOL")); symbol != "" {
		cfg.Backtest.BenchmarkSymbol = symbol
	}

	cfg.Risk.MinConfidence = parseFloatEnv("RISK_MIN_CONFIDENCE", cfg.Risk.MinConfidence)
	cfg.Risk.MaxPositionSize = parseFloatEnv("RISK_MAX_POSITION_SIZE", cfg.Risk.MaxPositionSize)
	cfg.Risk.StopLossPct = parseFloatEnv("RISK_STOP_LOSS_PCT", cfg.Risk.StopLossPct)
	cfg.Risk.TakeProfitPct = parseFloatEnv("RISK_TAKE_PROFIT_PCT", cfg.Risk.TakeProfitPct)

	cfg.Strategy.RSIOversold = parseFloatEnv("STRATEGY_RSI_OVERSOLD", cfg.Strategy.RSIOversold)
	cfg.Strategy.RSIOverbought = parseFloatEnv("STRATEGY_RSI_OVERBOUGHT", cfg.Strategy.RSIOverbought)
	cfg.Strategy.MomentumThreshold = parseFloatEnv("STRATEGY_MOMENTUM_THRESHOLD", cfg.Strategy.MomentumThreshold)
	cfg.Strategy.VolumeConfirm = parseFloatEnv("STRATEGY_VOLUME_CONFIRM", cfg.Strategy.VolumeConfirm)
	cfg.Strategy.StopLossPct = parseFloatEnv("STRATEGY_STOP_LOSS_PCT", cfg.Strategy.StopLossPct)
	cfg.Strategy.TakeProfitPct = parseFloatEnv("STRATEGY_TAKE_PROFIT_PCT", cfg.Strategy.TakeProfitPct)

	cfg.Analysis.RiskFreeRate = parseFloatEnv("ANALYSIS_RISK_FREE_RATE", cfg.Analysis.RiskFreeRate)
	cfg.Analysis.PeriodsPerYear = parseFloatEnv("ANALYSIS_PERIODS_PER_YEAR", cfg.Analysis.PeriodsPerYear)
	cfg.Analysis.Confidence = parseFloatEnv("ANALYSIS_CONFIDENCE", cfg.Analysis.Confidence)
	cfg.Analysis.TopDrawdowns = parseIntEnv("ANALYSIS_TOP_DRAWDOWNS", cfg.Analysis.TopDrawdowns)
}

// parseIntEnv parses an integer environment variable
func parseIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// parseFloatEnv parses a float environment variable
func parseFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
