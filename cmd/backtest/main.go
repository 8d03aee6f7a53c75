package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guyghost/backtestcore/internal/backtesting"
	"github.com/guyghost/backtestcore/internal/config"
	"github.com/guyghost/backtestcore/internal/features"
	"github.com/guyghost/backtestcore/internal/logger"
	"github.com/guyghost/backtestcore/internal/order"
	"github.com/guyghost/backtestcore/internal/strategy"
	"github.com/guyghost/backtestcore/internal/telemetry"
	"github.com/joho/godotenv"
)

var (
	configFile  = flag.String("config", "", "Path to a YAML configuration file")
	dataFile    = flag.String("data", "", "Path to CSV file with historical data")
	symbol      = flag.String("symbol", "BTC-USD", "Trading symbol")
	benchFile   = flag.String("benchmark-data", "", "Path to CSV file with benchmark data")
	sampleTicks = flag.Int("sample", 0, "Generate N ticks of sample data instead of loading a file")
	jsonOut     = flag.String("json", "", "Write the full result as JSON to this path")
	metricsAddr = flag.String("metrics-addr", os.Getenv("METRICS_ADDR"), "Address of the metrics endpoint, empty disables it")
	serve       = flag.Bool("serve", false, "Keep serving metrics after the run until interrupted")
	verbose     = flag.Bool("verbose", false, "Show the trade log")
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	flag.Parse()

	logger.SetDefault(logger.New(logger.ConfigFromEnv()))

	if err := run(); err != nil {
		logger.Error("backtest exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Debug("configuration loaded",
		"initial_capital", cfg.Backtest.InitialCapital,
		"position_size", cfg.Backtest.PositionSize,
		"benchmark", cfg.Backtest.BenchmarkSymbol,
	)
	if *serve && *metricsAddr == "" {
		logger.Warn("-serve has no effect without -metrics-addr")
	}

	log := logger.Component("backtest")

	ticks, err := loadTicks(cfg.Backtest.BenchmarkSymbol)
	if err != nil {
		return err
	}
	log.Info("ticks loaded",
		"count", len(ticks),
		"from", ticks[0].Timestamp.Format(time.RFC3339),
		"to", ticks[len(ticks)-1].Timestamp.Format(time.RFC3339),
	)

	feats := features.NewBuilder().BuildSet(ticks)
	log.Info("features built", "records", feats.Len(), "symbols", feats.Symbols())

	collector := telemetry.NewCollector()
	metricsServer := telemetry.NewServer(*metricsAddr, collector)
	if metricsServer != nil {
		if err := metricsServer.Start(); err != nil {
			return fmt.Errorf("failed to start telemetry server: %w", err)
		}
		defer func() {
			metricsServer.SetReady(false)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
		metricsServer.SetReady(true)
	}

	engine, err := backtesting.NewEngine(cfg, strategy.NewRuleStrategy(cfg.Strategy),
		backtesting.WithLogger(logger.Default()),
		backtesting.WithCollector(collector),
	)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	engine.SetOnOrder(func(o order.Order) {
		log.Debug("order filled",
			"symbol", o.Symbol,
			"side", o.Side,
			"quantity", o.FilledQuantity.String(),
			"price", o.FilledPrice.StringFixed(2),
		)
	})

	result, err := engine.Run(ctx, ticks, feats)
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	reporter := backtesting.NewReporter()
	fmt.Println(reporter.GenerateReport(result))
	if *verbose {
		fmt.Println(reporter.GenerateTradeLog(result))
	}
	log.Info("backtest complete", "summary", reporter.GenerateSummary(result))

	if *jsonOut != "" {
		if err := reporter.SaveJSON(*jsonOut, result); err != nil {
			return err
		}
		logger.Info("result written", "path", *jsonOut)
	}

	if *serve && metricsServer != nil {
		log.Info("serving metrics until interrupted", "addr", *metricsAddr)
		<-ctx.Done()
	}
	return nil
}

func loadTicks(benchmarkSymbol string) ([]backtesting.Tick, error) {
	loader := backtesting.NewDataLoader()

	var ticks []backtesting.Tick
	switch {
	case *sampleTicks > 0:
		start := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -*sampleTicks)
		ticks = loader.GenerateSampleData(*symbol, start, *sampleTicks, 50000)
	case *dataFile != "":
		loaded, err := loader.LoadFromCSV(*dataFile, *symbol)
		if err != nil {
			return nil, fmt.Errorf("failed to load data: %w", err)
		}
		ticks = loaded
	default:
		return nil, errors.New("either -data or -sample is required")
	}

	if *benchFile != "" {
		if benchmarkSymbol == "" {
			return nil, errors.New("-benchmark-data needs backtest.benchmark_symbol to be configured")
		}
		bench, err := loader.LoadFromCSV(*benchFile, benchmarkSymbol)
		if err != nil {
			return nil, fmt.Errorf("failed to load benchmark data: %w", err)
		}
		ticks = backtesting.MergeTicks(ticks, bench)
	}

	if len(ticks) == 0 {
		return nil, backtesting.ErrNoTicks
	}
	return ticks, nil
}
