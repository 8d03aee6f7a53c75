package backtesting

import (
	"context"
	"testing"

	"github.com/guyghost/backtestcore/internal/equity"
	"github.com/guyghost/backtestcore/internal/testutils"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

const tickCount = 20

func roundCloses(closes []float64) []float64 {
	rounded := make([]float64, len(closes))
	for i, c := range closes {
		rounded[i] = decimal.NewFromFloat(c).Round(2).InexactFloat64()
	}
	return rounded
}

func TestEngineProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("equity equals cash plus unrealized at every tick", prop.ForAll(
		func(closes []float64, actions []int) bool {
			cfg := testConfig()
			cfg.Backtest.CommissionRate = 0.001
			cfg.Backtest.SlippageRate = 0.0005
			engine, err := NewEngine(cfg, scripted(1))
			if err != nil {
				return false
			}

			holds := true
			engine.SetOnEquityUpdate(func(p equity.Point) {
				total := engine.Ledger().Cash()
				for _, pos := range engine.Ledger().Positions() {
					total = total.Add(pos.UnrealizedPnL)
				}
				holds = holds && total.Equal(p.Equity)
			})

			ticks := testutils.TicksFromCloses("SYM", roundCloses(closes)...)
			_, err = engine.Run(context.Background(), ticks, featuresFor(ticks, actions...))
			return err == nil && holds
		},
		gen.SliceOfN(tickCount, gen.Float64Range(1, 1000)),
		gen.SliceOfN(tickCount, gen.IntRange(hold, sell)),
	))

	properties.Property("runs are reproducible on one engine", prop.ForAll(
		func(closes []float64, actions []int) bool {
			engine, err := NewEngine(testConfig(), scripted(1))
			if err != nil {
				return false
			}
			ticks := testutils.TicksFromCloses("SYM", roundCloses(closes)...)
			set := featuresFor(ticks, actions...)

			first, err := engine.Run(context.Background(), ticks, set)
			if err != nil {
				return false
			}
			second, err := engine.Run(context.Background(), ticks, set)
			if err != nil {
				return false
			}
			return first.FinalCapital.Equal(second.FinalCapital) &&
				len(first.Orders) == len(second.Orders) &&
				first.MaxDrawdown == second.MaxDrawdown
		},
		gen.SliceOfN(tickCount, gen.Float64Range(1, 1000)),
		gen.SliceOfN(tickCount, gen.IntRange(hold, sell)),
	))

	properties.TestingRun(t)
}
