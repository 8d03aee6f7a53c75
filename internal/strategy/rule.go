package strategy

import (
	"github.com/guyghost/backtestcore/internal/config"
	"github.com/guyghost/backtestcore/internal/features"
	"github.com/guyghost/backtestcore/internal/ledger"
	"github.com/guyghost/backtestcore/internal/logger"
	"github.com/shopspring/decimal"
)

const (
	baseConfidence   = 0.8
	volumeConfidence = 0.9
	stopConfidence   = 1.0
	targetConfidence = 0.9
)

// RuleStrategy enters on a moving average trend confirmed by RSI and
// momentum, and exits a held position on its stop loss or take profit.
type RuleStrategy struct {
	config config.Strategy
}

// NewRuleStrategy creates a rule strategy
func NewRuleStrategy(cfg config.Strategy) *RuleStrategy {
	return &RuleStrategy{config: cfg}
}

// Name implements Strategy
func (s *RuleStrategy) Name() string {
	return "rule"
}

// GenerateSignal implements Strategy
func (s *RuleStrategy) GenerateSignal(rec features.Record, pos ledger.Position) Signal {
	priceValue, ok := rec.Value(features.FieldPrice)
	if !ok || priceValue <= 0 {
		return Hold(rec.Timestamp, rec.Symbol, decimal.Zero, "missing price")
	}
	price := decimal.NewFromFloat(priceValue)

	ma5 := rec.ValueOr(features.FieldMA5, 0)
	ma10 := rec.ValueOr(features.FieldMA10, 0)
	ma20 := rec.ValueOr(features.FieldMA20, 0)
	rsi := rec.ValueOr(features.FieldRSI14, 50)
	momentum := rec.ValueOr(features.FieldMomentum5, 0)
	volumeRatio := rec.ValueOr(features.FieldVolumeRatio, 1)

	trendUp := ma5 > ma10 && ma10 > ma20
	trendDown := ma5 < ma10 && ma10 < ma20
	highVolume := volumeRatio > s.config.VolumeConfirm

	signal := Hold(rec.Timestamp, rec.Symbol, price, "no signal conditions met")

	switch {
	case trendUp && rsi < s.config.RSIOversold && momentum > s.config.MomentumThreshold:
		signal.Type = SignalBuy
		signal.Confidence = confidence(highVolume)
		signal.Reason = "uptrend + RSI oversold + positive momentum"
	case trendDown && rsi > s.config.RSIOverbought && momentum < -s.config.MomentumThreshold:
		signal.Type = SignalSell
		signal.Confidence = confidence(highVolume)
		signal.Reason = "downtrend + RSI overbought + negative momentum"
	}

	// exits on the held position override entries
	if !pos.IsFlat() {
		ret := pos.ReturnPct(price).InexactFloat64()
		exit := SignalSell
		if pos.IsShort() {
			exit = SignalBuy
		}
		switch {
		case ret <= -s.config.StopLossPct:
			signal.Type, signal.Confidence, signal.Reason = exit, stopConfidence, "stop loss"
		case ret >= s.config.TakeProfitPct:
			signal.Type, signal.Confidence, signal.Reason = exit, targetConfidence, "take profit"
		}
	}

	if signal.IsActionable() {
		signal.Metadata = s.levels(signal.Type, price)
		logger.Component("strategy").Debug("signal generated",
			"symbol", rec.Symbol,
			"signal", string(signal.Type),
			"price", price.StringFixed(2),
			"confidence", signal.Confidence,
			"reason", signal.Reason)
	}

	return signal
}

// levels returns the stop loss and take profit prices for an entry
func (s *RuleStrategy) levels(t SignalType, price decimal.Decimal) map[string]float64 {
	p := price.InexactFloat64()
	if t == SignalBuy {
		return map[string]float64{
			MetaStopLoss:   p * (1 - s.config.StopLossPct),
			MetaTakeProfit: p * (1 + s.config.TakeProfitPct),
		}
	}
	return map[string]float64{
		MetaStopLoss:   p * (1 + s.config.StopLossPct),
		MetaTakeProfit: p * (1 - s.config.TakeProfitPct),
	}
}

func confidence(highVolume bool) float64 {
	if highVolume {
		return volumeConfidence
	}
	return baseConfidence
}
