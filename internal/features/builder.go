package features

import (
	"sort"

	"github.com/guyghost/backtestcore/internal/market"
	"github.com/shopspring/decimal"
)

const (
	rsiPeriod        = 14
	bollingerPeriod  = 20
	bollingerStdDev  = 2.0
	volumePeriod     = 20
	momentumPeriod   = 5
	volatilityPeriod = 20
)

// Builder derives the standard indicator set from ticks. A record is emitted
// for a tick only once the longest indicator window is filled, so the
// earliest ticks of each symbol have no features.
type Builder struct {
	warmup int
}

// NewBuilder creates a builder with the standard windows
func NewBuilder() *Builder {
	return &Builder{warmup: volatilityPeriod + 1}
}

// Warmup returns the number of ticks per symbol needed before the first record
func (b *Builder) Warmup() int {
	return b.warmup
}

// Build computes records for every symbol in ticks. Ticks of each symbol
// must be in time order. Records are returned sorted by timestamp then symbol.
func (b *Builder) Build(ticks []market.Tick) []Record {
	var records []Record
	for symbol, series := range market.BySymbol(ticks) {
		records = append(records, b.buildSymbol(symbol, series)...)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].Symbol < records[j].Symbol
		}
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
	return records
}

// BuildSet is Build indexed by (timestamp, symbol)
func (b *Builder) BuildSet(ticks []market.Tick) *Set {
	return NewSet(b.Build(ticks)...)
}

func (b *Builder) buildSymbol(symbol string, series []market.Tick) []Record {
	if len(series) < b.warmup {
		return nil
	}

	closes := make([]decimal.Decimal, len(series))
	volumes := make([]decimal.Decimal, len(series))
	for i, tick := range series {
		closes[i] = tick.Close
		volumes[i] = tick.Volume
	}

	// Series are aligned so that the value for tick i sits at index
	// i - (period - 1) for windowed indicators.
	ma5 := SMA(closes, 5)
	ma10 := SMA(closes, 10)
	ma20 := SMA(closes, 20)
	rsi := RSI(closes, rsiPeriod)
	upper, _, lower := BollingerBands(closes, bollingerPeriod, bollingerStdDev)
	avgVolume := SMA(volumes, volumePeriod)
	momentum := Momentum(closes, momentumPeriod)

	records := make([]Record, 0, len(series)-b.warmup+1)
	for i := b.warmup - 1; i < len(series); i++ {
		price := closes[i].InexactFloat64()
		m5 := ma5[i-4].InexactFloat64()
		m10 := ma10[i-9].InexactFloat64()
		m20 := ma20[i-19].InexactFloat64()

		volumeRatio := 1.0
		if avg := avgVolume[i-(volumePeriod-1)]; avg.IsPositive() {
			volumeRatio = volumes[i].Div(avg).InexactFloat64()
		}

		records = append(records, Record{
			Timestamp: series[i].Timestamp,
			Symbol:    symbol,
			Values: map[string]float64{
				FieldPrice:       price,
				FieldMA5:         m5,
				FieldMA10:        m10,
				FieldMA20:        m20,
				FieldRSI14:       rsi[i-rsiPeriod].InexactFloat64(),
				FieldBBUpper:     upper[i-(bollingerPeriod-1)].InexactFloat64(),
				FieldBBLower:     lower[i-(bollingerPeriod-1)].InexactFloat64(),
				FieldVolumeRatio: volumeRatio,
				FieldMomentum5:   momentum[i-momentumPeriod],
				FieldVolatility:  Volatility(closes[:i+1], volatilityPeriod),
			},
			Labels: map[string]string{
				LabelTrend: trend(m5, m10, m20),
			},
		})
	}
	return records
}

func trend(ma5, ma10, ma20 float64) string {
	switch {
	case ma5 > ma10 && ma10 > ma20:
		return "up"
	case ma5 < ma10 && ma10 < ma20:
		return "down"
	default:
		return "flat"
	}
}
