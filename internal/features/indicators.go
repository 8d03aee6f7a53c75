package features

import (
	"math"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
)

// EMA calculates the Exponential Moving Average, seeded with the SMA of the
// first period values
func EMA(prices []decimal.Decimal, period int) []decimal.Decimal {
	if period <= 0 || len(prices) < period {
		return []decimal.Decimal{}
	}

	result := make([]decimal.Decimal, len(prices))
	multiplier := decimal.NewFromFloat(2.0 / float64(period+1))

	sum := decimal.Zero
	for i := 0; i < period; i++ {
		sum = sum.Add(prices[i])
	}
	result[period-1] = sum.Div(decimal.NewFromInt(int64(period)))

	for i := period; i < len(prices); i++ {
		result[i] = prices[i].Sub(result[i-1]).Mul(multiplier).Add(result[i-1])
	}

	return result[period-1:]
}

// SMA calculates the Simple Moving Average
func SMA(prices []decimal.Decimal, period int) []decimal.Decimal {
	if period <= 0 || len(prices) < period {
		return []decimal.Decimal{}
	}

	result := make([]decimal.Decimal, len(prices)-period+1)
	divisor := decimal.NewFromInt(int64(period))

	sum := decimal.Zero
	for i := 0; i < period; i++ {
		sum = sum.Add(prices[i])
	}
	result[0] = sum.Div(divisor)

	// rolling window
	for i := period; i < len(prices); i++ {
		sum = sum.Add(prices[i]).Sub(prices[i-period])
		result[i-period+1] = sum.Div(divisor)
	}

	return result
}

// RSI calculates the Relative Strength Index over EMA-smoothed gains and
// losses. A window without losses reads 100.
func RSI(prices []decimal.Decimal, period int) []decimal.Decimal {
	if period <= 0 || len(prices) < period+1 {
		return []decimal.Decimal{}
	}

	gains := make([]decimal.Decimal, len(prices)-1)
	losses := make([]decimal.Decimal, len(prices)-1)

	for i := 1; i < len(prices); i++ {
		change := prices[i].Sub(prices[i-1])
		if change.IsPositive() {
			gains[i-1] = change
			losses[i-1] = decimal.Zero
		} else {
			gains[i-1] = decimal.Zero
			losses[i-1] = change.Abs()
		}
	}

	gainEMA := EMA(gains, period)
	lossEMA := EMA(losses, period)

	hundred := decimal.NewFromInt(100)
	result := make([]decimal.Decimal, len(gainEMA))
	for i := range gainEMA {
		if lossEMA[i].IsZero() {
			result[i] = hundred
			continue
		}
		rs := gainEMA[i].Div(lossEMA[i])
		result[i] = hundred.Sub(hundred.Div(decimal.NewFromInt(1).Add(rs)))
	}

	return result
}

// BollingerBands calculates Bollinger Bands using the population standard
// deviation of each window
func BollingerBands(prices []decimal.Decimal, period int, stdDev float64) (upper, middle, lower []decimal.Decimal) {
	if period <= 0 || len(prices) < period {
		return []decimal.Decimal{}, []decimal.Decimal{}, []decimal.Decimal{}
	}

	middle = SMA(prices, period)
	upper = make([]decimal.Decimal, len(middle))
	lower = make([]decimal.Decimal, len(middle))

	for i := range middle {
		sum := 0.0
		for j := 0; j < period; j++ {
			diff := prices[i+j].Sub(middle[i]).InexactFloat64()
			sum += diff * diff
		}
		band := decimal.NewFromFloat(math.Sqrt(sum/float64(period)) * stdDev)

		upper[i] = middle[i].Add(band)
		lower[i] = middle[i].Sub(band)
	}

	return upper, middle, lower
}

// Momentum returns the relative change over period bars:
// prices[i] / prices[i-period] - 1
func Momentum(prices []decimal.Decimal, period int) []float64 {
	if period <= 0 || len(prices) < period+1 {
		return []float64{}
	}

	result := make([]float64, 0, len(prices)-period)
	for i := period; i < len(prices); i++ {
		base := prices[i-period]
		if base.IsZero() {
			result = append(result, 0)
			continue
		}
		result = append(result, prices[i].Div(base).Sub(decimal.NewFromInt(1)).InexactFloat64())
	}
	return result
}

// Volatility returns the sample standard deviation of the bar-to-bar returns
// of the last period+1 prices. Zero when there is not enough data.
func Volatility(prices []decimal.Decimal, period int) float64 {
	if period < 2 || len(prices) < period+1 {
		return 0
	}

	window := prices[len(prices)-period-1:]
	returns := make(stats.Float64Data, 0, period)
	for i := 1; i < len(window); i++ {
		prev := window[i-1].InexactFloat64()
		if prev == 0 {
			continue
		}
		returns = append(returns, window[i].InexactFloat64()/prev-1)
	}

	sd, err := stats.StandardDeviationSample(returns)
	if err != nil || math.IsNaN(sd) {
		return 0
	}
	return sd
}
