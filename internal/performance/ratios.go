package performance

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Ratio is a float that may carry the +Inf sentinel. It encodes infinities
// as the JSON strings "+Inf" and "-Inf" and NaN as null.
type Ratio float64

// Float64 returns the ratio as a float
func (r Ratio) Float64() float64 {
	return float64(r)
}

// IsInf reports whether the ratio is an infinite sentinel
func (r Ratio) IsInf() bool {
	return math.IsInf(float64(r), 0)
}

// MarshalJSON implements json.Marshaler
func (r Ratio) MarshalJSON() ([]byte, error) {
	v := float64(r)
	switch {
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	case math.IsNaN(v):
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// UnmarshalJSON implements json.Unmarshaler
func (r *Ratio) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Ratio(math.NaN())
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid ratio %q: %w", s, err)
		}
		*r = Ratio(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = Ratio(v)
	return nil
}

// String formats the ratio with two decimals
func (r Ratio) String() string {
	if r.IsInf() {
		if r > 0 {
			return "+Inf"
		}
		return "-Inf"
	}
	return strconv.FormatFloat(float64(r), 'f', 2, 64)
}

// SharpeRatio is the annualized mean excess return over annualized
// volatility, with the risk free rate spread evenly across periods.
// Zero volatility reads 0.
func SharpeRatio(returns []float64, riskFreeRate, periodsPerYear float64) float64 {
	vol := Volatility(returns, periodsPerYear)
	if nearZero(vol) {
		return 0
	}
	return mean(excess(returns, riskFreeRate, periodsPerYear)) * periodsPerYear / vol
}

// SortinoRatio shares the Sharpe numerator. The denominator is the root mean
// square of the negative excess returns scaled by sqrt(periodsPerYear).
// Without negative excess returns it reads +Inf; without returns it reads 0.
func SortinoRatio(returns []float64, riskFreeRate, periodsPerYear float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	ex := excess(returns, riskFreeRate, periodsPerYear)

	var sumSq float64
	var n int
	for _, r := range ex {
		if r < 0 {
			sumSq += r * r
			n++
		}
	}
	if n == 0 {
		return math.Inf(1)
	}

	downside := math.Sqrt(sumSq/float64(n)) * math.Sqrt(periodsPerYear)
	if nearZero(downside) {
		return math.Inf(1)
	}
	return mean(ex) * periodsPerYear / downside
}

// CalmarRatio is annualized return over max drawdown. Without drawdown it
// reads +Inf for a positive return and 0 otherwise.
func CalmarRatio(annualizedReturn, maxDrawdown float64) float64 {
	if nearZero(maxDrawdown) {
		if annualizedReturn > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return annualizedReturn / maxDrawdown
}

func excess(returns []float64, riskFreeRate, periodsPerYear float64) []float64 {
	rf := riskFreeRate / periodsPerYear
	result := make([]float64, len(returns))
	for i, r := range returns {
		result[i] = r - rf
	}
	return result
}
