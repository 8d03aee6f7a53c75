package performance

import "time"

// DailyReturn is one period of the equity curve
type DailyReturn struct {
	Date             time.Time `json:"date"`
	PortfolioValue   float64   `json:"portfolio_value"`
	DailyReturn      float64   `json:"daily_return"`
	CumulativeReturn float64   `json:"cumulative_return"`
	BenchmarkReturn  *float64  `json:"benchmark_return,omitempty"`
	ExcessReturn     *float64  `json:"excess_return,omitempty"`
}

// DailyReturns derives one entry per return period of the curve. Benchmark
// fields are set only when benchmark has one return per period.
func DailyReturns(timestamps []time.Time, values, benchmark []float64) []DailyReturn {
	n := len(values)
	if len(timestamps) < n {
		n = len(timestamps)
	}
	if n < 2 {
		return []DailyReturn{}
	}

	returns := Returns(values[:n])
	withBenchmark := len(benchmark) == len(returns)
	base := values[0]

	result := make([]DailyReturn, len(returns))
	for i, r := range returns {
		dr := DailyReturn{
			Date:           timestamps[i+1],
			PortfolioValue: values[i+1],
			DailyReturn:    r,
		}
		if !nearZero(base) {
			dr.CumulativeReturn = values[i+1]/base - 1
		}
		if withBenchmark {
			b := benchmark[i]
			e := r - b
			dr.BenchmarkReturn = &b
			dr.ExcessReturn = &e
		}
		result[i] = dr
	}
	return result
}
