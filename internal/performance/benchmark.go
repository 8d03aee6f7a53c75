package performance

import (
	"math"

	"github.com/montanaflynn/stats"
)

// BenchmarkStats compares strategy returns to a benchmark series
type BenchmarkStats struct {
	Available        bool    `json:"available"`
	Beta             float64 `json:"beta"`
	Alpha            float64 `json:"alpha"`
	InformationRatio float64 `json:"information_ratio"`
	TrackingError    float64 `json:"tracking_error"`
	BenchmarkReturn  float64 `json:"benchmark_return"` // cumulative
}

// BenchmarkStatistics computes beta, alpha, tracking error and information
// ratio. They are only defined for a benchmark of the same length with at
// least two returns; otherwise the result is not Available.
//
// Alpha uses arithmetic annualized means:
// mean(r)*P - (rf + beta*(mean(b)*P - rf)).
func BenchmarkStatistics(returns, benchmark []float64, riskFreeRate, periodsPerYear float64) BenchmarkStats {
	if len(returns) != len(benchmark) || len(returns) < 2 {
		return BenchmarkStats{}
	}

	s := BenchmarkStats{
		Available:       true,
		BenchmarkReturn: CumulativeReturn(benchmark),
	}

	cov, covErr := stats.Covariance(returns, benchmark)
	variance, varErr := stats.SampleVariance(benchmark)
	if covErr == nil && varErr == nil && !nearZero(variance) {
		s.Beta = cov / variance
	}

	s.Alpha = AnnualizedMean(returns, periodsPerYear) -
		(riskFreeRate + s.Beta*(AnnualizedMean(benchmark, periodsPerYear)-riskFreeRate))

	active := make([]float64, len(returns))
	for i := range returns {
		active[i] = returns[i] - benchmark[i]
	}
	s.TrackingError = Volatility(active, periodsPerYear)
	if !nearZero(s.TrackingError) {
		s.InformationRatio = AnnualizedMean(active, periodsPerYear) / s.TrackingError
	}

	if math.IsNaN(s.Beta) {
		s.Beta = 0
	}
	return s
}
