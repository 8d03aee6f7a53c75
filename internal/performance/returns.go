// Package performance computes return, risk and risk-adjusted statistics
// from an equity curve and a trade log. Every function is pure.
//
// Annualization uses a fixed number of periods per year (252 by default),
// which assumes one equity point per trading day.
package performance

import (
	"math"

	"github.com/montanaflynn/stats"
)

// DefaultPeriodsPerYear is the number of trading days per year
const DefaultPeriodsPerYear = 252.0

// epsilon bounds the denominators treated as zero
const epsilon = 1e-12

// Returns computes simple returns between adjacent values. A pair whose
// earlier value is zero contributes a zero return.
func Returns(values []float64) []float64 {
	if len(values) < 2 {
		return []float64{}
	}
	returns := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		if nearZero(values[i-1]) {
			continue
		}
		returns[i-1] = (values[i] - values[i-1]) / values[i-1]
	}
	return returns
}

// TotalReturn is the relative change from initial to the final value
func TotalReturn(initial float64, values []float64) float64 {
	if len(values) == 0 || nearZero(initial) {
		return 0
	}
	return (values[len(values)-1] - initial) / initial
}

// CumulativeReturn compounds returns: Π(1+r) - 1
func CumulativeReturn(returns []float64) float64 {
	return growth(returns) - 1
}

// AnnualizedReturn compounds returns and scales the growth to one year:
// growth^(periodsPerYear/N) - 1. A wiped out curve (growth <= 0) reads -1.
func AnnualizedReturn(returns []float64, periodsPerYear float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	g := growth(returns)
	if g <= 0 {
		return -1
	}
	return math.Pow(g, periodsPerYear/float64(len(returns))) - 1
}

// AnnualizedMean is the arithmetic mean return scaled by periodsPerYear
func AnnualizedMean(returns []float64, periodsPerYear float64) float64 {
	return mean(returns) * periodsPerYear
}

// Volatility is the sample standard deviation of returns scaled by
// sqrt(periodsPerYear). Fewer than two returns read 0.
func Volatility(returns []float64, periodsPerYear float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	sd, err := stats.StandardDeviationSample(returns)
	if err != nil || math.IsNaN(sd) {
		return 0
	}
	return sd * math.Sqrt(periodsPerYear)
}

func growth(returns []float64) float64 {
	g := 1.0
	for _, r := range returns {
		g *= 1 + r
	}
	return g
}

func mean(values []float64) float64 {
	m, err := stats.Mean(values)
	if err != nil {
		return 0
	}
	return m
}

func nearZero(v float64) bool {
	return math.Abs(v) < epsilon
}
