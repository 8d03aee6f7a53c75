package performance

import (
	"math"
	"sort"
)

// MaxDrawdown is the largest relative decline from a running peak, in one
// pass. A monotonically non-decreasing curve reads 0.
func MaxDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	peak := values[0]
	maxDD := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
			continue
		}
		if peak > 0 {
			if dd := (peak - v) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// ValueAtRisk is the historical VaR at confidence: the absolute value of the
// return at index floor((1-confidence)*N) of the ascending sorted returns.
// Fewer than two returns read 0.
func ValueAtRisk(returns []float64, confidence float64) float64 {
	sorted, index, ok := tail(returns, confidence)
	if !ok {
		return 0
	}
	return math.Abs(sorted[index])
}

// ConditionalValueAtRisk is the mean absolute return of the tail below the
// VaR index. When the index is 0 it reads |worst return|.
func ConditionalValueAtRisk(returns []float64, confidence float64) float64 {
	sorted, index, ok := tail(returns, confidence)
	if !ok {
		return 0
	}
	if index == 0 {
		return math.Abs(sorted[0])
	}
	losses := make([]float64, index)
	for i, r := range sorted[:index] {
		losses[i] = math.Abs(r)
	}
	return mean(losses)
}

func tail(returns []float64, confidence float64) ([]float64, int, bool) {
	if len(returns) < 2 {
		return nil, 0, false
	}
	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	index := int(math.Floor((1 - confidence) * float64(len(sorted))))
	if index < 0 || index >= len(sorted) {
		return nil, 0, false
	}
	return sorted, index, true
}
