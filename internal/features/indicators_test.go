package features

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decimals(values ...float64) []decimal.Decimal {
	result := make([]decimal.Decimal, len(values))
	for i, v := range values {
		result[i] = decimal.NewFromFloat(v)
	}
	return result
}

func TestEMA(t *testing.T) {
	result := EMA(decimals(10, 11, 12, 13, 14, 15), 3)

	// len(prices) - period + 1
	require.Len(t, result, 4)
	assert.True(t, result[0].Equal(decimal.NewFromInt(11)), "seeded with the SMA")
	// 11 + (13 - 11) * 0.5
	assert.InDelta(t, 12.0, result[1].InexactFloat64(), 1e-9)

	assert.Empty(t, EMA(decimals(10, 11), 3), "insufficient data")
	assert.Empty(t, EMA(decimals(10, 11), 0), "invalid period")
}

func TestSMA(t *testing.T) {
	result := SMA(decimals(10, 11, 12, 13, 14), 3)

	require.Len(t, result, 3)
	assert.True(t, result[0].Equal(decimal.NewFromInt(11)))
	assert.True(t, result[1].Equal(decimal.NewFromInt(12)))
	assert.True(t, result[2].Equal(decimal.NewFromInt(13)))

	assert.Empty(t, SMA(decimals(10), 3))
}

func TestRSI(t *testing.T) {
	rising := decimals(1, 2, 3, 4, 5, 6, 7, 8)
	result := RSI(rising, 3)
	require.Len(t, result, 5)
	for _, v := range result {
		assert.True(t, v.Equal(decimal.NewFromInt(100)), "no losses reads 100")
	}

	falling := decimals(8, 7, 6, 5, 4, 3, 2, 1)
	for _, v := range RSI(falling, 3) {
		assert.True(t, v.IsZero(), "no gains reads 0")
	}

	assert.Empty(t, RSI(decimals(1, 2, 3), 3))
}

func TestBollingerBands(t *testing.T) {
	upper, middle, lower := BollingerBands(decimals(2, 4, 4, 4, 5, 5, 7, 9), 8, 2)

	require.Len(t, middle, 1)
	assert.InDelta(t, 5.0, middle[0].InexactFloat64(), 1e-9)
	// population stdev of the window is 2
	assert.InDelta(t, 9.0, upper[0].InexactFloat64(), 1e-9)
	assert.InDelta(t, 1.0, lower[0].InexactFloat64(), 1e-9)

	upper, middle, lower = BollingerBands(decimals(1, 2), 3, 2)
	assert.Empty(t, upper)
	assert.Empty(t, middle)
	assert.Empty(t, lower)
}

func TestMomentum(t *testing.T) {
	result := Momentum(decimals(100, 101, 102, 110), 2)

	require.Len(t, result, 2)
	assert.InDelta(t, 0.02, result[0], 1e-12)
	assert.InDelta(t, 110.0/101-1, result[1], 1e-12)
	assert.Empty(t, Momentum(decimals(1, 2), 2))
}

func TestVolatility(t *testing.T) {
	assert.Zero(t, Volatility(decimals(100, 100, 100, 100), 3), "constant series")
	assert.Zero(t, Volatility(decimals(100, 101), 3), "insufficient data")

	// returns: +10%, -10%, +10%
	vol := Volatility(decimals(100, 110, 99, 108.9), 3)
	assert.Greater(t, vol, 0.1)
}
