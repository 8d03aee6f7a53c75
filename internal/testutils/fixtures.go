// Package testutils provides shared utilities for testing
package testutils

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/guyghost/backtestcore/internal/market"
	"github.com/shopspring/decimal"
)

// BaseTime is the first timestamp of every sample series
var BaseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// AssertEqual is a helper function for asserting equality in tests
func AssertEqual(t *testing.T, expected, actual any, message string) {
	t.Helper()
	if expected != actual {
		t.Errorf("%s: expected %v, got %v", message, expected, actual)
	}
}

// AssertTrue is a helper function for asserting boolean true
func AssertTrue(t *testing.T, condition bool, message string) {
	t.Helper()
	if !condition {
		t.Errorf("%s: expected true, got false", message)
	}
}

// AssertFalse is a helper function for asserting boolean false
func AssertFalse(t *testing.T, condition bool, message string) {
	t.Helper()
	if condition {
		t.Errorf("%s: expected false, got true", message)
	}
}

// AssertNoError is a helper function for asserting no error
func AssertNoError(t *testing.T, err error, message string) {
	t.Helper()
	if err != nil {
		t.Errorf("%s: unexpected error: %v", message, err)
	}
}

// AssertError is a helper function for asserting an error
func AssertError(t *testing.T, err error, message string) {
	t.Helper()
	if err == nil {
		t.Errorf("%s: expected error, got nil", message)
	}
}

// AssertDecimalNear asserts that a decimal is within delta of expected
func AssertDecimalNear(t *testing.T, expected float64, actual decimal.Decimal, delta float64, message string) {
	t.Helper()
	if diff := math.Abs(actual.InexactFloat64() - expected); diff > delta {
		t.Errorf("%s: expected %v, got %s", message, expected, actual)
	}
}

// CreateTestContext creates a context for testing with timeout
func CreateTestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// TicksFromCloses builds daily ticks whose close follows closes
func TicksFromCloses(symbol string, closes ...float64) []market.Tick {
	ticks := make([]market.Tick, len(closes))
	for i, c := range closes {
		price := decimal.NewFromFloat(c)
		ticks[i] = market.Tick{
			Symbol:    symbol,
			Timestamp: BaseTime.AddDate(0, 0, i),
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			Volume:    decimal.NewFromInt(1000),
		}
	}
	return ticks
}

// SampleTicks returns n daily ticks trending up by step from start
func SampleTicks(symbol string, n int, start, step float64) []market.Tick {
	ticks := make([]market.Tick, n)
	for i := 0; i < n; i++ {
		price := start + float64(i)*step
		ticks[i] = market.Tick{
			Symbol:    symbol,
			Timestamp: BaseTime.AddDate(0, 0, i),
			Open:      decimal.NewFromFloat(price - step/2),
			High:      decimal.NewFromFloat(price + math.Abs(step)),
			Low:       decimal.NewFromFloat(price - math.Abs(step)),
			Close:     decimal.NewFromFloat(price),
			Volume:    decimal.NewFromFloat(100 + float64(i)),
		}
	}
	return ticks
}
