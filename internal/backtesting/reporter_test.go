package backtesting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/guyghost/backtestcore/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult(t *testing.T) *BacktestResult {
	t.Helper()
	engine := newTestEngine(t, testConfig(), scripted(1))
	ticks := testutils.TicksFromCloses("AAPL", 100, 90, 95, 80, 120, 110)
	result, err := engine.Run(context.Background(), ticks, featuresFor(ticks, buy, hold, sell, sell, buy, hold))
	require.NoError(t, err)
	return result
}

func TestReporter_GenerateReport(t *testing.T) {
	result := sampleResult(t)
	report := NewReporter().GenerateReport(result)

	for _, heading := range []string{"SUMMARY", "RETURNS", "RISK", "RISK ADJUSTED RETURNS", "TRADING"} {
		assert.Contains(t, report, heading)
	}
	assert.Contains(t, report, result.RunID)
	assert.Contains(t, report, "Sharpe Ratio:")
	assert.NotContains(t, report, "BENCHMARK", "no benchmark was supplied")
	require.NotEmpty(t, result.Report.TopDrawdowns)
	assert.Contains(t, report, fmt.Sprintf("TOP %d DRAWDOWNS", len(result.Report.TopDrawdowns)))
}

func TestReporter_GenerateSummary(t *testing.T) {
	result := sampleResult(t)
	summary := NewReporter().GenerateSummary(result)
	assert.Contains(t, summary, fmt.Sprintf("Orders: %d", result.TotalTrades))
	assert.Contains(t, summary, "Max DD:")
}

func TestReporter_GenerateTradeLog(t *testing.T) {
	result := sampleResult(t)
	log := NewReporter().GenerateTradeLog(result)
	assert.Contains(t, log, "TRADE LOG")
	assert.Contains(t, log, "AAPL")

	empty := NewReporter().GenerateTradeLog(&BacktestResult{})
	assert.Contains(t, empty, "no closing trades")
}

func TestReporter_JSON(t *testing.T) {
	result := sampleResult(t)
	reporter := NewReporter()

	var buf bytes.Buffer
	require.NoError(t, reporter.WriteJSON(&buf, result))

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	for _, key := range []string{"run_id", "start_date", "final_capital", "total_trades", "positions", "orders", "equity_curve", "report", "stats"} {
		assert.Contains(t, decoded, key)
	}

	var report map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(decoded["report"], &report))
	for _, key := range []string{"returns", "risk", "risk_adjusted_returns", "trading", "benchmark_comparison", "top_drawdowns"} {
		assert.Contains(t, report, key)
	}

	path := filepath.Join(t.TempDir(), "result.json")
	require.NoError(t, reporter.SaveJSON(path, result))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, buf.String(), string(data))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "30s", formatDuration(30e9))
	assert.Equal(t, "2d0h", formatDuration(48*3600e9))
}
