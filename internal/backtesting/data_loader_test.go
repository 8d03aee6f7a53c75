package backtesting

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/guyghost/backtestcore/internal/testutils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataLoader_LoadFromCSV(t *testing.T) {
	loader := NewDataLoader()

	tempDir := t.TempDir()
	csvFile := filepath.Join(tempDir, "test_data.csv")

	csvContent := `timestamp,open,high,low,close,volume
1640995320,51000,52000,50000,51500,200
1640995200,50000,51000,49000,50500,100
1640995260,50500,51500,49500,51000,150`

	err := os.WriteFile(csvFile, []byte(csvContent), 0644)
	testutils.AssertNoError(t, err, "Failed to create test CSV file")

	ticks, err := loader.LoadFromCSV(csvFile, "BTC-USD")
	testutils.AssertNoError(t, err, "Failed to load CSV data")
	testutils.AssertEqual(t, 3, len(ticks), "Should have 3 ticks")

	tick := ticks[0]
	testutils.AssertEqual(t, "BTC-USD", tick.Symbol, "Tick symbol should match")
	testutils.AssertTrue(t, tick.Open.Equal(decimal.NewFromInt(50000)), "Open price should match")
	testutils.AssertTrue(t, tick.Close.Equal(decimal.NewFromInt(50500)), "Close price should match")
	testutils.AssertTrue(t, ticks[2].Timestamp.After(ticks[1].Timestamp), "Ticks should be sorted")
}

func TestDataLoader_LoadCSV(t *testing.T) {
	loader := NewDataLoader()

	tests := []struct {
		name    string
		content string
		count   int
		symbols []string
	}{
		{
			name:    "no header",
			content: "1640995200,50000,51000,49000,50500,100\n1640995260,50500,51500,49500,51000,150",
			count:   2,
			symbols: []string{"DEFAULT", "DEFAULT"},
		},
		{
			name:    "symbol column",
			content: "timestamp,open,high,low,close,volume,symbol\n2024-01-01,1,1,1,1,10,AAA\n2024-01-01,2,2,2,2,10,BBB",
			count:   2,
			symbols: []string{"AAA", "BBB"},
		},
		{
			name:    "malformed rows are skipped",
			content: "timestamp,open,high,low,close,volume\n2024-01-01,1,1,1,1,10\nbad,1,1,1,1,10\n2024-01-02,1,1\n2024-01-03,x,1,1,1,10",
			count:   1,
			symbols: []string{"DEFAULT"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticks, err := loader.LoadCSV(strings.NewReader(tt.content), "DEFAULT")
			require.NoError(t, err)
			require.Len(t, ticks, tt.count)
			for i, symbol := range tt.symbols {
				assert.Equal(t, symbol, ticks[i].Symbol)
			}
		})
	}
}

func TestDataLoader_LoadFromCSV_InvalidFile(t *testing.T) {
	loader := NewDataLoader()

	_, err := loader.LoadFromCSV("nonexistent.csv", "BTC-USD")
	testutils.AssertError(t, err, "Should return error for nonexistent file")
}

func TestDataLoader_ParseTimestamp(t *testing.T) {
	loader := NewDataLoader()

	tests := []struct {
		name     string
		input    string
		expected int64
		wantErr  bool
	}{
		{"unix seconds", "1640995200", 1640995200, false},
		{"unix milliseconds", "1640995200000", 1640995200, false},
		{"rfc3339", "2022-01-01T12:00:00Z", 1641038400, false},
		{"date", "2022-01-01", 1640995200, false},
		{"invalid", "invalid", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, err := loader.parseTimestamp(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ts.Unix())
		})
	}
}

func TestDataLoader_GenerateSampleData(t *testing.T) {
	loader := NewDataLoader()

	ticks := loader.GenerateSampleData("BTC-USD", testutils.BaseTime, 10, 50000)
	testutils.AssertEqual(t, 10, len(ticks), "Should have 10 ticks")

	for i := 1; i < len(ticks); i++ {
		testutils.AssertTrue(t, ticks[i].Timestamp.Equal(ticks[i-1].Timestamp.Add(24*time.Hour)), "Ticks should be daily")
		testutils.AssertTrue(t, ticks[i].Valid(), "Ticks should carry a positive close")
		testutils.AssertTrue(t, ticks[i].Open.Equal(ticks[i-1].Close), "Each tick opens at the previous close")
	}

	again := loader.GenerateSampleData("BTC-USD", testutils.BaseTime, 10, 50000)
	assert.Equal(t, ticks, again, "generation is deterministic")
}

func TestMergeTicks(t *testing.T) {
	merged := MergeTicks(
		testutils.TicksFromCloses("BBB", 1, 2),
		testutils.TicksFromCloses("AAA", 3, 4),
	)
	require.Len(t, merged, 4)
	assert.Equal(t, []string{"AAA", "BBB", "AAA", "BBB"},
		[]string{merged[0].Symbol, merged[1].Symbol, merged[2].Symbol, merged[3].Symbol})
}
