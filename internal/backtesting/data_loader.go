package backtesting

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DataLoader loads ticks for backtesting
type DataLoader struct{}

// NewDataLoader creates a new data loader
func NewDataLoader() *DataLoader {
	return &DataLoader{}
}

// LoadFromCSV loads ticks from a CSV file.
// Expected CSV format: timestamp,open,high,low,close,volume[,symbol]
// timestamp can be a Unix timestamp (seconds or milliseconds) or RFC3339.
// Rows without a symbol column take symbol.
func (dl *DataLoader) LoadFromCSV(filename string, symbol string) ([]Tick, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return dl.LoadCSV(file, symbol)
}

// LoadCSV reads ticks from r. An optional header row is detected by a non
// numeric open column. Malformed rows are skipped. Ticks are returned
// sorted by timestamp, stable for equal timestamps.
func (dl *DataLoader) LoadCSV(r io.Reader, symbol string) ([]Tick, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.FieldsPerRecord = -1

	ticks := make([]Tick, 0)
	first := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}

		if first {
			first = false
			if len(record) > 1 {
				if _, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64); err != nil {
					continue // header
				}
			}
		}

		if len(record) < 6 {
			continue // Skip invalid records
		}

		tick, err := dl.parseCSVRecord(record, symbol)
		if err != nil {
			continue // Skip invalid records
		}
		ticks = append(ticks, tick)
	}

	sort.SliceStable(ticks, func(i, j int) bool {
		return ticks[i].Timestamp.Before(ticks[j].Timestamp)
	})
	return ticks, nil
}

// parseCSVRecord parses a single CSV record into a Tick
func (dl *DataLoader) parseCSVRecord(record []string, symbol string) (Tick, error) {
	timestamp, err := dl.parseTimestamp(strings.TrimSpace(record[0]))
	if err != nil {
		return Tick{}, err
	}

	fields := make([]decimal.Decimal, 5)
	names := []string{"open", "high", "low", "close", "volume"}
	for i := range fields {
		fields[i], err = decimal.NewFromString(strings.TrimSpace(record[i+1]))
		if err != nil {
			return Tick{}, fmt.Errorf("invalid %s: %w", names[i], err)
		}
	}

	if len(record) > 6 {
		if s := strings.TrimSpace(record[6]); s != "" {
			symbol = s
		}
	}

	return Tick{
		Symbol:    symbol,
		Timestamp: timestamp,
		Open:      fields[0],
		High:      fields[1],
		Low:       fields[2],
		Close:     fields[3],
		Volume:    fields[4],
	}, nil
}

// parseTimestamp parses timestamp from string
// Supports Unix timestamp (seconds or milliseconds) and RFC3339 format
func (dl *DataLoader) parseTimestamp(s string) (time.Time, error) {
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil {
		// 13 digits are milliseconds
		if ts > 10000000000 {
			return time.Unix(ts/1000, (ts%1000)*1000000).UTC(), nil
		}
		return time.Unix(ts, 0).UTC(), nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}

	formats := []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse timestamp: %s", s)
}

// GenerateSampleData generates deterministic daily ticks oscillating around
// a drifting trend, for demos and tests
func (dl *DataLoader) GenerateSampleData(symbol string, startTime time.Time, ticks int, basePrice float64) []Tick {
	data := make([]Tick, 0, ticks)

	currentTime := startTime
	currentPrice := decimal.NewFromFloat(basePrice)

	for i := 0; i < ticks; i++ {
		// slow cycle with a small drift, about ±1.5% per day
		change := decimal.NewFromFloat(math.Sin(float64(i)/8)*0.015 + 0.0005)
		open := currentPrice
		closePrice := currentPrice.Add(currentPrice.Mul(change)).Round(4)

		high := decimal.Max(open, closePrice).Mul(decimal.NewFromFloat(1.001)).Round(4)
		low := decimal.Min(open, closePrice).Mul(decimal.NewFromFloat(0.999)).Round(4)
		volume := decimal.NewFromFloat(1000 + float64((i*37)%500))

		data = append(data, Tick{
			Symbol:    symbol,
			Timestamp: currentTime,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
		})

		currentTime = currentTime.AddDate(0, 0, 1)
		currentPrice = closePrice
	}

	return data
}

// MergeTicks merges per-symbol series into one sequence ordered by
// timestamp then symbol
func MergeTicks(series ...[]Tick) []Tick {
	var merged []Tick
	for _, s := range series {
		merged = append(merged, s...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Timestamp.Equal(merged[j].Timestamp) {
			return merged[i].Symbol < merged[j].Symbol
		}
		return merged[i].Timestamp.Before(merged[j].Timestamp)
	})
	return merged
}
