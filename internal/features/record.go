// Package features holds the per-tick feature records a strategy consumes
// and a builder deriving the standard technical indicators from ticks.
package features

import (
	"sort"
	"time"
)

// Standard field names produced by Builder
const (
	FieldPrice       = "price"
	FieldMA5         = "ma_5"
	FieldMA10        = "ma_10"
	FieldMA20        = "ma_20"
	FieldRSI14       = "rsi_14"
	FieldBBUpper     = "bb_upper"
	FieldBBLower     = "bb_lower"
	FieldVolumeRatio = "volume_ratio"
	FieldMomentum5   = "momentum_5d"
	FieldVolatility  = "volatility"

	LabelTrend = "trend"
)

// Record is the feature set observed for one symbol at one timestamp.
// Fields are opaque to the accounting core and only read by strategies.
type Record struct {
	Timestamp time.Time          `json:"timestamp"`
	Symbol    string             `json:"symbol"`
	Values    map[string]float64 `json:"values"`
	Labels    map[string]string  `json:"labels,omitempty"`
}

// Value returns a numeric field
func (r Record) Value(name string) (float64, bool) {
	v, ok := r.Values[name]
	return v, ok
}

// ValueOr returns a numeric field or fallback when absent
func (r Record) ValueOr(name string, fallback float64) float64 {
	if v, ok := r.Values[name]; ok {
		return v
	}
	return fallback
}

// Label returns a categorical field
func (r Record) Label(name string) string {
	return r.Labels[name]
}

// Key identifies a record by (timestamp, symbol)
type Key struct {
	UnixNano int64
	Symbol   string
}

// KeyOf builds the lookup key for a timestamp and symbol
func KeyOf(ts time.Time, symbol string) Key {
	return Key{UnixNano: ts.UnixNano(), Symbol: symbol}
}

// Set indexes records by (timestamp, symbol). A later record for the same
// key replaces the earlier one.
type Set struct {
	records map[Key]Record
}

// NewSet builds a set from records
func NewSet(records ...Record) *Set {
	s := &Set{records: make(map[Key]Record, len(records))}
	for _, r := range records {
		s.Add(r)
	}
	return s
}

// Add inserts or replaces a record
func (s *Set) Add(r Record) {
	s.records[KeyOf(r.Timestamp, r.Symbol)] = r
}

// Lookup returns the record for (ts, symbol)
func (s *Set) Lookup(ts time.Time, symbol string) (Record, bool) {
	if s == nil {
		return Record{}, false
	}
	r, ok := s.records[KeyOf(ts, symbol)]
	return r, ok
}

// Len returns the number of records
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// Symbols returns the distinct symbols of the set, sorted
func (s *Set) Symbols() []string {
	if s == nil {
		return nil
	}
	seen := make(map[string]struct{})
	for key := range s.records {
		seen[key.Symbol] = struct{}{}
	}
	symbols := make([]string, 0, len(seen))
	for symbol := range seen {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}
