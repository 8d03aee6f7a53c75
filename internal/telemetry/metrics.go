// Package telemetry counts what happens during a backtest run and exposes
// the counters in the Prometheus text format.
package telemetry

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

const namespace = "backtest"

// Collector holds the counters of one run. It is safe for concurrent use so
// a caller may read it while the run progresses.
type Collector struct {
	mu sync.RWMutex

	ticks     uint64
	equity    float64
	skips     map[string]uint64
	signals   map[string]uint64
	orders    map[string]map[string]uint64 // symbol -> side -> count
	riskExits map[string]uint64
	filtered  map[string]uint64
}

// Snapshot is a point in time copy of the counters
type Snapshot struct {
	Ticks     uint64                       `json:"ticks"`
	Equity    float64                      `json:"equity"`
	Skips     map[string]uint64            `json:"skips"`
	Signals   map[string]uint64            `json:"signals"`
	Orders    map[string]map[string]uint64 `json:"orders"`
	RiskExits map[string]uint64            `json:"risk_exits"`
	Filtered  map[string]uint64            `json:"filtered"`
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	c := &Collector{}
	c.Reset()
	return c
}

// Reset clears every counter
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks = 0
	c.equity = 0
	c.skips = make(map[string]uint64)
	c.signals = make(map[string]uint64)
	c.orders = make(map[string]map[string]uint64)
	c.riskExits = make(map[string]uint64)
	c.filtered = make(map[string]uint64)
}

// RecordTick counts a processed tick
func (c *Collector) RecordTick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks++
}

// RecordEquity sets the last recorded equity
func (c *Collector) RecordEquity(equity float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.equity = equity
}

// RecordSkip counts a skipped tick by reason
func (c *Collector) RecordSkip(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.skips[orUnknown(reason)]++
}

// RecordSignal counts a strategy signal by type
func (c *Collector) RecordSignal(signalType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signals[orUnknown(signalType)]++
}

// RecordFiltered counts a signal demoted by the risk gate
func (c *Collector) RecordFiltered(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filtered[orUnknown(reason)]++
}

// RecordOrder counts a filled order
func (c *Collector) RecordOrder(symbol, side string) {
	symbol, side = orUnknown(symbol), orUnknown(side)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.orders[symbol]; !exists {
		c.orders[symbol] = make(map[string]uint64)
	}
	c.orders[symbol][side]++
}

// RecordRiskExit counts a forced close by trigger
func (c *Collector) RecordRiskExit(trigger string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.riskExits[orUnknown(trigger)]++
}

// Snapshot copies the counters
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	orders := make(map[string]map[string]uint64, len(c.orders))
	for symbol, sides := range c.orders {
		orders[symbol] = copyCounts(sides)
	}
	return Snapshot{
		Ticks:     c.ticks,
		Equity:    c.equity,
		Skips:     copyCounts(c.skips),
		Signals:   copyCounts(c.signals),
		Orders:    orders,
		RiskExits: copyCounts(c.riskExits),
		Filtered:  copyCounts(c.filtered),
	}
}

// WritePrometheus writes the counters in the Prometheus text exposition
// format. Label values are written in sorted order.
func (c *Collector) WritePrometheus(w io.Writer) error {
	s := c.Snapshot()
	builder := &strings.Builder{}

	header(builder, "ticks_total", "counter", "Ticks processed")
	fmt.Fprintf(builder, "%s_ticks_total %d\n", namespace, s.Ticks)

	header(builder, "equity", "gauge", "Last recorded total equity")
	fmt.Fprintf(builder, "%s_equity %f\n", namespace, s.Equity)

	writeCounts(builder, "skipped_ticks_total", "Ticks skipped by reason", "reason", s.Skips)
	writeCounts(builder, "signals_total", "Strategy signals by type", "type", s.Signals)
	writeCounts(builder, "filtered_signals_total", "Signals demoted by the risk gate by reason", "reason", s.Filtered)

	header(builder, "orders_total", "counter", "Filled orders by symbol and side")
	for _, symbol := range sortedKeys(s.Orders) {
		sides := s.Orders[symbol]
		for _, side := range sortedKeys(sides) {
			fmt.Fprintf(builder, "%s_orders_total{symbol=%q,side=%q} %d\n", namespace, symbol, side, sides[side])
		}
	}

	writeCounts(builder, "risk_exits_total", "Forced closes by trigger", "trigger", s.RiskExits)

	_, err := io.WriteString(w, builder.String())
	return err
}

func header(b *strings.Builder, name, kind, help string) {
	fmt.Fprintf(b, "# HELP %s_%s %s\n", namespace, name, help)
	fmt.Fprintf(b, "# TYPE %s_%s %s\n", namespace, name, kind)
}

func writeCounts(b *strings.Builder, name, help, label string, counts map[string]uint64) {
	header(b, name, "counter", help)
	for _, key := range sortedKeys(counts) {
		fmt.Fprintf(b, "%s_%s{%s=%q} %d\n", namespace, name, label, key, counts[key])
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func copyCounts(m map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
