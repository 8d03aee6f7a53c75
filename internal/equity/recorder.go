// Package equity records the equity curve of a run.
package equity

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrOutOfOrder is returned when a point is older than the last one recorded
var ErrOutOfOrder = errors.New("equity point out of order")

// Point is the total equity observed at a timestamp
type Point struct {
	Timestamp time.Time       `json:"timestamp"`
	Equity    decimal.Decimal `json:"total_equity"`
}

// Recorder is an append-only equity series ordered by non-decreasing
// timestamp
type Recorder struct {
	points []Point
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Append records equity at ts
func (r *Recorder) Append(ts time.Time, equity decimal.Decimal) error {
	if last, ok := r.Last(); ok && ts.Before(last.Timestamp) {
		return fmt.Errorf("%w: %s before %s", ErrOutOfOrder, ts.Format(time.RFC3339), last.Timestamp.Format(time.RFC3339))
	}
	r.points = append(r.points, Point{Timestamp: ts, Equity: equity})
	return nil
}

// Points returns a copy of the series
func (r *Recorder) Points() []Point {
	result := make([]Point, len(r.points))
	copy(result, r.points)
	return result
}

// Len returns the number of points
func (r *Recorder) Len() int {
	return len(r.points)
}

// Last returns the most recent point
func (r *Recorder) Last() (Point, bool) {
	if len(r.points) == 0 {
		return Point{}, false
	}
	return r.points[len(r.points)-1], true
}

// Values returns the equity values as floats for analysis
func (r *Recorder) Values() []float64 {
	values := make([]float64, len(r.points))
	for i, p := range r.points {
		values[i] = p.Equity.InexactFloat64()
	}
	return values
}

// Timestamps returns the point timestamps
func (r *Recorder) Timestamps() []time.Time {
	stamps := make([]time.Time, len(r.points))
	for i, p := range r.points {
		stamps[i] = p.Timestamp
	}
	return stamps
}

// Reset clears the series
func (r *Recorder) Reset() {
	r.points = nil
}
