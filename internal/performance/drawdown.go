package performance

import (
	"sort"
	"time"
)

// DrawdownPeriod is one decline from a peak, closed when the curve exceeds
// that peak again. An unresolved period has a nil RecoveryDate.
type DrawdownPeriod struct {
	StartDate    time.Time     `json:"start_date"`   // date of the peak
	DeclineDate  time.Time     `json:"decline_date"` // first point below the peak
	TroughDate   time.Time     `json:"trough_date"`
	EndDate      time.Time     `json:"end_date"` // recovery, or the last point when unresolved
	RecoveryDate *time.Time    `json:"recovery_date"`
	PeakValue    float64       `json:"peak_value"`
	TroughValue  float64       `json:"trough_value"`
	DrawdownPct  float64       `json:"drawdown_pct"`
	Duration     time.Duration `json:"duration"`

	StartIndex   int `json:"start_index"`
	DeclineIndex int `json:"decline_index"`
	TroughIndex  int `json:"trough_index"`
	EndIndex     int `json:"end_index"`
}

// Recovered reports whether the curve regained the peak
func (p DrawdownPeriod) Recovered() bool {
	return p.RecoveryDate != nil
}

// DurationDays returns the duration in whole days
func (p DrawdownPeriod) DurationDays() int {
	return int(p.Duration / (24 * time.Hour))
}

type drawdownState int

const (
	stateNormal drawdownState = iota
	stateInDrawdown
)

// DrawdownPeriods extracts drawdown periods from an equity curve.
//
// The curve is NORMAL until a value falls below the running peak, which opens
// a period starting at the peak. While in drawdown the trough follows the
// lowest value. A value strictly above the peak closes the period and
// becomes the new peak; a value equal to the peak does neither. A period
// still open at the end of the curve is emitted unresolved.
func DrawdownPeriods(timestamps []time.Time, values []float64) []DrawdownPeriod {
	n := len(values)
	if len(timestamps) < n {
		n = len(timestamps)
	}
	if n == 0 {
		return nil
	}

	var periods []DrawdownPeriod
	state := stateNormal
	peakIdx := 0
	var current DrawdownPeriod

	for i := 0; i < n; i++ {
		v := values[i]
		peak := values[peakIdx]

		switch state {
		case stateNormal:
			if v > peak {
				peakIdx = i
			} else if v < peak {
				state = stateInDrawdown
				current = DrawdownPeriod{
					StartDate:    timestamps[peakIdx],
					StartIndex:   peakIdx,
					DeclineDate:  timestamps[i],
					DeclineIndex: i,
					PeakValue:    peak,
					TroughValue:  v,
					TroughDate:   timestamps[i],
					TroughIndex:  i,
				}
			}

		case stateInDrawdown:
			if v > peak {
				recovery := timestamps[i]
				periods = append(periods, closePeriod(current, timestamps[i], i, &recovery))
				state = stateNormal
				peakIdx = i
			} else if v < current.TroughValue {
				current.TroughValue = v
				current.TroughDate = timestamps[i]
				current.TroughIndex = i
			}
		}
	}

	if state == stateInDrawdown {
		periods = append(periods, closePeriod(current, timestamps[n-1], n-1, nil))
	}
	return periods
}

func closePeriod(p DrawdownPeriod, end time.Time, endIdx int, recovery *time.Time) DrawdownPeriod {
	p.EndDate = end
	p.EndIndex = endIdx
	p.RecoveryDate = recovery
	p.Duration = end.Sub(p.StartDate)
	if p.PeakValue != 0 {
		p.DrawdownPct = (p.PeakValue - p.TroughValue) / p.PeakValue
	}
	return p
}

// TopDrawdowns returns the n deepest periods, deepest first. Ties keep
// chronological order.
func TopDrawdowns(periods []DrawdownPeriod, n int) []DrawdownPeriod {
	sorted := make([]DrawdownPeriod, len(periods))
	copy(sorted, periods)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DrawdownPct > sorted[j].DrawdownPct
	})
	if n >= 0 && n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}
