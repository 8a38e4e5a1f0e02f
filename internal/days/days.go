// Package days splits a finished metrics table into per-day segments around a
// reference night time and renders day-over-day activity charts.
//
// It is a post-processing step over MetricRow sequences and never touches the
// streaming core: the segments are slices of the already-computed table.
package days

import (
	"errors"
	"fmt"
	"time"

	"github.com/wristworn/actimetry/internal/pipeline"
)

// DefaultNight is the reference time-of-day used to anchor day boundaries.
var DefaultNight = Night{Hour: 3}

// Night is a reference time of day. A row matches when its timestamp's
// time-of-day equals it to the second.
type Night struct {
	Hour   int
	Minute int
	Second int
}

// Matches reports whether t's time-of-day equals the night reference.
func (n Night) Matches(t time.Time) bool {
	h, m, s := t.Clock()
	return h == n.Hour && m == n.Minute && s == n.Second
}

// ErrMissingENMO reports a table without the enmo column, which day
// extraction needs to find inactive spans.
var ErrMissingENMO = errors.New("day extraction requires the enmo column")

// HoursFromTime returns the moment of the day as a float in [0, 24).
func HoursFromTime(t time.Time) float64 {
	h, m, s := t.Clock()
	return float64(h) + float64(m)/60 + float64(s)/3600
}

// ExtractDays splits rows into days at the night time. Day boundaries are
// inactive spans (enmo == 0 throughout) that cover the night reference; the
// covering span itself is removed, so sleep gaps around the reference do not
// appear in either adjacent day. Spans of zero activity that do not reach the
// night time stay within their day.
//
// TODO: use the raw accelerations to decide whether the device is worn; enmo
// can be 0 from clipping while the raw signal still had variance.
func ExtractDays(rows []pipeline.MetricRow, night Night) ([][]pipeline.MetricRow, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	inactive := make([]bool, len(rows))
	for i := range rows {
		if rows[i].ENMO == nil {
			return nil, fmt.Errorf("row %d: %w", i, ErrMissingENMO)
		}
		inactive[i] = *rows[i].ENMO == 0
	}

	// Run-length boundaries: index i marks a flip between rows i and i+1.
	var boundaries []int
	if inactive[0] {
		boundaries = append(boundaries, 0)
	}
	for i := 0; i+1 < len(inactive); i++ {
		if inactive[i] != inactive[i+1] {
			boundaries = append(boundaries, i)
		}
	}
	boundaries = append(boundaries, len(rows))

	// Consecutive boundary pairs delimit the inactive spans. A span that
	// covers the night reference closes the current day and opens the next
	// one past the span.
	starts := []int{0}
	ends := []int{}
	for k := 0; k+1 < len(boundaries); k += 2 {
		a, b := boundaries[k], boundaries[k+1]
		if coversNight(rows[a:min(b, len(rows))], night) {
			ends = append(ends, a)
			starts = append(starts, b+1)
		}
	}
	ends = append(ends, len(rows))

	var result [][]pipeline.MetricRow
	for i := range starts {
		lo, hi := starts[i], ends[i]
		if lo > len(rows) {
			lo = len(rows)
		}
		if lo < hi {
			result = append(result, rows[lo:hi])
		}
	}
	return result, nil
}

// ContainsNight reports whether the day includes the night reference, which
// identifies days that were not properly split around it (typically the
// first and last partial days of a recording).
func ContainsNight(day []pipeline.MetricRow, night Night) bool {
	return coversNight(day, night)
}

func coversNight(rows []pipeline.MetricRow, night Night) bool {
	for i := range rows {
		if night.Matches(rows[i].Datetime) {
			return true
		}
	}
	return false
}
