package stream

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// OddMedianWidth derives the rolling-median window width from the denoising
// cutoff frequency: 2*round(1000/period/cutoff/2)+1 samples, always odd so
// the window can be centered exactly.
func OddMedianWidth(samplingPeriodMS int, cutoffHz float64) int {
	samples := 1000 / float64(samplingPeriodMS) / cutoffHz
	return 2*int(math.Round(samples/2)) + 1
}

// RollingMedian computes a centered rolling median of width m over the padded
// chunk, per axis independently, and trims m/2 rows from each end so the
// result covers exactly the unpadded chunk. A window containing any NaN
// yields NaN, matching a whole-recording centered rolling median at the
// stream ends; callers repair those residual edges with FillEdgeNaN.
//
// m must be odd and must not exceed 2*Pad+1, otherwise interior positions
// would reach past the borrowed rows and the chunked result could diverge
// from the single-pass one.
func RollingMedian(p *PaddedChunk, m int) ([][3]float64, error) {
	if m%2 == 0 {
		return nil, fmt.Errorf("rolling median width must be odd, got %d", m)
	}
	half := m / 2
	if half > p.Pad {
		return nil, fmt.Errorf("rolling median half-width %d exceeds chunk padding %d", half, p.Pad)
	}
	n := len(p.XYZ) - 2*p.Pad
	if n <= 0 {
		return nil, fmt.Errorf("padded chunk of %d rows with padding %d: %w", len(p.XYZ), p.Pad, ErrEmptyChunk)
	}

	out := make([][3]float64, n)
	window := make([]float64, m)
	for axis := 0; axis < 3; axis++ {
		for i := 0; i < n; i++ {
			center := i + p.Pad
			for j := 0; j < m; j++ {
				window[j] = p.XYZ[center-half+j][axis]
			}
			if floats.HasNaN(window) {
				out[i][axis] = math.NaN()
				continue
			}
			sort.Float64s(window)
			out[i][axis] = window[half]
		}
	}
	return out, nil
}

// FillEdgeNaN repairs leading and trailing NaN values in place by replicating
// the nearest finite value backward and forward. Interior values are never
// touched. Returns ErrAllNaN if the series has no finite value.
func FillEdgeNaN(values []float64) error {
	first, last := -1, -1
	for i, v := range values {
		if !math.IsNaN(v) {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return fmt.Errorf("edge repair over %d values: %w", len(values), ErrAllNaN)
	}
	for i := 0; i < first; i++ {
		values[i] = values[first]
	}
	for i := last + 1; i < len(values); i++ {
		values[i] = values[last]
	}
	return nil
}

// FillEdgeNaNRows applies FillEdgeNaN to each axis of a row-major sample
// block.
func FillEdgeNaNRows(rows [][3]float64) error {
	column := make([]float64, len(rows))
	for axis := 0; axis < 3; axis++ {
		for i := range rows {
			column[i] = rows[i][axis]
		}
		if err := FillEdgeNaN(column); err != nil {
			return fmt.Errorf("axis %d: %w", axis, err)
		}
		for i := range rows {
			rows[i][axis] = column[i]
		}
	}
	return nil
}
