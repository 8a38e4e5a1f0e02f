// Package metrics provides the per-window reduction kernels of the pipeline:
// fixed-size window segmentation, Euclidean-norm activity indices (EN, ENMO)
// and body-tilt orientation angles.
//
// All kernels are pure reductions over a windowed sample block and are
// deterministic for a given input.
package metrics

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Recognized metric names.
const (
	EN     = "en"
	ENMO   = "enmo"
	Angles = "angles"
)

// ErrUnsupportedMetric reports requested metric names outside the recognized
// set. It is raised before any data is read.
type ErrUnsupportedMetric struct {
	Names []string
}

func (e *ErrUnsupportedMetric) Error() string {
	return fmt.Sprintf("unsupported metrics: %s (valid: %s, %s, %s)",
		strings.Join(e.Names, ", "), EN, ENMO, Angles)
}

// ValidateSet checks that every requested metric name is recognized.
func ValidateSet(names []string) error {
	var unknown []string
	for _, name := range names {
		switch name {
		case EN, ENMO, Angles:
		default:
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return &ErrUnsupportedMetric{Names: unknown}
	}
	return nil
}

// ParseList splits a comma-separated metric list and validates it.
func ParseList(list string) ([]string, error) {
	var names []string
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			names = append(names, strings.ToLower(name))
		}
	}
	if err := ValidateSet(names); err != nil {
		return nil, err
	}
	return names, nil
}

// Windows reshapes a flat sample block into non-overlapping windows of
// samplesPerWindow rows each. The returned windows share backing storage with
// xyz; no samples are copied. A trailing remainder shorter than one window is
// dropped, never carried over.
func Windows(xyz [][3]float64, samplesPerWindow int) [][][3]float64 {
	count := len(xyz) / samplesPerWindow
	windows := make([][][3]float64, count)
	for i := 0; i < count; i++ {
		windows[i] = xyz[i*samplesPerWindow : (i+1)*samplesPerWindow]
	}
	return windows
}

// norms fills dst with the per-sample Euclidean norms of the window.
func norms(window [][3]float64, dst []float64) {
	for i, s := range window {
		dst[i] = math.Sqrt(s[0]*s[0] + s[1]*s[1] + s[2]*s[2])
	}
}

// ComputeEN returns, for each window, the mean per-sample vector magnitude
// without gravity removal.
func ComputeEN(windows [][][3]float64) []float64 {
	out := make([]float64, len(windows))
	if len(windows) == 0 {
		return out
	}
	scratch := make([]float64, len(windows[0]))
	for i, w := range windows {
		norms(w, scratch)
		out[i] = stat.Mean(scratch, nil)
	}
	return out
}

// ComputeENMO returns, for each window, the mean per-sample vector magnitude
// minus the 1g gravity baseline, clipped at zero before averaging.
func ComputeENMO(windows [][][3]float64) []float64 {
	out := make([]float64, len(windows))
	if len(windows) == 0 {
		return out
	}
	scratch := make([]float64, len(windows[0]))
	for i, w := range windows {
		norms(w, scratch)
		for j, en := range scratch {
			scratch[j] = math.Max(en-1, 0)
		}
		out[i] = stat.Mean(scratch, nil)
	}
	return out
}

// ComputeAngles returns, for each window, the mean per-sample tilt angle of
// each axis in degrees, where anglex = atan2(x, sqrt(y²+z²)) and similar for
// y and z. The angles describe the direction of the acceleration only, not
// its magnitude. Callers denoise the signal first so transient movement does
// not dominate the orientation estimate.
func ComputeAngles(windows [][][3]float64) (anglex, angley, anglez []float64) {
	anglex = make([]float64, len(windows))
	angley = make([]float64, len(windows))
	anglez = make([]float64, len(windows))
	if len(windows) == 0 {
		return anglex, angley, anglez
	}
	const radToDeg = 180 / math.Pi
	ax := make([]float64, len(windows[0]))
	ay := make([]float64, len(windows[0]))
	az := make([]float64, len(windows[0]))
	for i, w := range windows {
		for j, s := range w {
			ax[j] = math.Atan2(s[0], math.Hypot(s[1], s[2])) * radToDeg
			ay[j] = math.Atan2(s[1], math.Hypot(s[0], s[2])) * radToDeg
			az[j] = math.Atan2(s[2], math.Hypot(s[0], s[1])) * radToDeg
		}
		anglex[i] = stat.Mean(ax, nil)
		angley[i] = stat.Mean(ay, nil)
		anglez[i] = stat.Mean(az, nil)
	}
	return anglex, angley, anglez
}
