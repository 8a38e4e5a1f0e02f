package metrics

import (
	"errors"
	"math"
	"testing"

	"github.com/wristworn/actimetry/internal/testutil"
)

func constantWindows(count, samples int, x, y, z float64) [][][3]float64 {
	flat := make([][3]float64, count*samples)
	for i := range flat {
		flat[i] = [3]float64{x, y, z}
	}
	return Windows(flat, samples)
}

func TestWindowsDropsTrailingRemainder(t *testing.T) {
	const w = 8
	cases := []struct {
		samples int
		want    int
	}{
		{0, 0},
		{7, 0},
		{8, 1},
		{9, 1},
		{24, 3},
		{27, 3},
	}
	for _, c := range cases {
		windows := Windows(make([][3]float64, c.samples), w)
		if len(windows) != c.want {
			t.Errorf("Windows(%d samples, %d) = %d windows, want %d", c.samples, w, len(windows), c.want)
		}
		for i, win := range windows {
			if len(win) != w {
				t.Errorf("window %d has %d samples, want %d", i, len(win), w)
			}
		}
	}
}

func TestWindowsShareBacking(t *testing.T) {
	flat := make([][3]float64, 16)
	windows := Windows(flat, 8)
	flat[8][1] = 42
	if windows[1][0][1] != 42 {
		t.Error("windows should be views over the input, not copies")
	}
}

func TestENAndENMOGravityOnly(t *testing.T) {
	// A resting device measuring exactly 1g: en ~ 1, enmo ~ 0.
	windows := constantWindows(3, 10, 0, 0, 1)
	for _, en := range ComputeEN(windows) {
		testutil.AssertInDelta(t, en, 1, 1e-12)
	}
	for _, enmo := range ComputeENMO(windows) {
		testutil.AssertInDelta(t, enmo, 0, 1e-12)
	}
}

func TestENAndENMOZeroSignal(t *testing.T) {
	// All-zero acceleration must not divide by zero and yields 0 for both.
	windows := constantWindows(2, 5, 0, 0, 0)
	for _, en := range ComputeEN(windows) {
		if en != 0 {
			t.Errorf("en = %v, want 0", en)
		}
	}
	for _, enmo := range ComputeENMO(windows) {
		if enmo != 0 {
			t.Errorf("enmo = %v, want 0", enmo)
		}
	}
}

func TestENMOClipsBelowGravity(t *testing.T) {
	// Sub-1g magnitudes clip to zero instead of going negative.
	windows := constantWindows(1, 4, 0, 0, 0.5)
	if got := ComputeENMO(windows)[0]; got != 0 {
		t.Errorf("enmo = %v, want 0", got)
	}

	// Alternating 1.5g / 0.5g: clipped mean is 0.25, not 0.
	flat := make([][3]float64, 4)
	flat[0] = [3]float64{0, 0, 1.5}
	flat[1] = [3]float64{0, 0, 0.5}
	flat[2] = [3]float64{0, 0, 1.5}
	flat[3] = [3]float64{0, 0, 0.5}
	if got := ComputeENMO(Windows(flat, 4))[0]; math.Abs(got-0.25) > 1e-12 {
		t.Errorf("clipped enmo = %v, want 0.25", got)
	}
}

func TestAnglesPureAxisGravity(t *testing.T) {
	// Gravity along x only: anglex = 90, angley = anglez = 0.
	anglex, angley, anglez := ComputeAngles(constantWindows(2, 6, 1, 0, 0))
	for i := range anglex {
		testutil.AssertInDelta(t, anglex[i], 90, 1e-9)
		testutil.AssertInDelta(t, angley[i], 0, 1e-9)
		testutil.AssertInDelta(t, anglez[i], 0, 1e-9)
	}

	// Negative z gravity: anglez = -90.
	_, _, anglez = ComputeAngles(constantWindows(1, 6, 0, 0, -1))
	testutil.AssertInDelta(t, anglez[0], -90, 1e-9)
}

func TestAnglesEqualComponents(t *testing.T) {
	// Equal components: each angle is atan2(1, sqrt(2)) = 35.264...
	want := math.Atan2(1, math.Sqrt2) * 180 / math.Pi
	anglex, angley, anglez := ComputeAngles(constantWindows(1, 3, 1, 1, 1))
	testutil.AssertInDelta(t, anglex[0], want, 1e-9)
	testutil.AssertInDelta(t, angley[0], want, 1e-9)
	testutil.AssertInDelta(t, anglez[0], want, 1e-9)
}

func TestAnglesZeroSignal(t *testing.T) {
	// atan2(0, 0) is 0; no division error for an all-zero window.
	anglex, angley, anglez := ComputeAngles(constantWindows(1, 4, 0, 0, 0))
	if anglex[0] != 0 || angley[0] != 0 || anglez[0] != 0 {
		t.Errorf("angles = %v, %v, %v, want all 0", anglex[0], angley[0], anglez[0])
	}
}

func TestValidateSet(t *testing.T) {
	if err := ValidateSet([]string{EN, ENMO, Angles}); err != nil {
		t.Fatalf("valid set rejected: %v", err)
	}
	err := ValidateSet([]string{"enmo", "bogus", "zzz"})
	var unsupported *ErrUnsupportedMetric
	if !errors.As(err, &unsupported) {
		t.Fatalf("error = %v, want ErrUnsupportedMetric", err)
	}
	if len(unsupported.Names) != 2 {
		t.Errorf("unknown names = %v, want 2 entries", unsupported.Names)
	}
}

func TestParseList(t *testing.T) {
	names, err := ParseList(" Angles, enmo ")
	if err != nil {
		t.Fatalf("ParseList: %v", err)
	}
	if len(names) != 2 || names[0] != Angles || names[1] != ENMO {
		t.Errorf("names = %v", names)
	}

	if _, err := ParseList("bogus"); err == nil {
		t.Error("expected error for unknown metric")
	}
}
