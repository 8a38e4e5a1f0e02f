package actigraph

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/wristworn/actimetry/internal/testutil"
	"github.com/wristworn/actimetry/internal/units"
)

const csvTimestampLayout = "02-01-2006 15:04:05.000"

// buildCSV renders an Actigraph-format fixture: 10 metadata lines, a header
// row, then rows generated by the sample callback.
func buildCSV(rows int, sample func(i int) (time.Time, float64, float64, float64)) string {
	var b strings.Builder
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, "------------ Data File Created By ActiGraph Test Fixture line %d ------------\n", i)
	}
	b.WriteString("Timestamp,Accelerometer X,Accelerometer Y,Accelerometer Z\n")
	for i := 0; i < rows; i++ {
		ts, x, y, z := sample(i)
		fmt.Fprintf(&b, "%s,%g,%g,%g\n", ts.Format(csvTimestampLayout), x, y, z)
	}
	return b.String()
}

func uniformSample(i int) (time.Time, float64, float64, float64) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return base.Add(time.Duration(i) * 10 * time.Millisecond), float64(i), 0, 1
}

func TestDetectSamplingPeriod(t *testing.T) {
	path := testutil.WriteTempFile(t, "uniform.csv", buildCSV(150, uniformSample))
	got, err := NewReader(path).DetectSamplingPeriod()
	testutil.AssertNoError(t, err)
	if got != 10 {
		t.Errorf("sampling period = %dms, want 10ms", got)
	}
}

func TestDetectSamplingPeriodInconsistent(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	path := testutil.WriteTempFile(t, "jitter.csv", buildCSV(50, func(i int) (time.Time, float64, float64, float64) {
		// Alternate 10ms and 20ms steps.
		offset := time.Duration(i)*10*time.Millisecond + time.Duration(i/2)*10*time.Millisecond
		return base.Add(offset), 0, 0, 1
	}))
	_, err := NewReader(path).DetectSamplingPeriod()
	var inconsistent *ErrInconsistentSamplingRate
	if !errors.As(err, &inconsistent) {
		t.Fatalf("error = %v, want ErrInconsistentSamplingRate", err)
	}
	if len(inconsistent.Periods) != 2 {
		t.Errorf("distinct periods = %v, want 2 entries", inconsistent.Periods)
	}
}

func TestDetectSamplingPeriodEmpty(t *testing.T) {
	path := testutil.WriteTempFile(t, "empty.csv", buildCSV(0, uniformSample))
	_, err := NewReader(path).DetectSamplingPeriod()
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("no rows: error = %v, want ErrEmptyInput", err)
	}

	// A single row yields no interval either.
	path = testutil.WriteTempFile(t, "single.csv", buildCSV(1, uniformSample))
	_, err = NewReader(path).DetectSamplingPeriod()
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("one row: error = %v, want ErrEmptyInput", err)
	}
}

func TestBatchesChunkSizes(t *testing.T) {
	path := testutil.WriteTempFile(t, "batches.csv", buildCSV(25, uniformSample))
	src, err := NewReader(path).Batches(10)
	testutil.AssertNoError(t, err)

	var sizes []int
	next := 0.0
	for {
		chunk, err := src.Next()
		if err == io.EOF {
			break
		}
		testutil.AssertNoError(t, err)
		sizes = append(sizes, chunk.Len())
		for _, row := range chunk.XYZ {
			if row[0] != next {
				t.Fatalf("sample x = %v, want %v", row[0], next)
			}
			next++
		}
	}
	if len(sizes) != 3 || sizes[0] != 10 || sizes[1] != 10 || sizes[2] != 5 {
		t.Errorf("chunk sizes = %v, want [10 10 5]", sizes)
	}
	if next != 25 {
		t.Errorf("samples read = %v, want 25", next)
	}
}

func TestBatchesTimestamps(t *testing.T) {
	path := testutil.WriteTempFile(t, "times.csv", buildCSV(5, uniformSample))
	src, err := NewReader(path).Batches(5)
	testutil.AssertNoError(t, err)
	chunk, err := src.Next()
	testutil.AssertNoError(t, err)

	want := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, ts := range chunk.Times {
		if !ts.Equal(want.Add(time.Duration(i) * 10 * time.Millisecond)) {
			t.Errorf("timestamp[%d] = %v", i, ts)
		}
	}
}

func TestBatchesMilliGConversion(t *testing.T) {
	path := testutil.WriteTempFile(t, "mg.csv", buildCSV(3, func(i int) (time.Time, float64, float64, float64) {
		ts, _, _, _ := uniformSample(i)
		return ts, 0, 0, 1000 // 1000 mg = 1 g
	}))
	src, err := NewReader(path, WithUnits(units.MilliG)).Batches(3)
	testutil.AssertNoError(t, err)
	chunk, err := src.Next()
	testutil.AssertNoError(t, err)
	for i, row := range chunk.XYZ {
		if row[2] != 1 {
			t.Errorf("z[%d] = %v, want 1 (converted from mg)", i, row[2])
		}
	}
}

func TestBatchesNotRestartable(t *testing.T) {
	path := testutil.WriteTempFile(t, "restart.csv", buildCSV(4, uniformSample))
	reader := NewReader(path)

	src, err := reader.Batches(10)
	testutil.AssertNoError(t, err)
	if _, err := src.Next(); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	if _, err := src.Next(); err != io.EOF {
		t.Fatalf("exhausted source error = %v, want io.EOF", err)
	}

	// A fresh call re-reads from the start.
	src, err = reader.Batches(10)
	testutil.AssertNoError(t, err)
	chunk, err := src.Next()
	testutil.AssertNoError(t, err)
	if chunk.Len() != 4 {
		t.Errorf("fresh source chunk = %d rows, want 4", chunk.Len())
	}
}

func TestEstimateLines(t *testing.T) {
	path := testutil.WriteTempFile(t, "estimate.csv", buildCSV(25, uniformSample))
	reader := NewReader(path)

	lines, err := reader.EstimateLines()
	testutil.AssertNoError(t, err)
	// The whole file fits in the sampled prefix, so the estimate is exact:
	// 10 metadata + 1 header + 25 data lines.
	if lines != 36 {
		t.Errorf("estimated lines = %d, want 36", lines)
	}

	batches, err := reader.EstimateBatches(10)
	testutil.AssertNoError(t, err)
	if batches != 4 {
		t.Errorf("estimated batches = %d, want 4", batches)
	}
}

func TestMissingColumn(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 10; i++ {
		b.WriteString("metadata\n")
	}
	b.WriteString("Timestamp,Axis A,Axis B,Axis C\n")
	path := testutil.WriteTempFile(t, "columns.csv", b.String())

	_, err := NewReader(path).Batches(10)
	testutil.AssertError(t, err)

	// Custom column names resolve.
	_, err = NewReader(path, WithColumns("Timestamp", []string{"Axis A", "Axis B", "Axis C"})).Batches(10)
	testutil.AssertNoError(t, err)
}
