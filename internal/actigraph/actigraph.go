// Package actigraph reads Actigraph-format accelerometer CSV exports and
// exposes them as a chunked sample source for the metrics pipeline.
//
// The expected layout is 10 lines of device metadata, a CSV header row, then
// one row per sample with a timestamp column and three acceleration columns.
package actigraph

import (
	"bufio"
	"bytes"
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

	"github.com/wristworn/actimetry/internal/stream"
	"github.com/wristworn/actimetry/internal/units"
)

// Default CSV layout of Actigraph exports.
const (
	DefaultSkipRows        = 10
	DefaultTimestampColumn = "Timestamp"

	// calibrationRows is the prefix used to detect the sampling period.
	calibrationRows = 100

	// estimatePrefixBytes is how much of the file EstimateLines samples.
	estimatePrefixBytes = 32 * 1024 * 1024
)

// DefaultAccelerationColumns are the Actigraph export column names for the
// three axes, in x, y, z order.
var DefaultAccelerationColumns = []string{"Accelerometer X", "Accelerometer Y", "Accelerometer Z"}

// timestampLayouts are tried in order when parsing the timestamp column
// (day-month-year, with or without fractional seconds).
var timestampLayouts = []string{
	"02-01-2006 15:04:05.000",
	"02-01-2006 15:04:05",
}

// ErrEmptyInput reports a calibration prefix with no usable sample rows.
var ErrEmptyInput = errors.New("no sample rows in input")

// ErrInconsistentSamplingRate reports more than one distinct inter-sample
// interval in the calibration prefix. The pipeline requires uniform sampling.
type ErrInconsistentSamplingRate struct {
	Periods []time.Duration
}

func (e *ErrInconsistentSamplingRate) Error() string {
	parts := make([]string, len(e.Periods))
	for i, p := range e.Periods {
		parts[i] = p.String()
	}
	return fmt.Sprintf("inconsistent sampling periods: %s", strings.Join(parts, ", "))
}

// Reader is a sample source over one Actigraph CSV file. The zero value is
// not usable; construct with NewReader.
type Reader struct {
	path                string
	skipRows            int
	timestampColumn     string
	accelerationColumns []string
	sourceUnits         string
}

// Option configures a Reader.
type Option func(*Reader)

// WithSkipRows overrides the number of metadata lines before the CSV header.
func WithSkipRows(n int) Option {
	return func(r *Reader) { r.skipRows = n }
}

// WithColumns overrides the timestamp and acceleration column names.
// accel must name the x, y and z columns in that order.
func WithColumns(timestamp string, accel []string) Option {
	return func(r *Reader) {
		r.timestampColumn = timestamp
		r.accelerationColumns = accel
	}
}

// WithUnits declares the acceleration units used in the file. Samples are
// converted to g on read. Defaults to g.
func WithUnits(u string) Option {
	return func(r *Reader) { r.sourceUnits = u }
}

// NewReader creates a Reader for the CSV file at path.
func NewReader(path string, opts ...Option) *Reader {
	r := &Reader{
		path:                path,
		skipRows:            DefaultSkipRows,
		timestampColumn:     DefaultTimestampColumn,
		accelerationColumns: DefaultAccelerationColumns,
		sourceUnits:         units.G,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// open positions a CSV reader past the metadata lines and resolves the
// column indices from the header row.
func (r *Reader) open() (*os.File, *csv.Reader, *columnIndex, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening recording: %w", err)
	}
	buf := bufio.NewReaderSize(f, 1<<20)
	for i := 0; i < r.skipRows; i++ {
		if _, err := buf.ReadString('\n'); err != nil {
			f.Close()
			if err == io.EOF {
				return nil, nil, nil, fmt.Errorf("%s: %w", r.path, ErrEmptyInput)
			}
			return nil, nil, nil, fmt.Errorf("skipping metadata lines: %w", err)
		}
	}
	cr := csv.NewReader(buf)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		f.Close()
		if err == io.EOF {
			return nil, nil, nil, fmt.Errorf("%s: %w", r.path, ErrEmptyInput)
		}
		return nil, nil, nil, fmt.Errorf("reading CSV header: %w", err)
	}
	idx, err := resolveColumns(header, r.timestampColumn, r.accelerationColumns)
	if err != nil {
		f.Close()
		return nil, nil, nil, err
	}
	return f, cr, idx, nil
}

type columnIndex struct {
	timestamp int
	accel     [3]int
}

func resolveColumns(header []string, timestamp string, accel []string) (*columnIndex, error) {
	find := func(name string) (int, error) {
		for i, h := range header {
			if strings.TrimSpace(h) == name {
				return i, nil
			}
		}
		return 0, fmt.Errorf("column %q not found in CSV header", name)
	}
	idx := &columnIndex{}
	var err error
	if idx.timestamp, err = find(timestamp); err != nil {
		return nil, err
	}
	for i, name := range accel {
		if idx.accel[i], err = find(name); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// parseTimestamp parses a timestamp cell using the supported layouts.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, lastErr)
}

// DetectSamplingPeriod determines the sampling period in milliseconds from
// the first 100 data rows. Exactly one distinct inter-sample interval must be
// observed; the value is trusted for the remainder of the run without
// re-verification, so correctness depends on the recording truly being
// uniformly sampled.
func (r *Reader) DetectSamplingPeriod() (int, error) {
	f, cr, idx, err := r.open()
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var prev time.Time
	distinct := map[time.Duration]struct{}{}
	for i := 0; i < calibrationRows; i++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("reading calibration prefix: %w", err)
		}
		t, err := parseTimestamp(record[idx.timestamp])
		if err != nil {
			return 0, err
		}
		if i > 0 {
			distinct[t.Sub(prev)] = struct{}{}
		}
		prev = t
	}

	if len(distinct) == 0 {
		return 0, fmt.Errorf("calibration prefix of %s: %w", r.path, ErrEmptyInput)
	}
	if len(distinct) > 1 {
		periods := make([]time.Duration, 0, len(distinct))
		for p := range distinct {
			periods = append(periods, p)
		}
		sort.Slice(periods, func(i, j int) bool { return periods[i] < periods[j] })
		return 0, &ErrInconsistentSamplingRate{Periods: periods}
	}
	for p := range distinct {
		ms := int(p / time.Millisecond)
		if ms <= 0 {
			return 0, &ErrInconsistentSamplingRate{Periods: []time.Duration{p}}
		}
		return ms, nil
	}
	return 0, ErrEmptyInput // unreachable
}

// EstimateLines estimates the number of lines in the file by extrapolating
// the newline count of the first 32 MiB to the total file size. Approximate;
// useful only for progress reporting.
func (r *Reader) EstimateLines() (int, error) {
	info, err := os.Stat(r.path)
	if err != nil {
		return 0, fmt.Errorf("stat recording: %w", err)
	}
	f, err := os.Open(r.path)
	if err != nil {
		return 0, fmt.Errorf("opening recording: %w", err)
	}
	defer f.Close()

	sample := make([]byte, estimatePrefixBytes)
	n, err := io.ReadFull(f, sample)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return 0, fmt.Errorf("sampling recording prefix: %w", err)
	}
	if n == 0 {
		return 0, nil
	}
	lines := bytes.Count(sample[:n], []byte{'\n'})
	return int(math.Ceil(float64(info.Size()) / float64(n) * float64(lines))), nil
}

// EstimateBatches estimates how many chunks of rowsPerBatch rows the file
// will yield, for progress reporting.
func (r *Reader) EstimateBatches(rowsPerBatch int) (int, error) {
	lines, err := r.EstimateLines()
	if err != nil {
		return 0, err
	}
	return int(math.Ceil(float64(lines) / float64(rowsPerBatch))), nil
}

// Batches returns a chunk source yielding up to rowsPerBatch samples per
// chunk, in file order. The source is finite and not restartable; call
// Batches again to re-read the file.
func (r *Reader) Batches(rowsPerBatch int) (stream.ChunkSource, error) {
	if rowsPerBatch <= 0 {
		return nil, fmt.Errorf("rows per batch must be positive, got %d", rowsPerBatch)
	}
	f, cr, idx, err := r.open()
	if err != nil {
		return nil, err
	}
	return &batchIterator{
		file:  f,
		csv:   cr,
		idx:   idx,
		rows:  rowsPerBatch,
		units: r.sourceUnits,
	}, nil
}

// batchIterator reads successive fixed-size chunks from an open CSV file.
// It closes the file once the final chunk has been returned.
type batchIterator struct {
	file  *os.File
	csv   *csv.Reader
	idx   *columnIndex
	rows  int
	units string
	done  bool
}

// Next returns the next chunk or io.EOF once the file is exhausted.
func (it *batchIterator) Next() (*stream.Chunk, error) {
	if it.done {
		return nil, io.EOF
	}
	chunk := &stream.Chunk{
		Times: make([]time.Time, 0, it.rows),
		XYZ:   make([][3]float64, 0, it.rows),
	}
	for len(chunk.XYZ) < it.rows {
		record, err := it.csv.Read()
		if err == io.EOF {
			it.done = true
			it.file.Close()
			break
		}
		if err != nil {
			it.done = true
			it.file.Close()
			return nil, fmt.Errorf("reading sample row: %w", err)
		}
		t, err := parseTimestamp(record[it.idx.timestamp])
		if err != nil {
			it.done = true
			it.file.Close()
			return nil, err
		}
		var xyz [3]float64
		for axis, col := range it.idx.accel {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
			if err != nil {
				it.done = true
				it.file.Close()
				return nil, fmt.Errorf("parsing acceleration %q: %w", record[col], err)
			}
			xyz[axis] = units.ToG(v, it.units)
		}
		chunk.Times = append(chunk.Times, t)
		chunk.XYZ = append(chunk.XYZ, xyz)
	}
	if chunk.Len() == 0 {
		return nil, io.EOF
	}
	return chunk, nil
}
