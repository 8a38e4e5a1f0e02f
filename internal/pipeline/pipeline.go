// Package pipeline drives the streaming windowed-metrics computation:
// sampling-period calibration, chunked ingestion with boundary-safe padding,
// window segmentation, metric reduction and table assembly.
//
// The pipeline is a deterministic batch transform: for a fixed recording and
// configuration it produces the same table regardless of batch size, while
// holding only O(batch + padding) samples in memory.
package pipeline

import (
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/wristworn/actimetry/internal/metrics"
	"github.com/wristworn/actimetry/internal/monitoring"
	"github.com/wristworn/actimetry/internal/stream"
)

// Source is the injected sample source. DetectSamplingPeriod and
// EstimateBatches inspect a prefix of the recording; Batches yields the
// samples chunk by chunk. A source returned by Batches is finite and not
// restartable.
type Source interface {
	DetectSamplingPeriod() (int, error)
	EstimateBatches(rowsPerBatch int) (int, error)
	Batches(rowsPerBatch int) (stream.ChunkSource, error)
}

// Options configures a pipeline run. The zero value is usable; unset fields
// take the defaults below.
type Options struct {
	// WindowSize is the window duration in seconds. Default 5.
	WindowSize int

	// BatchSize is the number of windows per chunk, a trade-off between
	// memory consumption, speed and progress resolution. Default 1000.
	BatchSize int

	// Metrics selects the computed columns, a subset of {en, enmo, angles}.
	// Default {angles, enmo}.
	Metrics []string

	// HighPassFrequencyAngles is the denoising cutoff in Hz controlling the
	// rolling-median width used for orientation estimation. Default 0.2.
	HighPassFrequencyAngles float64

	// Progress receives batch-level progress callbacks. Nil disables
	// progress reporting entirely (the batch-count estimate is then never
	// computed).
	Progress ProgressSink
}

func (o Options) withDefaults() Options {
	if o.WindowSize == 0 {
		o.WindowSize = 5
	}
	if o.BatchSize == 0 {
		o.BatchSize = 1000
	}
	if o.Metrics == nil {
		o.Metrics = []string{metrics.Angles, metrics.ENMO}
	}
	if o.HighPassFrequencyAngles == 0 {
		o.HighPassFrequencyAngles = 0.2
	}
	return o
}

func (o Options) wants(name string) bool {
	for _, m := range o.Metrics {
		if m == name {
			return true
		}
	}
	return false
}

// RunParams is the effective configuration snapshot attached to a finished
// table, so results can be attributed to the exact parameters that produced
// them.
type RunParams struct {
	WindowSize              int      `json:"window_size"`
	BatchSize               int      `json:"batch_size"`
	Metrics                 []string `json:"metrics"`
	HighPassFrequencyAngles float64  `json:"high_pass_frequency_angles"`
	SamplingPeriodMS        int      `json:"sampling_period_ms"`
}

// Run executes the full pipeline over source and returns the finished table.
// It advances through four phases: calibration (sampling period), streaming
// (one chunk at a time through the padder and the kernels), finalisation
// (table assembly) and done.
// All fatal conditions abort the run immediately; there is no partial-result
// recovery, since rerunning an unchanged configuration over the same
// recording reproduces the same failure.
func Run(source Source, opts Options) (*Table, error) {
	opts = opts.withDefaults()

	// Validate the metric set up front so a typo fails before any data is read.
	if err := metrics.ValidateSet(opts.Metrics); err != nil {
		return nil, err
	}
	if len(opts.Metrics) == 0 {
		return nil, fmt.Errorf("no metrics requested")
	}

	samplingPeriod, err := source.DetectSamplingPeriod()
	if err != nil {
		return nil, fmt.Errorf("calibrating sampling period: %w", err)
	}

	samplesPerWindow := opts.WindowSize * 1000 / samplingPeriod
	if samplesPerWindow < 1 {
		return nil, fmt.Errorf("window of %ds holds no samples at a %dms sampling period", opts.WindowSize, samplingPeriod)
	}
	rowsPerBatch := samplesPerWindow * opts.BatchSize

	// Rolling-median geometry, only needed for orientation angles.
	medianWidth, padding := 0, 0
	if opts.wants(metrics.Angles) {
		medianWidth = stream.OddMedianWidth(samplingPeriod, opts.HighPassFrequencyAngles)
		padding = medianWidth / 2
		if padding >= rowsPerBatch {
			return nil, fmt.Errorf("rolling median half-width %d requires batches larger than %d rows", padding, rowsPerBatch)
		}
	}

	if opts.Progress != nil {
		total, err := source.EstimateBatches(rowsPerBatch)
		if err != nil {
			monitoring.Logf("batch estimate unavailable: %v", err)
			total = 0
		}
		opts.Progress.Start(total)
		defer opts.Progress.Done()
	}

	chunks, err := source.Batches(rowsPerBatch)
	if err != nil {
		return nil, fmt.Errorf("opening sample stream: %w", err)
	}
	padder := stream.NewPadder(chunks, padding)

	table := &Table{
		RunID: uuid.New(),
		Params: RunParams{
			WindowSize:              opts.WindowSize,
			BatchSize:               opts.BatchSize,
			Metrics:                 append([]string(nil), opts.Metrics...),
			HighPassFrequencyAngles: opts.HighPassFrequencyAngles,
			SamplingPeriodMS:        samplingPeriod,
		},
		Columns: columnsFor(opts),
	}

	for {
		pair, err := padder.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		// A final chunk too short to fill one window ends the output early
		// rather than erroring; stop pulling from the source.
		if pair.Chunk.Len() < samplesPerWindow {
			break
		}
		monitoring.Debugf("chunk at %s: %d samples", pair.Chunk.Times[0], pair.Chunk.Len())
		if err := appendRows(table, pair, opts, samplesPerWindow, medianWidth); err != nil {
			return nil, err
		}
		if opts.Progress != nil {
			opts.Progress.Step()
		}
	}

	table.finalize()
	return table, nil
}

// appendRows reduces one chunk to its metric rows and appends them to the
// table.
func appendRows(table *Table, pair stream.Pair, opts Options, samplesPerWindow, medianWidth int) error {
	windows := metrics.Windows(pair.Chunk.XYZ, samplesPerWindow)
	rows := make([]MetricRow, len(windows))
	for i := range rows {
		rows[i].Datetime = pair.Chunk.Times[i*samplesPerWindow]
	}

	if opts.wants(metrics.EN) {
		for i, v := range metrics.ComputeEN(windows) {
			rows[i].EN = ptr(v)
		}
	}
	if opts.wants(metrics.ENMO) {
		for i, v := range metrics.ComputeENMO(windows) {
			rows[i].ENMO = ptr(v)
		}
	}
	if opts.wants(metrics.Angles) {
		denoised, err := stream.RollingMedian(pair.Padded, medianWidth)
		if err != nil {
			return fmt.Errorf("denoising chunk at %s: %w", pair.Chunk.Times[0], err)
		}
		if err := stream.FillEdgeNaNRows(denoised); err != nil {
			return fmt.Errorf("repairing chunk edges at %s: %w", pair.Chunk.Times[0], err)
		}
		anglex, angley, anglez := metrics.ComputeAngles(metrics.Windows(denoised, samplesPerWindow))
		for i := range rows {
			rows[i].AngleX = ptr(anglex[i])
			rows[i].AngleY = ptr(angley[i])
			rows[i].AngleZ = ptr(anglez[i])
		}
	}

	table.Rows = append(table.Rows, rows...)
	return nil
}

func ptr(v float64) *float64 { return &v }
