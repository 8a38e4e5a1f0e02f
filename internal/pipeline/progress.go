package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/wristworn/actimetry/internal/timeutil"
)

// ProgressSink receives batch-level progress callbacks from a pipeline run.
// Implementations decide how (or whether) to present them; the core never
// constructs any presentation itself.
type ProgressSink interface {
	// Start announces the estimated total number of batches. The estimate
	// may be zero when unavailable and is approximate in any case.
	Start(totalBatches int)

	// Step records one completed batch.
	Step()

	// Done marks the run finished.
	Done()
}

// NoopProgress discards all progress callbacks.
type NoopProgress struct{}

func (NoopProgress) Start(int) {}
func (NoopProgress) Step()     {}
func (NoopProgress) Done()     {}

// TerminalProgress renders a single-line progress readout with batch rate
// and ETA, rewriting the line on each step.
type TerminalProgress struct {
	W     io.Writer
	Clock timeutil.Clock

	total   int
	count   int
	started time.Time
}

// NewTerminalProgress returns a TerminalProgress writing to w using the real
// clock.
func NewTerminalProgress(w io.Writer) *TerminalProgress {
	return &TerminalProgress{W: w, Clock: timeutil.RealClock{}}
}

// Start records the batch estimate and the start time.
func (p *TerminalProgress) Start(totalBatches int) {
	p.total = totalBatches
	p.count = 0
	p.started = p.Clock.Now()
}

// Step advances the readout by one batch.
func (p *TerminalProgress) Step() {
	p.count++
	elapsed := p.Clock.Since(p.started)
	rate := 0.0
	if elapsed > 0 {
		rate = float64(p.count) / elapsed.Seconds()
	}
	if p.total > 0 && rate > 0 {
		remaining := time.Duration(float64(p.total-p.count)/rate) * time.Second
		if remaining < 0 {
			remaining = 0
		}
		fmt.Fprintf(p.W, "\rbatch %d/%d (%.1f/s, eta %s)", p.count, p.total, rate, remaining.Round(time.Second))
		return
	}
	fmt.Fprintf(p.W, "\rbatch %d (%.1f/s)", p.count, rate)
}

// Done terminates the progress line.
func (p *TerminalProgress) Done() {
	fmt.Fprintln(p.W)
}
