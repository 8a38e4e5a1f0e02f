// Package stream implements the chunked streaming layer of the metrics
// pipeline: fixed-capacity sample chunks, boundary-safe padding across chunk
// edges, and the centered rolling-median denoiser.
//
// The layer guarantees that downstream window reductions produce results
// identical to a single-pass computation over the whole recording while only
// ever holding one chunk plus O(padding) carried samples in memory.
package stream

import (
	"errors"
	"io"
	"math"
	"time"
)

var (
	// ErrEmptyChunk reports a chunk that was required to contain samples but
	// has none.
	ErrEmptyChunk = errors.New("chunk contains no samples")

	// ErrAllNaN reports that edge repair found no finite sample to replicate.
	ErrAllNaN = errors.New("all values are NaN")
)

// Chunk is an ordered, fixed-capacity block of samples read in source order.
// Times and XYZ are parallel; XYZ rows hold the x, y and z accelerations in g.
// The final chunk of a source may be shorter than the configured capacity.
type Chunk struct {
	Times []time.Time
	XYZ   [][3]float64
}

// Len returns the number of samples in the chunk.
func (c *Chunk) Len() int { return len(c.XYZ) }

// PaddedChunk is a chunk extended with Pad rows on each side, borrowed from
// the neighbouring chunks where they exist and NaN-filled at the absolute
// stream ends. XYZ has length Len(chunk) + 2*Pad.
type PaddedChunk struct {
	XYZ [][3]float64
	Pad int
}

// ChunkSource yields successive chunks in recording order. Next returns
// io.EOF once the source is exhausted. Sources are finite and not
// restartable.
type ChunkSource interface {
	Next() (*Chunk, error)
}

// nanRows returns n rows with all three axes set to NaN.
func nanRows(n int) [][3]float64 {
	nan := math.NaN()
	rows := make([][3]float64, n)
	for i := range rows {
		rows[i] = [3]float64{nan, nan, nan}
	}
	return rows
}

// SliceSource is a ChunkSource over an in-memory slice of chunks, used in
// tests and by the synthetic replay tooling.
type SliceSource struct {
	chunks []*Chunk
	pos    int
}

// NewSliceSource returns a source yielding the given chunks in order.
func NewSliceSource(chunks []*Chunk) *SliceSource {
	return &SliceSource{chunks: chunks}
}

// Next returns the next chunk or io.EOF.
func (s *SliceSource) Next() (*Chunk, error) {
	if s.pos >= len(s.chunks) {
		return nil, io.EOF
	}
	c := s.chunks[s.pos]
	s.pos++
	return c, nil
}
