package stream

import (
	"fmt"
	"io"
)

// ErrShortIntermediateChunk reports a non-final chunk shorter than the
// padding width. Filling the suffix pad of the preceding chunk would then
// require looking two chunks ahead, which the one-chunk lookahead contract
// rules out. It indicates a misconfigured chunk size relative to padding.
type ErrShortIntermediateChunk struct {
	ChunkLen int
	Pad      int
}

func (e *ErrShortIntermediateChunk) Error() string {
	return fmt.Sprintf("intermediate chunk of %d samples is shorter than padding %d", e.ChunkLen, e.Pad)
}

// Pair couples a chunk with its padded variant. Both cover the same samples;
// Padded additionally carries Pad rows borrowed from each neighbour.
type Pair struct {
	Chunk  *Chunk
	Padded *PaddedChunk
}

// Padder consumes a ChunkSource and emits one Pair per chunk. It holds
// exactly one buffered chunk of lookahead so that each emitted chunk can
// borrow its suffix pad from the following chunk, plus the last Pad rows of
// the previously emitted chunk for the prefix pad. Missing neighbours at the
// absolute stream ends are NaN-filled.
//
// Emission of chunk k happens only once chunk k+1 (or end of stream) has been
// observed: one step of buffering latency, never more than one chunk of
// retained data.
type Padder struct {
	src ChunkSource
	pad int

	buffered *Chunk       // lookahead: next chunk to emit
	carried  [][3]float64 // last pad rows of the previously emitted chunk
	primed   bool
	done     bool
}

// NewPadder wraps src with a boundary padder borrowing pad rows from each
// neighbouring chunk. pad must be >= 0.
func NewPadder(src ChunkSource, pad int) *Padder {
	return &Padder{src: src, pad: pad}
}

// Next returns the pair for the next chunk, or io.EOF once the source is
// exhausted.
func (p *Padder) Next() (Pair, error) {
	if p.done {
		return Pair{}, io.EOF
	}
	if !p.primed {
		first, err := p.src.Next()
		if err != nil {
			p.done = true
			return Pair{}, err
		}
		if first.Len() == 0 {
			p.done = true
			return Pair{}, fmt.Errorf("first chunk: %w", ErrEmptyChunk)
		}
		p.buffered = first
		p.primed = true
	}

	current := p.buffered
	next, err := p.src.Next()
	switch err {
	case nil:
		// Only the final chunk may be shorter than the padding width; the
		// presence of a successor makes current intermediate.
		if current.Len() < p.pad {
			p.done = true
			return Pair{}, &ErrShortIntermediateChunk{ChunkLen: current.Len(), Pad: p.pad}
		}
		p.buffered = next
	case io.EOF:
		p.buffered = nil
		p.done = true
	default:
		p.done = true
		return Pair{}, fmt.Errorf("reading lookahead chunk: %w", err)
	}

	padded := p.assemble(current, p.buffered)

	// The prefix pad for the next chunk is the tail of this chunk's
	// unpadded rows, preserving exact row content across the boundary.
	if p.buffered != nil {
		tail := current.XYZ[current.Len()-p.pad:]
		p.carried = append(p.carried[:0], tail...)
	}

	return Pair{Chunk: current, Padded: padded}, nil
}

// assemble builds the padded variant of current, borrowing the suffix from
// next when present.
func (p *Padder) assemble(current, next *Chunk) *PaddedChunk {
	xyz := make([][3]float64, 0, current.Len()+2*p.pad)

	if p.carried == nil {
		xyz = append(xyz, nanRows(p.pad)...)
	} else {
		xyz = append(xyz, p.carried...)
	}

	xyz = append(xyz, current.XYZ...)

	switch {
	case next == nil:
		xyz = append(xyz, nanRows(p.pad)...)
	case next.Len() >= p.pad:
		xyz = append(xyz, next.XYZ[:p.pad]...)
	default:
		// The final chunk may be too small to fill the suffix; top up with NaN.
		xyz = append(xyz, next.XYZ...)
		xyz = append(xyz, nanRows(p.pad-next.Len())...)
	}

	return &PaddedChunk{XYZ: xyz, Pad: p.pad}
}
