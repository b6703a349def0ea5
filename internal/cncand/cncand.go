// Public domain.

// Package cncand enumerates candidate hotspots and accumulates their
// probabilities from the offset probability field.
//
// A candidate set may be partial, meaning only a 1-based inclusive index
// range [Start, End] carries computed, unnormalized probabilities.  Start and
// End of 0 mean the whole set.
package cncand

import (
	"fmt"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/soniakeys/cnmoonmars/internal/cnbound"
	"github.com/soniakeys/cnmoonmars/internal/cnfield"
	"github.com/soniakeys/cnmoonmars/internal/cngrid"
	"github.com/soniakeys/cnmoonmars/internal/cnobs"
)

// Set is an ordered list of candidates with probabilities.
type Set struct {
	Coords []cngrid.Tuple
	Probs  []float64

	Start, End int

	// run parameters, recorded in partial files
	GridRes, Increment, Interval int
}

// Enumerate lists every tuple accepted by m.TestCandidate, in order of
// axis 0, 1, 2, 3.  Each axis prefix is tested before the next axis is
// walked, so a failing prefix skips its whole subtree.  Unbounded entries
// of m prune nothing, so callers check m.Bounded first.
func Enumerate(m *cnbound.Matrix, fullSpan bool) *Set {
	s := &Set{}
	t := cngrid.Tuple{cngrid.Missing, cngrid.Missing, cngrid.Missing, cngrid.Missing}
	var walk func(axis int)
	walk = func(axis int) {
		if axis == cngrid.NumAxes {
			s.Coords = append(s.Coords, t)
			return
		}
		for v := cngrid.Min[axis]; v <= cngrid.Max[axis]; v++ {
			t[axis] = v
			if m.TestCandidate(t, fullSpan) {
				walk(axis + 1)
			}
		}
		t[axis] = cngrid.Missing
	}
	walk(0)
	s.Probs = make([]float64, len(s.Coords))
	return s
}

// Len returns the number of candidates.
func (s *Set) Len() int { return len(s.Coords) }

// ValidateRange checks a requested index range.  (0, 0) is valid.
func ValidateRange(start, end int) error {
	if start == 0 && end == 0 || start >= 1 && end >= start {
		return nil
	}
	return fmt.Errorf("invalid start and end indices: start = %d, end = %d",
		start, end)
}

// SetRange validates and sets the index range, clamping it to the set
// length.  A range covering the whole set becomes (0, 0).
func (s *Set) SetRange(start, end int) error {
	if err := ValidateRange(start, end); err != nil {
		return err
	}
	n := s.Len()
	start, end = min(start, n), min(end, n)
	if start == 1 && end == n {
		start, end = 0, 0
	}
	s.Start, s.End = start, end
	return nil
}

// IsPartial reports whether the set covers only an index range.
func (s *Set) IsPartial() bool { return s.Start != 0 || s.End != 0 }

// span returns the covered range as 0-based [lo, hi).
func (s *Set) span() (lo, hi int) {
	if !s.IsPartial() {
		return 0, s.Len()
	}
	return s.Start - 1, s.End
}

// Covers reports whether 0-based index x is in the covered range.
func (s *Set) Covers(x int) bool {
	lo, hi := s.span()
	return x >= lo && x < hi
}

// Accumulate adds the support of field f to each covered candidate.  If
// required is not nil, only candidates it accepts are computed.
//
// Candidates are independent, so they are split into blocks accumulated in
// parallel.  Within a candidate, points are summed in field order.
func (s *Set) Accumulate(f *cnfield.Field, required func(int) bool) error {
	lo, hi := s.span()
	nProc := runtime.GOMAXPROCS(0)
	block := max((hi-lo+nProc*4-1)/(nProc*4), 1)

	bCh := make(chan int)
	errCh := make(chan error, 1)
	var wg sync.WaitGroup
	for w := 0; w < nProc; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range bCh {
				for x := b; x < min(b+block, hi); x++ {
					if required != nil && !required(x) {
						continue
					}
					p, err := f.Probability(s.Coords[x], s.Probs[x])
					if err != nil {
						select {
						case errCh <- fmt.Errorf("candidate %d: %w", x+1, err):
						default:
						}
						break
					}
					s.Probs[x] = p
				}
			}
		}()
	}
	for b := lo; b < hi; b += block {
		bCh <- b
	}
	close(bCh)
	wg.Wait()
	select {
	case err := <-errCh:
		return err
	default:
	}
	return nil
}

// Normalize scales probabilities to sum to 1.
func (s *Set) Normalize() error {
	sum := floats.Sum(s.Probs)
	if sum == 0 {
		return fmt.Errorf("candidate probabilities: %w", cnfield.ErrEmpty)
	}
	floats.Scale(1/sum, s.Probs)
	return nil
}

// Regenerator reconstructs all probabilities from required ones.
type Regenerator interface {
	IsRequired(x int) bool
	Reconstruct(coords []cngrid.Tuple, probs []float64) error
}

// Chunk reports progress of Compute.
type Chunk struct {
	N, Of         int
	Points, Total int64
}

// Compute runs the chunk loop.  The primary offset range of b is walked in
// chunks of interval lattice steps.  Each chunk field is built, accumulated
// into the candidates, and released before the next is built.  Progress,
// if not nil, is called after each chunk.
//
// Chunk and point counts are checked against their predictions.  A set that
// is not partial is then reconstructed with regen, if not nil, and
// normalized.
func (s *Set) Compute(obs *cnobs.Set, b *cnbound.Int, inc, interval int,
	regen Regenerator, progress func(Chunk) error) error {
	s.GridRes, s.Increment, s.Interval = b.Res, inc, interval
	chunks, err := b.Chunks(inc, interval)
	if err != nil {
		return err
	}
	wantChunks := b.NumChunks(inc, interval)
	wantPoints := cnfield.CountPoints(b, inc)
	var required func(int) bool
	if regen != nil {
		required = regen.IsRequired
	}
	var total int64
	for x, c := range chunks {
		f, err := cnfield.Build(obs, c, inc, false)
		if err != nil {
			return err
		}
		if err = s.Accumulate(f, required); err != nil {
			return err
		}
		total += int64(f.Len())
		if progress != nil {
			if err = progress(Chunk{x + 1, wantChunks, int64(f.Len()), total}); err != nil {
				return err
			}
		}
	}
	if len(chunks) != wantChunks {
		return &cnfield.ConsistencyError{What: "chunks",
			Want: int64(wantChunks), Got: int64(len(chunks))}
	}
	if total != wantPoints {
		return &cnfield.ConsistencyError{What: "lattice points",
			Want: wantPoints, Got: total}
	}
	if s.IsPartial() {
		return nil
	}
	if regen != nil {
		if err := regen.Reconstruct(s.Coords, s.Probs); err != nil {
			return err
		}
	}
	return s.Normalize()
}
