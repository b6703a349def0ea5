// Public domain.

// Package cnbound computes bounds on the circular offsets between the four
// hotspot axes.
//
// Entry (i, j) of a bound matrix is the tightest observed lead of axis i over
// axis j, the least offset from the low edge of the axis j cell to the high
// edge of the axis i cell, reduced into [0, 1).  Offsets of axis i relative to
// axis j are then allowed in the open interval (1-bound(j,i), bound(i,j)),
// measured in the [0, 1) frame.  Bounds are held exactly in units of
// 1/cngrid.LF.
package cnbound

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/soniakeys/cnmoonmars/internal/cngrid"
	"github.com/soniakeys/cnmoonmars/internal/cnobs"
)

const n = cngrid.NumAxes

// Unbounded marks a pair of axes never observed together.
const Unbounded = math.MaxInt64

// Matrix is a 4x4 bound matrix.  The zero value is not usable, use New or
// Build.
type Matrix struct {
	b      [n][n]int64
	passes int
}

// New returns a matrix with every entry Unbounded.
func New() *Matrix {
	m := &Matrix{}
	for i := range m.b {
		for j := range m.b[i] {
			m.b[i][j] = Unbounded
		}
	}
	return m
}

// Build folds all observations into a new matrix and closes it.
func Build(s *cnobs.Set) *Matrix {
	m := cnobs.Fold(s, New(), func(m *Matrix, o cnobs.Observation) *Matrix {
		m.Observe(o.Tuple)
		return m
	})
	m.Close()
	return m
}

// Observe tightens bounds with the pairwise offsets of t.  Diagonal entries
// are included, so an observed axis bounds itself by one cell.
func (m *Matrix) Observe(t cngrid.Tuple) {
	for i := range t {
		if !t.Present(i) {
			continue
		}
		for j := range t {
			if !t.Present(j) {
				continue
			}
			u := cngrid.Wrap(cngrid.EdgeDiff(i, t[i], j, t[j]), cngrid.LF)
			if u < m.b[i][j] {
				m.b[i][j] = u
			}
		}
	}
}

// Close relaxes every entry through every intermediate axis, repeating until
// a full pass changes nothing.  It returns the number of passes, which is
// also kept for Passes.
func (m *Matrix) Close() int {
	m.passes = 0
	for changed := true; changed; {
		changed = false
		for i := range m.b {
			for j := range m.b {
				for k := range m.b {
					if m.b[i][k] == Unbounded || m.b[k][j] == Unbounded {
						continue
					}
					if u := cngrid.Wrap(m.b[i][k]+m.b[k][j], cngrid.LF); u < m.b[i][j] {
						m.b[i][j] = u
						changed = true
					}
				}
			}
		}
		m.passes++
	}
	return m.passes
}

// Passes returns the pass count of the last Close.
func (m *Matrix) Passes() int { return m.passes }

// Units returns entry (i, j) in units of 1/cngrid.LF, or Unbounded.
func (m *Matrix) Units(i, j int) int64 { return m.b[i][j] }

// Bound returns entry (i, j) as a fraction of a turn, +Inf if unbounded.
func (m *Matrix) Bound(i, j int) float64 {
	if m.b[i][j] == Unbounded {
		return math.Inf(1)
	}
	return float64(m.b[i][j]) / cngrid.LF
}

// Bounded returns an error naming the first unbounded entry, if any.  An
// axis never present in the observations leaves its entries unbounded.
func (m *Matrix) Bounded() error {
	for i := range m.b {
		for j := range m.b[i] {
			if m.b[i][j] == Unbounded {
				return fmt.Errorf("no bound on %s relative to %s",
					cngrid.Names[j], cngrid.Names[i])
			}
		}
	}
	return nil
}

// Clone returns an independent copy.
func (m *Matrix) Clone() *Matrix {
	c := *m
	return &c
}

// Equal compares bound entries.  Pass counts are ignored.
func (m *Matrix) Equal(o *Matrix) bool { return m.b == o.b }

// TestCandidate tests the offsets of present axes of t against the closed
// bounds.
//
// With fullSpan false, t passes if for each pair the window of offsets
// implied by its cells reaches into the allowed interval, that is each
// lead exceeds the complement of the opposite bound.  With fullSpan true the
// lead must also be at least the bound itself, so the window covers the
// whole allowed interval and adding t as an observation would leave the
// bounds unchanged.  A lead equal to the bound passes.
func (m *Matrix) TestCandidate(t cngrid.Tuple, fullSpan bool) bool {
	for i := range t {
		if !t.Present(i) {
			continue
		}
		for j := range t {
			if i == j || !t.Present(j) {
				continue
			}
			off := cngrid.Wrap(cngrid.EdgeDiff(i, t[i], j, t[j]), cngrid.LF)
			if b := m.b[j][i]; b != Unbounded && off <= cngrid.LF-b {
				return false
			}
			if b := m.b[i][j]; fullSpan && b != Unbounded && off < b {
				return false
			}
		}
	}
	return true
}

// Fprint writes the six bound lines of the axis pairs.
func (m *Matrix) Fprint(w io.Writer) error {
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			li, lj := cngrid.Letters[i], cngrid.Letters[j]
			if _, err := fmt.Fprintf(w, "%c_%c_min = %.17g\n",
				lj, li, 1-m.Bound(i, j)); err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "%c_%c_max = %.17g\n",
				lj, li, m.Bound(j, i)); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteFile writes the bound file.
func (m *Matrix) WriteFile(fn string) error {
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err = m.Fprint(w); err == nil {
		err = w.Flush()
	}
	if cErr := f.Close(); err == nil {
		err = cErr
	}
	if err != nil {
		return fmt.Errorf("writing bound file %s: %w", fn, err)
	}
	return nil
}
