// Public domain.

// Package cnfield builds the probability field over the lattice of axis
// offsets.
//
// A lattice point (ba, ca, da) gives the offsets of axes 1, 2, and 3 from
// axis 0 in units of 1/(cngrid.LF*res).  Points are enumerated in nested
// order ba, ca, da, each stepped by the increment, strictly inside the limits
// of a cnbound.Int.
package cnfield

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/floats"

	"github.com/soniakeys/cnmoonmars/internal/cnbound"
	"github.com/soniakeys/cnmoonmars/internal/cngrid"
	"github.com/soniakeys/cnmoonmars/internal/cnobs"
)

// ScaleFactor multiplies each per-observation overlap length.  It keeps
// products of many small lengths away from underflow.
const ScaleFactor = 3.2 * cngrid.NumLongs

// Field is a set of weighted lattice points.
type Field struct {
	Bounds    *cnbound.Int
	Increment int
	Offsets   [][3]int64
	Weights   []float64
}

// ConsistencyError reports a count that disagrees with its prediction.  It
// indicates a defect, not bad input.
type ConsistencyError struct {
	What      string
	Want, Got int64
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("internal consistency: %s: predicted %d, got %d",
		e.What, e.Want, e.Got)
}

// ErrEmpty reports a field with no weight to normalize.
var ErrEmpty = errors.New("probability field has zero total weight")

// limits caches the six pair limits of an Int.
type limits struct {
	inc                                int64
	loB, hiB, loC, hiC, loD, hiD       int64
	lo12, hi12, lo13, hi13, lo23, hi23 int64
}

func newLimits(b *cnbound.Int, inc int) *limits {
	l := &limits{inc: int64(inc)}
	l.loB, l.hiB = b.Limits(0, 1)
	l.loC, l.hiC = b.Limits(0, 2)
	l.loD, l.hiD = b.Limits(0, 3)
	l.lo12, l.hi12 = b.Limits(1, 2)
	l.lo13, l.hi13 = b.Limits(1, 3)
	l.lo23, l.hi23 = b.Limits(2, 3)
	return l
}

// ba returns the primary offset of row r.
func (l *limits) ba(r int64) int64 { return l.loB + (r+1)*l.inc }

// rowCount counts the points of one primary offset without visiting
// the innermost loop.
func (l *limits) rowCount(ba int64) (n int64) {
	for ca := l.loC + l.inc; ca < l.hiC; ca += l.inc {
		if ca-ba <= l.lo12 || ca-ba >= l.hi12 {
			continue
		}
		minDa, maxDa := l.loD, l.hiD
		// snap minDa up along the lattice to just below each diagonal limit
		if v := l.lo13 + ba; v > minDa {
			minDa += l.inc * ((v - minDa) / l.inc)
		}
		maxDa = min(maxDa, l.hi13+ba)
		if v := l.lo23 + ca; v > minDa {
			minDa += l.inc * ((v - minDa) / l.inc)
		}
		maxDa = min(maxDa, l.hi23+ca)
		if k := (maxDa - minDa - 1) / l.inc; k > 0 {
			n += k
		}
	}
	return
}

// row calls f for each point of one primary offset.
func (l *limits) row(ba int64, f func(ca, da int64)) {
	for ca := l.loC + l.inc; ca < l.hiC; ca += l.inc {
		if ca-ba <= l.lo12 || ca-ba >= l.hi12 {
			continue
		}
		for da := l.loD + l.inc; da < l.hiD; da += l.inc {
			if da-ba > l.lo13 && da-ba < l.hi13 &&
				da-ca > l.lo23 && da-ca < l.hi23 {
				f(ca, da)
			}
		}
	}
}

// starts returns the index of the first point of each row and the total.
func (l *limits) starts(rows int64) ([]int64, int64) {
	s := make([]int64, rows+1)
	for r := int64(0); r < rows; r++ {
		s[r+1] = s[r] + l.rowCount(l.ba(r))
	}
	return s, s[rows]
}

// CountPoints returns the number of lattice points of b at increment inc,
// computed without enumerating them.
func CountPoints(b *cnbound.Int, inc int) int64 {
	if inc < 1 {
		return 0
	}
	_, total := newLimits(b, inc).starts(b.NumBA(inc))
	return total
}

// Build enumerates the lattice of b at increment inc and weights each point
// by its support from every observation.  With normalize, weights are scaled
// to sum to 1.
//
// Rows of constant ba are weighted in parallel, each into its predicted slot
// range.  Any disagreement with the predicted counts is a *ConsistencyError.
func Build(s *cnobs.Set, b *cnbound.Int, inc int, normalize bool) (*Field, error) {
	if inc < 1 {
		return nil, cnbound.ErrStep
	}
	var refErr error
	s.Iterate(func(o cnobs.Observation) {
		if refErr == nil && !o.Present(cngrid.MoonLat) {
			refErr = fmt.Errorf("observation %s: %s missing",
				o, cngrid.Names[cngrid.MoonLat])
		}
	})
	if refErr != nil {
		return nil, refErr
	}
	l := newLimits(b, inc)
	rows := b.NumBA(inc)
	starts, total := l.starts(rows)
	f := &Field{
		Bounds:    b,
		Increment: inc,
		Offsets:   make([][3]int64, total),
		Weights:   make([]float64, total),
	}
	var placed atomic.Int64
	rowCh := make(chan int64)
	errCh := make(chan error, 1)
	var wg sync.WaitGroup
	nProc := runtime.GOMAXPROCS(0)
	for w := 0; w < nProc; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range rowCh {
				if err := f.fillRow(s, l, r, starts); err != nil {
					select {
					case errCh <- err:
					default:
					}
					continue
				}
				placed.Add(starts[r+1] - starts[r])
			}
		}()
	}
	for r := int64(0); r < rows; r++ {
		rowCh <- r
	}
	close(rowCh)
	wg.Wait()
	select {
	case err := <-errCh:
		return nil, err
	default:
	}
	if got := placed.Load(); got != total {
		return nil, &ConsistencyError{"lattice points", total, got}
	}
	if normalize {
		if err := f.Normalize(); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (f *Field) fillRow(s *cnobs.Set, l *limits, r int64, starts []int64) error {
	ba := l.ba(r)
	x, end := starts[r], starts[r+1]
	var over int64
	l.row(ba, func(ca, da int64) {
		if x == end {
			over++
			return
		}
		off := [3]int64{ba, ca, da}
		f.Offsets[x] = off
		f.Weights[x] = weight(s, &off, int64(f.Bounds.Res))
		x++
	})
	if over > 0 || x != end {
		return &ConsistencyError{fmt.Sprintf("points at ba %d", ba),
			starts[r+1] - starts[r], x - starts[r] + over}
	}
	return nil
}

// BuildChunk builds the unnormalized field of b with the primary offset
// limited to (lo, hi).  Its points and weights are exactly those of the
// same offsets in the unrestricted field.
func BuildChunk(s *cnobs.Set, b *cnbound.Int, lo, hi int64, inc int) (*Field, error) {
	return Build(s, b.RestrictBA(lo, hi), inc, false)
}

// weight multiplies the scaled overlap lengths of all observations.
func weight(s *cnobs.Set, off *[3]int64, res int64) float64 {
	w := 1.
	scale := ScaleFactor / float64(2*cngrid.LF*res)
	for i, n := 0, s.Len(); i < n; i++ {
		ov := Overlap(s.At(i).Tuple, off, res)
		if ov == 0 {
			return 0
		}
		w *= float64(ov) * scale
	}
	return w
}

// Overlap returns the length of the set of axis 0 positions within the axis
// 0 cell of t for which each offset position lies in the cell of its present
// axis.  The result is in units of 1/(2*cngrid.LF*res).  Axis 0 must be
// present.
func Overlap(t cngrid.Tuple, off *[3]int64, res int64) int64 {
	lc := cngrid.LF * res
	h := cngrid.Cell[0] * res
	a := 2 * int64(t[0]) * h
	xmin, xmax := -h, h
	for k := 1; k < cngrid.NumAxes; k++ {
		if !t.Present(k) {
			continue
		}
		c := cngrid.Cell[k] * res
		base := a + 2*off[k-1]
		xmin = max(xmin, wrapHalf(int64(2*t[k]-1)*c-base, lc))
		xmax = min(xmax, wrapHalf(int64(2*t[k]+1)*c-base, lc))
	}
	if xmax > xmin {
		return xmax - xmin
	}
	return 0
}

// wrapHalf reduces x into [-lc, lc] with period 2*lc.
func wrapHalf(x, lc int64) int64 {
	for x > lc {
		x -= 2 * lc
	}
	for x < -lc {
		x += 2 * lc
	}
	return x
}

// Len returns the number of points.
func (f *Field) Len() int { return len(f.Weights) }

// Sum returns the total weight.
func (f *Field) Sum() float64 { return floats.Sum(f.Weights) }

// Normalize scales weights to sum to 1.
func (f *Field) Normalize() error {
	sum := f.Sum()
	if sum == 0 {
		return ErrEmpty
	}
	floats.Scale(1/sum, f.Weights)
	return nil
}

// Probability adds to prob the support of the field for complete tuple t,
// the sum over points of weight times overlap length as a fraction of a
// turn.  Points are visited in order so the result is reproducible.
func (f *Field) Probability(t cngrid.Tuple, prob float64) (float64, error) {
	if !t.Complete() {
		return prob, fmt.Errorf("coordinates missing: %v", t)
	}
	res := int64(f.Bounds.Res)
	unit := 1 / float64(2*cngrid.LF*res)
	for x, w := range f.Weights {
		if w == 0 {
			continue
		}
		if ov := Overlap(t, &f.Offsets[x], res); ov > 0 {
			prob += w * (float64(ov) * unit)
		}
	}
	return prob, nil
}
