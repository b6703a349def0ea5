// Public domain.

package cnbound

import (
	"errors"
	"fmt"

	"github.com/soniakeys/cnmoonmars/internal/cngrid"
)

// Int is a closed bound matrix scaled to a grid resolution.  Entries are in
// units of 1/(cngrid.LF*Res) so all axis pairs share one lattice unit.
type Int struct {
	Lim [n][n]int64
	Res int
}

// ScaleToInteger returns the bounds in lattice units at resolution res.
// All entries must be bounded.
func (m *Matrix) ScaleToInteger(res int) (*Int, error) {
	if res < 1 {
		return nil, fmt.Errorf("invalid grid resolution %d", res)
	}
	if err := m.Bounded(); err != nil {
		return nil, err
	}
	b := &Int{Res: res}
	for i := range m.b {
		for j := range m.b[i] {
			b.Lim[i][j] = m.b[i][j] * int64(res)
		}
	}
	return b, nil
}

// Period returns the lattice period, one full turn in lattice units.
func (b *Int) Period() int64 { return cngrid.LF * int64(b.Res) }

// Limits returns the exclusive limits on the offset of axis k relative to
// axis j.  The interval is empty if lo >= hi.
func (b *Int) Limits(j, k int) (lo, hi int64) {
	return b.Period() - b.Lim[j][k], b.Lim[k][j]
}

// BA returns Limits(0, 1), the range of the primary offset.
func (b *Int) BA() (lo, hi int64) { return b.Limits(0, 1) }

// RestrictBA returns a copy with the primary offset limited to (lo, hi).
func (b *Int) RestrictBA(lo, hi int64) *Int {
	r := *b
	r.Lim[0][1] = r.Period() - lo
	r.Lim[1][0] = hi
	return &r
}

// NumBA returns the number of primary offsets on a lattice of step inc.
func (b *Int) NumBA(inc int) int64 {
	lo, hi := b.BA()
	if hi-lo-1 <= 0 {
		return 0
	}
	return (hi - lo - 1) / int64(inc)
}

// NumChunks returns the number of chunks Chunks will return.
func (b *Int) NumChunks(inc, interval int) int {
	nba := b.NumBA(inc)
	return int((nba + int64(interval) - 1) / int64(interval))
}

// ErrStep reports an increment or interval less than 1.
var ErrStep = errors.New("increment and interval must be at least 1")

// Chunks partitions the primary offset range into consecutive chunks of
// interval lattice steps.  The last chunk may be short.  The lattice points
// of the chunks, taken in order, are exactly those of b.
func (b *Int) Chunks(inc, interval int) ([]*Int, error) {
	if inc < 1 || interval < 1 {
		return nil, ErrStep
	}
	minBa, maxBa := b.BA()
	step := int64(inc) * int64(interval)
	var c []*Int
	for lo := minBa; lo+int64(inc) < maxBa; lo += step {
		c = append(c, b.RestrictBA(lo, min(lo+step+1, maxBa)))
	}
	return c, nil
}
