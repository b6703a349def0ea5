// Public domain.

// Package cngrid defines the fixed coordinate grids used by cnmoonmars and
// the other hotspot commands.
//
// Four axes are tracked per hotspot, a latitude and longitude on the moon and
// a latitude and longitude on Mars.  Values are whole degrees.  Cell k of an
// axis with cardinality N spans [(k-.5)/N, (k+.5)/N) of the unit circle.
// Cell edges of all axes are exact multiples of 1/LF, so offset arithmetic
// is done on int64 values in units of 1/LF.
package cngrid

import (
	"fmt"
	"math"
	"strconv"

	"github.com/soniakeys/unit"
)

// Grid shape.
const (
	MinLat   = -84
	MaxLat   = 84
	MinLong  = -179
	MaxLong  = 179
	NumLats  = MaxLat - MinLat + 1
	NumLongs = MaxLong - MinLong + 1

	// LF is the period of the common offset unit.
	LF = NumLats * NumLongs

	// Missing marks an axis value absent from an observation.
	Missing = math.MaxInt16
)

// Axis indexes.
const (
	MoonLat = iota
	MoonLong
	MarsLat
	MarsLong
	NumAxes
)

// Per-axis tables, indexed by axis.
var (
	Card  = [NumAxes]int{NumLats, NumLongs, NumLats, NumLongs}
	Min   = [NumAxes]int{MinLat, MinLong, MinLat, MinLong}
	Max   = [NumAxes]int{MaxLat, MaxLong, MaxLat, MaxLong}
	Cell  = [NumAxes]int64{LF / NumLats, LF / NumLongs, LF / NumLats, LF / NumLongs}
	Names = [NumAxes]string{"moonLat", "moonLong", "marsLat", "marsLong"}

	// Letters name axes in bound files.
	Letters = [NumAxes]byte{'a', 'b', 'c', 'd'}
)

// Tuple holds one value per axis.  Any value may be Missing.
type Tuple [NumAxes]int

// Present reports whether axis i has a value.
func (t Tuple) Present(i int) bool { return t[i] != Missing }

// Complete reports whether all axes have values.
func (t Tuple) Complete() bool {
	for _, v := range t {
		if v == Missing {
			return false
		}
	}
	return true
}

// InRange reports whether v is a valid value for axis i.  Missing is not.
func InRange(i, v int) bool { return v >= Min[i] && v <= Max[i] }

// Valid returns an error for any present value outside its axis range.
func (t Tuple) Valid() error {
	for i, v := range t {
		if v != Missing && !InRange(i, v) {
			return fmt.Errorf("%s %d out of range %d..%d",
				Names[i], v, Min[i], Max[i])
		}
	}
	return nil
}

// Compare orders tuples by axis 0, then 1, 2, 3.
func Compare(a, b Tuple) int {
	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

// String formats the tuple as four fixed width columns, the layout used in
// candidate and regeneration map files.
func (t Tuple) String() string {
	return fmt.Sprintf("%6d%6d%6d%6d", t[0], t[1], t[2], t[3])
}

// ParseTuple parses four integer fields.
func ParseTuple(f []string) (t Tuple, err error) {
	if len(f) != NumAxes {
		return t, fmt.Errorf("want %d coordinate fields, got %d", NumAxes, len(f))
	}
	for i, s := range f {
		if t[i], err = strconv.Atoi(s); err != nil {
			return
		}
	}
	return
}

// EdgeDiff returns the offset from the low edge of cell vj on axis j to the
// high edge of cell vi on axis i, in units of 1/LF.  The result is not
// wrapped.
func EdgeDiff(i, vi, j, vj int) int64 {
	// both products are odd so the difference halves exactly
	return (int64(2*vi+1)*Cell[i] - int64(2*vj-1)*Cell[j]) / 2
}

// Wrap reduces u into [0, period).
func Wrap(u, period int64) int64 {
	u %= period
	if u < 0 {
		u += period
	}
	return u
}

// Angle returns value v as an angle.  Cell values are whole degrees.
func Angle(v int) unit.Angle { return unit.AngleFromDeg(float64(v)) }
