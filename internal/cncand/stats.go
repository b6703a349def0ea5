// Public domain.

package cncand

import (
	"fmt"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/soniakeys/cnmoonmars/internal/cngrid"
)

// sorted returns indexes of s ordered by coordinates.
func (s *Set) sorted() []int {
	x := make([]int, s.Len())
	for i := range x {
		x[i] = i
	}
	slices.SortFunc(x, func(a, b int) int {
		return cngrid.Compare(s.Coords[a], s.Coords[b])
	})
	return x
}

// TotalProbability sums the probabilities in all of the candidates of sel.
// Every candidate of sel must be in all.
func TotalProbability(all, sel *Set) (float64, error) {
	xa, xs := all.sorted(), sel.sorted()
	total := 0.
	i := 0
	for _, j := range xs {
		t := sel.Coords[j]
		for i < len(xa) && cngrid.Compare(all.Coords[xa[i]], t) < 0 {
			i++
		}
		if i == len(xa) || all.Coords[xa[i]] != t {
			return 0, fmt.Errorf("could not match selected candidate %v", t)
		}
		total += all.Probs[xa[i]]
		i++
	}
	return total, nil
}

// Summary describes a normalized candidate distribution.
type Summary struct {
	N, NonZero int
	Max        cngrid.Tuple
	MaxProb    float64
	Entropy    float64 // nats
}

// Summarize computes summary statistics of s.
func Summarize(s *Set) Summary {
	sum := Summary{N: s.Len()}
	if sum.N == 0 {
		return sum
	}
	for _, p := range s.Probs {
		if p != 0 {
			sum.NonZero++
		}
	}
	x := floats.MaxIdx(s.Probs)
	sum.Max, sum.MaxProb = s.Coords[x], s.Probs[x]
	sum.Entropy = stat.Entropy(s.Probs)
	return sum
}

// Bodies name the axis pairs for MarginalGeoJSON.
var Bodies = map[string][2]int{
	"moon": {cngrid.MoonLat, cngrid.MoonLong},
	"mars": {cngrid.MarsLat, cngrid.MarsLong},
}

// MarginalGeoJSON sums probabilities over the other body's axes and returns
// a point feature at each cell of body with nonzero probability.  Features
// are ordered by latitude then longitude.
func MarginalGeoJSON(s *Set, body string) (*geojson.FeatureCollection, error) {
	ax, ok := Bodies[body]
	if !ok {
		return nil, fmt.Errorf("unknown body %q", body)
	}
	m := map[[2]int]float64{}
	for x, t := range s.Coords {
		m[[2]int{t[ax[0]], t[ax[1]]}] += s.Probs[x]
	}
	cells := make([][2]int, 0, len(m))
	for c, p := range m {
		if p != 0 {
			cells = append(cells, c)
		}
	}
	slices.SortFunc(cells, func(a, b [2]int) int {
		if a[0] != b[0] {
			return a[0] - b[0]
		}
		return a[1] - b[1]
	})
	fc := geojson.NewFeatureCollection()
	for _, c := range cells {
		f := geojson.NewFeature(orb.Point{
			cngrid.Angle(c[1]).Deg(), cngrid.Angle(c[0]).Deg()})
		f.Properties["body"] = body
		f.Properties["prob"] = m[c]
		fc.Append(f)
	}
	return fc, nil
}
