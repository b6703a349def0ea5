// Public domain.

package cncand_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/soniakeys/cnmoonmars/internal/cnbound"
	"github.com/soniakeys/cnmoonmars/internal/cncand"
	"github.com/soniakeys/cnmoonmars/internal/cnfield"
	"github.com/soniakeys/cnmoonmars/internal/cngrid"
	"github.com/soniakeys/cnmoonmars/internal/cnobs"
	"github.com/soniakeys/cnmoonmars/internal/cnregen"
)

func pair() *cnobs.Set {
	return cnobs.NewSet(
		cnobs.Observation{Tuple: cngrid.Tuple{-60, -30, 20, 150}, Month: 3, Year: 2003},
		cnobs.Observation{Tuple: cngrid.Tuple{-58, -26, 22, 154}, Month: 4, Year: 2003},
	)
}

const (
	res = 1
	inc = 60
)

// run computes candidate probabilities of the pair observations.
func run(t *testing.T, start, end, interval int, regen cncand.Regenerator) *cncand.Set {
	t.Helper()
	obs := pair()
	m := cnbound.Build(obs)
	b, err := m.ScaleToInteger(res)
	require.NoError(t, err)
	s := cncand.Enumerate(m, false)
	require.NoError(t, s.SetRange(start, end))
	var chunks []cncand.Chunk
	require.NoError(t, s.Compute(obs, b, inc, interval, regen,
		func(c cncand.Chunk) error {
			chunks = append(chunks, c)
			return nil
		}))
	require.NotEmpty(t, chunks)
	last := chunks[len(chunks)-1]
	assert.Equal(t, last.Of, last.N)
	assert.Equal(t, cnfield.CountPoints(b, inc), last.Total)
	return s
}

func TestEnumerate(t *testing.T) {
	obs := pair()
	m := cnbound.Build(obs)
	s := cncand.Enumerate(m, false)
	assert.Equal(t, 5949, s.Len())
	for x, c := range s.Coords {
		require.True(t, m.TestCandidate(c, false))
		if x > 0 {
			require.Negative(t, cngrid.Compare(s.Coords[x-1], c))
		}
	}
	obs.Iterate(func(o cnobs.Observation) {
		assert.Contains(t, s.Coords, o.Tuple)
	})
	full := cncand.Enumerate(m, true)
	assert.Equal(t, 43, full.Len())
	obs.Iterate(func(o cnobs.Observation) {
		assert.Contains(t, full.Coords, o.Tuple)
	})
}

func TestFullSpanSubset(t *testing.T) {
	one := cnobs.NewSet(pair().At(0))
	m := cnbound.Build(one)
	normal := cncand.Enumerate(m, false)
	full := cncand.Enumerate(m, true)
	assert.Equal(t, 6327, normal.Len())
	require.Equal(t, []cngrid.Tuple{one.At(0).Tuple}, full.Coords)
	for _, c := range full.Coords {
		assert.Contains(t, normal.Coords, c)
	}
}

func TestFullSpanSubsetPair(t *testing.T) {
	m := cnbound.Build(pair())
	normal := cncand.Enumerate(m, false)
	full := cncand.Enumerate(m, true)
	require.NotZero(t, full.Len())
	assert.Less(t, full.Len(), normal.Len())
	for _, c := range full.Coords {
		assert.Contains(t, normal.Coords, c)
		assert.True(t, m.TestCandidate(c, true), "%v", c)
	}
}

// withObservation returns s with an observation of t appended.
func withObservation(s *cnobs.Set, t cngrid.Tuple) *cnobs.Set {
	obs := make([]cnobs.Observation, 0, s.Len()+1)
	s.Iterate(func(o cnobs.Observation) { obs = append(obs, o) })
	return cnobs.NewSet(append(obs, cnobs.Observation{Tuple: t})...)
}

func TestNonremovable(t *testing.T) {
	for _, obs := range []*cnobs.Set{cnobs.NewSet(pair().At(0)), pair()} {
		m := cnbound.Build(obs)
		full := cncand.Enumerate(m, true)
		require.NotZero(t, full.Len())
		for _, c := range full.Coords {
			assert.True(t, cnbound.Build(withObservation(obs, c)).Equal(m), "%v", c)
		}
		// a removable candidate tightens the bounds
		normal := cncand.Enumerate(m, false)
		for _, c := range normal.Coords {
			if !m.TestCandidate(c, true) {
				assert.False(t, cnbound.Build(withObservation(obs, c)).Equal(m), "%v", c)
				break
			}
		}
	}
}

func TestSetRange(t *testing.T) {
	s := &cncand.Set{Coords: make([]cngrid.Tuple, 10), Probs: make([]float64, 10)}
	for _, c := range []struct{ start, end, wantS, wantE int }{
		{0, 0, 0, 0},
		{1, 10, 0, 0},
		{1, 20, 0, 0},
		{3, 5, 3, 5},
		{4, 99, 4, 10},
		{12, 15, 10, 10},
	} {
		require.NoError(t, s.SetRange(c.start, c.end))
		assert.Equal(t, c.wantS, s.Start, "%+v", c)
		assert.Equal(t, c.wantE, s.End, "%+v", c)
	}
	for _, c := range [][2]int{{0, 5}, {5, 4}, {-1, 3}} {
		assert.Error(t, s.SetRange(c[0], c[1]), "%v", c)
	}
	assert.NoError(t, cncand.ValidateRange(0, 0))
}

func TestChunkedMatchesWhole(t *testing.T) {
	whole := run(t, 0, 0, 1000, nil)
	chunked := run(t, 0, 0, 1, nil)
	assert.Equal(t, whole.Probs, chunked.Probs)
	assert.InDelta(t, 1, floats.Sum(whole.Probs), 1e-12)
	assert.Greater(t, floats.Max(whole.Probs), 0.)
}

func TestPartialMerge(t *testing.T) {
	whole := run(t, 0, 0, 3, nil)
	n := whole.Len()
	a := run(t, 1, 2000, 3, nil)
	b := run(t, 2001, n, 2, nil)
	require.True(t, a.IsPartial())
	require.True(t, b.IsPartial())
	assert.Zero(t, a.Probs[2000])
	assert.Zero(t, b.Probs[1999])

	var bufA, bufB bytes.Buffer
	require.NoError(t, a.Write(&bufA, true))
	require.NoError(t, b.Write(&bufB, true))
	merged, hs, err := cncand.Merge([]cncand.Input{{"a", &bufA}, {"b", &bufB}}, nil)
	require.NoError(t, err)
	require.Len(t, hs, 2)
	assert.Equal(t, 2001, hs[1].Start)
	assert.False(t, merged.IsPartial())
	if d := cmp.Diff(whole.Coords, merged.Coords); d != "" {
		t.Fatal(d)
	}
	assert.True(t, floats.EqualApprox(whole.Probs, merged.Probs, 1e-15))
}

func TestRegenerate(t *testing.T) {
	whole := run(t, 0, 0, 4, nil)
	m := cnregen.Record(whole.Coords, whole.Probs)
	assert.LessOrEqual(t, m.NumRequired(), whole.Len())
	regen := run(t, 0, 0, 4, m)
	assert.True(t, floats.EqualApprox(whole.Probs, regen.Probs, 1e-12))

	// partial runs with a map compute only required candidates
	part := run(t, 1, 100, 4, m)
	for x := 0; x < 100; x++ {
		if !m.IsRequired(x) {
			assert.Zero(t, part.Probs[x])
		}
	}
}

// small makes a partial set over fixed coordinates.
func small(start, end int, probs ...float64) *cncand.Set {
	return &cncand.Set{
		Coords:    []cngrid.Tuple{{1, 1, 1, 1}, {1, 1, 1, 2}, {1, 1, 2, 1}, {2, 1, 1, 1}},
		Probs:     probs,
		Start:     start,
		End:       end,
		GridRes:   10,
		Increment: 1,
		Interval:  4,
	}
}

func text(t *testing.T, s *cncand.Set) string {
	t.Helper()
	var b strings.Builder
	require.NoError(t, s.Write(&b, true))
	return b.String()
}

func merge(texts ...string) (*cncand.Set, error) {
	in := make([]cncand.Input, len(texts))
	for k, s := range texts {
		in[k] = cncand.Input{Name: string(rune('A' + k)), R: strings.NewReader(s)}
	}
	s, _, err := cncand.Merge(in, nil)
	return s, err
}

func TestMerge(t *testing.T) {
	a := text(t, small(1, 2, 1, 3, 0, 0))
	b := text(t, small(3, 4, 0, 0, 2, 2))
	s, err := merge(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{.125, .375, .25, .25}, s.Probs)

	// equal valued overlap is accepted
	c := text(t, small(2, 3, 0, 3, 2, 0))
	_, err = merge(a, b, c)
	assert.NoError(t, err)

	// ratios 10:1 and 20:2 agree
	d := small(3, 4, 0, 0, 2, 2)
	d.GridRes, d.Increment = 20, 2
	_, err = merge(a, text(t, d))
	assert.NoError(t, err)
}

func TestMergeMismatch(t *testing.T) {
	a := text(t, small(1, 2, 1, 3, 0, 0))
	b := small(3, 4, 0, 0, 2, 2)
	for _, c := range []struct {
		what  string
		other func() string
	}{
		{"coordinates", func() string {
			s := *b
			s.Coords = append([]cngrid.Tuple{}, b.Coords...)
			s.Coords[3][0] = 3
			return text(t, &s)
		}},
		{"probability", func() string {
			s := small(2, 4, 0, 4, 2, 2)
			return text(t, s)
		}},
		{"coverage", func() string { return text(t, small(4, 4, 0, 0, 0, 2)) }},
		{"grid resolution to increment ratio", func() string {
			s := *b
			s.Increment = 2
			return text(t, &s)
		}},
		{"line count", func() string {
			s := *b
			s.Coords, s.Probs = s.Coords[:3], s.Probs[:3]
			s.End = 3
			return text(t, &s)
		}},
		{"end index", func() string {
			s := *b
			s.End = 6
			return text(t, &s)
		}},
	} {
		_, err := merge(a, c.other())
		var me *cncand.MismatchError
		require.True(t, errors.As(err, &me), "%s: %v", c.what, err)
		assert.Equal(t, c.what, me.What)
	}

	// a full file cannot be merged
	full := small(0, 0, 1, 1, 1, 1)
	_, err := merge(a, text(t, full))
	var pe *cncand.ParseError
	assert.True(t, errors.As(err, &pe))
}

func TestReadWrite(t *testing.T) {
	p := small(2, 3, 0, .5, 1e-300, 0)
	back, err := cncand.Read(strings.NewReader(text(t, p)), "p")
	require.NoError(t, err)
	assert.Equal(t, p, back)

	f := small(0, 0, .1, .2, .3, .4)
	var b bytes.Buffer
	require.NoError(t, f.Write(&b, false))
	assert.Equal(t, "     1     1     1     1\n", strings.SplitAfter(b.String(), "\n")[0])
	back, err = cncand.Read(&b, "f")
	require.NoError(t, err)
	assert.Equal(t, f.Coords, back.Coords)
	assert.Nil(t, back.Probs)

	s := text(t, p)
	lines := strings.Split(s, "\n")
	assert.Equal(t, "!! THIS IS A PARTIAL FILE !!", lines[0])
	assert.Equal(t, "START INDEX =    2", lines[1])
	assert.Equal(t, "INTERVAL    =    4", lines[5])
	assert.Equal(t, "PROBABILITIES ARE NOT NORMALIZED", lines[7])
	assert.Len(t, lines[9], 24+46)

	_, err = cncand.Read(strings.NewReader("     1     2     3\n"), "bad")
	var pe *cncand.ParseError
	assert.True(t, errors.As(err, &pe))
	_, err = cncand.Read(strings.NewReader(strings.Replace(s, "END  ", "END", 1)), "bad")
	assert.True(t, errors.As(err, &pe))
}

func TestTotalProbability(t *testing.T) {
	all := small(0, 0, .1, .2, .3, .4)
	sel := &cncand.Set{Coords: []cngrid.Tuple{{2, 1, 1, 1}, {1, 1, 1, 2}}}
	p, err := cncand.TotalProbability(all, sel)
	require.NoError(t, err)
	assert.InDelta(t, .6, p, 1e-15)

	sel.Coords = append(sel.Coords, cngrid.Tuple{0, 0, 0, 0})
	_, err = cncand.TotalProbability(all, sel)
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	s := cncand.Summarize(small(0, 0, .5, .5, 0, 0))
	assert.Equal(t, 4, s.N)
	assert.Equal(t, 2, s.NonZero)
	assert.Equal(t, cngrid.Tuple{1, 1, 1, 1}, s.Max)
	assert.InDelta(t, 0.6931471805599453, s.Entropy, 1e-15)
	assert.Zero(t, cncand.Summarize(&cncand.Set{}).N)
}

func TestMarginalGeoJSON(t *testing.T) {
	s := small(0, 0, .1, .2, .3, .4)
	fc, err := cncand.MarginalGeoJSON(s, "moon")
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)
	assert.InDelta(t, .6, fc.Features[0].Properties["prob"], 1e-15)
	assert.InDelta(t, 1., fc.Features[0].Point().Lon(), 1e-12)
	assert.InDelta(t, 2., fc.Features[1].Point().Lat(), 1e-12)

	fc, err = cncand.MarginalGeoJSON(s, "mars")
	require.NoError(t, err)
	assert.Len(t, fc.Features, 3)
	js, err := fc.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(js), `"FeatureCollection"`)

	_, err = cncand.MarginalGeoJSON(s, "venus")
	assert.Error(t, err)
}
