// Public domain.

// Package cnregen implements the regeneration map, a sparse linear map that
// rebuilds all candidate probabilities from a required subset.
//
// A map records the candidate list it was made for and a list of triples.
// Each triple adds Mult times the probability of candidate Source to
// candidate Dest.  Only candidates named as a source need computing.
package cnregen

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/soniakeys/cnmoonmars/internal/cngrid"
)

// Triple is one term of the map.  Indexes are 0-based.
type Triple struct {
	Dest, Source, Mult int
}

// Map is a regeneration map.
type Map struct {
	Coords   []cngrid.Tuple
	Triples  []Triple
	required []bool
}

func (m *Map) index() {
	m.required = make([]bool, len(m.Coords))
	for _, t := range m.Triples {
		m.required[t.Source] = true
	}
}

// IsRequired reports whether candidate x is a source of any triple.
func (m *Map) IsRequired(x int) bool {
	return x >= 0 && x < len(m.required) && m.required[x]
}

// NumRequired returns the number of required candidates.
func (m *Map) NumRequired() (n int) {
	for _, r := range m.required {
		if r {
			n++
		}
	}
	return
}

// Reconstruct replaces probs with the map applied to the probabilities of
// the required candidates.  coords must match the map's candidate list.
func (m *Map) Reconstruct(coords []cngrid.Tuple, probs []float64) error {
	if len(coords) != len(m.Coords) || len(probs) != len(m.Coords) {
		return fmt.Errorf(
			"regeneration map has %d candidates, list has %d coordinates and %d probabilities",
			len(m.Coords), len(coords), len(probs))
	}
	for x, t := range coords {
		if t != m.Coords[x] {
			return fmt.Errorf("regeneration map candidate %d is %v, list has %v",
				x+1, m.Coords[x], t)
		}
	}
	saved := append([]float64{}, probs...)
	clear(probs)
	for _, t := range m.Triples {
		probs[t.Dest] += float64(t.Mult) * saved[t.Source]
	}
	return nil
}

// Record makes a map from a computed candidate list.  Candidates with
// bit-identical nonzero probabilities form a group sourced from its first
// member.  Zero probability candidates get no triple.
func Record(coords []cngrid.Tuple, probs []float64) *Map {
	m := &Map{Coords: append([]cngrid.Tuple{}, coords...)}
	first := map[uint64]int{}
	for x, p := range probs {
		if p == 0 {
			continue
		}
		k := math.Float64bits(p)
		src, ok := first[k]
		if !ok {
			src = x
			first[k] = x
		}
		m.Triples = append(m.Triples, Triple{x, src, 1})
	}
	m.index()
	return m
}

const pointsPrefix = "NUMBER OF POINTS: "

// Write writes the map file.
func (m *Map) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s%d\n\n", pointsPrefix, len(m.Coords))
	for _, t := range m.Coords {
		fmt.Fprintln(bw, t)
	}
	bw.WriteByte('\n')
	for _, t := range m.Triples {
		fmt.Fprintf(bw, "%6d%6d%6d\n", t.Dest, t.Source, t.Mult)
	}
	return bw.Flush()
}

// WriteFile writes the map to file fn.
func (m *Map) WriteFile(fn string) error {
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	err = m.Write(f)
	if cErr := f.Close(); err == nil {
		err = cErr
	}
	if err != nil {
		return fmt.Errorf("writing regeneration map %s: %w", fn, err)
	}
	return nil
}

// ParseError reports a malformed map file.
type ParseError struct {
	File string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s line %d: %v", e.File, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Load reads a map.  Name identifies r in errors.
func Load(r io.Reader, name string) (*Map, error) {
	sc := bufio.NewScanner(r)
	line := 0
	fail := func(err error) (*Map, error) {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return nil, &ParseError{name, line, err}
	}
	scan := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		line++
		return sc.Text(), true
	}

	l, ok := scan()
	if !ok {
		return fail(sc.Err())
	}
	s, ok := strings.CutPrefix(l, pointsPrefix)
	if !ok {
		return fail(fmt.Errorf("want %q", pointsPrefix))
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return fail(fmt.Errorf("invalid point count %q", s))
	}
	if l, ok = scan(); !ok {
		return fail(sc.Err())
	}
	if strings.TrimSpace(l) != "" {
		return fail(errors.New("want blank line after point count"))
	}
	m := &Map{Coords: make([]cngrid.Tuple, n)}
	for x := range m.Coords {
		if l, ok = scan(); !ok {
			return fail(sc.Err())
		}
		if m.Coords[x], err = cngrid.ParseTuple(strings.Fields(l)); err != nil {
			return fail(err)
		}
	}
	if l, ok = scan(); ok && strings.TrimSpace(l) != "" {
		return fail(errors.New("want blank line after coordinates"))
	}
	for {
		if l, ok = scan(); !ok {
			break
		}
		f := strings.Fields(l)
		if len(f) == 0 {
			continue
		}
		if len(f) != 3 {
			return fail(errors.New("want dest, source, multiplier"))
		}
		var v [3]int
		for i := range v {
			if v[i], err = strconv.Atoi(f[i]); err != nil {
				return fail(err)
			}
		}
		t := Triple{v[0], v[1], v[2]}
		if t.Dest < 0 || t.Dest >= n || t.Source < 0 || t.Source >= n {
			return fail(fmt.Errorf("index out of range 0..%d", n-1))
		}
		m.Triples = append(m.Triples, t)
	}
	if err = sc.Err(); err != nil {
		return fail(err)
	}
	m.index()
	return m, nil
}

// LoadFile reads map file fn.
func LoadFile(fn string) (*Map, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f, fn)
}
