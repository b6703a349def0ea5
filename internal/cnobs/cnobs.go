// Public domain.

// Package cnobs holds observed hotspots and reads them from the fixed width
// observation file.
package cnobs

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/soniakeys/meeus/v3/julian"
	sexa "github.com/soniakeys/sexagesimal"

	"github.com/soniakeys/cnmoonmars/internal/cngrid"
)

// Month is a calendar month, 1 = January.  Zero is invalid.
type Month int

var monthAbbr = [...]string{"", "Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// ParseMonth parses a three letter month abbreviation.
func ParseMonth(s string) (Month, error) {
	for m := 1; m < len(monthAbbr); m++ {
		if s == monthAbbr[m] {
			return Month(m), nil
		}
	}
	return 0, fmt.Errorf("invalid month string %q", s)
}

func (m Month) String() string {
	if m < 1 || int(m) >= len(monthAbbr) {
		return "???"
	}
	return monthAbbr[m]
}

// Observation is one observed hotspot.
type Observation struct {
	cngrid.Tuple
	Month Month
	Year  int
}

// JD returns the Julian day at the start of the observation month.
func (o Observation) JD() float64 {
	return julian.CalendarGregorianToJD(o.Year, int(o.Month), 1)
}

// String gives the numeric listing form, month number first.
func (o Observation) String() string {
	return fmt.Sprintf("%5d, %5d, %5d, %5d, %5d, %5d",
		int(o.Month), o.Year, o.Tuple[0], o.Tuple[1], o.Tuple[2], o.Tuple[3])
}

// Describe gives a readable form with coordinates as angles.
func (o Observation) Describe() string {
	ang := func(i int) string {
		if !o.Present(i) {
			return fmt.Sprintf("%8s", "--")
		}
		return fmt.Sprintf("%8s",
			fmt.Sprintf("%.0s", sexa.FmtAngle(cngrid.Angle(o.Tuple[i]))))
	}
	return fmt.Sprintf("%s-%04d  moon %s %s  mars %s %s",
		o.Month, o.Year, ang(0), ang(1), ang(2), ang(3))
}

// Set is an ordered list of observations.  Order is file order.
type Set struct {
	obs []Observation
}

// NewSet returns a set holding obs.
func NewSet(obs ...Observation) *Set {
	return &Set{obs: append([]Observation{}, obs...)}
}

// Len returns the number of observations.
func (s *Set) Len() int { return len(s.obs) }

// At returns observation i.
func (s *Set) At(i int) Observation { return s.obs[i] }

// Iterate calls f for each observation in order.
func (s *Set) Iterate(f func(Observation)) {
	for _, o := range s.obs {
		f(o)
	}
}

// Fold folds f over the set in order.
func Fold[T any](s *Set, acc T, f func(T, Observation) T) T {
	for _, o := range s.obs {
		acc = f(acc, o)
	}
	return acc
}

// Chronological returns a copy of the observations sorted by date.
// Observations in the same month keep file order.
func (s *Set) Chronological() []Observation {
	c := append([]Observation{}, s.obs...)
	sort.SliceStable(c, func(i, j int) bool { return c[i].JD() < c[j].JD() })
	return c
}

// Span returns the earliest and latest observations and the days between
// the starts of their months.  ok is false for an empty set.
func (s *Set) Span() (first, last Observation, days float64, ok bool) {
	if len(s.obs) == 0 {
		return
	}
	c := s.Chronological()
	first, last = c[0], c[len(c)-1]
	return first, last, last.JD() - first.JD(), true
}

// ParseError reports a malformed observation line.
type ParseError struct {
	File  string
	Line  int
	Field string
	Text  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s line %d: invalid %s: %q", e.File, e.Line, e.Field, e.Text)
}

// Column layout of an observation line.
const (
	colMonth = 0
	colDash  = 3
	colYear  = 4
	colCoord = 8
	wYear    = 4
	wCoord   = 5
)

// ParseLine parses one observation line.  Line and file in a returned
// *ParseError are left for the caller to fill.
//
// A coordinate field that is blank, short, or not an integer is Missing.
// An integer outside its axis range is an error.
func ParseLine(line string) (o Observation, err error) {
	bad := func(field, text string) (Observation, error) {
		return o, &ParseError{Field: field, Text: text}
	}
	if len(line) < colCoord {
		return bad("line", line)
	}
	if o.Month, err = ParseMonth(line[colMonth:colDash]); err != nil {
		return bad("month", line[colMonth:colDash])
	}
	if line[colDash] != '-' {
		return bad("separator", line[colDash:colYear])
	}
	ys := line[colYear : colYear+wYear]
	if o.Year, err = strconv.Atoi(strings.TrimSpace(ys)); err != nil {
		return bad("year", ys)
	}
	for i := range o.Tuple {
		o.Tuple[i] = cngrid.Missing
		c := colCoord + i*wCoord
		if c >= len(line) {
			continue
		}
		f := line[c:min(c+wCoord, len(line))]
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			continue
		}
		if !cngrid.InRange(i, v) {
			return bad(cngrid.Names[i], f)
		}
		o.Tuple[i] = v
	}
	return o, nil
}

// ErrNoObservations is returned by Parse for input with no observation lines.
var ErrNoObservations = errors.New("no observations")

// Parse reads observations from r.  Blank lines are skipped.  Name
// identifies r in errors.  Input with no observations is an error.
func Parse(r io.Reader, name string) (*Set, error) {
	s := &Set{}
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimRight(sc.Text(), " \t\r")
		if line == "" {
			continue
		}
		o, err := ParseLine(line)
		if err != nil {
			pe := err.(*ParseError)
			pe.File, pe.Line = name, n
			return nil, pe
		}
		s.obs = append(s.obs, o)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	if len(s.obs) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrNoObservations)
	}
	return s, nil
}

// ReadFile reads an observation file.
func ReadFile(fn string) (*Set, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f, fn)
}
