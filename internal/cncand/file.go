// Public domain.

package cncand

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/soniakeys/cnmoonmars/internal/cngrid"
)

// Partial file header lines.
const (
	partialMark  = "!! THIS IS A PARTIAL FILE !!"
	unnormalized = "PROBABILITIES ARE NOT NORMALIZED"
	hdrStart     = "START INDEX = "
	hdrEnd       = "END   INDEX = "
	hdrGridRes   = "GRID  RES   = "
	hdrIncrement = "INCREMENT   = "
	hdrInterval  = "INTERVAL    = "
	probFormat   = "%46.36e"
)

// Header describes a partial candidate file.
type Header struct {
	Name                         string
	Start, End                   int
	GridRes, Increment, Interval int
}

// ParseError reports a malformed candidate file.
type ParseError struct {
	File string
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s line %d: %v: %q", e.File, e.Line, e.Err, e.Text)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Write writes the set, one candidate per line.  A partial set is preceded
// by its header.  With probs false only coordinates are written.
func (s *Set) Write(w io.Writer, probs bool) error {
	bw := bufio.NewWriter(w)
	if s.IsPartial() {
		fmt.Fprintln(bw, partialMark)
		fmt.Fprintf(bw, "%s%4d\n", hdrStart, s.Start)
		fmt.Fprintf(bw, "%s%4d\n", hdrEnd, s.End)
		fmt.Fprintf(bw, "%s%4d\n", hdrGridRes, s.GridRes)
		fmt.Fprintf(bw, "%s%4d\n", hdrIncrement, s.Increment)
		fmt.Fprintf(bw, "%s%4d\n\n", hdrInterval, s.Interval)
		fmt.Fprintf(bw, "%s\n\n", unnormalized)
	}
	for x, t := range s.Coords {
		bw.WriteString(t.String())
		if probs {
			fmt.Fprintf(bw, probFormat, s.Probs[x])
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes the set to file fn.
func (s *Set) WriteFile(fn string, probs bool) error {
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	err = s.Write(f, probs)
	if cErr := f.Close(); err == nil {
		err = cErr
	}
	if err != nil {
		return fmt.Errorf("writing candidate file %s: %w", fn, err)
	}
	return nil
}

// reader reads candidate lines, after any partial header.
type reader struct {
	Header
	partial bool
	sc      *bufio.Scanner
	line    int
	pending *string
}

func (r *reader) errorf(text, format string, a ...any) error {
	return &ParseError{r.Name, r.line, text, fmt.Errorf(format, a...)}
}

func (r *reader) scan() (string, bool) {
	if r.pending != nil {
		l := *r.pending
		r.pending = nil
		return l, true
	}
	if !r.sc.Scan() {
		return "", false
	}
	r.line++
	return r.sc.Text(), true
}

func newReader(rd io.Reader, name string) (*reader, error) {
	r := &reader{Header: Header{Name: name}, sc: bufio.NewScanner(rd)}
	l, ok := r.scan()
	if !ok {
		return r, r.sc.Err()
	}
	if l != partialMark {
		r.pending = &l
		return r, nil
	}
	r.partial = true
	for _, h := range []struct {
		prefix string
		v      *int
	}{
		{hdrStart, &r.Start},
		{hdrEnd, &r.End},
		{hdrGridRes, &r.GridRes},
		{hdrIncrement, &r.Increment},
		{hdrInterval, &r.Interval},
	} {
		l, _ = r.scan()
		s, ok := strings.CutPrefix(l, h.prefix)
		if !ok {
			return nil, r.errorf(l, "want %q", strings.TrimSpace(h.prefix))
		}
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil, r.errorf(l, "%v", err)
		}
		*h.v = v
	}
	for _, want := range []string{"", unnormalized, ""} {
		if l, _ = r.scan(); l != want {
			return nil, r.errorf(l, "want %q", want)
		}
	}
	if err := ValidateRange(r.Start, r.End); err != nil || r.Start == 0 {
		return nil, r.errorf(fmt.Sprint(r.Start, r.End), "invalid partial range")
	}
	return r, nil
}

// next reads one candidate line.  ok is false at end of input.
func (r *reader) next() (t cngrid.Tuple, p float64, hasProb, ok bool, err error) {
	l, ok := r.scan()
	if !ok {
		return t, 0, false, false, r.sc.Err()
	}
	f := strings.Fields(l)
	switch len(f) {
	case cngrid.NumAxes:
	case cngrid.NumAxes + 1:
		if p, err = strconv.ParseFloat(f[cngrid.NumAxes], 64); err != nil {
			return t, 0, false, true, r.errorf(l, "%v", err)
		}
		hasProb = true
	default:
		return t, 0, false, true, r.errorf(l, "want 4 or 5 fields")
	}
	if t, err = cngrid.ParseTuple(f[:cngrid.NumAxes]); err != nil {
		return t, 0, false, true, r.errorf(l, "%v", err)
	}
	return t, p, hasProb, true, nil
}

// Read reads a candidate file, full or partial.  Name identifies rd in
// errors.  Probs is nil if no line has a probability.
func Read(rd io.Reader, name string) (*Set, error) {
	r, err := newReader(rd, name)
	if err != nil {
		return nil, err
	}
	s := &Set{}
	if r.partial {
		s.Start, s.End = r.Start, r.End
		s.GridRes, s.Increment, s.Interval = r.GridRes, r.Increment, r.Interval
	}
	anyProb := false
	for {
		t, p, hasProb, ok, err := r.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		anyProb = anyProb || hasProb
		s.Coords = append(s.Coords, t)
		s.Probs = append(s.Probs, p)
	}
	if !anyProb {
		s.Probs = nil
	}
	return s, nil
}

// ReadFile reads candidate file fn.
func ReadFile(fn string) (*Set, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f, fn)
}
