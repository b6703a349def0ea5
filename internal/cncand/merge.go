// Public domain.

package cncand

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/soniakeys/cnmoonmars/internal/cngrid"
)

// MismatchError reports partial files that cannot be merged.  A and B are
// the conflicting values from FileA and FileB.
type MismatchError struct {
	Index        int // 1-based candidate index, 0 for a whole-file mismatch
	What         string
	FileA, FileB string
	A, B         string
}

func (e *MismatchError) Error() string {
	s := e.What + " mismatch"
	if e.Index > 0 {
		s += " at candidate " + strconv.Itoa(e.Index)
	}
	if e.FileB == "" {
		return fmt.Sprintf("%s: %s", s, e.A)
	}
	return fmt.Sprintf("%s: %s has %s, %s has %s", s, e.FileA, e.A, e.FileB, e.B)
}

var errNotPartial = errors.New("not a partial candidate file")

// Input is a named partial candidate file.
type Input struct {
	Name string
	R    io.Reader
}

// Merge combines partial candidate files into one normalized set.
//
// Files are read in lock step.  All must list the same candidates in the
// same order and share one ratio of grid resolution to increment.  Each
// candidate takes its probability from the files whose ranges cover it.
// Every candidate must be covered and covering files must agree exactly.
// If regen is not nil, probabilities are reconstructed before normalizing.
func Merge(in []Input, regen Regenerator) (*Set, []Header, error) {
	if len(in) == 0 {
		return nil, nil, errors.New("no partial files to merge")
	}
	rs := make([]*reader, len(in))
	hs := make([]Header, len(in))
	for k, i := range in {
		r, err := newReader(i.R, i.Name)
		if err != nil {
			return nil, nil, err
		}
		if !r.partial {
			return nil, nil, &ParseError{i.Name, r.line, "", errNotPartial}
		}
		rs[k], hs[k] = r, r.Header
	}
	r0 := rs[0]
	for _, r := range rs[1:] {
		if r.GridRes*r0.Increment != r0.GridRes*r.Increment {
			return nil, nil, &MismatchError{
				What:  "grid resolution to increment ratio",
				FileA: r0.Name, FileB: r.Name,
				A: fmt.Sprintf("%d:%d", r0.GridRes, r0.Increment),
				B: fmt.Sprintf("%d:%d", r.GridRes, r.Increment),
			}
		}
	}
	s := &Set{GridRes: r0.GridRes, Increment: r0.Increment, Interval: r0.Interval}
	for x := 0; ; x++ {
		var t cngrid.Tuple
		var p float64
		from := -1
		var ended bool
		for k, r := range rs {
			tk, pk, hasProb, ok, err := r.next()
			if err != nil {
				return nil, nil, err
			}
			if k == 0 {
				ended = !ok
			} else if ok == ended {
				a, b := "more lines", fmt.Sprintf("%d candidates", x)
				if ended {
					a, b = b, a
				}
				return nil, nil, &MismatchError{x + 1, "line count", r0.Name, r.Name, a, b}
			}
			if !ok {
				continue
			}
			if k == 0 {
				t = tk
			} else if tk != t {
				return nil, nil, &MismatchError{x + 1, "coordinates",
					r0.Name, r.Name, t.String(), tk.String()}
			}
			if x+1 < r.Start || x+1 > r.End {
				continue
			}
			if !hasProb {
				return nil, nil, &ParseError{r.Name, r.line, tk.String(),
					errors.New("missing probability")}
			}
			if from < 0 {
				p, from = pk, k
			} else if pk != p {
				return nil, nil, &MismatchError{x + 1, "probability",
					rs[from].Name, r.Name,
					fmt.Sprintf(probFormat, p), fmt.Sprintf(probFormat, pk)}
			}
		}
		if ended {
			break
		}
		if from < 0 {
			return nil, nil, &MismatchError{Index: x + 1, What: "coverage",
				A: "no partial file covers the candidate"}
		}
		s.Coords = append(s.Coords, t)
		s.Probs = append(s.Probs, p)
	}
	for _, r := range rs {
		if r.End > s.Len() {
			return nil, nil, &MismatchError{What: "end index",
				FileA: r.Name, FileB: "candidate count",
				A: strconv.Itoa(r.End), B: strconv.Itoa(s.Len())}
		}
	}
	if regen != nil {
		if err := regen.Reconstruct(s.Coords, s.Probs); err != nil {
			return nil, nil, err
		}
	}
	if err := s.Normalize(); err != nil {
		return nil, nil, err
	}
	return s, hs, nil
}

// MergeFiles merges the named partial candidate files.
func MergeFiles(fns []string, regen Regenerator) (*Set, []Header, error) {
	in := make([]Input, len(fns))
	for k, fn := range fns {
		f, err := os.Open(fn)
		if err != nil {
			return nil, nil, err
		}
		defer f.Close()
		in[k] = Input{fn, f}
	}
	return Merge(in, regen)
}
