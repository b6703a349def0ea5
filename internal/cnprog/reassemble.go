// Public domain.

package cnprog

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/soniakeys/cnmoonmars/internal/cnbound"
	"github.com/soniakeys/cnmoonmars/internal/cncand"
	"github.com/soniakeys/cnmoonmars/internal/cnconf"
	"github.com/soniakeys/cnmoonmars/internal/cnobs"
	"github.com/soniakeys/cnmoonmars/internal/cnregen"
)

type partialDir struct {
	path       string
	start, end int
}

// partialDirs finds subdirectories of dir named start-end, ordered by
// start index.
func partialDirs(dir string) ([]partialDir, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var pd []partialDir
	for _, e := range ents {
		if !e.IsDir() {
			continue
		}
		s, t, ok := strings.Cut(e.Name(), "-")
		if !ok {
			continue
		}
		start, err1 := strconv.Atoi(s)
		end, err2 := strconv.Atoi(t)
		if err1 != nil || err2 != nil {
			continue
		}
		pd = append(pd, partialDir{filepath.Join(dir, e.Name()), start, end})
	}
	slices.SortFunc(pd, func(a, b partialDir) int {
		if a.start != b.start {
			return a.start - b.start
		}
		return a.end - b.end
	})
	return pd, nil
}

// Reassemble merges the partial runs found in subdirectories of the results
// directory.  Shared artifacts must be byte-identical across the runs and
// are copied up to the results directory along with the merged candidates,
// the non-removable candidates, and the non-removable probability report.
func Reassemble(c *cnconf.Config, w io.Writer) error {
	rc := *c
	c = &rc
	c.StartIndex, c.EndIndex = 0, 0

	fmt.Fprintln(w, rule)
	pd, err := partialDirs(c.ResultsDir)
	if err != nil {
		return err
	}
	if len(pd) == 0 {
		return fmt.Errorf("no directories found containing partial results in %q",
			c.ResultsDir)
	}
	fns := make([]string, len(pd))
	for i, d := range pd {
		fns[i] = filepath.Join(d.path, c.PossibleHotspotsFile)
	}
	var regen cncand.Regenerator
	if c.MFile > "" {
		mp, err := cnregen.LoadFile(c.MFile)
		if err != nil {
			return err
		}
		regen = mp
	}
	s, hs, err := cncand.MergeFiles(fns, regen)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%-30s%12s%12s%12s%12s%12s\n",
		"Directory", "Start Index", "End Index", "Grid Res", "Increment", "Interval")
	for i, h := range hs {
		fmt.Fprintf(w, "%-30s%12d%12d%12d%12d%12d\n",
			filepath.Base(pd[i].path), h.Start, h.End, h.GridRes, h.Increment, h.Interval)
	}
	fmt.Fprintln(w)

	for _, name := range []string{c.InputFile, c.LimitsFile, c.AbcdDistFile} {
		if err := copyShared(pd, name, c.Path(name)); err != nil {
			return err
		}
		fmt.Fprintf(w, "Output file: %q.\n", c.Path(name))
	}
	fn := c.Path(c.PossibleHotspotsFile)
	if err := s.WriteFile(fn, true); err != nil {
		return err
	}
	fmt.Fprintf(w, "Printed combined distribution with %d hotspots to file: %q.\n",
		s.Len(), fn)

	fmt.Fprintln(w, "\nFinding nonremovable possible hotspots:")
	obs, err := cnobs.ReadFile(c.Path(c.InputFile))
	if err != nil {
		return err
	}
	m := cnbound.Build(obs)
	if err := m.Bounded(); err != nil {
		return fmt.Errorf("%s: %w", c.Path(c.InputFile), err)
	}
	nr := cncand.Enumerate(m, true)
	if err := nr.WriteFile(c.Path(c.NonremovableHotspotsFile), false); err != nil {
		return err
	}
	fmt.Fprintf(w, "Nonremovable candidates:        %d\n", nr.Len())
	p, err := cncand.TotalProbability(s, nr)
	if err != nil {
		return err
	}
	var rep bytes.Buffer
	writeNonremovable(&rep, p)
	fn = c.Path(c.NonremovableProbFile)
	if err := os.WriteFile(fn, rep.Bytes(), 0644); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nPrinted nonremovable & removable probabilities to file: %q.\n\n", fn)
	w.Write(rep.Bytes())
	return report(c, s, w)
}

func writeNonremovable(w io.Writer, p float64) {
	fmt.Fprintln(w, "Probability of getting a nonremovable & non-removing point next month:")
	fmt.Fprintf(w, "%.17g%%\n", 100*p)
	fmt.Fprintln(w, "Probability of getting a removable & removing point next month:")
	fmt.Fprintf(w, "%.17g%%\n", 100*(1-p))
}

// copyShared checks that file name is identical in every partial directory
// and writes one copy to dst.
func copyShared(pd []partialDir, name, dst string) error {
	fn0 := filepath.Join(pd[0].path, name)
	b0, err := os.ReadFile(fn0)
	if err != nil {
		return err
	}
	for _, d := range pd[1:] {
		fn := filepath.Join(d.path, name)
		b, err := os.ReadFile(fn)
		if err != nil {
			return err
		}
		if !bytes.Equal(b, b0) {
			a, bl := firstDiff(b0, b)
			return &cncand.MismatchError{What: "contents of " + name,
				FileA: fn0, FileB: fn, A: a, B: bl}
		}
	}
	return os.WriteFile(dst, b0, 0644)
}

// firstDiff returns the first differing lines of a and b, numbered.
func firstDiff(a, b []byte) (string, string) {
	la := strings.Split(string(a), "\n")
	lb := strings.Split(string(b), "\n")
	for i := 0; ; i++ {
		switch {
		case i == len(la):
			return fmt.Sprintf("%d lines", len(la)), "more lines"
		case i == len(lb):
			return "more lines", fmt.Sprintf("%d lines", len(lb))
		case la[i] != lb[i]:
			return fmt.Sprintf("line %d %q", i+1, la[i]),
				fmt.Sprintf("line %d %q", i+1, lb[i])
		}
	}
}
