// Public domain.

package cnprog

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/soniakeys/cnmoonmars/internal/cnbound"
	"github.com/soniakeys/cnmoonmars/internal/cncand"
	"github.com/soniakeys/cnmoonmars/internal/cnconf"
	"github.com/soniakeys/cnmoonmars/internal/cnfield"
	"github.com/soniakeys/cnmoonmars/internal/cnobs"
	"github.com/soniakeys/cnmoonmars/internal/cnregen"
)

const rule = "==============================================================="

// Run performs one full or partial run as configured by c, writing
// artifacts to c.RunDir() and a report to w.
//
// Index ranges are clamped to the candidate count before the run
// directory is chosen, so a range covering every candidate is a full run.
func Run(c *cnconf.Config, w io.Writer) error {
	rc := *c
	c = &rc

	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Number of CPUs:                 %d\n", runtime.NumCPU())
	fmt.Fprintf(w, "GOMAXPROCS:                     %d\n\n", runtime.GOMAXPROCS(0))
	fmt.Fprintf(w, "Grid resolution:                %d\n", c.GridRes)
	fmt.Fprintf(w, "Grid increment:                 %d\n", c.Increment)
	fmt.Fprintf(w, "Abcd space chunking interval:   %d\n\n", c.Interval)

	src, err := os.ReadFile(c.ObservationFile)
	if err != nil {
		return err
	}
	obs, err := cnobs.Parse(bytes.NewReader(src), c.ObservationFile)
	if err != nil {
		return err
	}
	m := cnbound.Build(obs)
	if err := m.Bounded(); err != nil {
		return fmt.Errorf("%s: %w", c.ObservationFile, err)
	}
	cands := cncand.Enumerate(m, false)
	if err := cands.SetRange(c.StartIndex, c.EndIndex); err != nil {
		return err
	}
	c.StartIndex, c.EndIndex = cands.Start, cands.End

	if err := os.MkdirAll(c.RunDir(), 0755); err != nil {
		return err
	}
	copyFile := c.Path(c.InputFile)
	if err := os.WriteFile(copyFile, src, 0644); err != nil {
		return err
	}
	fmt.Fprintf(w, "Copied input file to %q.\n\n", copyFile)

	listObservations(w, obs)

	fmt.Fprintf(w, "Bound closure passes:           %d\n", m.Passes())
	if err := m.WriteFile(c.Path(c.LimitsFile)); err != nil {
		return err
	}
	if err := m.Fprint(w); err != nil {
		return err
	}
	fmt.Fprintln(w)

	fb, err := m.ScaleToInteger(c.FieldGridRes)
	if err != nil {
		return err
	}
	f, err := cnfield.Build(obs, fb, c.FieldIncrement, true)
	if err != nil {
		return fmt.Errorf("diagnostic field: %w", err)
	}
	if err := f.WriteFile(c.Path(c.AbcdDistFile)); err != nil {
		return err
	}
	fmt.Fprintf(w, "Wrote %d offset points to %q.\n\n", f.Len(), c.Path(c.AbcdDistFile))

	fmt.Fprintf(w, "Candidate hotspots:             %d\n", cands.Len())
	if cands.IsPartial() {
		fmt.Fprintf(w, "Index range:                    %d-%d\n", cands.Start, cands.End)
	}
	var regen cncand.Regenerator
	if c.MFile > "" {
		mp, err := cnregen.LoadFile(c.MFile)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Required candidates:            %d\n", mp.NumRequired())
		regen = mp
	}

	b, err := m.ScaleToInteger(c.GridRes)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Number of chunks:               %d\n", b.NumChunks(c.Increment, c.Interval))
	fmt.Fprintf(w, "Lattice points:                 %d\n\n",
		cnfield.CountPoints(b, c.Increment))
	progress, err := chunkReporter(c, w)
	if err != nil {
		return err
	}
	if err := cands.Compute(obs, b, c.Increment, c.Interval, regen, progress); err != nil {
		return err
	}
	fn := c.Path(c.PossibleHotspotsFile)
	if err := cands.WriteFile(fn, true); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nWrote candidates to %q.\n", fn)
	if cands.IsPartial() {
		return nil
	}
	return report(c, cands, w)
}

func listObservations(w io.Writer, obs *cnobs.Set) {
	fmt.Fprintf(w, "Observed hotspots:              %d\n", obs.Len())
	obs.Iterate(func(o cnobs.Observation) {
		fmt.Fprintf(w, "%s    %s\n", o, o.Describe())
	})
	if first, last, days, ok := obs.Span(); ok {
		fmt.Fprintf(w, "Span %s-%04d to %s-%04d, %.0f days.\n",
			first.Month, first.Year, last.Month, last.Year, days)
	}
	fmt.Fprintln(w)
}

// chunkReporter returns the progress callback for Compute.  Status lines
// go to w and, with a status directory configured, to one file per chunk.
func chunkReporter(c *cnconf.Config, w io.Writer) (func(cncand.Chunk) error, error) {
	dir := c.Path(c.StatusDir)
	if dir > "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	return func(ch cncand.Chunk) error {
		line := fmt.Sprintf(
			"Chunk %4d of %4d,     Chunk points: %9d,     Total points: %12d\n",
			ch.N, ch.Of, ch.Points, ch.Total)
		io.WriteString(w, line)
		if dir == "" {
			return nil
		}
		return os.WriteFile(filepath.Join(dir, fmt.Sprintf("chunk%06d.txt", ch.N)),
			[]byte(line), 0644)
	}, nil
}

// report prints summary statistics of a normalized candidate set and writes
// the GeoJSON marginal if configured.
func report(c *cnconf.Config, s *cncand.Set, w io.Writer) error {
	sum := cncand.Summarize(s)
	fmt.Fprintf(w, "\nCandidates:                     %d\n", sum.N)
	fmt.Fprintf(w, "Nonzero probability:            %d\n", sum.NonZero)
	if sum.N > 0 {
		fmt.Fprintf(w, "Most probable:            %s  %.6e\n", sum.Max, sum.MaxProb)
		fmt.Fprintf(w, "Entropy:                        %.6f nats\n", sum.Entropy)
	}
	if c.GeoJSONFile == "" {
		return nil
	}
	fc, err := cncand.MarginalGeoJSON(s, c.GeoJSONBody)
	if err != nil {
		return err
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return err
	}
	fn := c.Path(c.GeoJSONFile)
	if err := os.WriteFile(fn, data, 0644); err != nil {
		return err
	}
	fmt.Fprintf(w, "Wrote %s marginal to %q.\n", c.GeoJSONBody, fn)
	return nil
}
