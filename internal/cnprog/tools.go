// Public domain.

package cnprog

import (
	"fmt"
	"io"

	"github.com/soniakeys/cnmoonmars/internal/cnbound"
	"github.com/soniakeys/cnmoonmars/internal/cncand"
	"github.com/soniakeys/cnmoonmars/internal/cnfield"
	"github.com/soniakeys/cnmoonmars/internal/cnobs"
	"github.com/soniakeys/cnmoonmars/internal/cnregen"
)

// CountPoints prints the bounds of the observations in file obsFile and the
// number of lattice points at the given resolution and increment.
func CountPoints(obsFile string, gridRes, increment int, w io.Writer) error {
	if increment < 1 {
		return fmt.Errorf("increment must be at least 1, got %d", increment)
	}
	obs, err := cnobs.ReadFile(obsFile)
	if err != nil {
		return err
	}
	m := cnbound.Build(obs)
	if err := m.Fprint(w); err != nil {
		return err
	}
	b, err := m.ScaleToInteger(gridRes)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nPoint count with gridRes = %d, increment = %d:  %d\n",
		gridRes, increment, cnfield.CountPoints(b, increment))
	return nil
}

// RecordMap reads a full candidate file and writes the regeneration map
// that reproduces its probabilities.
func RecordMap(candFile, mapFile string, w io.Writer) error {
	s, err := cncand.ReadFile(candFile)
	if err != nil {
		return err
	}
	if s.IsPartial() {
		return fmt.Errorf("%s: a regeneration map needs a full candidate file", candFile)
	}
	if s.Probs == nil && s.Len() > 0 {
		return fmt.Errorf("%s: candidate file has no probabilities", candFile)
	}
	m := cnregen.Record(s.Coords, s.Probs)
	if err := m.WriteFile(mapFile); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d candidates, %d required, %d triples.\n",
		len(m.Coords), m.NumRequired(), len(m.Triples))
	fmt.Fprintf(w, "Output file: %q.\n", mapFile)
	return nil
}
