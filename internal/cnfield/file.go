// Public domain.

package cnfield

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Fprint writes one line per point, the three offsets as fractions of a turn
// and the weight.
func (f *Field) Fprint(w io.Writer) error {
	lc := float64(f.Bounds.Period())
	for x, off := range f.Offsets {
		if _, err := fmt.Fprintf(w, "%25.17f %25.17f %25.17f %28.17e\n",
			float64(off[0])/lc, float64(off[1])/lc, float64(off[2])/lc,
			f.Weights[x]); err != nil {
			return err
		}
	}
	return nil
}

// WriteFile writes the field file.
func (f *Field) WriteFile(fn string) error {
	o, err := os.Create(fn)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(o)
	if err = f.Fprint(w); err == nil {
		err = w.Flush()
	}
	if cErr := o.Close(); err == nil {
		err = cErr
	}
	if err != nil {
		return fmt.Errorf("writing field file %s: %w", fn, err)
	}
	return nil
}
