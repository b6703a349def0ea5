// Public domain.

package cnprog_test

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/soniakeys/cnmoonmars/internal/cncand"
	"github.com/soniakeys/cnmoonmars/internal/cnconf"
	"github.com/soniakeys/cnmoonmars/internal/cnfield"
	"github.com/soniakeys/cnmoonmars/internal/cnprog"
	"github.com/soniakeys/cnmoonmars/internal/cnregen"
)

const pairObs = `Mar-2003  -60  -30   20  150

Apr-2003  -58  -26   22  154
`

// config returns a small configuration over the pair observations with
// results in a fresh temporary directory.
func config(t *testing.T) *cnconf.Config {
	t.Helper()
	dir := t.TempDir()
	obs := filepath.Join(dir, "obs.txt")
	require.NoError(t, os.WriteFile(obs, []byte(pairObs), 0644))
	c := cnconf.Default()
	c.ObservationFile = obs
	c.ResultsDir = filepath.Join(dir, "output")
	c.GridRes = 1
	c.Increment = 60
	c.Interval = 4
	c.FieldIncrement = 60
	return c
}

func TestRunFull(t *testing.T) {
	c := config(t)
	c.StatusDir = "status"
	c.GeoJSONFile = "mars.geojson"
	var out bytes.Buffer
	require.NoError(t, cnprog.Run(c, &out))

	for _, name := range []string{c.InputFile, c.LimitsFile, c.AbcdDistFile,
		c.PossibleHotspotsFile, c.GeoJSONFile} {
		assert.FileExists(t, filepath.Join(c.ResultsDir, name))
	}
	b, err := os.ReadFile(filepath.Join(c.ResultsDir, c.InputFile))
	require.NoError(t, err)
	assert.Equal(t, pairObs, string(b))

	s, err := cncand.ReadFile(filepath.Join(c.ResultsDir, c.PossibleHotspotsFile))
	require.NoError(t, err)
	assert.False(t, s.IsPartial())
	assert.Equal(t, 5949, s.Len())
	assert.InDelta(t, 1, floats.Sum(s.Probs), 1e-12)

	st, err := os.ReadDir(filepath.Join(c.ResultsDir, "status"))
	require.NoError(t, err)
	require.NotEmpty(t, st)
	assert.Equal(t, "chunk000001.txt", st[0].Name())

	report := out.String()
	assert.Contains(t, report, "Candidate hotspots:             5949")
	assert.Contains(t, report, "Chunk    1 of ")
	assert.Contains(t, report, "Mar-2003")
	assert.Contains(t, report, "Entropy:")
}

func TestRunPartialAndReassemble(t *testing.T) {
	full := config(t)
	require.NoError(t, cnprog.Run(full, new(bytes.Buffer)))
	want, err := os.ReadFile(filepath.Join(full.ResultsDir, full.PossibleHotspotsFile))
	require.NoError(t, err)

	c := config(t)
	for _, r := range [][2]int{{1, 3000}, {3001, 99999}} {
		c.StartIndex, c.EndIndex = r[0], r[1]
		require.NoError(t, cnprog.Run(c, new(bytes.Buffer)))
	}
	p, err := cncand.ReadFile(filepath.Join(c.ResultsDir, "3001-5949", c.PossibleHotspotsFile))
	require.NoError(t, err)
	assert.Equal(t, 3001, p.Start)
	assert.Equal(t, 5949, p.End)

	var out bytes.Buffer
	require.NoError(t, cnprog.Reassemble(c, &out))
	got, err := os.ReadFile(filepath.Join(c.ResultsDir, c.PossibleHotspotsFile))
	require.NoError(t, err)
	if diff := cmp.Diff(string(want), string(got)); diff != "" {
		t.Fatalf("reassembled candidates differ from full run (-want +got):\n%s", diff)
	}
	nr, err := cncand.ReadFile(filepath.Join(c.ResultsDir, c.NonremovableHotspotsFile))
	require.NoError(t, err)
	assert.Equal(t, 43, nr.Len())
	merged, err := cncand.ReadFile(filepath.Join(c.ResultsDir, c.PossibleHotspotsFile))
	require.NoError(t, err)
	pn, err := cncand.TotalProbability(merged, nr)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pn, 0.)
	assert.LessOrEqual(t, pn, 1.)
	rep, err := os.ReadFile(filepath.Join(c.ResultsDir, c.NonremovableProbFile))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf(`Probability of getting a nonremovable & non-removing point next month:
%.17g%%
Probability of getting a removable & removing point next month:
%.17g%%
`, 100*pn, 100*(1-pn)), string(rep))
	assert.Contains(t, out.String(), "1-3000")
	assert.Contains(t, out.String(), "3001-5949")
}

func TestRunUnusableObservations(t *testing.T) {
	for name, body := range map[string]string{
		"empty":           "",
		"blank":           "\n\n",
		"axis never seen": "Mar-2003  -60  -30   20     \nApr-2003  -58  -26   22     \n",
	} {
		t.Run(name, func(t *testing.T) {
			c := config(t)
			require.NoError(t, os.WriteFile(c.ObservationFile, []byte(body), 0644))
			assert.Error(t, cnprog.Run(c, new(bytes.Buffer)))
			assert.NoDirExists(t, c.ResultsDir)
		})
	}
}

func TestRunEmptyDiagnosticField(t *testing.T) {
	c := config(t)
	c.FieldIncrement = 1000 // wider than the primary offset range
	err := cnprog.Run(c, new(bytes.Buffer))
	require.ErrorIs(t, err, cnfield.ErrEmpty)
	assert.Contains(t, err.Error(), "diagnostic field")
}

func TestReassembleSharedMismatch(t *testing.T) {
	c := config(t)
	for _, r := range [][2]int{{1, 3000}, {3001, 5949}} {
		c.StartIndex, c.EndIndex = r[0], r[1]
		require.NoError(t, cnprog.Run(c, new(bytes.Buffer)))
	}
	fn := filepath.Join(c.ResultsDir, "3001-5949", c.LimitsFile)
	b, err := os.ReadFile(fn)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(fn, append(b, '\n'), 0644))
	err = cnprog.Reassemble(c, new(bytes.Buffer))
	var me *cncand.MismatchError
	require.True(t, errors.As(err, &me), "got %v", err)
	assert.Equal(t, "contents of "+c.LimitsFile, me.What)
}

func TestReassembleNoPartials(t *testing.T) {
	c := config(t)
	require.NoError(t, os.MkdirAll(c.ResultsDir, 0755))
	assert.Error(t, cnprog.Reassemble(c, new(bytes.Buffer)))
}

func TestRunRegenerated(t *testing.T) {
	full := config(t)
	require.NoError(t, cnprog.Run(full, new(bytes.Buffer)))
	candFile := filepath.Join(full.ResultsDir, full.PossibleHotspotsFile)
	mapFile := filepath.Join(full.ResultsDir, "M.txt")
	var out bytes.Buffer
	require.NoError(t, cnprog.RecordMap(candFile, mapFile, &out))
	assert.Contains(t, out.String(), "5949 candidates")
	m, err := cnregen.LoadFile(mapFile)
	require.NoError(t, err)
	assert.LessOrEqual(t, m.NumRequired(), 5949)
	assert.Positive(t, m.NumRequired())

	c := config(t)
	c.MFile = mapFile
	require.NoError(t, cnprog.Run(c, new(bytes.Buffer)))
	want, err := cncand.ReadFile(candFile)
	require.NoError(t, err)
	got, err := cncand.ReadFile(filepath.Join(c.ResultsDir, c.PossibleHotspotsFile))
	require.NoError(t, err)
	assert.Equal(t, want.Coords, got.Coords)
	assert.True(t, floats.EqualApprox(want.Probs, got.Probs, 1e-15))
}

func TestRecordMapPartial(t *testing.T) {
	c := config(t)
	c.StartIndex, c.EndIndex = 1, 10
	require.NoError(t, cnprog.Run(c, new(bytes.Buffer)))
	err := cnprog.RecordMap(filepath.Join(c.RunDir(), c.PossibleHotspotsFile),
		filepath.Join(t.TempDir(), "M.txt"), new(bytes.Buffer))
	assert.Error(t, err)
}

func TestCountPoints(t *testing.T) {
	c := config(t)
	var out bytes.Buffer
	require.NoError(t, cnprog.CountPoints(c.ObservationFile, 1, 20, &out))
	s := out.String()
	assert.True(t, strings.HasPrefix(s, "b_a_min = "), s)
	assert.Contains(t, s, "b_a_max = 0.27512320548532249\n")
	assert.Contains(t, s, "Point count with gridRes = 1, increment = 20:  6562\n")

	assert.Error(t, cnprog.CountPoints(c.ObservationFile, 1, 0, &out))
	assert.Error(t, cnprog.CountPoints(filepath.Join(t.TempDir(), "none"), 1, 20, &out))
}
