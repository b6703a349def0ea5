// Public domain.

// Package cnconf holds run configuration shared by the hotspot commands.
// Configuration is read from an optional YAML file and then overridden from
// the command line.
package cnconf

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/soniakeys/cnmoonmars/internal/cncand"
)

// Config is a run configuration.  File names other than ObservationFile and
// MFile are relative to the run directory.
type Config struct {
	ResultsDir      string `yaml:"resultsDir"`
	ObservationFile string `yaml:"observationFile"`

	InputFile                string `yaml:"inputFile"`
	LimitsFile               string `yaml:"limitsFile"`
	AbcdDistFile             string `yaml:"abcdDistFile"`
	PossibleHotspotsFile     string `yaml:"possibleHotspotsFile"`
	NonremovableHotspotsFile string `yaml:"nonremovableHotspotsFile"`
	NonremovableProbFile     string `yaml:"nonremovableProbFile"`
	MFile                    string `yaml:"mFile,omitempty"`
	StatusDir                string `yaml:"statusDir,omitempty"`
	GeoJSONFile              string `yaml:"geojsonFile,omitempty"`
	GeoJSONBody              string `yaml:"geojsonBody,omitempty"`

	GridRes        int `yaml:"gridRes"`
	Increment      int `yaml:"increment"`
	Interval       int `yaml:"interval"`
	FieldGridRes   int `yaml:"fieldGridRes"`
	FieldIncrement int `yaml:"fieldIncrement"`
	StartIndex     int `yaml:"startIndex"`
	EndIndex       int `yaml:"endIndex"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		ResultsDir:               "output",
		ObservationFile:          filepath.Join("data", "input-observedhotspots.txt"),
		InputFile:                "input-observedhotspots.txt",
		LimitsFile:               "limits.txt",
		AbcdDistFile:             "abcdspaceprob.txt",
		PossibleHotspotsFile:     "possiblehotspots.txt",
		NonremovableHotspotsFile: "possiblehotspots-nonremovable.txt",
		NonremovableProbFile:     "nonremovable-prob.txt",
		GeoJSONBody:              "mars",
		GridRes:                  10,
		Increment:                1,
		Interval:                 runtime.GOMAXPROCS(0),
		FieldGridRes:             1,
		FieldIncrement:           5,
	}
}

// Load reads a YAML configuration file.  Keys absent from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Save writes c as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate checks numeric settings.
func (c *Config) Validate() error {
	for _, v := range []struct {
		name string
		v    int
	}{
		{"gridRes", c.GridRes},
		{"increment", c.Increment},
		{"interval", c.Interval},
		{"fieldGridRes", c.FieldGridRes},
		{"fieldIncrement", c.FieldIncrement},
	} {
		if v.v < 1 {
			return fmt.Errorf("%s must be at least 1, got %d", v.name, v.v)
		}
	}
	if c.ResultsDir == "" {
		return fmt.Errorf("resultsDir is required")
	}
	if err := cncand.ValidateRange(c.StartIndex, c.EndIndex); err != nil {
		return err
	}
	switch c.GeoJSONBody {
	case "moon", "mars":
	default:
		return fmt.Errorf("geojsonBody must be moon or mars, got %q", c.GeoJSONBody)
	}
	return nil
}

// IsPartial reports whether an index range is configured.
func (c *Config) IsPartial() bool { return c.StartIndex != 0 || c.EndIndex != 0 }

// RunDir returns the directory for the output of a run, the results
// directory or for a partial run a subdirectory named start-end.
func (c *Config) RunDir() string {
	if !c.IsPartial() {
		return c.ResultsDir
	}
	return filepath.Join(c.ResultsDir,
		strconv.Itoa(c.StartIndex)+"-"+strconv.Itoa(c.EndIndex))
}

// Path joins a file name to the run directory.  An empty name stays empty.
func (c *Config) Path(name string) string {
	if name == "" {
		return ""
	}
	return filepath.Join(c.RunDir(), name)
}
