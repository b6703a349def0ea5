// Public domain.

// Package cnprog is the program driver for command cnmoonmars.
package cnprog

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/soniakeys/exit"

	"github.com/soniakeys/cnmoonmars/internal/cnconf"
)

const versionString = "cnmoonmars version 1.0 Go source."
const copyrightString = "Public domain."

// Main runs command cnmoonmars.
func Main() {
	defer exit.Handler()

	// these functions terminate on error
	cl := parseCommandLine()
	c := readConfig(cl)

	if err := Run(c, os.Stdout); err != nil {
		exit.Log(err)
	}
}

type commandLine struct {
	dc   string // config file
	do   string // results dir
	dm   string // regeneration map file
	di   string // observation file
	args []int  // gridRes, increment, interval, start, end
}

func parseCommandLine() *commandLine {
	var cl commandLine
	dh := flag.Bool("h", false, "")
	dv := flag.Bool("v", false, "")
	flag.StringVar(&cl.dc, "c", "", "")
	flag.StringVar(&cl.do, "o", "", "")
	flag.StringVar(&cl.dm, "m", "", "")
	flag.StringVar(&cl.di, "i", "", "")
	flag.Usage = func() {
		os.Stderr.WriteString(`
Usage: cnmoonmars [options] [gridRes [increment [interval [start end]]]]
       cnmoonmars -h         display help
       cnmoonmars -v         display version and copyright

Options:
       -c <config-file>
       -i <observation-file>
       -m <regeneration-map-file>
       -o <results-dir>
`)
	}
	flag.Parse()
	switch {
	case *dh:
		printHelp()
		os.Exit(0)
	case *dv:
		fmt.Println(versionString)
		fmt.Println(copyrightString)
		os.Exit(0)
	case flag.NArg() > 5 || flag.NArg() == 4:
		flag.Usage()
		os.Exit(1)
	}
	for _, a := range flag.Args() {
		n, err := strconv.Atoi(a)
		if err != nil {
			exit.Log(fmt.Sprintf("Invalid numeric argument %q.", a))
		}
		cl.args = append(cl.args, n)
	}
	return &cl
}

// readConfig loads the config file if any, then applies command line
// overrides.
func readConfig(cl *commandLine) *cnconf.Config {
	c := cnconf.Default()
	if cl.dc > "" {
		var err error
		if c, err = cnconf.Load(cl.dc); err != nil {
			exit.Log(err)
		}
	}
	if cl.do > "" {
		c.ResultsDir = cl.do
	}
	if cl.dm > "" {
		c.MFile = cl.dm
	}
	if cl.di > "" {
		c.ObservationFile = cl.di
	}
	for i, p := range []*int{&c.GridRes, &c.Increment, &c.Interval,
		&c.StartIndex, &c.EndIndex} {
		if i < len(cl.args) {
			*p = cl.args[i]
		}
	}
	if err := c.Validate(); err != nil {
		exit.Log(err)
	}
	return c
}

func printHelp() {
	fmt.Println(versionString)
	fmt.Print(`
Cnmoonmars estimates where the next coincident moon and mars hotspot pair
may appear, given the pairs observed so far.

Positional arguments:
       gridRes     offset lattice resolution, default 10
       increment   lattice step, default 1
       interval    lattice rows per chunk, default number of CPUs
       start end   1-based candidate index range for a partial run

A partial run writes to a subdirectory <start>-<end> of the results
directory.  Partial runs are combined with command reassemble.

Config file keys (YAML):
       resultsDir, observationFile, inputFile, limitsFile, abcdDistFile,
       possibleHotspotsFile, mFile, statusDir, geojsonFile, geojsonBody,
       gridRes, increment, interval, fieldGridRes, fieldIncrement,
       startIndex, endIndex
`)
}
