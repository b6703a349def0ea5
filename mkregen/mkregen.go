// Public domain.

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/soniakeys/exit"

	"github.com/soniakeys/cnmoonmars/internal/cnconf"
	"github.com/soniakeys/cnmoonmars/internal/cnprog"
)

const versionString = "mkregen version 1.0"
const copyrightString = "Public domain."

func main() {
	defer exit.Handler()
	flag.Usage = func() {
		os.Stderr.WriteString(`Usage:
   mkregen [candidate-file [map-file]]
   mkregen -v
`)
	}
	vers := flag.Bool("v", false, "display version and copyright")
	flag.Parse()
	if *vers {
		fmt.Println(versionString)
		fmt.Println(copyrightString)
		os.Exit(0)
	}
	c := cnconf.Default()
	candFile := filepath.Join(c.ResultsDir, c.PossibleHotspotsFile)
	mapFile := filepath.Join(c.ResultsDir, "M.txt")
	switch flag.NArg() {
	case 0:
	case 2:
		mapFile = flag.Arg(1)
		fallthrough
	case 1:
		candFile = flag.Arg(0)
	default:
		flag.Usage()
		os.Exit(1)
	}
	if err := cnprog.RecordMap(candFile, mapFile, os.Stdout); err != nil {
		exit.Log(err)
	}
}
