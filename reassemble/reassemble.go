// Public domain.

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/soniakeys/exit"

	"github.com/soniakeys/cnmoonmars/internal/cnconf"
	"github.com/soniakeys/cnmoonmars/internal/cnprog"
)

const versionString = "reassemble version 1.0"
const copyrightString = "Public domain."

func main() {
	defer exit.Handler()
	flag.Usage = func() {
		os.Stderr.WriteString(`Usage:
   reassemble [-c <config-file>] [-o <results-dir>] [-m <map-file>]
   reassemble -v

For full documentation:
   go doc reassemble
`)
	}
	dc := flag.String("c", "", "")
	do := flag.String("o", "", "")
	dm := flag.String("m", "", "")
	vers := flag.Bool("v", false, "display version and copyright")
	flag.Parse()
	if *vers {
		fmt.Println(versionString)
		fmt.Println(copyrightString)
		os.Exit(0)
	}
	if flag.NArg() > 0 {
		flag.Usage()
		os.Exit(1)
	}
	c := cnconf.Default()
	if *dc > "" {
		var err error
		if c, err = cnconf.Load(*dc); err != nil {
			exit.Log(err)
		}
	}
	if *do > "" {
		c.ResultsDir = *do
	}
	if *dm > "" {
		c.MFile = *dm
	}
	if err := cnprog.Reassemble(c, os.Stdout); err != nil {
		exit.Log(err)
	}
}
