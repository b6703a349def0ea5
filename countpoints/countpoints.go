// Public domain.

package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/soniakeys/exit"

	"github.com/soniakeys/cnmoonmars/internal/cnconf"
	"github.com/soniakeys/cnmoonmars/internal/cnprog"
)

const versionString = "countpoints version 1.0"
const copyrightString = "Public domain."

func main() {
	defer exit.Handler()
	flag.Usage = func() {
		os.Stderr.WriteString(`Usage:
   countpoints [-i <observation-file>] gridRes increment
   countpoints -v
`)
	}
	di := flag.String("i", cnconf.Default().ObservationFile, "")
	vers := flag.Bool("v", false, "display version and copyright")
	flag.Parse()
	if *vers {
		fmt.Println(versionString)
		fmt.Println(copyrightString)
		os.Exit(0)
	}
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(1)
	}
	gridRes, err := strconv.Atoi(flag.Arg(0))
	if err != nil {
		exit.Log(err)
	}
	increment, err := strconv.Atoi(flag.Arg(1))
	if err != nil {
		exit.Log(err)
	}
	if err := cnprog.CountPoints(*di, gridRes, increment, os.Stdout); err != nil {
		exit.Log(err)
	}
}
