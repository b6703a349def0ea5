/*
Command countpoints counts offset lattice points without building the
lattice.

Usage

  countpoints [-i <observation-file>] gridRes increment
  countpoints -v

It reads the observations, default data/input-observedhotspots.txt, prints
their bounds in the format of the cnmoonmars bound file, then the number of
lattice points a cnmoonmars run with the same gridRes and increment would
build.  Use it to size a run before starting it.

-------------
Public domain.
*/
package main
