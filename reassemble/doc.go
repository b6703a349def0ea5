/*
Command reassemble combines partial runs of cnmoonmars.

Usage

  reassemble [options]
  reassemble -v

Options:

  -c <config-file>   the YAML config file used for the partial runs
  -o <results-dir>   default output
  -m <map-file>      regeneration map

The results directory is scanned for subdirectories named <start>-<end>
as written by partial runs.  Their candidate files must list the same
candidates and between them cover every candidate.  Where ranges overlap
the probabilities must agree exactly.

The observation copy, bound file and lattice file of every partial run must
be identical.  One copy of each is written to the results directory along
with

  possiblehotspots.txt                the merged, normalized candidates
  possiblehotspots-nonremovable.txt   candidates that, observed next,
                                      would leave the bounds unchanged
  nonremovable-prob.txt               total probability of the above

-------------
Public domain.
*/
package main
