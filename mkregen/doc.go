/*
Command mkregen records a regeneration map from a full cnmoonmars run.

Usage

  mkregen [candidate-file [map-file]]
  mkregen -v

The candidate file, default output/possiblehotspots.txt, must be a full,
normalized candidate file.  Candidates with identical probabilities form
a group.  The map names the first candidate of each group as the one to
compute and copies its probability to the rest of the group.  Candidates
with zero probability are left out of the map.

A later run given the map with cnmoonmars -m computes only the named
candidates, which for symmetric observation sets is a fraction of the
full list.  The map is written to map-file, default output/M.txt.

-------------
Public domain.
*/
package main
