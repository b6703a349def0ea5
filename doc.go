/*
Command cnmoonmars estimates where the next coincident moon and mars hotspot
pair may appear, given the pairs observed so far.

Contents

  Program overview
  Command line usage
  Configuration
  File formats
  Algorithm outline


Program overview

Input is a file of observed hotspot pairs, one per month.  Each observation
gives the latitude and longitude of a hotspot on the moon and the latitude
and longitude of a hotspot on mars.  Output is a list of candidate
coordinate tuples for the next observation, each with a probability.

Sample run:

Here are two observations, in data/input-observedhotspots.txt.

  Mar-2003  -60  -30   20  150
  Apr-2003  -58  -26   22  154

Type "cnmoonmars 1 20" and the program writes, under the directory output,

  input-observedhotspots.txt   a copy of the observations
  limits.txt                   the bounds on offsets between axes
  abcdspaceprob.txt            the weighted offset lattice, for diagnostics
  possiblehotspots.txt         candidate tuples and probabilities

The run also prints the observations, the bounds, a status line for each
chunk of the offset lattice, and summary statistics of the result.


Command line usage

  cnmoonmars [options] [gridRes [increment [interval [start end]]]]
  cnmoonmars -h
  cnmoonmars -v

gridRes is the offset lattice resolution, default 10.  Increment is the
lattice step at that resolution, default 1.  Only the ratio of the two
matters to the set of lattice points but the run time grows with the
number of points, roughly (gridRes/increment)^3.  Interval is the number
of lattice rows built at a time, by default the number of CPUs.

Start and end are 1-based candidate indexes.  With them the run computes
probabilities only for that range of candidates and writes its files
to a subdirectory of the results directory named <start>-<end>.  The
candidate file of a partial run is not normalized and carries a header
identifying the range.  Command reassemble combines partial runs.

Options:

  -c <config-file>         YAML run configuration
  -i <observation-file>    default data/input-observedhotspots.txt
  -m <map-file>            regeneration map, see command mkregen
  -o <results-dir>         default output

Command line values override values from the config file.


Configuration

The YAML config file may set any of:

  resultsDir, observationFile, inputFile, limitsFile, abcdDistFile,
  possibleHotspotsFile, nonremovableHotspotsFile, nonremovableProbFile,
  mFile, statusDir, geojsonFile, geojsonBody,
  gridRes, increment, interval, fieldGridRes, fieldIncrement,
  startIndex, endIndex

With statusDir set, each chunk status line is also written to a file
chunkNNNNNN.txt there.  With geojsonFile set, a full run writes the marginal
probability of the moon or mars hotspot (geojsonBody) as GeoJSON points.


File formats

Observations have the month as three letters, a hyphen, a four digit year,
then four fields five characters wide: moon latitude, moon longitude, mars
latitude, mars longitude, in whole degrees.  Latitudes are -84 to 84,
longitudes -179 to 179.  A blank field is a missing coordinate.

Candidate lines are four coordinates, each six characters wide, then the
probability.


Algorithm outline

1.  The four coordinate axes are each mapped to [0,1).  For every pair of
axes, the observations bound the offset between them: an offset consistent
with every observation lies between a minimum and a maximum.  Bounds are
tightened by closure, the bound of i to j being no more than the bound of
i to k plus k to j, until nothing changes.

2.  A lattice of offset triples, the offsets of axes b, c and d from a, is
laid inside the bounds.  Each lattice point is weighted by how well every
observation lines up with it.

3.  A candidate tuple is a grid cell that fits within the bounds.  Its
probability is the weight of each lattice point times the overlap of the
candidate with that point, summed over the lattice.

4.  The lattice is built in chunks of rows so that memory stays small.
Chunks are accumulated in order, so a chunked run gives exactly the result
of an unchunked one.

-------------
Public domain.
*/
package main
