// Package metadata records side information about a run that does not
// belong in the downloaded files themselves: currently the wrong-type
// event log, one JSON object per line.
package metadata
