// Package downloader streams a single media URL into the destination
// directory.
//
// The destination name is the only de-duplication key: an existing file is
// reported as already_exists and never overwritten.
package downloader
