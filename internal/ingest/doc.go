// Package ingest reads measured spectra from disk.
//
// Supported inputs are RRUFF-style text exports (a "##" header block followed
// by comma-separated pairs), plain whitespace-separated two-column text, CSV
// files with x and y header columns, and Galactic SPC binaries. Every reader
// returns equal-length x/y sequences with y normalized by its own maximum, or
// an error wrapping ErrFormat; partial data is never returned.
package ingest
