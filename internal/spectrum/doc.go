// Package spectrum defines the Raman spectrum snapshot and peak set that the
// editing session operates on.
//
// A Spectrum pairs Raman shift (x) with intensity (y). Snapshots are treated as
// immutable: every edit helper returns a fresh Spectrum and leaves the receiver
// untouched, so undo can simply hold on to the previous pointer. Samples that
// have been cropped out are kept in place as NaN ("missing") so arrays stay
// aligned with any baseline computed earlier.
//
// The package also owns the plain-text `x y` output written when an edited
// spectrum is saved.
package spectrum
