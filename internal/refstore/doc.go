// Package refstore persists reference mineral spectra in SQLite.
//
// Each row holds a reference file name, its mineral name, the positions of
// its peaks, the position of its strongest peak, the excitation wavelength
// and the raw spectrum. Peak lists and spectra are stored with a small
// fixed-width binary encoding rather than language literals, so reading the
// database never evaluates stored text.
//
// The store answers the two queries the matching engine needs (candidate
// prefiltering by strongest peak and filename to name lookup) plus the
// browsing queries used by the CLI. Writers serialize on a file lock next to
// the database so concurrent imports never interleave.
package refstore
