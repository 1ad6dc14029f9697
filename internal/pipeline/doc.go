// Package pipeline implements the numeric steps applied to a Raman spectrum:
// asymmetric least squares baseline estimation, Savitzky-Golay smoothing,
// scipy-compatible peak picking, Gaussian multi-peak fitting, and the small
// helpers behind crop suggestions and the hand-editable baseline.
//
// Every function is pure: inputs are never modified and results are freshly
// allocated. Long-running steps (ALS, fitting) take a context and stop with
// ctx.Err() when it is cancelled. Missing samples are NaN throughout; see the
// individual functions for how each step treats them.
package pipeline
