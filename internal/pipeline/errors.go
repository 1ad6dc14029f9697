package pipeline

import "errors"

var (
	// ErrInsufficientData reports inputs too short for the requested operation.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrSingular reports a linear system that could not be factorized.
	ErrSingular = errors.New("singular system")
	// ErrInvalidWindow reports Savitzky-Golay parameters that cannot be applied.
	ErrInvalidWindow = errors.New("invalid smoothing window")
	// ErrNotConverged reports a fit that exhausted its evaluation budget. The
	// accompanying result carries the best parameters found.
	ErrNotConverged = errors.New("fit did not converge")
	// ErrFitFailed reports a fit whose parameters are unusable.
	ErrFitFailed = errors.New("fit failed")
)
