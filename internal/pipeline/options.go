package pipeline

// ALSOptions tunes asymmetric least squares baseline estimation.
type ALSOptions struct {
	Lambda     float64
	P          float64
	Iterations int
}

// DefaultALSOptions returns lam=1e5, p=0.05, niter=1000.
func DefaultALSOptions() ALSOptions {
	return ALSOptions{Lambda: 1e5, P: 0.05, Iterations: 1000}
}

// SmoothOptions tunes the Savitzky-Golay filter.
type SmoothOptions struct {
	WindowLength int
	PolyOrder    int
}

// DefaultSmoothOptions returns a 13-point cubic filter.
func DefaultSmoothOptions() SmoothOptions {
	return SmoothOptions{WindowLength: 13, PolyOrder: 3}
}

// PeakOptions constrains peak detection. Nil fields are "auto" (unconstrained).
type PeakOptions struct {
	Width      *float64
	RelHeight  *float64
	Height     *float64
	Prominence *float64
}

// FitOptions bounds the Gaussian least-squares fit.
type FitOptions struct {
	MaxEvaluations int
}

// DefaultFitOptions returns the 10000 evaluation budget.
func DefaultFitOptions() FitOptions {
	return FitOptions{MaxEvaluations: 10000}
}

// Float returns a pointer to v, for populating PeakOptions.
func Float(v float64) *float64 { return &v }
