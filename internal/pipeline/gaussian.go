package pipeline

import "math"

// FWHMFactor converts a Gaussian sigma to its full width at half maximum.
const FWHMFactor = 2.35482

var sqrt2Pi = math.Sqrt(2 * math.Pi)

// Gaussian evaluates height * exp(-(x-center)^2 / (2 sigma^2)).
func Gaussian(x, height, center, sigma float64) float64 {
	d := x - center
	return height * math.Exp(-d*d/(2*sigma*sigma))
}

// PeakStats describes one fitted Gaussian component.
type PeakStats struct {
	Center float64
	Sigma  float64
	Height float64
	Area   float64
	FWHM   float64
}

func newPeakStats(area, center, sigma float64) PeakStats {
	return PeakStats{
		Center: center,
		Sigma:  sigma,
		Height: area / (sigma * sqrt2Pi),
		Area:   area,
		FWHM:   sigma * FWHMFactor,
	}
}

// Eval returns the component's value at x.
func (p PeakStats) Eval(x float64) float64 {
	return Gaussian(x, p.Height, p.Center, p.Sigma)
}
