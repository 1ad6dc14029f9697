package pipeline

import (
	"math"
)

const (
	cropSigma    = 2.0
	cropTruncate = 4.0
	cropSearch   = 55
	cropOffset   = 2
)

// SuggestCrop proposes the index where the low-wavenumber Rayleigh edge
// ends: the steepest drop of the smoothed slope among the first samples.
// It returns -1 when there is not enough data.
func SuggestCrop(y []float64) int {
	if len(y) < 3 {
		return -1
	}
	slope := make([]float64, len(y)-1)
	for i := range slope {
		slope[i] = y[i+1] - y[i]
	}
	smoothed := gaussianFilter1D(slope, cropSigma, cropTruncate)

	limit := len(smoothed) - 1
	if limit > cropSearch {
		limit = cropSearch
	}
	best, bestIdx := math.Inf(1), -1
	for i := 0; i < limit; i++ {
		d := smoothed[i+1] - smoothed[i]
		if math.IsNaN(d) {
			continue
		}
		if d < best {
			best, bestIdx = d, i
		}
	}
	if bestIdx < 0 {
		return -1
	}
	return bestIdx + cropOffset
}

// gaussianFilter1D convolves v with a normalized Gaussian kernel using
// half-sample symmetric (reflect) boundaries.
func gaussianFilter1D(v []float64, sigma, truncate float64) []float64 {
	radius := int(truncate*sigma + 0.5)
	kernel := make([]float64, 2*radius+1)
	var sum float64
	for i := -radius; i <= radius; i++ {
		k := math.Exp(-0.5 * float64(i*i) / (sigma * sigma))
		kernel[i+radius] = k
		sum += k
	}
	for i := range kernel {
		kernel[i] /= sum
	}

	n := len(v)
	out := make([]float64, n)
	for i := range v {
		var acc float64
		for k := -radius; k <= radius; k++ {
			acc += kernel[k+radius] * v[reflectIndex(i+k, n)]
		}
		out[i] = acc
	}
	return out
}

func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}
