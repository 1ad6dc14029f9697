package pipeline

import (
	"fmt"

	"ramanid/internal/spectrum"
)

const defaultRelHeight = 0.5

// FindPeaks locates local maxima in y and returns their (x, y) pairs.
//
// The selection follows scipy.signal.find_peaks: flat tops resolve to their
// middle sample, then the optional minimum height, minimum prominence and
// minimum width (in samples, measured at RelHeight of the prominence,
// default 0.5) are applied in that order. Missing samples never qualify and
// act as barriers when prominences are measured.
func FindPeaks(x, y []float64, opts PeakOptions) (spectrum.PeakSet, error) {
	if len(x) != len(y) {
		return spectrum.PeakSet{}, fmt.Errorf("%w: x has %d samples, y has %d", spectrum.ErrLengthMismatch, len(x), len(y))
	}
	if opts.RelHeight != nil && *opts.RelHeight < 0 {
		return spectrum.PeakSet{}, fmt.Errorf("rel_height must be non-negative, got %v", *opts.RelHeight)
	}

	peaks := localMaxima(y)

	if opts.Height != nil {
		peaks = keepIf(peaks, func(i int) bool { return y[peaks[i]] >= *opts.Height })
	}

	if opts.Prominence != nil || opts.Width != nil {
		prom := prominences(y, peaks)
		if opts.Prominence != nil {
			keep := make([]int, 0, len(peaks))
			kept := make([]peakProminence, 0, len(peaks))
			for i, p := range prom {
				if p.value >= *opts.Prominence {
					keep = append(keep, peaks[i])
					kept = append(kept, p)
				}
			}
			peaks, prom = keep, kept
		}
		if opts.Width != nil {
			rel := defaultRelHeight
			if opts.RelHeight != nil {
				rel = *opts.RelHeight
			}
			keep := make([]int, 0, len(peaks))
			for i, peak := range peaks {
				if peakWidth(y, peak, prom[i], rel) >= *opts.Width {
					keep = append(keep, peak)
				}
			}
			peaks = keep
		}
	}

	out := spectrum.PeakSet{X: make([]float64, len(peaks)), Y: make([]float64, len(peaks))}
	for i, p := range peaks {
		out.X[i] = x[p]
		out.Y[i] = y[p]
	}
	return out, nil
}

// localMaxima finds strict local maxima, resolving plateaus to their middle.
func localMaxima(y []float64) []int {
	var peaks []int
	last := len(y) - 1
	for i := 1; i < last; i++ {
		if !(y[i-1] < y[i]) {
			continue
		}
		ahead := i + 1
		for ahead < last && y[ahead] == y[i] {
			ahead++
		}
		if y[ahead] < y[i] {
			peaks = append(peaks, (i+ahead-1)/2)
			i = ahead
		}
	}
	return peaks
}

type peakProminence struct {
	value     float64
	leftBase  int
	rightBase int
}

func prominences(y []float64, peaks []int) []peakProminence {
	out := make([]peakProminence, len(peaks))
	for n, peak := range peaks {
		top := y[peak]

		leftBase, leftMin := peak, top
		for i := peak; i >= 0 && y[i] <= top; i-- {
			if y[i] < leftMin {
				leftMin = y[i]
				leftBase = i
			}
		}

		rightBase, rightMin := peak, top
		for i := peak; i < len(y) && y[i] <= top; i++ {
			if y[i] < rightMin {
				rightMin = y[i]
				rightBase = i
			}
		}

		out[n] = peakProminence{
			value:     top - max(leftMin, rightMin),
			leftBase:  leftBase,
			rightBase: rightBase,
		}
	}
	return out
}

// peakWidth returns the interpolated width in samples at top - rel*prominence.
func peakWidth(y []float64, peak int, prom peakProminence, rel float64) float64 {
	height := y[peak] - prom.value*rel

	i := peak
	for prom.leftBase < i && height < y[i] {
		i--
	}
	left := float64(i)
	if y[i] < height {
		left += (height - y[i]) / (y[i+1] - y[i])
	}

	i = peak
	for i < prom.rightBase && height < y[i] {
		i++
	}
	right := float64(i)
	if y[i] < height {
		right -= (height - y[i]) / (y[i-1] - y[i])
	}
	return right - left
}

func keepIf(peaks []int, keep func(i int) bool) []int {
	out := peaks[:0:0]
	for i, p := range peaks {
		if keep(i) {
			out = append(out, p)
		}
	}
	return out
}
