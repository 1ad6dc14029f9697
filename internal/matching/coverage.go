package matching

import (
	"math/bits"
	"sort"

	"ramanid/internal/refstore"
)

// peakMask is a bitset over the observed peaks; bit j is set when observed
// peak j lies within tolerance of some reference peak.
type peakMask struct {
	words []uint64
	n     int
}

func newPeakMask(like []peakMask) peakMask {
	n := 0
	if len(like) > 0 {
		n = like[0].n
	}
	return peakMask{words: make([]uint64, (n+63)/64), n: n}
}

func (m peakMask) set(j int) {
	m.words[j/64] |= 1 << (uint(j) % 64)
}

func (m peakMask) or(other peakMask) {
	for i := range m.words {
		m.words[i] |= other.words[i]
	}
}

func (m peakMask) reset() {
	clear(m.words)
}

func (m peakMask) count() int {
	total := 0
	for _, w := range m.words {
		total += bits.OnesCount64(w)
	}
	return total
}

func (m peakMask) full() bool {
	return m.count() == m.n
}

// buildCoverage records, per candidate, which observed peaks it explains.
// A combination explains the observation exactly when the union of its
// members' masks is full.
func buildCoverage(candidates []refstore.Reference, peaks []float64, tol float64) []peakMask {
	masks := make([]peakMask, len(candidates))
	for i, ref := range candidates {
		sorted := append([]float64(nil), ref.Peaks...)
		sort.Float64s(sorted)
		mask := peakMask{words: make([]uint64, (len(peaks)+63)/64), n: len(peaks)}
		for j, p := range peaks {
			if withinTolerance(sorted, p, tol) {
				mask.set(j)
			}
		}
		masks[i] = mask
	}
	return masks
}

// withinTolerance reports whether some value of the ascending slice sorted
// lies within tol of target.
func withinTolerance(sorted []float64, target, tol float64) bool {
	i := sort.SearchFloat64s(sorted, target-tol)
	return i < len(sorted) && sorted[i] <= target+tol
}

// Explains reports whether every observed peak lies within tol of at least one
// peak in the pooled reference peak lists.
func Explains(refPeaks [][]float64, observed []float64, tol float64) bool {
	var pooled []float64
	for _, peaks := range refPeaks {
		pooled = append(pooled, peaks...)
	}
	sort.Float64s(pooled)
	for _, p := range observed {
		if !withinTolerance(pooled, p, tol) {
			return false
		}
	}
	return true
}
