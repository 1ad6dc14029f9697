package spectrum

import (
	"fmt"
	"sort"
)

// PeakSet holds parallel peak positions and intensities. Order carries no
// meaning; use Sorted when presenting or matching.
type PeakSet struct {
	X []float64
	Y []float64
}

// Len returns the number of peaks.
func (p PeakSet) Len() int { return len(p.X) }

// Clone deep-copies the peak set.
func (p PeakSet) Clone() PeakSet {
	return PeakSet{X: cloneFloats(p.X), Y: cloneFloats(p.Y)}
}

// Add returns a copy with (x, y) appended.
func (p PeakSet) Add(x, y float64) PeakSet {
	out := p.Clone()
	out.X = append(out.X, x)
	out.Y = append(out.Y, y)
	return out
}

// Remove returns a copy without the peak at idx.
func (p PeakSet) Remove(idx int) (PeakSet, error) {
	if idx < 0 || idx >= p.Len() {
		return PeakSet{}, fmt.Errorf("peak index %d out of range [0,%d)", idx, p.Len())
	}
	out := PeakSet{
		X: make([]float64, 0, p.Len()-1),
		Y: make([]float64, 0, p.Len()-1),
	}
	out.X = append(append(out.X, p.X[:idx]...), p.X[idx+1:]...)
	out.Y = append(append(out.Y, p.Y[:idx]...), p.Y[idx+1:]...)
	return out, nil
}

// Sorted returns a copy ordered by ascending position.
func (p PeakSet) Sorted() PeakSet {
	idx := make([]int, p.Len())
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return p.X[idx[a]] < p.X[idx[b]] })
	out := PeakSet{X: make([]float64, len(idx)), Y: make([]float64, len(idx))}
	for i, j := range idx {
		out.X[i] = p.X[j]
		out.Y[i] = p.Y[j]
	}
	return out
}

// Positions returns the sorted peak positions.
func (p PeakSet) Positions() []float64 {
	return p.Sorted().X
}

// Equal compares two peak sets index by index.
func (p PeakSet) Equal(other PeakSet) bool {
	return FloatsEqual(p.X, other.X) && FloatsEqual(p.Y, other.Y)
}
