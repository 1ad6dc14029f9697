package spectrum

import (
	"errors"
	"fmt"
	"math"
)

// ErrLengthMismatch reports x/y (or baseline) sequences of different lengths.
var ErrLengthMismatch = errors.New("length mismatch")

// Spectrum is a single immutable version of a measured spectrum.
type Spectrum struct {
	X []float64
	Y []float64
}

// New copies x and y into a new Spectrum.
func New(x, y []float64) (*Spectrum, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: x has %d samples, y has %d", ErrLengthMismatch, len(x), len(y))
	}
	return &Spectrum{X: cloneFloats(x), Y: cloneFloats(y)}, nil
}

// Missing returns the marker used for cropped-out samples.
func Missing() float64 { return math.NaN() }

// IsMissing reports whether v is the missing marker.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// Len returns the number of samples.
func (s *Spectrum) Len() int {
	if s == nil {
		return 0
	}
	return len(s.X)
}

// Clone deep-copies the spectrum.
func (s *Spectrum) Clone() *Spectrum {
	if s == nil {
		return nil
	}
	return &Spectrum{X: cloneFloats(s.X), Y: cloneFloats(s.Y)}
}

// Equal reports whether both spectra hold the same samples. Missing values
// compare equal to each other.
func (s *Spectrum) Equal(other *Spectrum) bool {
	if s == nil || other == nil {
		return s == nil && other == nil
	}
	return FloatsEqual(s.X, other.X) && FloatsEqual(s.Y, other.Y)
}

// Valid returns the indices of non-missing samples.
func (s *Spectrum) Valid() []int {
	idx := make([]int, 0, len(s.Y))
	for i, v := range s.Y {
		if !IsMissing(v) {
			idx = append(idx, i)
		}
	}
	return idx
}

// MissingCount returns how many samples are marked missing.
func (s *Spectrum) MissingCount() int {
	return len(s.Y) - len(s.Valid())
}

// Crop marks every sample with start <= x <= end as missing. Samples are not
// removed so the index space is preserved.
func (s *Spectrum) Crop(start, end float64) *Spectrum {
	if start > end {
		start, end = end, start
	}
	out := s.Clone()
	for i, x := range out.X {
		if x >= start && x <= end {
			out.Y[i] = Missing()
		}
	}
	return out
}

// Subtract returns a new spectrum with baseline removed from y.
func (s *Spectrum) Subtract(baseline []float64) (*Spectrum, error) {
	if len(baseline) != len(s.Y) {
		return nil, fmt.Errorf("%w: spectrum has %d samples, baseline has %d", ErrLengthMismatch, len(s.Y), len(baseline))
	}
	out := s.Clone()
	for i := range out.Y {
		out.Y[i] -= baseline[i]
	}
	return out, nil
}

// WithY returns a spectrum sharing the receiver's x axis values (copied) and
// the provided intensities.
func (s *Spectrum) WithY(y []float64) (*Spectrum, error) {
	return New(s.X, y)
}

// Range returns the minimum and maximum x values.
func (s *Spectrum) Range() (float64, float64) {
	if s.Len() == 0 {
		return 0, 0
	}
	lo, hi := s.X[0], s.X[0]
	for _, x := range s.X[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi
}

// FloatsEqual compares two slices element-wise treating NaN == NaN.
func FloatsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] == b[i] {
			continue
		}
		if math.IsNaN(a[i]) && math.IsNaN(b[i]) {
			continue
		}
		return false
	}
	return true
}

func cloneFloats(v []float64) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
