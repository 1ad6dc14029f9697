package pipeline

import (
	"fmt"
	"math"
	"sort"
)

// ControlPoints is a coarse, editable representation of a baseline.
// X is strictly increasing.
type ControlPoints struct {
	X []float64
	Y []float64
}

// Discretize samples baseline at x0, x0+step, ... below the largest valid x.
// Missing samples are ignored.
func Discretize(x, baseline []float64, step float64) (*ControlPoints, error) {
	if len(x) != len(baseline) {
		return nil, fmt.Errorf("discretize: x has %d samples, baseline has %d", len(x), len(baseline))
	}
	if !(step > 0) || math.IsInf(step, 0) {
		return nil, fmt.Errorf("discretize: step must be positive, got %v", step)
	}
	src := sortedValid(x, baseline)
	if len(src.X) < 2 {
		return nil, fmt.Errorf("%w: discretize needs two valid samples", ErrInsufficientData)
	}

	lo, hi := src.X[0], src.X[len(src.X)-1]
	count := int(math.Ceil((hi - lo) / step))
	if count < 1 {
		count = 1
	}
	cp := &ControlPoints{X: make([]float64, count), Y: make([]float64, count)}
	for i := 0; i < count; i++ {
		xv := lo + float64(i)*step
		cp.X[i] = xv
		cp.Y[i] = src.at(xv)
	}
	return cp, nil
}

// Len reports the number of control points.
func (c *ControlPoints) Len() int {
	if c == nil {
		return 0
	}
	return len(c.X)
}

// Clone returns a deep copy.
func (c *ControlPoints) Clone() *ControlPoints {
	if c == nil {
		return nil
	}
	return &ControlPoints{X: append([]float64(nil), c.X...), Y: append([]float64(nil), c.Y...)}
}

// Nearest returns the index of the point closest to (x, y), or -1 if empty.
func (c *ControlPoints) Nearest(x, y float64) int {
	best, idx := math.Inf(1), -1
	for i := range c.X {
		dx, dy := c.X[i]-x, c.Y[i]-y
		if d := dx*dx + dy*dy; d < best {
			best, idx = d, i
		}
	}
	return idx
}

// Move returns a copy with point idx relocated to (x, y). Points are kept
// ordered by x.
func (c *ControlPoints) Move(idx int, x, y float64) (*ControlPoints, error) {
	if idx < 0 || idx >= c.Len() {
		return nil, fmt.Errorf("control point %d out of range [0,%d)", idx, c.Len())
	}
	if math.IsNaN(x) || math.IsNaN(y) {
		return nil, fmt.Errorf("control point %d: coordinates must be numbers", idx)
	}
	out := c.Clone()
	out.X[idx], out.Y[idx] = x, y
	sort.Sort(byX(*out))
	return out, nil
}

// Interpolate evaluates the piecewise-linear curve through the points at
// each x, holding the end values constant outside the covered range.
func (c *ControlPoints) Interpolate(x []float64) []float64 {
	out := make([]float64, len(x))
	if c.Len() == 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	for i, xv := range x {
		out[i] = c.at(xv)
	}
	return out
}

func (c *ControlPoints) at(xv float64) float64 {
	n := len(c.X)
	if math.IsNaN(xv) {
		return math.NaN()
	}
	if xv <= c.X[0] {
		return c.Y[0]
	}
	if xv >= c.X[n-1] {
		return c.Y[n-1]
	}
	j := sort.SearchFloat64s(c.X, xv)
	if c.X[j] == xv {
		return c.Y[j]
	}
	x0, x1 := c.X[j-1], c.X[j]
	t := (xv - x0) / (x1 - x0)
	return c.Y[j-1] + t*(c.Y[j]-c.Y[j-1])
}

func sortedValid(x, y []float64) *ControlPoints {
	cp := &ControlPoints{}
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		cp.X = append(cp.X, x[i])
		cp.Y = append(cp.Y, y[i])
	}
	sort.Stable(byX(*cp))
	return cp
}

type byX ControlPoints

func (b byX) Len() int           { return len(b.X) }
func (b byX) Less(i, j int) bool { return b.X[i] < b.X[j] }
func (b byX) Swap(i, j int) {
	b.X[i], b.X[j] = b.X[j], b.X[i]
	b.Y[i], b.Y[j] = b.Y[j], b.Y[i]
}
