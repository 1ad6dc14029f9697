package pipeline

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Smooth applies a Savitzky-Golay filter to y.
//
// Edges are handled like scipy's mode="interp": the first and last half
// windows are replaced by a polynomial fitted to the first/last full window.
// Missing samples are left in place and each contiguous run of valid samples
// is filtered on its own; runs shorter than the window are copied unchanged.
func Smooth(y []float64, opts SmoothOptions) ([]float64, error) {
	if err := validateWindow(len(y), opts); err != nil {
		return nil, err
	}
	coeffs, err := savgolCoefficients(opts.WindowLength, opts.PolyOrder)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(y))
	copy(out, y)
	for start := 0; start < len(y); {
		if math.IsNaN(y[start]) {
			start++
			continue
		}
		end := start
		for end < len(y) && !math.IsNaN(y[end]) {
			end++
		}
		if end-start >= opts.WindowLength {
			if err := savgolRun(out[start:end], y[start:end], coeffs, opts); err != nil {
				return nil, err
			}
		}
		start = end
	}
	return out, nil
}

func validateWindow(n int, opts SmoothOptions) error {
	switch {
	case opts.PolyOrder < 0:
		return fmt.Errorf("%w: polyorder must be non-negative, got %d", ErrInvalidWindow, opts.PolyOrder)
	case opts.WindowLength <= 0 || opts.WindowLength%2 == 0:
		return fmt.Errorf("%w: window length must be a positive odd integer, got %d", ErrInvalidWindow, opts.WindowLength)
	case opts.PolyOrder >= opts.WindowLength:
		return fmt.Errorf("%w: polyorder %d must be less than window length %d", ErrInvalidWindow, opts.PolyOrder, opts.WindowLength)
	case opts.WindowLength > n:
		return fmt.Errorf("%w: window length %d exceeds %d samples", ErrInvalidWindow, opts.WindowLength, n)
	}
	return nil
}

// savgolCoefficients returns the smoothing weights for the window centre:
// the first row of the pseudo-inverse of the Vandermonde matrix over
// offsets -half..half.
func savgolCoefficients(window, order int) ([]float64, error) {
	half := window / 2
	cols := order + 1
	a := mat.NewDense(window, cols, nil)
	for i := 0; i < window; i++ {
		t := float64(i - half)
		v := 1.0
		for j := 0; j < cols; j++ {
			a.Set(i, j, v)
			v *= t
		}
	}

	var normal mat.Dense
	normal.Mul(a.T(), a)
	e0 := mat.NewVecDense(cols, nil)
	e0.SetVec(0, 1)
	var row mat.VecDense
	if err := row.SolveVec(&normal, e0); err != nil {
		return nil, fmt.Errorf("%w: savgol normal equations: %v", ErrSingular, err)
	}

	var coeffs mat.VecDense
	coeffs.MulVec(a, &row)
	return coeffs.RawVector().Data, nil
}

func savgolRun(dst, src, coeffs []float64, opts SmoothOptions) error {
	window := opts.WindowLength
	half := window / 2
	n := len(src)

	for i := half; i < n-half; i++ {
		var acc float64
		for k, c := range coeffs {
			acc += c * src[i-half+k]
		}
		dst[i] = acc
	}

	if err := fitEdge(dst[:half], src[:window], 0, opts.PolyOrder); err != nil {
		return err
	}
	return fitEdge(dst[n-half:], src[n-window:], window-half, opts.PolyOrder)
}

// fitEdge fits a polynomial to window and writes its values at positions
// from, from+1, ... into dst.
func fitEdge(dst, window []float64, from, order int) error {
	cols := order + 1
	a := mat.NewDense(len(window), cols, nil)
	for i := range window {
		v := 1.0
		for j := 0; j < cols; j++ {
			a.Set(i, j, v)
			v *= float64(i)
		}
	}
	var qr mat.QR
	qr.Factorize(a)
	var poly mat.VecDense
	if err := qr.SolveVecTo(&poly, false, mat.NewVecDense(len(window), append([]float64(nil), window...))); err != nil {
		return fmt.Errorf("%w: savgol edge fit: %v", ErrSingular, err)
	}
	for i := range dst {
		t := float64(from + i)
		v, p := 0.0, 1.0
		for j := 0; j < cols; j++ {
			v += poly.AtVec(j) * p
			p *= t
		}
		dst[i] = v
	}
	return nil
}
