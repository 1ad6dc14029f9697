package pipeline

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// alsBandwidth is the half-bandwidth of lam*D*D^T for a second difference D.
const alsBandwidth = 2

// BaselineALS estimates a slowly varying baseline under y.
//
// Missing samples are dropped before solving and come back as NaN in the
// output. Each of the opts.Iterations rounds solves (W + lam*D*D^T) z = W y
// and reweights with w = p where y > z, 1-p where y < z, and 0 where they are
// equal. There is no early stopping, so identical inputs give bit-identical
// output. A baseline that passes through every sample zeroes all weights,
// which leaves the next system singular and fails with ErrSingular.
func BaselineALS(ctx context.Context, y []float64, opts ALSOptions) ([]float64, error) {
	if opts.Iterations <= 0 {
		return nil, fmt.Errorf("als: iterations must be positive, got %d", opts.Iterations)
	}
	if opts.P <= 0 || opts.P >= 1 {
		return nil, fmt.Errorf("als: asymmetry p must be in (0,1), got %v", opts.P)
	}
	if opts.Lambda <= 0 {
		return nil, fmt.Errorf("als: lambda must be positive, got %v", opts.Lambda)
	}

	valid := make([]int, 0, len(y))
	for i, v := range y {
		if !math.IsNaN(v) {
			valid = append(valid, i)
		}
	}
	n := len(valid)
	if n < 3 {
		return nil, fmt.Errorf("%w: als needs at least 3 valid samples, got %d", ErrInsufficientData, n)
	}
	yv := make([]float64, n)
	for i, idx := range valid {
		yv[i] = y[idx]
	}

	penalty := secondDifferencePenalty(n, opts.Lambda)
	band := make([]float64, len(penalty))
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	rhs := mat.NewVecDense(n, nil)
	z := mat.NewVecDense(n, nil)
	var chol mat.BandCholesky

	for iter := 0; iter < opts.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		copy(band, penalty)
		for i, wi := range w {
			band[i*(alsBandwidth+1)] += wi
			rhs.SetVec(i, wi*yv[i])
		}
		if !anyPositive(w) {
			return nil, fmt.Errorf("%w: als iteration %d: every weight is zero", ErrSingular, iter)
		}
		if ok := chol.Factorize(mat.NewSymBandDense(n, alsBandwidth, band)); !ok {
			return nil, fmt.Errorf("%w: als iteration %d: matrix not positive definite", ErrSingular, iter)
		}
		if err := chol.SolveVecTo(z, rhs); err != nil {
			return nil, fmt.Errorf("%w: als iteration %d: %v", ErrSingular, iter, err)
		}
		for i := range w {
			zi := z.AtVec(i)
			switch {
			case yv[i] > zi:
				w[i] = opts.P
			case yv[i] < zi:
				w[i] = 1 - opts.P
			default:
				w[i] = 0
			}
		}
	}

	out := make([]float64, len(y))
	for i := range out {
		out[i] = math.NaN()
	}
	for i, idx := range valid {
		out[idx] = z.AtVec(i)
	}
	return out, nil
}

// anyPositive reports whether some weight anchors the solve. With all weights
// zero only the penalty remains, and it has a two-dimensional null space.
func anyPositive(w []float64) bool {
	for _, v := range w {
		if v > 0 {
			return true
		}
	}
	return false
}

// secondDifferencePenalty returns lam*D*D^T in upper band storage, where D is
// the n x (n-2) matrix with columns (1, -2, 1) starting on the diagonal.
func secondDifferencePenalty(n int, lam float64) []float64 {
	coeffs := [3]float64{1, -2, 1}
	stride := alsBandwidth + 1
	band := make([]float64, n*stride)
	for j := 0; j < n-2; j++ {
		for a := 0; a < 3; a++ {
			for b := a; b < 3; b++ {
				band[(j+a)*stride+(b-a)] += lam * coeffs[a] * coeffs[b]
			}
		}
	}
	return band
}
