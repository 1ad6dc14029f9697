package pipeline

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Levenberg-Marquardt tolerances, matching MINPACK's defaults as used by lmfit.
const (
	fitFTol         = 1.5e-8
	fitXTol         = 1.5e-8
	fitGTol         = 0.0
	fitInitialDamp  = 1e-3
	fitMaxDamp      = 1e16
	paramsPerGauss  = 3
	minBoundedValue = 0.0
)

// FitResult is the outcome of a multi-Gaussian fit. Peaks are keyed
// "Peak 1", "Peak 2", ... in the order the initial centers were given.
type FitResult struct {
	Labels           []string
	Peaks            map[string]PeakStats
	Converged        bool
	Evaluations      int
	ChiSquare        float64
	ReducedChiSquare float64
	RSquared         float64
}

// Clone deep-copies the result.
func (r *FitResult) Clone() *FitResult {
	if r == nil {
		return nil
	}
	out := *r
	out.Labels = append([]string(nil), r.Labels...)
	out.Peaks = make(map[string]PeakStats, len(r.Peaks))
	for k, v := range r.Peaks {
		out.Peaks[k] = v
	}
	return &out
}

// Ordered returns the peak statistics in label order.
func (r *FitResult) Ordered() []PeakStats {
	out := make([]PeakStats, 0, len(r.Labels))
	for _, label := range r.Labels {
		out = append(out, r.Peaks[label])
	}
	return out
}

// Curve evaluates the summed model at each x.
func (r *FitResult) Curve(x []float64) []float64 {
	out := make([]float64, len(x))
	for _, p := range r.Ordered() {
		for i, xv := range x {
			out[i] += p.Eval(xv)
		}
	}
	return out
}

// Components evaluates each Gaussian separately, in label order.
func (r *FitResult) Components(x []float64) [][]float64 {
	peaks := r.Ordered()
	out := make([][]float64, len(peaks))
	for n, p := range peaks {
		out[n] = make([]float64, len(x))
		for i, xv := range x {
			out[n][i] = p.Eval(xv)
		}
	}
	return out
}

// PeakLabel returns the label used for the n-th (zero-based) peak.
func PeakLabel(n int) string {
	return fmt.Sprintf("Peak %d", n+1)
}

// FitGaussians fits one area-normalized Gaussian per initial center to y.
//
// Each component is A/(sigma*sqrt(2*pi)) * exp(-(x-mu)^2/(2*sigma^2)) starting
// from A = max(y), sigma = 1, mu = center; A and sigma are bounded below by
// zero. Missing y values count as zero. When the evaluation budget runs out
// the best parameters so far are returned together with ErrNotConverged.
func FitGaussians(ctx context.Context, x, y, centers []float64, opts FitOptions) (*FitResult, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("fit: x has %d samples, y has %d", len(x), len(y))
	}
	if len(centers) == 0 {
		return nil, fmt.Errorf("%w: fit needs at least one peak", ErrInsufficientData)
	}
	if len(x) == 0 {
		return nil, fmt.Errorf("%w: fit needs samples", ErrInsufficientData)
	}
	if opts.MaxEvaluations <= 0 {
		opts.MaxEvaluations = DefaultFitOptions().MaxEvaluations
	}

	data := make([]float64, len(y))
	for i, v := range y {
		if !math.IsNaN(v) {
			data[i] = v
		}
	}

	p := newGaussianProblem(x, data, centers)
	state, err := p.solve(ctx, opts.MaxEvaluations)
	if err != nil && state == nil {
		return nil, err
	}

	result := p.result(state)
	if err != nil {
		return result, err
	}
	for _, label := range result.Labels {
		stats := result.Peaks[label]
		if !(stats.Sigma > 0) || math.IsNaN(stats.Center) || math.IsInf(stats.Area, 0) {
			return result, fmt.Errorf("%w: %s has sigma=%v center=%v area=%v", ErrFitFailed, label, stats.Sigma, stats.Center, stats.Area)
		}
	}
	return result, nil
}

// gaussianProblem holds the least-squares problem in internal (unbounded)
// coordinates. Amplitude and sigma use the lmfit/MINPACK lower-bound
// transform ext = min - 1 + sqrt(int^2 + 1).
type gaussianProblem struct {
	x, y    []float64
	centers []float64
}

type fitState struct {
	params      []float64
	residuals   []float64
	cost        float64
	evaluations int
	converged   bool
}

func newGaussianProblem(x, y, centers []float64) *gaussianProblem {
	return &gaussianProblem{x: x, y: y, centers: centers}
}

func toInternal(v float64) float64 {
	d := v - minBoundedValue + 1
	return math.Sqrt(math.Max(d*d-1, 0))
}

func toExternal(u float64) float64 {
	return minBoundedValue - 1 + math.Sqrt(u*u+1)
}

func externalSlope(u float64) float64 {
	return u / math.Sqrt(u*u+1)
}

func (p *gaussianProblem) initial() []float64 {
	amp := floats.Max(p.y)
	if amp < 0 {
		amp = 0
	}
	params := make([]float64, 0, paramsPerGauss*len(p.centers))
	for _, c := range p.centers {
		params = append(params, toInternal(amp), c, toInternal(1))
	}
	return params
}

// components decodes the internal vector into (area, center, sigma) triples.
func (p *gaussianProblem) components(params []float64) [][3]float64 {
	out := make([][3]float64, len(p.centers))
	for k := range out {
		base := k * paramsPerGauss
		out[k] = [3]float64{toExternal(params[base]), params[base+1], toExternal(params[base+2])}
	}
	return out
}

func (p *gaussianProblem) residuals(params []float64, dst []float64) float64 {
	comps := p.components(params)
	for i, xv := range p.x {
		model := 0.0
		for _, c := range comps {
			model += areaGaussian(xv, c[0], c[1], c[2])
		}
		dst[i] = model - p.y[i]
	}
	return 0.5 * floats.Dot(dst, dst)
}

func areaGaussian(x, area, center, sigma float64) float64 {
	s := math.Max(sigma, math.SmallestNonzeroFloat64)
	d := x - center
	return area / (s * sqrt2Pi) * math.Exp(-d*d/math.Max(2*s*s, math.SmallestNonzeroFloat64))
}

// jacobian fills the derivative of each residual with respect to the
// internal parameters.
func (p *gaussianProblem) jacobian(params []float64, jac *mat.Dense) {
	comps := p.components(params)
	for k, c := range comps {
		area, center, sigma := c[0], c[1], c[2]
		ampSlope := externalSlope(params[k*paramsPerGauss])
		sigSlope := externalSlope(params[k*paramsPerGauss+2])
		s := math.Max(sigma, math.SmallestNonzeroFloat64)
		for i, xv := range p.x {
			d := xv - center
			e := math.Exp(-d * d / (2 * s * s))
			g := e / (s * sqrt2Pi)
			val := area * g
			col := k * paramsPerGauss
			jac.Set(i, col, g*ampSlope)
			jac.Set(i, col+1, val*d/(s*s))
			jac.Set(i, col+2, val*(d*d/(s*s*s)-1/s)*sigSlope)
		}
	}
}

func (p *gaussianProblem) solve(ctx context.Context, maxEval int) (*fitState, error) {
	n, m := len(p.x), paramsPerGauss*len(p.centers)

	state := &fitState{params: p.initial(), residuals: make([]float64, n)}
	state.cost = p.residuals(state.params, state.residuals)
	state.evaluations = 1

	jac := mat.NewDense(n, m, nil)
	trial := make([]float64, m)
	trialRes := make([]float64, n)
	damp := fitInitialDamp

	for state.evaluations < maxEval {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p.jacobian(state.params, jac)
		r := mat.NewVecDense(n, state.residuals)

		var grad mat.VecDense
		grad.MulVec(jac.T(), r)
		if mat.Norm(&grad, math.Inf(1)) <= fitGTol {
			state.converged = true
			return state, nil
		}
		var normal mat.SymDense
		normal.SymOuterK(1, jac.T())

		improved := false
		for !improved && state.evaluations < maxEval {
			damped := mat.NewSymDense(m, nil)
			damped.CopySym(&normal)
			for i := 0; i < m; i++ {
				d := normal.At(i, i)
				if d <= 0 {
					d = 1
				}
				damped.SetSym(i, i, normal.At(i, i)+damp*d)
			}

			var chol mat.Cholesky
			var step mat.VecDense
			if ok := chol.Factorize(damped); !ok {
				damp *= 10
				if damp > fitMaxDamp {
					return state, fmt.Errorf("%w: normal equations not positive definite", ErrFitFailed)
				}
				continue
			}
			if err := chol.SolveVecTo(&step, &grad); err != nil {
				return state, fmt.Errorf("%w: %v", ErrFitFailed, err)
			}

			for i := range trial {
				trial[i] = state.params[i] - step.AtVec(i)
			}
			cost := p.residuals(trial, trialRes)
			state.evaluations++

			if cost < state.cost && !math.IsNaN(cost) {
				improved = true
				reduction := state.cost - cost
				stepNorm := floats.Norm(step.RawVector().Data, 2)
				paramNorm := floats.Norm(state.params, 2)

				copy(state.params, trial)
				copy(state.residuals, trialRes)
				state.cost = cost
				damp = math.Max(damp/10, 1e-12)

				if reduction <= fitFTol*cost || stepNorm <= fitXTol*(paramNorm+fitXTol) {
					state.converged = true
					return state, nil
				}
				continue
			}

			damp *= 10
			if damp > fitMaxDamp {
				// No direction reduces the cost any further.
				state.converged = true
				return state, nil
			}
		}
	}
	return state, fmt.Errorf("%w: %d evaluations", ErrNotConverged, state.evaluations)
}

func (p *gaussianProblem) result(state *fitState) *FitResult {
	comps := p.components(state.params)
	res := &FitResult{
		Labels:      make([]string, len(comps)),
		Peaks:       make(map[string]PeakStats, len(comps)),
		Converged:   state.converged,
		Evaluations: state.evaluations,
	}
	for k, c := range comps {
		label := PeakLabel(k)
		res.Labels[k] = label
		res.Peaks[label] = newPeakStats(c[0], c[1], c[2])
	}

	res.ChiSquare = floats.Dot(state.residuals, state.residuals)
	if dof := len(p.x) - paramsPerGauss*len(p.centers); dof > 0 {
		res.ReducedChiSquare = res.ChiSquare / float64(dof)
	}
	mean := floats.Sum(p.y) / float64(len(p.y))
	var total float64
	for _, v := range p.y {
		total += (v - mean) * (v - mean)
	}
	if total > 0 {
		res.RSquared = 1 - res.ChiSquare/total
	}
	return res
}
