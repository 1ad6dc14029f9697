package matching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat/combin"

	"ramanid/internal/logging"
	"ramanid/internal/refstore"
)

// MaxCombinationSize is the largest number of minerals a single match may combine.
const MaxCombinationSize = 3

// DefaultTimeout bounds a search when no timeout option is supplied.
const DefaultTimeout = 120 * time.Second

// cancelCheckInterval is how many combinations are tested between context checks.
const cancelCheckInterval = 4096

var (
	// ErrNoPeaks indicates a search was requested without observed peaks.
	ErrNoPeaks = errors.New("no peaks to match")
	// ErrInvalidTolerance indicates a negative or non-finite tolerance.
	ErrInvalidTolerance = errors.New("invalid tolerance")
	// ErrSearchTimeout indicates the combination search exceeded its deadline.
	ErrSearchTimeout = errors.New("combination search timed out")
)

// Store is the read-only view of the reference store a search needs.
type Store interface {
	Candidates(ctx context.Context, peaks []float64, tol float64, filter refstore.CandidateFilter) ([]refstore.Reference, error)
	Names(ctx context.Context, filenames []string) (map[string]string, error)
}

// Matches maps a combination size to the filename combinations of that size
// that explain the observed peaks. Every size up to the engine's maximum is
// present, possibly with no combinations.
type Matches map[int][][]string

// Total returns the number of combinations across all sizes.
func (m Matches) Total() int {
	total := 0
	for _, combos := range m {
		total += len(combos)
	}
	return total
}

// Filenames returns every distinct filename appearing in m.
func (m Matches) Filenames() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, combos := range m {
		for _, combo := range combos {
			for _, f := range combo {
				if _, ok := seen[f]; ok {
					continue
				}
				seen[f] = struct{}{}
				out = append(out, f)
			}
		}
	}
	return out
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxCombination limits the largest combination size searched. Values
// outside 1..MaxCombinationSize are clamped.
func WithMaxCombination(n int) Option {
	return func(e *Engine) {
		e.maxCombination = max(1, min(n, MaxCombinationSize))
	}
}

// WithTimeout sets the search deadline. Zero or negative disables it.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithWavelength restricts candidates to references measured at the given
// laser wavelength.
func WithWavelength(wavelength string) Option {
	return func(e *Engine) {
		e.filter.Wavelength = wavelength
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Engine runs combination searches against a reference store.
type Engine struct {
	store          Store
	maxCombination int
	timeout        time.Duration
	filter         refstore.CandidateFilter
	logger         *slog.Logger
}

// New constructs an Engine over store.
func New(store Store, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, errors.New("matching: store required")
	}
	engine := &Engine{
		store:          store,
		maxCombination: MaxCombinationSize,
		timeout:        DefaultTimeout,
		logger:         logging.NewNop(),
	}
	for _, opt := range opts {
		opt(engine)
	}
	engine.logger = logging.NewComponentLogger(engine.logger, "matching")
	return engine, nil
}

// FindMatches returns, for each combination size, the combinations of
// candidate reference filenames whose pooled peaks explain every observed peak
// within tol. Sizes are searched concurrently. When the deadline passes the
// search returns ErrSearchTimeout and no partial result.
func (e *Engine) FindMatches(ctx context.Context, peaks []float64, tol float64) (Matches, error) {
	if len(peaks) == 0 {
		return nil, ErrNoPeaks
	}
	if tol < 0 || math.IsNaN(tol) || math.IsInf(tol, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTolerance, tol)
	}

	searchCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		searchCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	started := time.Now()
	candidates, err := e.store.Candidates(searchCtx, peaks, tol, e.filter)
	if err != nil {
		return nil, searchError(searchCtx, fmt.Errorf("query candidates: %w", err))
	}
	e.logger.Debug("candidates loaded",
		logging.Int("candidates", len(candidates)),
		logging.Int("peaks", len(peaks)),
		logging.Float64("tolerance", tol),
	)

	coverage := buildCoverage(candidates, peaks, tol)

	matches := make(Matches, e.maxCombination)
	results := make([][][]string, e.maxCombination)
	errs := make([]error, e.maxCombination)
	var wg sync.WaitGroup
	for size := 1; size <= e.maxCombination; size++ {
		wg.Add(1)
		go func(size int) {
			defer wg.Done()
			results[size-1], errs[size-1] = searchSize(searchCtx, candidates, coverage, size)
		}(size)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, searchError(searchCtx, err)
		}
		matches[i+1] = results[i]
	}

	e.logger.Info("combination search finished",
		logging.String(logging.FieldEventType, "match_search"),
		logging.Int("candidates", len(candidates)),
		logging.Int("matches", matches.Total()),
		logging.Duration("elapsed", time.Since(started)),
	)
	return matches, nil
}

// Identify runs FindMatches and collapses the result to distinct mineral
// name tuples.
func (e *Engine) Identify(ctx context.Context, peaks []float64, tol float64) (*Report, error) {
	matches, err := e.FindMatches(ctx, peaks, tol)
	if err != nil {
		return nil, err
	}
	names, err := e.store.Names(ctx, matches.Filenames())
	if err != nil {
		return nil, fmt.Errorf("query names: %w", err)
	}
	report := Deduplicate(matches, names)
	report.Peaks = append([]float64(nil), peaks...)
	report.Tolerance = tol
	return report, nil
}

// searchSize enumerates every size-k combination of candidates in
// lexicographic index order and keeps those covering every observed peak.
func searchSize(ctx context.Context, candidates []refstore.Reference, coverage []peakMask, k int) ([][]string, error) {
	found := [][]string{}
	if k > len(candidates) {
		return found, nil
	}
	gen := combin.NewCombinationGenerator(len(candidates), k)
	idx := make([]int, k)
	union := newPeakMask(coverage)
	tested := 0
	for gen.Next() {
		tested++
		if tested%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		gen.Combination(idx)
		union.reset()
		for _, i := range idx {
			union.or(coverage[i])
		}
		if !union.full() {
			continue
		}
		combo := make([]string, k)
		for j, i := range idx {
			combo[j] = candidates[i].Filename
		}
		found = append(found, combo)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return found, nil
}

func searchError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrSearchTimeout, ctx.Err())
	}
	return err
}
