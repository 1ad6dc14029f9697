package matching_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"reflect"
	"sort"
	"testing"
	"time"

	"ramanid/internal/matching"
	"ramanid/internal/refstore"
	"ramanid/internal/testsupport"
)

type fakeStore struct {
	refs       []refstore.Reference
	names      map[string]string
	lastTol    float64
	lastFilter refstore.CandidateFilter
	block      bool
}

func (f *fakeStore) Candidates(ctx context.Context, peaks []float64, tol float64, filter refstore.CandidateFilter) ([]refstore.Reference, error) {
	f.lastTol = tol
	f.lastFilter = filter
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	var out []refstore.Reference
	for _, ref := range f.refs {
		for _, p := range peaks {
			if ref.StrongestPeak >= p-tol && ref.StrongestPeak <= p+tol {
				out = append(out, ref)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStore) Names(_ context.Context, filenames []string) (map[string]string, error) {
	out := make(map[string]string, len(filenames))
	for _, name := range filenames {
		if n, ok := f.names[name]; ok {
			out[name] = n
		}
	}
	return out, nil
}

func newEngine(t *testing.T, store matching.Store, opts ...matching.Option) *matching.Engine {
	t.Helper()
	engine, err := matching.New(store, opts...)
	if err != nil {
		t.Fatalf("matching.New failed: %v", err)
	}
	return engine
}

func TestFindMatchesScenario(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedReferences(t, store,
		testsupport.Reference("A", "Alpha", 100, 200),
		testsupport.Reference("B", "Beta", 300),
	)

	engine := newEngine(t, store)
	matches, err := engine.FindMatches(context.Background(), []float64{100, 300}, 0)
	if err != nil {
		t.Fatalf("FindMatches failed: %v", err)
	}
	if len(matches[1]) != 0 {
		t.Fatalf("expected no single-mineral match, got %v", matches[1])
	}
	if want := [][]string{{"A", "B"}}; !reflect.DeepEqual(matches[2], want) {
		t.Fatalf("size 2 = %v, want %v", matches[2], want)
	}
	if matches[3] == nil || len(matches[3]) != 0 {
		t.Fatalf("expected empty size 3 result, got %#v", matches[3])
	}

	report, err := engine.Identify(context.Background(), []float64{100, 300}, 0)
	if err != nil {
		t.Fatalf("Identify failed: %v", err)
	}
	if got := report.Sizes[2]; got.Count != 1 || !reflect.DeepEqual(got.Combinations, [][]string{{"Alpha", "Beta"}}) {
		t.Fatalf("unexpected size 2 report: %+v", got)
	}
	if report.Sizes[1].Count != 0 {
		t.Fatalf("unexpected size 1 report: %+v", report.Sizes[1])
	}
	if keys := report.SizeKeys(); !reflect.DeepEqual(keys, []int{1, 2, 3}) {
		t.Fatalf("SizeKeys = %v", keys)
	}
}

func TestFindMatchesSupersetLaw(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	store := &fakeStore{}
	peaksByFile := map[string][]float64{}
	for i := range 14 {
		peaks := make([]float64, 1+rng.IntN(4))
		for j := range peaks {
			peaks[j] = float64(100 + rng.IntN(40))
		}
		name := fmt.Sprintf("ref-%02d", i)
		store.refs = append(store.refs, testsupport.Reference(name, name, peaks...))
		peaksByFile[name] = peaks
	}
	observed := []float64{105, 120, 131}
	const tol = 1.5

	matches, err := newEngine(t, store).FindMatches(context.Background(), observed, tol)
	if err != nil {
		t.Fatalf("FindMatches failed: %v", err)
	}

	candidates, _ := store.Candidates(context.Background(), observed, tol, refstore.CandidateFilter{})
	for size := 1; size <= 3; size++ {
		got := map[string]bool{}
		for _, combo := range matches[size] {
			if len(combo) != size {
				t.Fatalf("size %d combination has %d members", size, len(combo))
			}
			var pooled [][]float64
			for _, f := range combo {
				pooled = append(pooled, peaksByFile[f])
			}
			if !matching.Explains(pooled, observed, tol) {
				t.Fatalf("combination %v does not explain %v", combo, observed)
			}
			got[fmt.Sprint(combo)] = true
		}

		// Every explaining combination of candidates must be reported.
		for _, combo := range bruteForce(candidates, size) {
			var pooled [][]float64
			names := make([]string, len(combo))
			for i, ref := range combo {
				pooled = append(pooled, ref.Peaks)
				names[i] = ref.Filename
			}
			if matching.Explains(pooled, observed, tol) && !got[fmt.Sprint(names)] {
				t.Fatalf("size %d missing explaining combination %v", size, names)
			}
		}
	}
}

func bruteForce(refs []refstore.Reference, k int) [][]refstore.Reference {
	var out [][]refstore.Reference
	var walk func(start int, acc []refstore.Reference)
	walk = func(start int, acc []refstore.Reference) {
		if len(acc) == k {
			out = append(out, append([]refstore.Reference(nil), acc...))
			return
		}
		for i := start; i < len(refs); i++ {
			walk(i+1, append(acc, refs[i]))
		}
	}
	walk(0, nil)
	return out
}

func TestFindMatchesToleranceIsInclusive(t *testing.T) {
	store := &fakeStore{refs: []refstore.Reference{testsupport.Reference("A", "Alpha", 100)}}
	matches, err := newEngine(t, store).FindMatches(context.Background(), []float64{102}, 2)
	if err != nil {
		t.Fatalf("FindMatches failed: %v", err)
	}
	if len(matches[1]) != 1 {
		t.Fatalf("expected peak exactly at tolerance to match, got %v", matches)
	}
}

func TestFindMatchesRejectsBadInput(t *testing.T) {
	engine := newEngine(t, &fakeStore{})
	if _, err := engine.FindMatches(context.Background(), nil, 1); !errors.Is(err, matching.ErrNoPeaks) {
		t.Fatalf("expected ErrNoPeaks, got %v", err)
	}
	if _, err := engine.FindMatches(context.Background(), []float64{1}, -1); !errors.Is(err, matching.ErrInvalidTolerance) {
		t.Fatalf("expected ErrInvalidTolerance, got %v", err)
	}
	if _, err := matching.New(nil); err == nil {
		t.Fatal("expected error for nil store")
	}
}

func TestFindMatchesEmptyResultIsNotAnError(t *testing.T) {
	matches, err := newEngine(t, &fakeStore{}).FindMatches(context.Background(), []float64{500}, 2)
	if err != nil {
		t.Fatalf("FindMatches failed: %v", err)
	}
	if matches.Total() != 0 || len(matches) != 3 {
		t.Fatalf("expected three empty sizes, got %v", matches)
	}
}

func TestFindMatchesTimeout(t *testing.T) {
	store := &fakeStore{block: true}
	engine := newEngine(t, store, matching.WithTimeout(20*time.Millisecond))
	matches, err := engine.FindMatches(context.Background(), []float64{100}, 1)
	if !errors.Is(err, matching.ErrSearchTimeout) {
		t.Fatalf("expected ErrSearchTimeout, got %v", err)
	}
	if matches != nil {
		t.Fatalf("expected no partial result, got %v", matches)
	}
}

func TestOptionsReachStore(t *testing.T) {
	store := &fakeStore{refs: []refstore.Reference{
		testsupport.Reference("A", "Alpha", 100),
		testsupport.Reference("B", "Beta", 100),
	}}
	engine := newEngine(t, store, matching.WithMaxCombination(9), matching.WithWavelength("532"))
	matches, err := engine.FindMatches(context.Background(), []float64{100}, 0)
	if err != nil {
		t.Fatalf("FindMatches failed: %v", err)
	}
	if store.lastFilter.Wavelength != "532" {
		t.Fatalf("wavelength filter not forwarded: %+v", store.lastFilter)
	}
	if len(matches) != 3 || len(matches[2]) != 1 {
		t.Fatalf("unexpected matches: %v", matches)
	}

	engine = newEngine(t, store, matching.WithMaxCombination(1))
	matches, err = engine.FindMatches(context.Background(), []float64{100}, 0)
	if err != nil {
		t.Fatalf("FindMatches failed: %v", err)
	}
	if _, ok := matches[2]; ok || len(matches[1]) != 2 {
		t.Fatalf("expected only size 1, got %v", matches)
	}
}

func TestDeduplicateCollapsesSynonyms(t *testing.T) {
	matches := matching.Matches{
		1: {{"q1"}, {"q2"}, {"c1"}},
		2: {{"q1", "c1"}, {"c1", "q2"}, {"q2", "x"}},
	}
	names := map[string]string{"q1": "Quartz", "q2": "Quartz", "c1": "Calcite"}

	report := matching.Deduplicate(matches, names)
	if got := report.Sizes[1]; got.Count != 2 || got.Filenames != 3 ||
		!reflect.DeepEqual(got.Combinations, [][]string{{"Calcite"}, {"Quartz"}}) {
		t.Fatalf("unexpected size 1: %+v", got)
	}
	want := [][]string{{"Calcite", "Quartz"}, {"Quartz", "x"}}
	if got := report.Sizes[2]; got.Count != 2 || !reflect.DeepEqual(got.Combinations, want) {
		t.Fatalf("unexpected size 2: %+v", got)
	}
	for _, combo := range report.Sizes[2].Combinations {
		if !sort.StringsAreSorted(combo) {
			t.Fatalf("names not sorted within %v", combo)
		}
	}
}
