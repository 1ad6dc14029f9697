package matching

import (
	"slices"
	"sort"
	"strings"
)

// SizeReport lists the distinct mineral combinations of one size.
type SizeReport struct {
	// Count is the number of distinct name tuples.
	Count int `json:"count"`
	// Combinations holds each name tuple sorted, in lexicographic order.
	Combinations [][]string `json:"combinations"`
	// Filenames is the number of filename combinations before deduplication.
	Filenames int `json:"filename_combinations"`
}

// Report is the outcome of an identification.
type Report struct {
	Peaks     []float64          `json:"peaks"`
	Tolerance float64            `json:"tolerance"`
	Sizes     map[int]SizeReport `json:"sizes"`
}

// SizeKeys returns the combination sizes present in the report, ascending.
func (r *Report) SizeKeys() []int {
	keys := make([]int, 0, len(r.Sizes))
	for k := range r.Sizes {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Deduplicate maps each filename to its mineral name, sorts the names within
// every combination and keeps one entry per distinct name tuple. Filenames
// missing from names are reported under the filename itself.
func Deduplicate(matches Matches, names map[string]string) *Report {
	report := &Report{Sizes: make(map[int]SizeReport, len(matches))}
	for size, combos := range matches {
		seen := make(map[string]struct{}, len(combos))
		tuples := [][]string{}
		for _, combo := range combos {
			tuple := make([]string, len(combo))
			for i, filename := range combo {
				if name, ok := names[filename]; ok {
					tuple[i] = name
				} else {
					tuple[i] = filename
				}
			}
			sort.Strings(tuple)
			key := strings.Join(tuple, "\x00")
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			tuples = append(tuples, tuple)
		}
		slices.SortFunc(tuples, func(a, b []string) int { return slices.Compare(a, b) })
		report.Sizes[size] = SizeReport{Count: len(tuples), Combinations: tuples, Filenames: len(combos)}
	}
	return report
}
