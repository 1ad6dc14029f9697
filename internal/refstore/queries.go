package refstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

const referenceColumns = "filename, names, peaks, strongest_peak, wavelength, data_x, data_y"

const summaryColumns = "filename, names, peaks, strongest_peak, wavelength, NULL, NULL"

// Get fetches one reference including its spectrum.
func (s *Store) Get(ctx context.Context, filename string) (*Reference, error) {
	filename = filenameKey(filename)
	row := s.db.QueryRowContext(ctx, `SELECT `+referenceColumns+` FROM spectra WHERE filename = ?`, filename)
	ref, err := scanReference(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, filename)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", filename, err)
	}
	return ref, nil
}

// candidateChunk bounds the OR terms per statement; SQLite caps expression
// depth at 1000.
const candidateChunk = 200

// Candidates returns references whose strongest peak lies within tol of any
// of the given peak positions. Spectra are not loaded. Results are ordered by
// filename. An empty peak list yields no candidates.
func (s *Store) Candidates(ctx context.Context, peaks []float64, tol float64, filter CandidateFilter) ([]Reference, error) {
	windows := peakWindows(peaks, tol)
	if len(windows) == 0 {
		return nil, nil
	}
	wavelength := strings.TrimSpace(filter.Wavelength)

	var refs []Reference
	seen := make(map[string]struct{})
	for start := 0; start < len(windows); start += candidateChunk {
		end := min(start+candidateChunk, len(windows))
		conditions := make([]string, 0, end-start)
		args := make([]any, 0, 2*(end-start)+1)
		for _, w := range windows[start:end] {
			conditions = append(conditions, "(strongest_peak >= ? AND strongest_peak <= ?)")
			args = append(args, w[0], w[1])
		}
		query := `SELECT ` + summaryColumns + ` FROM spectra WHERE (` + strings.Join(conditions, " OR ") + `)`
		if wavelength != "" {
			query += ` AND wavelength = ?`
			args = append(args, wavelength)
		}

		chunk, err := s.queryReferences(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("candidates: %w", err)
		}
		for _, ref := range chunk {
			if _, ok := seen[ref.Filename]; ok {
				continue
			}
			seen[ref.Filename] = struct{}{}
			refs = append(refs, ref)
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Filename < refs[j].Filename })
	return refs, nil
}

// peakWindows turns peak positions into sorted, disjoint [p-tol, p+tol]
// intervals, merging any that overlap or touch. NaN positions and a negative
// tolerance match nothing.
func peakWindows(peaks []float64, tol float64) [][2]float64 {
	if tol < 0 || math.IsNaN(tol) {
		return nil
	}
	sorted := make([]float64, 0, len(peaks))
	for _, p := range peaks {
		if !math.IsNaN(p) {
			sorted = append(sorted, p)
		}
	}
	sort.Float64s(sorted)

	var windows [][2]float64
	for _, p := range sorted {
		lo, hi := p-tol, p+tol
		if n := len(windows); n > 0 && lo <= windows[n-1][1] {
			windows[n-1][1] = max(windows[n-1][1], hi)
			continue
		}
		windows = append(windows, [2]float64{lo, hi})
	}
	return windows
}

// Names maps each requested filename to its mineral name. Unknown filenames
// are absent from the result.
func (s *Store) Names(ctx context.Context, filenames []string) (map[string]string, error) {
	out := make(map[string]string, len(filenames))
	if len(filenames) == 0 {
		return out, nil
	}
	unique := make([]string, 0, len(filenames))
	seen := make(map[string]struct{}, len(filenames))
	for _, f := range filenames {
		if _, ok := seen[f]; !ok {
			seen[f] = struct{}{}
			unique = append(unique, f)
		}
	}
	sort.Strings(unique)

	// Stay well under SQLite's bound parameter limit.
	const batch = 500
	for start := 0; start < len(unique); start += batch {
		end := min(start+batch, len(unique))
		args := make([]any, 0, end-start)
		for _, f := range unique[start:end] {
			args = append(args, f)
		}
		rows, err := s.db.QueryContext(ctx,
			`SELECT filename, names FROM spectra WHERE filename IN (`+makePlaceholders(end-start)+`)`, args...)
		if err != nil {
			return nil, fmt.Errorf("names: %w", err)
		}
		for rows.Next() {
			var filename, names string
			if err := rows.Scan(&filename, &names); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan names: %w", err)
			}
			out[filename] = names
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("names: %w", err)
		}
	}
	return out, nil
}

// SearchByName returns references whose mineral name equals name under
// Unicode case folding, optionally restricted to one wavelength. Spectra are
// included so callers can display them.
func (s *Store) SearchByName(ctx context.Context, name, wavelength string) ([]Reference, error) {
	query := `SELECT ` + referenceColumns + ` FROM spectra WHERE names_folded = ?`
	args := []any{foldName(name)}
	if w := strings.TrimSpace(wavelength); w != "" {
		query += ` AND wavelength = ?`
		args = append(args, w)
	}
	query += ` ORDER BY filename`
	refs, err := s.queryReferences(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", name, err)
	}
	return refs, nil
}

// List returns reference summaries (without spectra) ordered by filename.
func (s *Store) List(ctx context.Context) ([]Reference, error) {
	refs, err := s.queryReferences(ctx, `SELECT `+summaryColumns+` FROM spectra ORDER BY filename`)
	if err != nil {
		return nil, fmt.Errorf("list references: %w", err)
	}
	return refs, nil
}

func (s *Store) queryReferences(ctx context.Context, query string, args ...any) ([]Reference, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []Reference
	for rows.Next() {
		ref, err := scanReference(rows)
		if err != nil {
			return nil, err
		}
		refs = append(refs, *ref)
	}
	return refs, rows.Err()
}

func scanReference(scanner interface{ Scan(dest ...any) error }) (*Reference, error) {
	var (
		ref        Reference
		peaks      []byte
		wavelength sql.NullString
		dataX      []byte
		dataY      []byte
	)
	if err := scanner.Scan(&ref.Filename, &ref.Names, &peaks, &ref.StrongestPeak, &wavelength, &dataX, &dataY); err != nil {
		return nil, err
	}
	var err error
	if ref.Peaks, err = DecodeFloats(peaks); err != nil {
		return nil, fmt.Errorf("%s peaks: %w", ref.Filename, err)
	}
	if ref.DataX, err = decodeOptional(dataX); err != nil {
		return nil, fmt.Errorf("%s data_x: %w", ref.Filename, err)
	}
	if ref.DataY, err = decodeOptional(dataY); err != nil {
		return nil, fmt.Errorf("%s data_y: %w", ref.Filename, err)
	}
	ref.Wavelength = wavelength.String
	return &ref, nil
}

func makePlaceholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return strings.TrimSpace(value)
}
