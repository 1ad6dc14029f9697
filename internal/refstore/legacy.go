package refstore

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ImportReport summarizes a legacy import.
type ImportReport struct {
	Imported int `json:"imported"`
	// Skipped maps rejected legacy filenames to the reason.
	Skipped map[string]string `json:"skipped"`
}

// ImportLegacy copies every row of a legacy database, whose Spectra table
// stores peak lists and spectra as bracketed numeric literals, into the store.
// Rows whose literals do not parse as plain numbers are skipped and reported.
// The legacy file is opened read-only.
func (s *Store) ImportLegacy(ctx context.Context, path string) (ImportReport, error) {
	report := ImportReport{Skipped: map[string]string{}}

	dsn := "file:" + (&url.URL{Path: path}).EscapedPath() + "?mode=ro"
	legacy, err := sql.Open("sqlite", dsn)
	if err != nil {
		return report, fmt.Errorf("open legacy db: %w", err)
	}
	defer legacy.Close()

	rows, err := legacy.QueryContext(ctx,
		`SELECT filename, names, peaks, strongest_peak, wavelength, data_x, data_y FROM Spectra`)
	if err != nil {
		return report, fmt.Errorf("read legacy spectra: %w", err)
	}
	defer rows.Close()

	var refs []Reference
	for rows.Next() {
		var (
			filename, names    string
			peaks              sql.NullString
			strongest          sql.NullFloat64
			wavelength         sql.NullString
			rawDataX, rawDataY sql.NullString
		)
		if err := rows.Scan(&filename, &names, &peaks, &strongest, &wavelength, &rawDataX, &rawDataY); err != nil {
			return report, fmt.Errorf("scan legacy row: %w", err)
		}
		ref, err := legacyReference(filename, names, peaks, strongest, wavelength, rawDataX, rawDataY)
		if err != nil {
			report.Skipped[filename] = err.Error()
			continue
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return report, fmt.Errorf("read legacy spectra: %w", err)
	}

	n, err := s.UpsertMany(ctx, refs)
	if err != nil {
		return report, err
	}
	report.Imported = n
	return report, nil
}

func legacyReference(filename, names string, peaks sql.NullString, strongest sql.NullFloat64, wavelength, dataX, dataY sql.NullString) (Reference, error) {
	ref := Reference{Filename: filename, Names: names, Wavelength: wavelength.String}
	if !strongest.Valid {
		return ref, fmt.Errorf("%w: missing strongest_peak", ErrInvalidReference)
	}
	ref.StrongestPeak = strongest.Float64

	var err error
	if ref.Peaks, err = ParseLegacyArray(peaks.String); err != nil {
		return ref, fmt.Errorf("peaks: %w", err)
	}
	if dataX.Valid && dataY.Valid {
		if ref.DataX, err = ParseLegacyArray(dataX.String); err != nil {
			return ref, fmt.Errorf("data_x: %w", err)
		}
		if ref.DataY, err = ParseLegacyArray(dataY.String); err != nil {
			return ref, fmt.Errorf("data_y: %w", err)
		}
	}
	return ref, validateReference(ref)
}

// ParseLegacyArray parses a list literal such as "[1.5, 2, 3e2]" or
// "(1.5, 2)". Only decimal numbers are accepted.
func ParseLegacyArray(text string) ([]float64, error) {
	body := strings.TrimSpace(text)
	if len(body) >= 2 {
		first, last := body[0], body[len(body)-1]
		if (first == '[' && last == ']') || (first == '(' && last == ')') {
			body = body[1 : len(body)-1]
		}
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return []float64{}, nil
	}

	parts := strings.Split(body, ",")
	// A single trailing comma is valid in a tuple literal.
	if strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}
	out := make([]float64, 0, len(parts))
	for i, part := range parts {
		token := strings.TrimSpace(part)
		if !isPlainNumber(token) {
			return nil, fmt.Errorf("%w: element %d %q is not a number", ErrCorruptEncoding, i, token)
		}
		v, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: element %d: %v", ErrCorruptEncoding, i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// isPlainNumber rejects tokens strconv would accept but a numeric literal
// should not contain, such as "inf", "nan", hex floats and underscores.
func isPlainNumber(token string) bool {
	if token == "" {
		return false
	}
	for _, r := range token {
		switch {
		case r >= '0' && r <= '9':
		case r == '.' || r == '-' || r == '+' || r == 'e' || r == 'E':
		default:
			return false
		}
	}
	return true
}
