package ingest

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"ramanid/internal/spectrum"
)

// ErrFormat marks unreadable or malformed spectrum files.
var ErrFormat = errors.New("spectrum format error")

// ErrUnsupported is returned for file extensions no reader handles.
var ErrUnsupported = errors.New("unsupported spectrum file")

// Format identifies the reader used for a file.
type Format string

const (
	FormatText Format = "txt"
	FormatCSV  Format = "csv"
	FormatSPC  Format = "spc"
)

// DetectFormat maps a path to its reader by extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return FormatText, nil
	case ".csv":
		return FormatCSV, nil
	case ".spc":
		return FormatSPC, nil
	default:
		return "", fmt.Errorf("%w: %s (expected .txt, .csv, or .spc)", ErrUnsupported, path)
	}
}

// ReadFile loads and normalizes the spectrum stored at path.
func ReadFile(path string) (*spectrum.Spectrum, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var x, y []float64
	switch format {
	case FormatText:
		x, y, err = parseText(data)
	case FormatCSV:
		x, y, err = parseCSV(data)
	case FormatSPC:
		x, y, err = parseSPC(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := normalize(y); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return spectrum.New(x, y)
}

func normalize(y []float64) error {
	if len(y) == 0 {
		return fmt.Errorf("%w: no samples", ErrFormat)
	}
	peak := math.Inf(-1)
	for _, v := range y {
		if !math.IsNaN(v) && v > peak {
			peak = v
		}
	}
	if peak == 0 || math.IsInf(peak, 0) {
		return fmt.Errorf("%w: cannot normalize by maximum intensity %v", ErrFormat, peak)
	}
	for i := range y {
		y[i] /= peak
	}
	return nil
}

func reverse(values []float64) {
	for i, j := 0, len(values)-1; i < j; i, j = i+1, j-1 {
		values[i], values[j] = values[j], values[i]
	}
}
