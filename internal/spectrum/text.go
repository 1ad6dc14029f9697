package spectrum

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// WriteText writes one "x y" line per sample.
func (s *Spectrum) WriteText(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for i := range s.X {
		if _, err := fmt.Fprintf(bw, "%s %s\n", formatFloat(s.X[i]), formatFloat(s.Y[i])); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// SaveText writes the spectrum to path, creating parent directories.
func (s *Spectrum) SaveText(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := s.WriteText(file); err != nil {
		_ = file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}

func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	// Shortest round-trip digits; fixed notation for exponents in [-4, 16)
	// with a trailing ".0" on integral values, scientific otherwise.
	sci := strconv.FormatFloat(v, 'e', -1, 64)
	exp, err := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if err != nil || exp < -4 || exp >= 16 {
		return sci
	}
	fixed := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsRune(fixed, '.') {
		fixed += ".0"
	}
	return fixed
}
