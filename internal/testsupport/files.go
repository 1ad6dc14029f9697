package testsupport

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Peak describes one Gaussian line of a synthetic spectrum.
type Peak struct {
	Center float64
	Height float64
	Sigma  float64
}

// SyntheticSpectrum samples a sloped background plus the given peaks at
// x = start, start+step, ... for n points.
func SyntheticSpectrum(start, step float64, n int, peaks ...Peak) ([]float64, []float64) {
	x := make([]float64, n)
	y := make([]float64, n)
	for i := range x {
		x[i] = start + float64(i)*step
		y[i] = 0.1 + 0.0001*float64(i)
		for _, p := range peaks {
			d := x[i] - p.Center
			y[i] += p.Height * math.Exp(-d*d/(2*p.Sigma*p.Sigma))
		}
	}
	return x, y
}

// WriteSpectrum writes x/y as a whitespace-separated two-column text file
// and returns its path.
func WriteSpectrum(t testing.TB, dir, name string, x, y []float64) string {
	t.Helper()

	var b strings.Builder
	for i := range x {
		fmt.Fprintf(&b, "%g %g\n", x[i], y[i])
	}
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
