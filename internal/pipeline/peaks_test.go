package pipeline_test

import (
	"testing"

	"ramanid/internal/pipeline"
)

func TestFindPeaks(t *testing.T) {
	x := []float64{10, 11, 12, 13, 14, 15, 16, 17}
	y := []float64{0, 1, 0, 2, 2, 0, 3, 0}

	cases := []struct {
		name string
		opts pipeline.PeakOptions
		want []float64
	}{
		{name: "all maxima", want: []float64{11, 13, 16}},
		{name: "height", opts: pipeline.PeakOptions{Height: pipeline.Float(1.5)}, want: []float64{13, 16}},
		{name: "prominence", opts: pipeline.PeakOptions{Prominence: pipeline.Float(2.5)}, want: []float64{16}},
		{name: "width", opts: pipeline.PeakOptions{Width: pipeline.Float(1.5)}, want: []float64{13}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := pipeline.FindPeaks(x, y, tc.opts)
			if err != nil {
				t.Fatalf("FindPeaks failed: %v", err)
			}
			if len(got.X) != len(tc.want) {
				t.Fatalf("got peaks %v, want %v", got.X, tc.want)
			}
			for i := range tc.want {
				if got.X[i] != tc.want[i] {
					t.Fatalf("got peaks %v, want %v", got.X, tc.want)
				}
			}
		})
	}
}

func TestFindPeaksIgnoresEdgesAndShortInput(t *testing.T) {
	got, err := pipeline.FindPeaks([]float64{0, 1}, []float64{5, 1}, pipeline.PeakOptions{})
	if err != nil {
		t.Fatalf("FindPeaks failed: %v", err)
	}
	if got.Len() != 0 {
		t.Fatalf("expected no peaks, got %v", got.X)
	}
}

func TestFindPeaksRejectsMismatchedInput(t *testing.T) {
	if _, err := pipeline.FindPeaks([]float64{1, 2, 3}, []float64{1, 2}, pipeline.PeakOptions{}); err == nil {
		t.Fatal("expected length mismatch error")
	}
}
