package pipeline_test

import (
	"errors"
	"math"
	"testing"

	"ramanid/internal/pipeline"
)

func TestSmoothPreservesCubic(t *testing.T) {
	y := make([]float64, 40)
	for i := range y {
		x := float64(i) / 10
		y[i] = 2 - x + 0.5*x*x - 0.1*x*x*x
	}
	got, err := pipeline.Smooth(y, pipeline.DefaultSmoothOptions())
	if err != nil {
		t.Fatalf("Smooth failed: %v", err)
	}
	for i := range y {
		if math.Abs(got[i]-y[i]) > 1e-7 {
			t.Fatalf("index %d: got %v want %v", i, got[i], y[i])
		}
	}
}

func TestSmoothReducesNoise(t *testing.T) {
	y := make([]float64, 101)
	for i := range y {
		if i%2 == 0 {
			y[i] = 1
		} else {
			y[i] = -1
		}
	}
	got, err := pipeline.Smooth(y, pipeline.SmoothOptions{WindowLength: 7, PolyOrder: 2})
	if err != nil {
		t.Fatalf("Smooth failed: %v", err)
	}
	if math.Abs(got[50]) >= 1 {
		t.Fatalf("expected alternating signal to be damped, got %v", got[50])
	}
}

func TestSmoothLeavesMissingRunsAlone(t *testing.T) {
	y := make([]float64, 30)
	for i := range y {
		y[i] = float64(i)
	}
	y[3] = math.NaN()
	got, err := pipeline.Smooth(y, pipeline.SmoothOptions{WindowLength: 5, PolyOrder: 1})
	if err != nil {
		t.Fatalf("Smooth failed: %v", err)
	}
	if !math.IsNaN(got[3]) {
		t.Fatalf("missing sample was filled: %v", got[3])
	}
	for i := 0; i < 3; i++ {
		if got[i] != y[i] {
			t.Fatalf("short run changed at %d: %v", i, got[i])
		}
	}
	if math.Abs(got[20]-20) > 1e-9 {
		t.Fatalf("linear run not preserved: %v", got[20])
	}
}

func TestSmoothRejectsInvalidWindows(t *testing.T) {
	y := make([]float64, 10)
	cases := []pipeline.SmoothOptions{
		{WindowLength: 4, PolyOrder: 2},
		{WindowLength: 5, PolyOrder: 5},
		{WindowLength: 11, PolyOrder: 3},
		{WindowLength: 5, PolyOrder: -1},
	}
	for _, opts := range cases {
		if _, err := pipeline.Smooth(y, opts); !errors.Is(err, pipeline.ErrInvalidWindow) {
			t.Fatalf("%+v: expected ErrInvalidWindow, got %v", opts, err)
		}
	}
}
