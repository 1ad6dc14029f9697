package pipeline_test

import (
	"math"
	"testing"

	"ramanid/internal/pipeline"
)

func TestDiscretizeAndInterpolate(t *testing.T) {
	x := make([]float64, 11)
	base := make([]float64, 11)
	for i := range x {
		x[i] = float64(i)
		base[i] = 2 * x[i]
	}
	cp, err := pipeline.Discretize(x, base, 2.5)
	if err != nil {
		t.Fatalf("Discretize failed: %v", err)
	}
	wantX := []float64{0, 2.5, 5, 7.5}
	if cp.Len() != len(wantX) {
		t.Fatalf("got %d points, want %d", cp.Len(), len(wantX))
	}
	for i, w := range wantX {
		if cp.X[i] != w || math.Abs(cp.Y[i]-2*w) > 1e-12 {
			t.Fatalf("point %d = (%v,%v)", i, cp.X[i], cp.Y[i])
		}
	}

	got := cp.Interpolate([]float64{-1, 1.25, 9})
	want := []float64{0, 2.5, 15}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("Interpolate[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestControlPointsMove(t *testing.T) {
	cp := &pipeline.ControlPoints{X: []float64{0, 1, 2}, Y: []float64{0, 0, 0}}
	moved, err := cp.Move(1, 1, 4)
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if cp.Y[1] != 0 {
		t.Fatal("Move mutated the receiver")
	}
	if got := moved.Interpolate([]float64{0.5}); got[0] != 2 {
		t.Fatalf("Interpolate after move = %v, want 2", got[0])
	}
	if idx := moved.Nearest(0.9, 3.8); idx != 1 {
		t.Fatalf("Nearest = %d, want 1", idx)
	}
	if _, err := cp.Move(5, 0, 0); err == nil {
		t.Fatal("expected out of range error")
	}
}

func TestDiscretizeRejectsBadStep(t *testing.T) {
	if _, err := pipeline.Discretize([]float64{0, 1}, []float64{0, 1}, 0); err == nil {
		t.Fatal("expected error for zero step")
	}
}
