package pipeline_test

import (
	"testing"

	"ramanid/internal/pipeline"
)

func TestSuggestCropFindsOnsetOfDrop(t *testing.T) {
	y := make([]float64, 100)
	for i := 30; i < len(y); i++ {
		y[i] = -10 * float64(i-30)
	}
	if got := pipeline.SuggestCrop(y); got != 31 {
		t.Fatalf("SuggestCrop = %d, want 31", got)
	}
}

func TestSuggestCropShortInput(t *testing.T) {
	if got := pipeline.SuggestCrop([]float64{1, 2}); got != -1 {
		t.Fatalf("SuggestCrop = %d, want -1", got)
	}
}
