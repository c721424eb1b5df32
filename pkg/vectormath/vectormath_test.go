package vectormath

import (
	"math"
	"testing"
)

func TestDotProduct(t *testing.T) {
	a := []float32{1, 2, 3, 4, 5}
	b := []float32{2, 0, 1, 0, 3}
	if got := DotProduct(a, b); math.Abs(got-20) > 1e-9 {
		t.Errorf("DotProduct = %f, want 20", got)
	}
}

func TestCosineScores(t *testing.T) {
	query := []float32{1, 0}
	rows := [][]float32{
		{1, 0},   // identical
		{0, 1},   // orthogonal
		{-1, 0},  // opposite
		{10, 0},  // same direction, different magnitude
		{0, 0},   // zero vector
	}
	scores := CosineScores(query, rows)

	if math.Abs(float64(scores[0])-1) > 1e-4 {
		t.Errorf("identical vectors: score %f, want ~1", scores[0])
	}
	if math.Abs(float64(scores[1])) > 1e-4 {
		t.Errorf("orthogonal vectors: score %f, want ~0", scores[1])
	}
	if math.Abs(float64(scores[2])+1) > 1e-4 {
		t.Errorf("opposite vectors: score %f, want ~-1", scores[2])
	}
	if math.Abs(float64(scores[3])-1) > 1e-4 {
		t.Errorf("magnitude must not affect score: got %f", scores[3])
	}
	if math.Abs(float64(scores[4])) > 1e-4 {
		t.Errorf("zero vector must score ~0, got %f", scores[4])
	}
}

func TestTopK(t *testing.T) {
	scores := []float32{0.1, 0.9, 0.5, 0.7, 0.3}

	got := TopK(scores, 3)
	want := []int{1, 3, 2}
	if len(got) != 3 {
		t.Fatalf("expected 3 indices, got %d", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected index %d, got %d", i, want[i], got[i])
		}
	}
}

func TestTopK_CappedToAvailable(t *testing.T) {
	scores := []float32{0.2, 0.1}
	got := TopK(scores, 10)
	if len(got) != 2 {
		t.Errorf("expected min(k, n)=2 indices, got %d", len(got))
	}
	seen := map[int]bool{}
	for _, i := range got {
		if seen[i] {
			t.Errorf("duplicate index %d", i)
		}
		seen[i] = true
	}
}

func TestTopK_StableTies(t *testing.T) {
	scores := []float32{0.5, 0.5, 0.5}
	got := TopK(scores, 3)
	for i, idx := range []int{0, 1, 2} {
		if got[i] != idx {
			t.Errorf("ties must keep original order: got %v", got)
			break
		}
	}
}

func TestTopK_Empty(t *testing.T) {
	if got := TopK(nil, 5); len(got) != 0 {
		t.Errorf("expected no indices for empty scores, got %v", got)
	}
	if got := TopK([]float32{0.5}, 0); len(got) != 0 {
		t.Errorf("expected no indices for k=0, got %v", got)
	}
}
