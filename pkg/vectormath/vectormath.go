// Package vectormath provides the similarity primitives for the
// retrieval index: cosine scoring over a vector matrix and stable
// top-k selection. Vectors are float32 for memory efficiency;
// accumulation happens in float64.
package vectormath

import (
	"math"
	"sort"
)

// normEpsilon guards unit normalization against zero vectors.
const normEpsilon = 1e-8

// DotProduct computes the inner product of two float32 vectors.
func DotProduct(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var sum float64
	i := 0
	// Process 4 elements at a time for better CPU pipelining.
	for ; i <= n-4; i += 4 {
		sum += float64(a[i])*float64(b[i]) +
			float64(a[i+1])*float64(b[i+1]) +
			float64(a[i+2])*float64(b[i+2]) +
			float64(a[i+3])*float64(b[i+3])
	}
	for ; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Norm returns the Euclidean length of v.
func Norm(v []float32) float64 {
	return math.Sqrt(DotProduct(v, v))
}

// CosineScores returns the cosine similarity between the query and each
// row. Query and rows are normalized with an epsilon guard, so zero
// vectors score near zero instead of dividing by zero.
func CosineScores(query []float32, rows [][]float32) []float32 {
	qn := Norm(query) + normEpsilon
	scores := make([]float32, len(rows))
	for i, row := range rows {
		rn := Norm(row) + normEpsilon
		scores[i] = float32(DotProduct(query, row) / (qn * rn))
	}
	return scores
}

// TopK returns the indices of the k highest scores, descending. Exactly
// min(k, len(scores)) indices are returned with no duplicates; equal
// scores keep their original index order.
func TopK(scores []float32, k int) []int {
	if k > len(scores) {
		k = len(scores)
	}
	if k <= 0 {
		return nil
	}

	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})
	return idx[:k]
}
