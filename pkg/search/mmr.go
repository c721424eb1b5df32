package search

import "github.com/floorgraph/floorgraph/pkg/vectormath"

// DefaultLambda balances relevance and diversity for MMR re-ranking.
const DefaultLambda = 0.5

// Diversify re-ranks results with Maximal Marginal Relevance, greedily
// picking k hits that balance relevance against similarity to what is
// already selected. Lambda 1.0 is pure relevance, 0.0 pure diversity.
// Rooms from the same floor tend to embed near each other, so plain
// top-k often returns one floor; MMR spreads the hits out.
func (e *Engine) Diversify(results []Result, k int, lambda float64) []Result {
	if lambda < 0 {
		lambda = 0
	}
	if lambda > 1 {
		lambda = 1
	}
	if k <= 0 || len(results) <= k {
		return results
	}

	vecs := e.vectorsFor(results)
	relevance := normalizeScores(results)
	sim := similarityMatrix(vecs)

	selected := make([]int, 0, k)
	remaining := make(map[int]bool, len(results))
	for i := range results {
		remaining[i] = true
	}

	for len(selected) < k && len(remaining) > 0 {
		bestIdx := -1
		bestScore := float64(-2)

		for idx := range remaining {
			score := lambda * relevance[idx]
			if len(selected) > 0 {
				maxSim := float64(0)
				for _, sel := range selected {
					if s := sim[idx][sel]; s > maxSim {
						maxSim = s
					}
				}
				score -= (1 - lambda) * maxSim
			}
			if score > bestScore {
				bestScore = score
				bestIdx = idx
			}
		}

		if bestIdx < 0 {
			break
		}
		selected = append(selected, bestIdx)
		delete(remaining, bestIdx)
	}

	out := make([]Result, len(selected))
	for i, idx := range selected {
		out[i] = results[idx]
	}
	return out
}

// vectorsFor resolves each result back to its index row. Results with
// no matching row get a nil vector and contribute zero similarity.
func (e *Engine) vectorsFor(results []Result) [][]float32 {
	byPath := make(map[string]int, len(e.idx.Meta))
	for i, m := range e.idx.Meta {
		byPath[m.Path] = i
	}

	vecs := make([][]float32, len(results))
	for i, r := range results {
		if row, ok := byPath[r.Meta.Path]; ok {
			vecs[i] = e.idx.Vectors[row]
		}
	}
	return vecs
}

// normalizeScores maps result scores to [0, 1] so they compare fairly
// against cosine similarities.
func normalizeScores(results []Result) []float64 {
	lo := float64(results[0].Score)
	hi := lo
	for _, r := range results[1:] {
		s := float64(r.Score)
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}

	out := make([]float64, len(results))
	if hi == lo {
		for i := range out {
			out[i] = 1
		}
		return out
	}
	for i, r := range results {
		out[i] = (float64(r.Score) - lo) / (hi - lo)
	}
	return out
}

func similarityMatrix(vecs [][]float32) [][]float64 {
	n := len(vecs)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		matrix[i][i] = 1
	}
	for i := 0; i < n; i++ {
		if len(vecs[i]) == 0 {
			continue
		}
		for j := i + 1; j < n; j++ {
			if len(vecs[j]) == 0 {
				continue
			}
			sim := float64(vectormath.CosineScores(vecs[i], [][]float32{vecs[j]})[0])
			matrix[i][j] = sim
			matrix[j][i] = sim
		}
	}
	return matrix
}
