package repository

import (
	"math"
	"sort"

	"github.com/futig/joke-flows/internal/entity"
)

// CosineSimilarity returns 0 for vectors of different length or zero norm
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// rank scores entries (in insertion order) against query and keeps the top k
func rank(entries []entity.IndexEntry, query []float32, k int) entity.RetrievalResult {
	result := make(entity.RetrievalResult, 0, len(entries))
	for _, e := range entries {
		result = append(result, entity.ScoredDocument{
			Document: e.Document,
			Score:    CosineSimilarity(query, e.Embedding),
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Score > result[j].Score
	})

	if k < len(result) {
		result = result[:k]
	}
	return result
}
