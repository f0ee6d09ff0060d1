// Package engine holds the relevance computations: cosine similarity, the
// BM25 keyword scorer, hybrid score fusion, and the post-retrieval reranker.
// Everything here is a stateless pure function over a snapshot of records
// passed in per call; mutation stays with the store.
package engine

import (
	"math"
	"sort"

	"github.com/lazypower/recall/internal/memory"
)

// CosineSimilarity computes the cosine between two vectors. Mismatched
// lengths and zero vectors score 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return dot / denom
}

// vectorSearch scores every record against queryVec and returns the top n by
// similarity, ties broken by snapshot order.
func vectorSearch(queryVec []float64, records []*memory.Record, n int) []memory.Scored {
	scored := make([]memory.Scored, 0, len(records))
	for _, r := range records {
		scored = append(scored, memory.Scored{
			Record: r,
			Score:  CosineSimilarity(queryVec, r.Embedding),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > n {
		scored = scored[:n]
	}
	return scored
}
