package engine

import (
	"sort"
	"time"

	"github.com/lazypower/recall/internal/memory"
)

// recencyBoost steps down with record age: full boost under a day, fading to
// nothing past thirty days.
func recencyBoost(r *memory.Record, now time.Time) float64 {
	age := now.Sub(r.CreatedAt)
	switch {
	case age < 24*time.Hour:
		return 1.0
	case age < 7*24*time.Hour:
		return 0.5
	case age < 30*24*time.Hour:
		return 0.2
	default:
		return 0.0
	}
}

// Rerank re-scores an already-ranked candidate list with non-retrieval
// signals. The adjustment order is load-bearing: the recency boost is added
// before confidence and static multipliers apply, and the access-count boost
// lands after them. Reordering changes outcomes.
//
// The query is accepted for interface symmetry; the current rule set does not
// inspect it (extension point for lexical reranking).
func Rerank(query string, candidates []memory.Scored, topK int, now time.Time) []memory.Scored {
	_ = query

	if topK <= 0 {
		topK = 10
	}

	results := make([]memory.Scored, len(candidates))
	for i, c := range candidates {
		score := c.Score

		score += recencyBoost(c.Record, now) * 0.1
		score *= c.Record.EffectiveConfidence(now)
		if c.Record.Static {
			score *= 1.2
		}

		accessBoost := float64(c.Record.Metadata.AccessCount) * 0.05
		if accessBoost > 0.3 {
			accessBoost = 0.3
		}
		score += accessBoost

		results[i] = memory.Scored{Record: c.Record, Score: score}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results
}
