package engine

import (
	"math"
	"sort"
	"strings"

	"github.com/lazypower/recall/internal/memory"
)

// BM25 constants. The average document length is assumed rather than computed
// from the corpus, and the per-term weight uses document-local term frequency
// in place of a true corpus IDF. Changing either changes every stored ranking.
const (
	bm25K1    = 1.5
	bm25B     = 0.75
	bm25AvgDL = 50.0
)

// Tokenize lowercases text, splits on non-alphanumeric boundaries, and drops
// tokens of length <= 2.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})

	tokens := fields[:0]
	for _, f := range fields {
		if len(f) > 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// bm25Score scores a document against query tokens. Empty token lists score 0.
func bm25Score(queryTokens, docTokens []string) float64 {
	if len(queryTokens) == 0 || len(docTokens) == 0 {
		return 0
	}

	tf := make(map[string]int, len(docTokens))
	for _, t := range docTokens {
		tf[t]++
	}
	dl := float64(len(docTokens))

	var score float64
	seen := make(map[string]bool, len(queryTokens))
	for _, term := range queryTokens {
		if seen[term] {
			continue
		}
		seen[term] = true

		freq := float64(tf[term])
		if freq == 0 {
			continue
		}

		idf := math.Log(2.0 / (freq + 1.0))
		score += idf * (freq * (bm25K1 + 1)) / (freq + bm25K1*(1-bm25B+bm25B*dl/bm25AvgDL))
	}
	return score
}

// keywordSearch scores every record's content against the query and returns
// the top n by BM25 score, ties broken by snapshot order.
func keywordSearch(query string, records []*memory.Record, n int) []memory.Scored {
	queryTokens := Tokenize(query)

	scored := make([]memory.Scored, 0, len(records))
	for _, r := range records {
		scored = append(scored, memory.Scored{
			Record: r,
			Score:  bm25Score(queryTokens, Tokenize(r.Content)),
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
