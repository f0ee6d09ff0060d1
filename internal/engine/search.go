package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/lazypower/recall/internal/memory"
)

// Default score fusion weights.
const (
	DefaultVectorWeight  = 0.7
	DefaultKeywordWeight = 0.3
)

// Snapshot enumerates all memories as a point-in-time read-only list. The
// store owns persistence; the engine only ever sees a snapshot per call.
// Fused output is deterministic up to the snapshot's own iteration order.
type Snapshot interface {
	AllMemories() ([]*memory.Record, error)
}

// SearchOpts controls hybrid search behavior.
type SearchOpts struct {
	TopK          int     // max results (default 10)
	VectorWeight  float64 // weight for the vector branch
	KeywordWeight float64 // weight for the BM25 branch
	Tag           string  // restrict to records carrying this container tag
}

func (o SearchOpts) topK() int {
	if o.TopK <= 0 {
		return 10
	}
	return o.TopK
}

func (o SearchOpts) weights() (float64, float64) {
	if o.VectorWeight == 0 && o.KeywordWeight == 0 {
		return DefaultVectorWeight, DefaultKeywordWeight
	}
	return o.VectorWeight, o.KeywordWeight
}

// HybridSearch fuses vector similarity and BM25 keyword scores over a
// snapshot into one ranked list of at most TopK results. Each branch
// over-fetches 2x TopK so keyword-only matches that rank low on vectors can
// still reach the fused top-K. Pure computation, no side effects.
func HybridSearch(query string, queryVec []float64, records []*memory.Record, opts SearchOpts) []memory.Scored {
	if opts.Tag != "" {
		filtered := make([]*memory.Record, 0, len(records))
		for _, r := range records {
			if r.HasTag(opts.Tag) {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}
	if len(records) == 0 {
		return nil
	}

	topK := opts.topK()
	fetch := 2 * topK

	// Both branches are pure reads over the same snapshot.
	var vecTop, kwTop []memory.Scored
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		vecTop = vectorSearch(queryVec, records, fetch)
	}()
	go func() {
		defer wg.Done()
		kwTop = keywordSearch(query, records, fetch)
	}()
	wg.Wait()

	vw, kw := opts.weights()

	blended := make(map[string]float64, len(vecTop)+len(kwTop))
	for _, s := range vecTop {
		blended[s.Record.ID] += s.Score * vw
	}
	for _, s := range kwTop {
		blended[s.Record.ID] += s.Score * kw
	}

	// Assemble in snapshot order so equal scores keep a stable tie-break.
	results := make([]memory.Scored, 0, len(blended))
	for _, r := range records {
		score, ok := blended[r.ID]
		if !ok {
			continue
		}
		results = append(results, memory.Scored{Record: r, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

// Search embeds the query and runs HybridSearch over the store snapshot.
// Embedding failures surface to the caller; there is no fallback vector.
func Search(ctx context.Context, snap Snapshot, embedder Embedder, query string, opts SearchOpts) ([]memory.Scored, error) {
	if embedder == nil {
		return nil, fmt.Errorf("no embedder configured")
	}

	queryVec, err := embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	records, err := snap.AllMemories()
	if err != nil {
		return nil, fmt.Errorf("load memories: %w", err)
	}

	return HybridSearch(query, queryVec, records, opts), nil
}
