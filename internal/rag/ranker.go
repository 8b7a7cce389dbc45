package rag

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"
)

const defaultTopK = 8

// RankedCandidate is a deduplicated chunk with its aggregate vote across the
// expanded query list. Transient: consumed by the prompt assembler.
type RankedCandidate struct {
	Chunk   DocumentChunk
	Score   float64
	Queries []string
}

// MultiQueryRanker retrieves candidates for every expanded query and merges
// them into a single weighted ranking.
type MultiQueryRanker struct {
	embedder    Embedder
	concurrency int
}

func NewMultiQueryRanker(embedder Embedder, concurrency int) *MultiQueryRanker {
	if concurrency <= 0 {
		concurrency = 3
	}
	return &MultiQueryRanker{embedder: embedder, concurrency: concurrency}
}

// Rank runs retrieval for each query and accumulates a weighted vote per unique
// chunk: the query at position i contributes 1/(i+1) and the hit at rank j
// within that query's results contributes 1/(j+1), multiplied together.
// Per-query failures are logged and skipped; the accumulation itself is a
// single pass after all retrievals finish.
func (r *MultiQueryRanker) Rank(ctx context.Context, queries []string, retriever Retriever, topK int) []RankedCandidate {
	if topK <= 0 {
		topK = defaultTopK
	}
	if len(queries) == 0 {
		return nil
	}

	perQuery := make([][]Hit, len(queries))
	var wg sync.WaitGroup
	sem := make(chan struct{}, r.concurrency)
	for i, query := range queries {
		wg.Add(1)
		go func(i int, query string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			embedding, err := r.embedder.Embed(ctx, query)
			if err != nil {
				log.Warnf("embed query %q failed, skipping: %v", query, err)
				return
			}
			hits, err := retriever.Search(ctx, embedding, topK)
			if err != nil {
				log.Warnf("retrieval for query %q failed, skipping: %v", query, err)
				return
			}
			perQuery[i] = hits
		}(i, query)
	}
	wg.Wait()

	type accumulator struct {
		candidate RankedCandidate
		seen      map[string]bool
	}
	byKey := make(map[string]*accumulator)
	var order []string

	for i, hits := range perQuery {
		queryWeight := 1.0 / float64(i+1)
		for j, hit := range hits {
			contribution := queryWeight / float64(j+1)
			key := candidateKey(hit.Chunk)
			acc, ok := byKey[key]
			if !ok {
				acc = &accumulator{
					candidate: RankedCandidate{Chunk: hit.Chunk},
					seen:      make(map[string]bool),
				}
				byKey[key] = acc
				order = append(order, key)
			}
			acc.candidate.Score += contribution
			if !acc.seen[queries[i]] {
				acc.seen[queries[i]] = true
				acc.candidate.Queries = append(acc.candidate.Queries, queries[i])
			}
		}
	}

	ranked := make([]RankedCandidate, 0, len(order))
	for _, key := range order {
		ranked = append(ranked, byKey[key].candidate)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if topK < len(ranked) {
		ranked = ranked[:topK]
	}
	return ranked
}

// candidateKey identifies a chunk by its source and a hash of its first 100
// characters, so the same passage retrieved under different queries
// accumulates a single score.
func candidateKey(chunk DocumentChunk) string {
	runes := []rune(chunk.Text)
	if len(runes) > 100 {
		runes = runes[:100]
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(string(runes)))
	return fmt.Sprintf("%s:%x", chunk.SourceID, h.Sum64())
}
