package rag

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrEmptyCorpus is returned when an index is built from zero chunks. Callers
// either skip that domain or fall back to the ensemble.
var ErrEmptyCorpus = errors.New("corpus is empty")

// EmbeddedChunk pairs a chunk with its precomputed embedding.
type EmbeddedChunk struct {
	Chunk  DocumentChunk
	Vector []float32
}

// CorpusIndex is an immutable in-memory similarity index over one domain's
// chunks. Re-indexing builds a fresh index and swaps it in whole, never
// mutating an existing one.
type CorpusIndex struct {
	domainTag string
	chunks    []DocumentChunk
	vectors   [][]float32
}

func NewCorpusIndex(domainTag string, embedded []EmbeddedChunk) (*CorpusIndex, error) {
	if len(embedded) == 0 {
		return nil, ErrEmptyCorpus
	}
	idx := &CorpusIndex{
		domainTag: domainTag,
		chunks:    make([]DocumentChunk, len(embedded)),
		vectors:   make([][]float32, len(embedded)),
	}
	for i, item := range embedded {
		idx.chunks[i] = item.Chunk
		idx.vectors[i] = item.Vector
	}
	return idx, nil
}

func (idx *CorpusIndex) Name() string { return idx.domainTag }

func (idx *CorpusIndex) Len() int { return len(idx.chunks) }

// Search returns up to k chunks ordered by similarity, highest first. Ties keep
// chunk insertion order.
func (idx *CorpusIndex) Search(ctx context.Context, queryEmbedding []float32, k int) ([]Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}

	hits := make([]Hit, len(idx.chunks))
	for i := range idx.chunks {
		hits[i] = Hit{
			Chunk: idx.chunks[i],
			Score: cosineSimilarity(queryEmbedding, idx.vectors[i]),
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// IndexSet is the full collection of domain indices plus the ensemble view over
// them. It is immutable; rebuilds produce a new set.
type IndexSet struct {
	indices  map[string]*CorpusIndex
	ensemble *EnsembleRetriever
}

func NewIndexSet(indices map[string]*CorpusIndex, weights map[string]float64) *IndexSet {
	if indices == nil {
		indices = map[string]*CorpusIndex{}
	}
	return &IndexSet{
		indices:  indices,
		ensemble: newEnsembleRetriever(indices, weights),
	}
}

func (s *IndexSet) Domain(tag string) (*CorpusIndex, bool) {
	idx, ok := s.indices[tag]
	return idx, ok
}

func (s *IndexSet) Ensemble() Retriever { return s.ensemble }

func (s *IndexSet) Domains() []string {
	tags := make([]string, 0, len(s.indices))
	for tag := range s.indices {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// IndexProvider hands out the current index set and atomically swaps in a
// rebuilt one. Indices themselves are read-only, so readers need no locking
// beyond the pointer access.
type IndexProvider struct {
	mu      sync.RWMutex
	current *IndexSet
}

func NewIndexProvider(set *IndexSet) *IndexProvider {
	return &IndexProvider{current: set}
}

func (p *IndexProvider) Current() *IndexSet {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

func (p *IndexProvider) Swap(set *IndexSet) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = set
}
