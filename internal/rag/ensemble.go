package rag

import (
	"context"
	"fmt"
	"sort"
)

// EnsembleRetriever queries every member domain index, multiplies each hit's
// similarity by its domain weight, merges and re-sorts. Weights are
// non-negative and need not sum to 1; a missing weight counts as 1.
type EnsembleRetriever struct {
	members []*CorpusIndex
	weights map[string]float64
}

func newEnsembleRetriever(indices map[string]*CorpusIndex, weights map[string]float64) *EnsembleRetriever {
	tags := make([]string, 0, len(indices))
	for tag := range indices {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	members := make([]*CorpusIndex, 0, len(tags))
	for _, tag := range tags {
		members = append(members, indices[tag])
	}
	return &EnsembleRetriever{members: members, weights: weights}
}

func (e *EnsembleRetriever) Name() string { return "ensemble" }

func (e *EnsembleRetriever) Search(ctx context.Context, queryEmbedding []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, nil
	}

	var merged []Hit
	for _, member := range e.members {
		hits, err := member.Search(ctx, queryEmbedding, k)
		if err != nil {
			return nil, fmt.Errorf("ensemble member %s search failed: %w", member.Name(), err)
		}
		weight := e.weightFor(member.Name())
		for _, hit := range hits {
			hit.Score *= weight
			merged = append(merged, hit)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	if k < len(merged) {
		merged = merged[:k]
	}
	return merged, nil
}

func (e *EnsembleRetriever) weightFor(domainTag string) float64 {
	weight, ok := e.weights[domainTag]
	if !ok {
		return 1
	}
	if weight < 0 {
		return 0
	}
	return weight
}
