package rag

import (
	"context"
	"math"
)

// DocumentChunk is one indexed passage with its provenance.
type DocumentChunk struct {
	Text      string `json:"text"`
	SourceID  string `json:"source_id"`
	DomainTag string `json:"domain_tag"`
}

// Hit is a retrieved chunk with its similarity score.
type Hit struct {
	Chunk DocumentChunk
	Score float64
}

// Retriever searches indexed content by query embedding.
type Retriever interface {
	Search(ctx context.Context, queryEmbedding []float32, k int) ([]Hit, error)
	Name() string
}

// Embedder turns a text query into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
