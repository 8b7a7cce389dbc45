package app

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/Cossomoj/RAG-agent-sub000/internal/model"
	"github.com/Cossomoj/RAG-agent-sub000/internal/rag"
)

// embedding API batch limits are common; mirror them here
const embeddingBatchSize = 10

type ChunkStore interface {
	ListDomains() ([]string, error)
	ListByDomain(domainTag string) ([]model.CorpusChunk, error)
	SaveEmbedding(chunk *model.CorpusChunk) error
}

type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// IndexBuilder turns the persisted corpus into an immutable index set.
// Rebuilds always produce a whole new set; the provider swaps it in atomically.
type IndexBuilder struct {
	chunks   ChunkStore
	embedder BatchEmbedder
	weights  map[string]float64
}

func NewIndexBuilder(chunks ChunkStore, embedder BatchEmbedder, weights map[string]float64) *IndexBuilder {
	return &IndexBuilder{chunks: chunks, embedder: embedder, weights: weights}
}

// Build loads every domain's chunks, embeds the ones missing vectors and
// constructs the per-domain indices plus the ensemble view. Empty domains are
// skipped; the ensemble covers whatever was built.
func (b *IndexBuilder) Build(ctx context.Context) (*rag.IndexSet, error) {
	domains, err := b.chunks.ListDomains()
	if err != nil {
		return nil, fmt.Errorf("load corpus domains failed: %w", err)
	}

	indices := make(map[string]*rag.CorpusIndex, len(domains))
	for _, domain := range domains {
		idx, err := b.buildDomain(ctx, domain)
		if errors.Is(err, rag.ErrEmptyCorpus) {
			log.Warnf("domain %s has no usable chunks, skipping index", domain)
			continue
		}
		if err != nil {
			return nil, err
		}
		indices[domain] = idx
		log.Infof("built index for domain %s with %d chunks", domain, idx.Len())
	}
	return rag.NewIndexSet(indices, b.weights), nil
}

func (b *IndexBuilder) buildDomain(ctx context.Context, domain string) (*rag.CorpusIndex, error) {
	chunks, err := b.chunks.ListByDomain(domain)
	if err != nil {
		return nil, fmt.Errorf("load chunks for domain %s failed: %w", domain, err)
	}

	b.embedMissing(ctx, domain, chunks)

	var embedded []rag.EmbeddedChunk
	for i := range chunks {
		vector := chunks[i].EmbeddingVector()
		if len(vector) == 0 {
			continue
		}
		embedded = append(embedded, rag.EmbeddedChunk{
			Chunk: rag.DocumentChunk{
				Text:      chunks[i].Content,
				SourceID:  chunks[i].SourceID,
				DomainTag: chunks[i].DomainTag,
			},
			Vector: vector,
		})
	}
	return rag.NewCorpusIndex(domain, embedded)
}

// embedMissing computes and persists embeddings for chunks ingested without
// one. Failures leave those chunks out of the index rather than failing the
// whole build.
func (b *IndexBuilder) embedMissing(ctx context.Context, domain string, chunks []model.CorpusChunk) {
	var missing []*model.CorpusChunk
	for i := range chunks {
		if len(chunks[i].EmbeddingVector()) == 0 {
			missing = append(missing, &chunks[i])
		}
	}
	if len(missing) == 0 {
		return
	}

	for start := 0; start < len(missing); start += embeddingBatchSize {
		end := start + embeddingBatchSize
		if end > len(missing) {
			end = len(missing)
		}
		batch := missing[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Content
		}
		vectors, err := b.embedder.EmbedBatch(ctx, texts)
		if err != nil || len(vectors) != len(batch) {
			log.Warnf("embed %d chunks for domain %s failed: %v", len(batch), domain, err)
			continue
		}
		for i, chunk := range batch {
			chunk.SetEmbedding(vectors[i])
			if saveErr := b.chunks.SaveEmbedding(chunk); saveErr != nil {
				log.Warnf("persist embedding for chunk %d failed: %v", chunk.ID, saveErr)
			}
		}
	}
}
