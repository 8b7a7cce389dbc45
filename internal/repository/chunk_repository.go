package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/Cossomoj/RAG-agent-sub000/internal/model"
)

type ChunkRepository struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// ListDomains returns the distinct domain tags present in the corpus table.
func (r *ChunkRepository) ListDomains() ([]string, error) {
	var domains []string
	if err := r.db.Model(&model.CorpusChunk{}).Distinct("domain_tag").Order("domain_tag ASC").Pluck("domain_tag", &domains).Error; err != nil {
		return nil, fmt.Errorf("list corpus domains failed: %w", err)
	}
	return domains, nil
}

// ListByDomain returns all chunks of one domain in insertion order.
func (r *ChunkRepository) ListByDomain(domainTag string) ([]model.CorpusChunk, error) {
	var chunks []model.CorpusChunk
	if err := r.db.Where("domain_tag = ?", domainTag).Order("id ASC").Find(&chunks).Error; err != nil {
		return nil, fmt.Errorf("list corpus chunks failed: %w", err)
	}
	return chunks, nil
}

// SaveEmbedding persists an embedding computed at index-build time.
func (r *ChunkRepository) SaveEmbedding(chunk *model.CorpusChunk) error {
	if err := r.db.Model(chunk).Update("embedding", chunk.Embedding).Error; err != nil {
		return fmt.Errorf("save chunk embedding failed: %w", err)
	}
	return nil
}
