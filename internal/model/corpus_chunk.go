package model

import (
	"encoding/json"
	"time"
)

// CorpusChunk stores one text chunk of a domain corpus and its embedding.
// Embedding is stored as a JSON array of float32 for portability; chunks are
// produced by the external ingestion step and are immutable once indexed.
type CorpusChunk struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	DomainTag string    `gorm:"size:32;not null;index" json:"domain_tag"`
	SourceID  string    `gorm:"size:256;not null" json:"source_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Embedding string    `gorm:"type:text" json:"-"` // JSON array of float32
	CreatedAt time.Time `json:"created_at"`
}

// EmbeddingVector returns the parsed embedding slice; empty on parse error.
func (c *CorpusChunk) EmbeddingVector() []float32 {
	if c.Embedding == "" {
		return nil
	}
	var v []float32
	_ = json.Unmarshal([]byte(c.Embedding), &v)
	return v
}

// SetEmbedding stores the embedding as JSON.
func (c *CorpusChunk) SetEmbedding(vec []float32) {
	if len(vec) == 0 {
		c.Embedding = "[]"
		return
	}
	b, _ := json.Marshal(vec)
	c.Embedding = string(b)
}
