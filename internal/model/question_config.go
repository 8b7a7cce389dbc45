package model

import "time"

// QuestionConfig describes a predefined question: which domain index answers it,
// which prompt template renders it, and whether its answer depends on the
// asker's specialization (Specialization == nil).
type QuestionConfig struct {
	ID               int       `gorm:"primaryKey" json:"id"`
	Category         string    `gorm:"size:64;index" json:"category"`
	Specialization   *string   `gorm:"size:64" json:"specialization"`
	VectorStore      string    `gorm:"size:32;not null;default:auto" json:"vector_store"`
	PromptTemplateID int       `gorm:"not null" json:"prompt_template_id"`
	IsActive         bool      `gorm:"not null;default:true" json:"is_active"`
	OrderPosition    int       `gorm:"not null;default:0" json:"order_position"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
