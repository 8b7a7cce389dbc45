package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Cossomoj/RAG-agent-sub000/internal/model"
)

type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// GetByID returns the template, or nil when the id is unknown.
func (r *TemplateRepository) GetByID(templateID int) (*model.PromptTemplate, error) {
	var template model.PromptTemplate
	err := r.db.Where("id = ?", templateID).First(&template).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get prompt template failed: %w", err)
	}
	return &template, nil
}
