package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Cossomoj/RAG-agent-sub000/internal/model"
)

type QuestionRepository struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// GetByID returns the question config, or nil when the id is unknown.
func (r *QuestionRepository) GetByID(questionID int) (*model.QuestionConfig, error) {
	var question model.QuestionConfig
	err := r.db.Where("id = ?", questionID).First(&question).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get question config failed: %w", err)
	}
	return &question, nil
}

// ListActive returns active questions ordered by their display position.
func (r *QuestionRepository) ListActive() ([]model.QuestionConfig, error) {
	var questions []model.QuestionConfig
	if err := r.db.Where("is_active = ?", true).Order("order_position ASC").Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("list active questions failed: %w", err)
	}
	return questions, nil
}
