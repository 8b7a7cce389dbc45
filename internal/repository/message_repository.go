package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/Cossomoj/RAG-agent-sub000/internal/model"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(message *model.Message) error {
	if err := r.db.Create(message).Error; err != nil {
		return fmt.Errorf("create message failed: %w", err)
	}
	return nil
}

// ListRecentByUserKey returns the most recent messages for the user in
// chronological order.
func (r *MessageRepository) ListRecentByUserKey(userKey string, limit int) ([]model.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var recent []model.Message
	if err := r.db.Where("user_key = ?", userKey).Order("id DESC").Limit(limit).Find(&recent).Error; err != nil {
		return nil, fmt.Errorf("list recent messages failed: %w", err)
	}
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	return recent, nil
}
