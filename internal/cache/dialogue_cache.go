package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"github.com/Cossomoj/RAG-agent-sub000/internal/model"
)

// DialogueCache keeps recently read dialogue history per user in front of the
// database.
type DialogueCache struct {
	client     *redisv9.Client
	historyTTL time.Duration
}

func NewDialogueCache(client *redisv9.Client, historyTTL time.Duration) *DialogueCache {
	if historyTTL <= 0 {
		historyTTL = 60 * time.Second
	}
	return &DialogueCache{client: client, historyTTL: historyTTL}
}

func (c *DialogueCache) GetHistory(ctx context.Context, userKey string) ([]model.Message, bool, error) {
	raw, err := c.client.Get(ctx, c.historyKey(userKey)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get history failed: %w", err)
	}

	var messages []model.Message
	if err := json.Unmarshal([]byte(raw), &messages); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached history failed: %w", err)
	}
	return messages, true, nil
}

func (c *DialogueCache) SetHistory(ctx context.Context, userKey string, messages []model.Message) error {
	payload, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("marshal history cache failed: %w", err)
	}
	if err := c.client.Set(ctx, c.historyKey(userKey), payload, c.historyTTL).Err(); err != nil {
		return fmt.Errorf("redis set history failed: %w", err)
	}
	return nil
}

func (c *DialogueCache) DeleteHistory(ctx context.Context, userKey string) error {
	if err := c.client.Del(ctx, c.historyKey(userKey)).Err(); err != nil {
		return fmt.Errorf("redis delete history failed: %w", err)
	}
	return nil
}

func (c *DialogueCache) historyKey(userKey string) string {
	return "dialogue:history:" + userKey
}
