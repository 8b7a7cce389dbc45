package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	redisv9 "github.com/redis/go-redis/v9"
)

const answerKeyPrefix = "answer:q:"

// AnswerCache stores completed answers as ordered fragment lists. Entries are
// written only after the full answer has been generated, so a still-streaming
// request can never be served truncated. Redis serializes access per key, which
// covers the locking discipline the cache needs.
type AnswerCache struct {
	client       *redisv9.Client
	nonCacheable map[int]bool
}

// NewAnswerCache reserves nonCacheableIDs (free-form and general-fallback
// question classes) as never-cached sentinels.
func NewAnswerCache(client *redisv9.Client, nonCacheableIDs []int) *AnswerCache {
	reserved := make(map[int]bool, len(nonCacheableIDs))
	for _, id := range nonCacheableIDs {
		reserved[id] = true
	}
	return &AnswerCache{client: client, nonCacheable: reserved}
}

// Cacheable reports whether answers for this question id may be cached at all.
func (c *AnswerCache) Cacheable(questionID int) bool {
	return !c.nonCacheable[questionID]
}

// Get returns the cached fragments. Pass an empty specialization for questions
// whose answer is canonical across all users.
func (c *AnswerCache) Get(ctx context.Context, questionID int, specialization string) ([]string, bool, error) {
	raw, err := c.client.Get(ctx, c.key(questionID, specialization)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get answer failed: %w", err)
	}

	var fragments []string
	if err := json.Unmarshal([]byte(raw), &fragments); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached answer failed: %w", err)
	}
	return fragments, true, nil
}

// Put overwrites the entry for the key. Callers must only invoke it after the
// terminal fragment has been produced.
func (c *AnswerCache) Put(ctx context.Context, questionID int, specialization string, fragments []string) error {
	payload, err := json.Marshal(fragments)
	if err != nil {
		return fmt.Errorf("marshal answer cache failed: %w", err)
	}
	if err := c.client.Set(ctx, c.key(questionID, specialization), payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set answer failed: %w", err)
	}
	return nil
}

// Clear removes every cached answer and returns the exact count removed.
func (c *AnswerCache) Clear(ctx context.Context) (int, error) {
	var removed int
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, answerKeyPrefix+"*", 100).Result()
		if err != nil {
			return removed, fmt.Errorf("redis scan answers failed: %w", err)
		}
		if len(keys) > 0 {
			deleted, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("redis delete answers failed: %w", err)
			}
			removed += int(deleted)
		}
		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}

func (c *AnswerCache) key(questionID int, specialization string) string {
	if specialization == "" {
		return fmt.Sprintf("%s%d", answerKeyPrefix, questionID)
	}
	return fmt.Sprintf("%s%d:s:%s", answerKeyPrefix, questionID, strings.ToLower(specialization))
}
