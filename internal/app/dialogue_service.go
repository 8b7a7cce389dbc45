package app

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Cossomoj/RAG-agent-sub000/internal/cache"
	"github.com/Cossomoj/RAG-agent-sub000/internal/model"
)

// AsyncMessagePublisher enqueues a dialogue turn for asynchronous persistence.
type AsyncMessagePublisher interface {
	Publish(ctx context.Context, msg model.Message) error
}

type MessageStore interface {
	ListRecentByUserKey(userKey string, limit int) ([]model.Message, error)
}

// DialogueService is the persistence collaborator for conversation history:
// turns are enqueued to the broker and read back through a short-lived Redis
// cache in front of the database.
type DialogueService struct {
	messages  MessageStore
	history   *cache.DialogueCache
	publisher AsyncMessagePublisher
}

func NewDialogueService(messages MessageStore, history *cache.DialogueCache, publisher AsyncMessagePublisher) *DialogueService {
	return &DialogueService{
		messages:  messages,
		history:   history,
		publisher: publisher,
	}
}

// Record enqueues one completed turn and invalidates the cached history.
func (s *DialogueService) Record(ctx context.Context, userKey, role, content string) error {
	if userKey == "" || content == "" {
		return ErrInvalidInput
	}
	msg := model.Message{
		UserKey:   userKey,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		return fmt.Errorf("enqueue dialogue turn failed: %w", err)
	}
	if s.history != nil {
		if err := s.history.DeleteHistory(ctx, userKey); err != nil {
			log.Warnf("invalidate history cache failed: %v", err)
		}
	}
	return nil
}

// Recent returns the user's most recent turns, oldest first, bounded to
// maxTurns.
func (s *DialogueService) Recent(ctx context.Context, userKey string, maxTurns int) ([]model.DialogueTurn, error) {
	if userKey == "" {
		return nil, ErrInvalidInput
	}
	if maxTurns <= 0 {
		maxTurns = 12
	}

	if s.history != nil {
		if cached, hit, err := s.history.GetHistory(ctx, userKey); err == nil && hit {
			return toTurns(cached, maxTurns), nil
		}
	}

	messages, err := s.messages.ListRecentByUserKey(userKey, maxTurns)
	if err != nil {
		return nil, err
	}
	if s.history != nil {
		if err := s.history.SetHistory(ctx, userKey, messages); err != nil {
			log.Warnf("fill history cache failed: %v", err)
		}
	}
	return toTurns(messages, maxTurns), nil
}

func toTurns(messages []model.Message, maxTurns int) []model.DialogueTurn {
	if len(messages) > maxTurns {
		messages = messages[len(messages)-maxTurns:]
	}
	turns := make([]model.DialogueTurn, len(messages))
	for i, msg := range messages {
		turns[i] = model.DialogueTurn{Role: msg.Role, Content: msg.Content}
	}
	return turns
}
