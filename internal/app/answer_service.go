package app

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/Cossomoj/RAG-agent-sub000/internal/cache"
	"github.com/Cossomoj/RAG-agent-sub000/internal/model"
	"github.com/Cossomoj/RAG-agent-sub000/internal/prompt"
	"github.com/Cossomoj/RAG-agent-sub000/internal/rag"
)

type QuestionStore interface {
	GetByID(questionID int) (*model.QuestionConfig, error)
}

type TemplateStore interface {
	GetByID(templateID int) (*model.PromptTemplate, error)
}

// DialogueRecorder hands completed turns to the external persistence
// collaborator. Nil-able: recording is best effort.
type DialogueRecorder interface {
	Record(ctx context.Context, userKey, role, content string) error
}

// AnswerService runs the retrieval-and-answer pipeline for one question:
// cache check, retriever selection, query expansion, multi-query ranking,
// prompt assembly and streamed generation, then the cache write.
type AnswerService struct {
	questions QuestionStore
	templates TemplateStore
	answers   *cache.AnswerCache
	provider  *rag.IndexProvider
	expander  *rag.QueryExpander
	ranker    *rag.MultiQueryRanker
	streamer  *AnswerStreamer
	dialogue  DialogueRecorder

	topK            int
	maxHistoryTurns int
}

func NewAnswerService(
	questions QuestionStore,
	templates TemplateStore,
	answers *cache.AnswerCache,
	provider *rag.IndexProvider,
	expander *rag.QueryExpander,
	ranker *rag.MultiQueryRanker,
	streamer *AnswerStreamer,
	dialogue DialogueRecorder,
	topK, maxHistoryTurns int,
) *AnswerService {
	if topK <= 0 {
		topK = 8
	}
	if maxHistoryTurns <= 0 {
		maxHistoryTurns = 12
	}
	return &AnswerService{
		questions:       questions,
		templates:       templates,
		answers:         answers,
		provider:        provider,
		expander:        expander,
		ranker:          ranker,
		streamer:        streamer,
		dialogue:        dialogue,
		topK:            topK,
		maxHistoryTurns: maxHistoryTurns,
	}
}

// AskInput is one question request as it arrives on the wire. Role is accepted
// for wire compatibility but carries no behavior.
type AskInput struct {
	Question              string
	Role                  string
	Specialization        string
	QuestionID            int
	Dialogue              []model.DialogueTurn
	Repetition            int
	VectorStorePreference string
	UserKey               string
}

// Ask answers one question, emitting sanitized fragments in generation order.
// Cached answers are replayed without touching retrieval or generation.
func (s *AnswerService) Ask(ctx context.Context, input AskInput, emit func(string) error) error {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return ErrEmptyQuestion
	}

	cfg := s.lookupQuestion(input.QuestionID)

	// Questions with a fixed specialization have one canonical answer; only
	// specialization-dependent questions key the cache per specialization.
	cacheSpec := strings.TrimSpace(input.Specialization)
	if cfg != nil && cfg.Specialization != nil {
		cacheSpec = ""
	}

	cacheable := s.answers.Cacheable(input.QuestionID)
	if cacheable && input.Repetition == 0 {
		fragments, hit, err := s.answers.Get(ctx, input.QuestionID, cacheSpec)
		if err != nil {
			log.Warnf("answer cache read failed for question %d: %v", input.QuestionID, err)
		} else if hit {
			for _, fragment := range fragments {
				if emitErr := emit(fragment); emitErr != nil {
					return emitErr
				}
			}
			return nil
		}
	}

	retriever := s.provider.Current().Select(input.Specialization, s.resolvePreference(input.VectorStorePreference, cfg))
	queries := s.expander.Expand(ctx, question, input.Specialization)
	ranked := s.ranker.Rank(ctx, queries, retriever, s.topK)

	passages := make([]string, len(ranked))
	for i, candidate := range ranked {
		passages[i] = candidate.Chunk.Text
	}
	contextText := prompt.ContextText(passages)

	history := input.Dialogue
	if len(history) > s.maxHistoryTurns {
		history = history[len(history)-s.maxHistoryTurns:]
	}

	finalPrompt := prompt.Assemble(s.lookupTemplate(cfg), question, contextText, history, input.Specialization)

	fragments, err := s.streamer.Stream(ctx, finalPrompt, emit)
	if err != nil {
		return err
	}

	if cacheable {
		if putErr := s.answers.Put(ctx, input.QuestionID, cacheSpec, fragments); putErr != nil {
			log.Warnf("answer cache write failed for question %d: %v", input.QuestionID, putErr)
		}
	}
	s.recordDialogue(ctx, input.UserKey, question, strings.Join(fragments, ""))
	return nil
}

func (s *AnswerService) lookupQuestion(questionID int) *model.QuestionConfig {
	cfg, err := s.questions.GetByID(questionID)
	if err != nil {
		log.Warnf("question config lookup failed for %d: %v", questionID, err)
		return nil
	}
	return cfg
}

// lookupTemplate falls back to the built-in generic template when the question
// is unknown or its template is missing.
func (s *AnswerService) lookupTemplate(cfg *model.QuestionConfig) string {
	if cfg == nil {
		return prompt.GenericTemplate
	}
	template, err := s.templates.GetByID(cfg.PromptTemplateID)
	if err != nil {
		log.Warnf("prompt template lookup failed for %d: %v", cfg.PromptTemplateID, err)
		return prompt.GenericTemplate
	}
	if template == nil {
		return prompt.GenericTemplate
	}
	return template.Content
}

// resolvePreference lets an explicit wire preference win over the question's
// database-declared one; "auto" defers to the config.
func (s *AnswerService) resolvePreference(wirePreference string, cfg *model.QuestionConfig) string {
	wirePreference = strings.ToLower(strings.TrimSpace(wirePreference))
	if wirePreference != "" && wirePreference != rag.PreferenceAuto {
		return wirePreference
	}
	if cfg != nil && cfg.VectorStore != "" {
		return cfg.VectorStore
	}
	return rag.PreferenceAuto
}

func (s *AnswerService) recordDialogue(ctx context.Context, userKey, question, answer string) {
	if s.dialogue == nil || userKey == "" || answer == "" {
		return
	}
	if err := s.dialogue.Record(ctx, userKey, "user", question); err != nil {
		log.Warnf("record user turn failed: %v", err)
		return
	}
	if err := s.dialogue.Record(ctx, userKey, "assistant", answer); err != nil {
		log.Warnf("record assistant turn failed: %v", err)
	}
}
