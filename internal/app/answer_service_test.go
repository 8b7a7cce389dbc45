package app

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cossomoj/RAG-agent-sub000/internal/ai"
	"github.com/Cossomoj/RAG-agent-sub000/internal/cache"
	"github.com/Cossomoj/RAG-agent-sub000/internal/model"
	"github.com/Cossomoj/RAG-agent-sub000/internal/rag"
)

func init() {
	log.SetLevel(log.PanicLevel)
}

type fakeQuestions struct {
	byID map[int]*model.QuestionConfig
}

func (f *fakeQuestions) GetByID(questionID int) (*model.QuestionConfig, error) {
	return f.byID[questionID], nil
}

type fakeTemplates struct {
	byID map[int]*model.PromptTemplate
}

func (f *fakeTemplates) GetByID(templateID int) (*model.PromptTemplate, error) {
	return f.byID[templateID], nil
}

// failingCompleter forces query expansion down its single-query fallback so
// pipeline tests stay deterministic.
type failingCompleter struct{}

func (failingCompleter) Complete(_ context.Context, _ []ai.ChatMessage) (string, error) {
	return "", errors.New("expansion unavailable")
}

type fixedEmbedder struct{}

func (fixedEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return []float32{1, 0}, nil
}

type recordedTurn struct {
	userKey, role, content string
}

type fakeDialogue struct {
	turns []recordedTurn
}

func (f *fakeDialogue) Record(_ context.Context, userKey, role, content string) error {
	f.turns = append(f.turns, recordedTurn{userKey, role, content})
	return nil
}

type answerFixture struct {
	service  *AnswerService
	llm      *scriptedStreamLLM
	answers  *cache.AnswerCache
	dialogue *fakeDialogue
}

func newAnswerFixture(t *testing.T, questions map[int]*model.QuestionConfig) *answerFixture {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	answers := cache.NewAnswerCache(client, []int{777, 888})

	idx, err := rag.NewCorpusIndex("java", []rag.EmbeddedChunk{
		{
			Chunk:  rag.DocumentChunk{Text: "Java использует JVM.", SourceID: "doc-1", DomainTag: "java"},
			Vector: []float32{1, 0},
		},
	})
	require.NoError(t, err)
	provider := rag.NewIndexProvider(rag.NewIndexSet(map[string]*rag.CorpusIndex{"java": idx}, nil))

	llm := &scriptedStreamLLM{chunks: []string{"Ответ ", "сгенерирован."}}
	dialogue := &fakeDialogue{}

	service := NewAnswerService(
		&fakeQuestions{byID: questions},
		&fakeTemplates{byID: map[int]*model.PromptTemplate{
			1: {ID: 1, Name: "generic", Content: "Контекст:\n{context}\n\nВопрос: {input}"},
		}},
		answers,
		provider,
		rag.NewQueryExpander(failingCompleter{}, 6),
		rag.NewMultiQueryRanker(fixedEmbedder{}, 2),
		NewAnswerStreamer(llm),
		dialogue,
		8, 12,
	)
	return &answerFixture{service: service, llm: llm, answers: answers, dialogue: dialogue}
}

func collectEmit(into *[]string) func(string) error {
	return func(fragment string) error {
		*into = append(*into, fragment)
		return nil
	}
}

func TestAsk_EmptyQuestion(t *testing.T) {
	fx := newAnswerFixture(t, nil)

	err := fx.service.Ask(context.Background(), AskInput{Question: "   "}, collectEmit(new([]string)))
	require.ErrorIs(t, err, ErrEmptyQuestion)
	assert.Zero(t, fx.llm.calls)
}

func TestAsk_SecondRequestReplayedFromCache(t *testing.T) {
	fx := newAnswerFixture(t, map[int]*model.QuestionConfig{
		5: {ID: 5, PromptTemplateID: 1, VectorStore: "java"},
	})
	input := AskInput{Question: "Что такое JVM?", QuestionID: 5, Specialization: "Java"}

	var first []string
	require.NoError(t, fx.service.Ask(context.Background(), input, collectEmit(&first)))
	require.Equal(t, 1, fx.llm.calls)

	var second []string
	require.NoError(t, fx.service.Ask(context.Background(), input, collectEmit(&second)))
	assert.Equal(t, 1, fx.llm.calls, "cache hit must not regenerate")
	assert.Equal(t, first, second)
}

func TestAsk_NonCacheableQuestionAlwaysRegenerates(t *testing.T) {
	fx := newAnswerFixture(t, nil)
	input := AskInput{Question: "Свободный вопрос", QuestionID: 777}

	require.NoError(t, fx.service.Ask(context.Background(), input, collectEmit(new([]string))))
	require.NoError(t, fx.service.Ask(context.Background(), input, collectEmit(new([]string))))
	assert.Equal(t, 2, fx.llm.calls)
}

func TestAsk_RepetitionBypassesCacheReadAndOverwrites(t *testing.T) {
	fx := newAnswerFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, fx.answers.Put(ctx, 5, "", []string{"устаревший ответ"}))

	var emitted []string
	input := AskInput{Question: "Вопрос", QuestionID: 5, Repetition: 1}
	require.NoError(t, fx.service.Ask(ctx, input, collectEmit(&emitted)))

	assert.Equal(t, 1, fx.llm.calls)
	assert.NotContains(t, emitted, "устаревший ответ")

	cached, ok, err := fx.answers.Get(ctx, 5, "")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, emitted, cached, "regeneration must overwrite the entry")
}

func TestAsk_FixedSpecializationQuestionSharesOneCacheEntry(t *testing.T) {
	spec := "java"
	fx := newAnswerFixture(t, map[int]*model.QuestionConfig{
		9: {ID: 9, PromptTemplateID: 1, Specialization: &spec},
	})

	ask := func(userSpec string) {
		input := AskInput{Question: "Вопрос", QuestionID: 9, Specialization: userSpec}
		require.NoError(t, fx.service.Ask(context.Background(), input, collectEmit(new([]string))))
	}

	ask("Java")
	ask("Web")
	assert.Equal(t, 1, fx.llm.calls, "declared users share the canonical answer")
}

func TestAsk_SpecializationDependentQuestionKeyedPerSpecialization(t *testing.T) {
	fx := newAnswerFixture(t, map[int]*model.QuestionConfig{
		9: {ID: 9, PromptTemplateID: 1, Specialization: nil},
	})

	ask := func(userSpec string) {
		input := AskInput{Question: "Вопрос", QuestionID: 9, Specialization: userSpec}
		require.NoError(t, fx.service.Ask(context.Background(), input, collectEmit(new([]string))))
	}

	ask("Java")
	ask("Web")
	assert.Equal(t, 2, fx.llm.calls)

	ask("Java")
	assert.Equal(t, 2, fx.llm.calls, "each specialization has its own entry")
}

func TestAsk_GenerationFailureNotCached(t *testing.T) {
	fx := newAnswerFixture(t, nil)
	fx.llm.err = errors.New("upstream down")
	ctx := context.Background()

	var emitted []string
	input := AskInput{Question: "Вопрос", QuestionID: 5}
	err := fx.service.Ask(ctx, input, collectEmit(&emitted))
	require.ErrorIs(t, err, ErrGenerationFailed)
	require.NotEmpty(t, emitted)
	assert.Equal(t, GenerationFailedMessage, emitted[len(emitted)-1])

	_, ok, cacheErr := fx.answers.Get(ctx, 5, "")
	require.NoError(t, cacheErr)
	assert.False(t, ok, "failed generations must not poison the cache")
}

func TestAsk_RecordsDialogueWhenUserKeyPresent(t *testing.T) {
	fx := newAnswerFixture(t, nil)
	input := AskInput{Question: "Вопрос", QuestionID: 5, UserKey: "u-1"}

	require.NoError(t, fx.service.Ask(context.Background(), input, collectEmit(new([]string))))

	require.Len(t, fx.dialogue.turns, 2)
	assert.Equal(t, recordedTurn{"u-1", "user", "Вопрос"}, fx.dialogue.turns[0])
	assert.Equal(t, "assistant", fx.dialogue.turns[1].role)
	assert.Equal(t, "Ответ сгенерирован.", fx.dialogue.turns[1].content)
}

func TestAsk_NoDialogueWithoutUserKey(t *testing.T) {
	fx := newAnswerFixture(t, nil)
	input := AskInput{Question: "Вопрос", QuestionID: 5}

	require.NoError(t, fx.service.Ask(context.Background(), input, collectEmit(new([]string))))
	assert.Empty(t, fx.dialogue.turns)
}
