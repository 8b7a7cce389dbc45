package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cossomoj/RAG-agent-sub000/internal/ai"
)

type cannedCompleter struct {
	response string
	err      error
}

func (c *cannedCompleter) Complete(_ context.Context, _ []ai.ChatMessage) (string, error) {
	return c.response, c.err
}

func TestSuggest_ParsesJSONArray(t *testing.T) {
	svc := NewSuggestService(&cannedCompleter{response: `["Какие навыки важны?", "С чего начать обучение?"]`})

	suggestions, err := svc.Suggest(context.Background(), "вопрос", "ответ", "java")
	require.NoError(t, err)
	assert.Equal(t, []string{"Какие навыки важны?", "С чего начать обучение?"}, suggestions)
}

func TestSuggest_ParsesFencedJSON(t *testing.T) {
	svc := NewSuggestService(&cannedCompleter{response: "```json\n[\"первый\", \"второй\"]\n```"})

	suggestions, err := svc.Suggest(context.Background(), "вопрос", "ответ", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"первый", "второй"}, suggestions)
}

func TestSuggest_FallsBackToLines(t *testing.T) {
	svc := NewSuggestService(&cannedCompleter{response: "1. первый вопрос\n2. второй вопрос\n"})

	suggestions, err := svc.Suggest(context.Background(), "вопрос", "ответ", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"первый вопрос", "второй вопрос"}, suggestions)
}

func TestSuggest_CapsAtFive(t *testing.T) {
	svc := NewSuggestService(&cannedCompleter{response: `["1","2","3","4","5","6","7"]`})

	suggestions, err := svc.Suggest(context.Background(), "вопрос", "ответ", "")
	require.NoError(t, err)
	assert.Len(t, suggestions, 5)
}

func TestSuggest_EmptyInput(t *testing.T) {
	svc := NewSuggestService(&cannedCompleter{response: "[]"})

	_, err := svc.Suggest(context.Background(), "", "ответ", "")
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Suggest(context.Background(), "вопрос", "  ", "")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestSuggest_UpstreamErrorPropagates(t *testing.T) {
	svc := NewSuggestService(&cannedCompleter{err: errors.New("rate limited")})

	_, err := svc.Suggest(context.Background(), "вопрос", "ответ", "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidInput)
}
