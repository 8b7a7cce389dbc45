package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Cossomoj/RAG-agent-sub000/internal/ai"
	"github.com/Cossomoj/RAG-agent-sub000/internal/rag"
)

const maxSuggestions = 5

// SuggestService generates follow-up question suggestions from the last
// exchange.
type SuggestService struct {
	llm rag.Completer
}

func NewSuggestService(llm rag.Completer) *SuggestService {
	return &SuggestService{llm: llm}
}

func (s *SuggestService) Suggest(ctx context.Context, userQuestion, botAnswer, specialization string) ([]string, error) {
	userQuestion = strings.TrimSpace(userQuestion)
	botAnswer = strings.TrimSpace(botAnswer)
	if userQuestion == "" || botAnswer == "" {
		return nil, ErrInvalidInput
	}

	promptText := fmt.Sprintf(
		"Пользователь со специализацией «%s» задал вопрос и получил ответ.\n\nВопрос: %s\n\nОтвет: %s\n\n"+
			"Предложи до %d коротких уточняющих вопросов, которые пользователь мог бы задать следующими. "+
			"Ответь строго JSON-массивом строк.",
		specializationOrEmpty(specialization), userQuestion, botAnswer, maxSuggestions,
	)

	raw, err := s.llm.Complete(ctx, []ai.ChatMessage{
		{Role: "system", Content: "Ты помощник, предлагающий уточняющие вопросы."},
		{Role: "user", Content: promptText},
	})
	if err != nil {
		return nil, fmt.Errorf("suggestion generation failed: %w", err)
	}

	suggestions := parseSuggestions(raw)
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions, nil
}

// parseSuggestions accepts either a JSON array (possibly fenced) or plain
// lines, one suggestion each.
func parseSuggestions(raw string) []string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var parsed []string
	if err := json.Unmarshal([]byte(cleaned), &parsed); err == nil {
		return nonEmpty(parsed)
	}

	var lines []string
	for _, line := range strings.Split(cleaned, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-•0123456789.) "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func nonEmpty(values []string) []string {
	var result []string
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			result = append(result, s)
		}
	}
	return result
}

func specializationOrEmpty(specialization string) string {
	specialization = strings.TrimSpace(specialization)
	if specialization == "" {
		return "не указана"
	}
	return specialization
}
