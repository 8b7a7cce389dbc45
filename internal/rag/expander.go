package rag

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/Cossomoj/RAG-agent-sub000/internal/ai"
)

// Completer is the single LLM call the expander needs.
type Completer interface {
	Complete(ctx context.Context, messages []ai.ChatMessage) (string, error)
}

// QueryExpander asks the LLM for alternative phrasings of a question to widen
// retrieval coverage.
type QueryExpander struct {
	llm   Completer
	total int
}

func NewQueryExpander(llm Completer, total int) *QueryExpander {
	if total <= 1 {
		total = 6
	}
	return &QueryExpander{llm: llm, total: total}
}

// Expand returns the original question followed by up to total-1 LLM-generated
// rephrasings. Any failure degrades to the single original question so the
// pipeline stays usable.
func (e *QueryExpander) Expand(ctx context.Context, question, specialization string) []string {
	question = strings.TrimSpace(question)
	queries := []string{question}

	prompt := fmt.Sprintf(
		"Переформулируй вопрос пользователя %d разными способами, сохраняя смысл. "+
			"Специализация пользователя: %s. Выведи только варианты, по одному в строке, без нумерации.\n\nВопрос: %s",
		e.total-1, specializationOrUnknown(specialization), question,
	)

	raw, err := e.llm.Complete(ctx, []ai.ChatMessage{
		{Role: "system", Content: "Ты помощник, который переформулирует поисковые запросы."},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		log.Warnf("query expansion failed, degrading to single query: %v", err)
		return queries
	}

	for _, line := range strings.Split(raw, "\n") {
		variant := trimListMarker(line)
		if variant == "" || strings.EqualFold(variant, question) {
			continue
		}
		queries = append(queries, variant)
		if len(queries) >= e.total {
			break
		}
	}
	return queries
}

func trimListMarker(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimLeft(line, "-•*0123456789.) ")
	return strings.TrimSpace(line)
}

func specializationOrUnknown(specialization string) string {
	specialization = strings.TrimSpace(specialization)
	if specialization == "" {
		return "не указана"
	}
	return specialization
}
