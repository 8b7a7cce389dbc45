// Package prompt builds the final LLM prompt from a question template, the
// retrieved context, dialogue history and the user's specialization. The
// substitution rules are few and must stay exactly reproducible, so this is
// explicit string work rather than a templating engine.
package prompt

import (
	"fmt"
	"strings"

	"github.com/Cossomoj/RAG-agent-sub000/internal/model"
)

const (
	PlaceholderContext        = "{context}"
	PlaceholderQuestion       = "{input}"
	PlaceholderSpecialization = "{specialization}"

	// NotSpecified is rendered when the user's specialization is unknown.
	NotSpecified = "не указана"
)

// GenericTemplate answers questions with no configured template of their own.
const GenericTemplate = "Ты карьерный наставник, помогающий разобраться в профессиональных компетенциях. " +
	"Отвечай на основе контекста из документов. Если информации недостаточно, честно скажи об этом.\n\n" +
	"Контекст:\n{context}\n\nВопрос: {input}"

// Assemble fills the template. Three template shapes are supported, checked in
// this order:
//
//  1. both {context} and {input} present: substitute them, append the previous
//     messages block when history is non-empty, always append the user profile;
//  2. only {context} present: substitute it, then append history, profile and a
//     question/answer trailer;
//  3. no placeholders (legacy): append history, profile, a labeled document
//     context block and the same trailer.
//
// The {specialization} variable in the template body is substituted regardless
// of the branch taken.
func Assemble(template, question, contextText string, history []model.DialogueTurn, specialization string) string {
	specText := strings.TrimSpace(specialization)
	if specText == "" {
		specText = NotSpecified
	}
	body := strings.ReplaceAll(template, PlaceholderSpecialization, specText)

	hasContext := strings.Contains(body, PlaceholderContext)
	hasQuestion := strings.Contains(body, PlaceholderQuestion)

	var sb strings.Builder
	switch {
	case hasContext && hasQuestion:
		body = strings.ReplaceAll(body, PlaceholderContext, contextText)
		body = strings.ReplaceAll(body, PlaceholderQuestion, question)
		sb.WriteString(body)
		if len(history) > 0 {
			sb.WriteString("\n\n")
			sb.WriteString(historyBlock(history))
		}
		sb.WriteString("\n\n")
		sb.WriteString(profileBlock(specText))
	case hasContext:
		body = strings.ReplaceAll(body, PlaceholderContext, contextText)
		sb.WriteString(body)
		if len(history) > 0 {
			sb.WriteString("\n\n")
			sb.WriteString(historyBlock(history))
		}
		sb.WriteString("\n\n")
		sb.WriteString(profileBlock(specText))
		sb.WriteString("\n\n")
		sb.WriteString(questionTrailer(question))
	default:
		sb.WriteString(body)
		if len(history) > 0 {
			sb.WriteString("\n\n")
			sb.WriteString(historyBlock(history))
		}
		sb.WriteString("\n\n")
		sb.WriteString(profileBlock(specText))
		sb.WriteString("\n\nКонтекст из документов:\n")
		sb.WriteString(contextText)
		sb.WriteString("\n\n")
		sb.WriteString(questionTrailer(question))
	}
	return sb.String()
}

// ContextText joins ranked passages into the context block, separated so the
// model can tell passages apart.
func ContextText(passages []string) string {
	return strings.Join(passages, "\n---\n")
}

func historyBlock(history []model.DialogueTurn) string {
	var sb strings.Builder
	sb.WriteString("Предыдущие сообщения:\n")
	for _, turn := range history {
		label := "Пользователь"
		if turn.Role == "assistant" {
			label = "Ассистент"
		}
		sb.WriteString(label)
		sb.WriteString(": ")
		sb.WriteString(turn.Content)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func profileBlock(specText string) string {
	return "Профиль пользователя: специализация — " + specText + "."
}

func questionTrailer(question string) string {
	return fmt.Sprintf("Вопрос: %s\nОтвет:", question)
}
