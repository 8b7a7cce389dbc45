package app

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Cossomoj/RAG-agent-sub000/internal/ai"
)

// GenerationFailedMessage is the single user-facing fragment emitted when the
// LLM call fails mid-stream.
const GenerationFailedMessage = "К сожалению, не удалось сгенерировать ответ. Попробуйте задать вопрос ещё раз."

var errEmitFailed = errors.New("fragment emit failed")

var whitespaceRuns = regexp.MustCompile(`\s+`)

// StreamCompleter is the streaming LLM call the answer streamer needs.
type StreamCompleter interface {
	StreamComplete(ctx context.Context, messages []ai.ChatMessage, onChunk func(string) error) (string, error)
}

// AnswerStreamer generates the answer in streaming mode, sanitizes each
// fragment and forwards it to the caller. The returned fragment list is what
// the cache stores, so concatenating emitted fragments always reproduces it.
type AnswerStreamer struct {
	llm StreamCompleter
}

func NewAnswerStreamer(llm StreamCompleter) *AnswerStreamer {
	return &AnswerStreamer{llm: llm}
}

// Stream runs the generation call and emits sanitized fragments in order.
// On a generation error it emits GenerationFailedMessage as the terminal
// fragment and returns ErrGenerationFailed; emit failures and cancellation
// propagate silently so a disconnected client is abandoned without noise.
func (s *AnswerStreamer) Stream(ctx context.Context, promptText string, emit func(string) error) ([]string, error) {
	var fragments []string

	_, err := s.llm.StreamComplete(ctx, []ai.ChatMessage{
		{Role: "user", Content: promptText},
	}, func(chunk string) error {
		fragment := SanitizeFragment(chunk)
		if fragment == "" {
			return nil
		}
		fragments = append(fragments, fragment)
		if emitErr := emit(fragment); emitErr != nil {
			return fmt.Errorf("%w: %v", errEmitFailed, emitErr)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errEmitFailed) || ctx.Err() != nil {
			return nil, err
		}
		_ = emit(GenerationFailedMessage)
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return fragments, nil
}

// SanitizeFragment strips markdown emphasis artifacts (literal '*') and
// collapses whitespace runs to single spaces.
func SanitizeFragment(fragment string) string {
	fragment = strings.ReplaceAll(fragment, "*", " ")
	return whitespaceRuns.ReplaceAllString(fragment, " ")
}
