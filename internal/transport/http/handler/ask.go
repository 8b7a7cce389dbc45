package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/Cossomoj/RAG-agent-sub000/internal/app"
	"github.com/Cossomoj/RAG-agent-sub000/internal/model"
	"github.com/Cossomoj/RAG-agent-sub000/internal/rag"
)

const (
	frameReadTimeout = 10 * time.Second
	// how long to wait for the optional vector-store preference frame
	optionalFrameTimeout = 200 * time.Millisecond
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// AnswerAsker is the single pipeline entry the websocket transport needs.
type AnswerAsker interface {
	Ask(ctx context.Context, input app.AskInput, emit func(string) error) error
}

// AskHandler speaks the primary protocol: an ordered exchange of text frames
// over one websocket connection, one question per connection. The server
// streams answer fragments back and closes; closure is the completion signal.
type AskHandler struct {
	answers AnswerAsker
}

func NewAskHandler(answers AnswerAsker) *AskHandler {
	return &AskHandler{answers: answers}
}

func (h *AskHandler) Stream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warnf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// Single read pump: feeds the ordered request frames, then keeps reading
	// so a client disconnect cancels the in-flight generation.
	frames := make(chan string, 8)
	go func() {
		defer cancel()
		defer close(frames)
		for {
			_, data, readErr := conn.ReadMessage()
			if readErr != nil {
				return
			}
			frames <- string(data)
		}
	}()

	input, err := readAskInput(frames)
	if err != nil {
		log.Warnf("read request frames failed: %v", err)
		return
	}
	input.UserKey = c.Query("user_key")

	err = h.answers.Ask(ctx, input, func(fragment string) error {
		return conn.WriteMessage(websocket.TextMessage, []byte(fragment))
	})
	if err != nil && !errors.Is(err, app.ErrGenerationFailed) {
		// disconnects and validation failures end here; nobody is listening
		log.Debugf("ask aborted: %v", err)
		return
	}

	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
}

// readAskInput consumes the six mandatory frames (question, role,
// specialization, questionId, dialogueContext, repetitionCount) and then waits
// briefly for the optional vectorStorePreference frame, defaulting to auto.
func readAskInput(frames <-chan string) (app.AskInput, error) {
	mandatory := make([]string, 6)
	timeout := time.After(frameReadTimeout)
	for i := range mandatory {
		select {
		case frame, ok := <-frames:
			if !ok {
				return app.AskInput{}, errors.New("connection closed before request was complete")
			}
			mandatory[i] = frame
		case <-timeout:
			return app.AskInput{}, errors.New("timed out reading request frames")
		}
	}

	preference := rag.PreferenceAuto
	select {
	case frame, ok := <-frames:
		if ok && strings.TrimSpace(frame) != "" {
			preference = strings.TrimSpace(frame)
		}
	case <-time.After(optionalFrameTimeout):
	}

	return app.AskInput{
		Question:              mandatory[0],
		Role:                  mandatory[1],
		Specialization:        mandatory[2],
		QuestionID:            parseIntFrame(mandatory[3]),
		Dialogue:              parseDialogueContext(mandatory[4]),
		Repetition:            parseIntFrame(mandatory[5]),
		VectorStorePreference: preference,
	}, nil
}

func parseIntFrame(frame string) int {
	value, err := strconv.Atoi(strings.TrimSpace(frame))
	if err != nil {
		return 0
	}
	return value
}

// parseDialogueContext treats malformed JSON as an empty context; a bad
// history must not fail the request.
func parseDialogueContext(frame string) []model.DialogueTurn {
	frame = strings.TrimSpace(frame)
	if frame == "" || frame == "[]" {
		return nil
	}
	var turns []model.DialogueTurn
	if err := json.Unmarshal([]byte(frame), &turns); err != nil {
		log.Warnf("malformed dialogue context, ignoring: %v", err)
		return nil
	}
	return turns
}
