package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cossomoj/RAG-agent-sub000/internal/app"
	"github.com/Cossomoj/RAG-agent-sub000/internal/model"
	"github.com/Cossomoj/RAG-agent-sub000/internal/rag"
)

func init() {
	gin.SetMode(gin.TestMode)
	log.SetLevel(log.PanicLevel)
}

type fakeAsker struct {
	input     app.AskInput
	fragments []string
	err       error
}

func (f *fakeAsker) Ask(_ context.Context, input app.AskInput, emit func(string) error) error {
	f.input = input
	for _, fragment := range f.fragments {
		if err := emit(fragment); err != nil {
			return err
		}
	}
	return f.err
}

func newAskTestServer(t *testing.T, asker *fakeAsker) *httptest.Server {
	t.Helper()
	router := gin.New()
	router.GET("/ws/ask", NewAskHandler(asker).Stream)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func dialAsk(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/ask" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendFrames(t *testing.T, conn *websocket.Conn, frames ...string) {
	t.Helper()
	for _, frame := range frames {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
	}
}

// readUntilClose collects streamed text frames until the server closes.
func readUntilClose(t *testing.T, conn *websocket.Conn) []string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var received []string
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			require.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure),
				"expected normal closure, got %v", err)
			return received
		}
		received = append(received, string(data))
	}
}

func TestAskHandler_FullFrameExchange(t *testing.T) {
	asker := &fakeAsker{fragments: []string{"Первый ", "второй."}}
	server := newAskTestServer(t, asker)
	conn := dialAsk(t, server, "?user_key=u-42")

	sendFrames(t, conn,
		"Что такое BPMN?",
		"студент",
		"Системный аналитик",
		"5",
		`[{"role":"user","content":"привет"},{"role":"assistant","content":"здравствуйте"}]`,
		"0",
		"ensemble",
	)

	received := readUntilClose(t, conn)
	assert.Equal(t, []string{"Первый ", "второй."}, received)

	assert.Equal(t, "Что такое BPMN?", asker.input.Question)
	assert.Equal(t, "студент", asker.input.Role)
	assert.Equal(t, "Системный аналитик", asker.input.Specialization)
	assert.Equal(t, 5, asker.input.QuestionID)
	assert.Equal(t, []model.DialogueTurn{
		{Role: "user", Content: "привет"},
		{Role: "assistant", Content: "здравствуйте"},
	}, asker.input.Dialogue)
	assert.Equal(t, 0, asker.input.Repetition)
	assert.Equal(t, "ensemble", asker.input.VectorStorePreference)
	assert.Equal(t, "u-42", asker.input.UserKey)
}

func TestAskHandler_OptionalFrameOmitted(t *testing.T) {
	asker := &fakeAsker{fragments: []string{"ответ"}}
	server := newAskTestServer(t, asker)
	conn := dialAsk(t, server, "")

	sendFrames(t, conn, "Вопрос", "", "", "3", "[]", "1")

	received := readUntilClose(t, conn)
	assert.Equal(t, []string{"ответ"}, received)

	assert.Equal(t, rag.PreferenceAuto, asker.input.VectorStorePreference)
	assert.Equal(t, 1, asker.input.Repetition)
	assert.Empty(t, asker.input.Dialogue)
	assert.Empty(t, asker.input.UserKey)
}

func TestAskHandler_MalformedFramesDegradeToDefaults(t *testing.T) {
	asker := &fakeAsker{fragments: []string{"ответ"}}
	server := newAskTestServer(t, asker)
	conn := dialAsk(t, server, "")

	sendFrames(t, conn, "Вопрос", "", "", "не число", "не json", "тоже не число")

	received := readUntilClose(t, conn)
	assert.Equal(t, []string{"ответ"}, received)

	assert.Zero(t, asker.input.QuestionID)
	assert.Zero(t, asker.input.Repetition)
	assert.Nil(t, asker.input.Dialogue)
}

func TestAskHandler_GenerationFailureStillClosesNormally(t *testing.T) {
	asker := &fakeAsker{fragments: []string{app.GenerationFailedMessage}, err: app.ErrGenerationFailed}
	server := newAskTestServer(t, asker)
	conn := dialAsk(t, server, "")

	sendFrames(t, conn, "Вопрос", "", "", "5", "[]", "0", "auto")

	received := readUntilClose(t, conn)
	assert.Equal(t, []string{app.GenerationFailedMessage}, received)
}
