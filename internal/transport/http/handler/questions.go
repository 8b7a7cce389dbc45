package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Cossomoj/RAG-agent-sub000/internal/model"
	"github.com/Cossomoj/RAG-agent-sub000/internal/transport/http/response"
)

type QuestionLister interface {
	ListActive() ([]model.QuestionConfig, error)
}

// QuestionsHandler serves the predefined question catalog the client renders
// as quick-pick buttons.
type QuestionsHandler struct {
	questions QuestionLister
}

func NewQuestionsHandler(questions QuestionLister) *QuestionsHandler {
	return &QuestionsHandler{questions: questions}
}

func (h *QuestionsHandler) List(c *gin.Context) {
	questions, err := h.questions.ListActive()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "load questions failed")
		return
	}
	response.OK(c, questions)
}
