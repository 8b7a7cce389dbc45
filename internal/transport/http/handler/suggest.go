package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Cossomoj/RAG-agent-sub000/internal/app"
	"github.com/Cossomoj/RAG-agent-sub000/internal/transport/http/response"
)

type Suggester interface {
	Suggest(ctx context.Context, userQuestion, botAnswer, specialization string) ([]string, error)
}

// SuggestHandler implements the secondary protocol: one JSON request with the
// last exchange, one JSON array of follow-up question suggestions.
type SuggestHandler struct {
	suggester Suggester
}

type SuggestRequest struct {
	UserQuestion   string `json:"user_question" binding:"required"`
	BotAnswer      string `json:"bot_answer" binding:"required"`
	Specialization string `json:"specialization"`
}

func NewSuggestHandler(suggester Suggester) *SuggestHandler {
	return &SuggestHandler{suggester: suggester}
}

func (h *SuggestHandler) Suggest(c *gin.Context) {
	var req SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	suggestions, err := h.suggester.Suggest(c.Request.Context(), req.UserQuestion, req.BotAnswer, req.Specialization)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusBadGateway, response.CodeUpstreamFailed, "suggestion generation failed")
		}
		return
	}
	if suggestions == nil {
		suggestions = []string{}
	}

	c.JSON(http.StatusOK, suggestions)
}
