package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/Cossomoj/RAG-agent-sub000/internal/app"
	"github.com/Cossomoj/RAG-agent-sub000/internal/cache"
	"github.com/Cossomoj/RAG-agent-sub000/internal/model"
	"github.com/Cossomoj/RAG-agent-sub000/internal/rag"
	"github.com/Cossomoj/RAG-agent-sub000/internal/transport/http/response"
)

type DialogueReader interface {
	Recent(ctx context.Context, userKey string, maxTurns int) ([]model.DialogueTurn, error)
}

// AdminHandler exposes the operator surface: login, cache clearing, full index
// rebuild and dialogue-history lookup.
type AdminHandler struct {
	admin    *app.AdminService
	answers  *cache.AnswerCache
	builder  *app.IndexBuilder
	provider *rag.IndexProvider
	dialogue DialogueReader
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func NewAdminHandler(
	admin *app.AdminService,
	answers *cache.AnswerCache,
	builder *app.IndexBuilder,
	provider *rag.IndexProvider,
	dialogue DialogueReader,
) *AdminHandler {
	return &AdminHandler{
		admin:    admin,
		answers:  answers,
		builder:  builder,
		provider: provider,
		dialogue: dialogue,
	}
}

func (h *AdminHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	token, err := h.admin.Login(req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrInvalidCredential):
			response.Error(c, http.StatusUnauthorized, response.CodeInvalidCredentials, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "login failed")
		}
		return
	}

	response.OK(c, gin.H{"token": token})
}

func (h *AdminHandler) ClearCache(c *gin.Context) {
	removed, err := h.answers.Clear(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "clear cache failed")
		return
	}
	log.Infof("answer cache cleared, %d entries removed", removed)
	response.OK(c, gin.H{"removed": removed})
}

// Reindex rebuilds every domain index from the persisted corpus and swaps the
// whole set in; in-flight requests keep using the old set.
func (h *AdminHandler) Reindex(c *gin.Context) {
	set, err := h.builder.Build(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "reindex failed")
		return
	}
	h.provider.Swap(set)
	log.Infof("corpus reindexed, domains: %v", set.Domains())
	response.OK(c, gin.H{"domains": set.Domains()})
}

func (h *AdminHandler) History(c *gin.Context) {
	userKey := c.Query("user_key")
	if userKey == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "user_key is required")
		return
	}
	limit := 12
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	turns, err := h.dialogue.Recent(c.Request.Context(), userKey, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "load history failed")
		return
	}
	response.OK(c, turns)
}
