package http

import (
	"github.com/gin-gonic/gin"

	"github.com/Cossomoj/RAG-agent-sub000/internal/bootstrap"
	"github.com/Cossomoj/RAG-agent-sub000/internal/transport/http/handler"
	"github.com/Cossomoj/RAG-agent-sub000/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	askHandler := handler.NewAskHandler(app.AnswerService)
	router.GET("/ws/ask", askHandler.Stream)

	suggestHandler := handler.NewSuggestHandler(app.SuggestService)
	adminHandler := handler.NewAdminHandler(
		app.AdminService,
		app.AnswerCache,
		app.IndexBuilder,
		app.Provider,
		app.DialogueService,
	)

	v1 := router.Group("/api/v1")
	v1.POST("/suggest", suggestHandler.Suggest)
	v1.GET("/questions", handler.NewQuestionsHandler(app.Questions).List)

	adminGroup := v1.Group("/admin")
	adminGroup.POST("/login", adminHandler.Login)

	protected := adminGroup.Group("")
	protected.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	protected.POST("/cache/clear", adminHandler.ClearCache)
	protected.POST("/reindex", adminHandler.Reindex)
	protected.GET("/history", adminHandler.History)

	return router
}
