package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/nooreldin2735/exams-console/internal/config"
	"github.com/nooreldin2735/exams-console/internal/handler"
	"github.com/nooreldin2735/exams-console/internal/middleware"
	"github.com/nooreldin2735/exams-console/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Catalog *handler.CatalogHandler
	Compose *handler.ComposeHandler
	Text    *handler.TextHandler
	WS      *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for the API (120 requests per minute per IP).
	apiLimiter := middleware.NewRateLimiter(120, time.Minute)

	// ─── 1. API Group (Upstream Token Required) ────────────────────────
	api := router.Group("/api/v1")
	api.Use(apiLimiter.Middleware(), middleware.RequireUpstreamToken())
	{
		// Catalog hierarchy.
		api.GET("/years", handlers.Catalog.ListYears)
		api.POST("/years", handlers.Catalog.CreateYear)
		api.GET("/terms", handlers.Catalog.ListTerms)
		api.POST("/terms", handlers.Catalog.CreateTerm)
		api.GET("/subjects", handlers.Catalog.ListSubjects)
		api.POST("/subjects", handlers.Catalog.CreateSubject)
		api.GET("/lectures", handlers.Catalog.ListLectures)
		api.POST("/lectures", handlers.Catalog.CreateLecture)
		api.GET("/questions", handlers.Catalog.ListQuestions)
		api.POST("/questions", handlers.Catalog.CreateQuestion)
		api.POST("/questions/render", handlers.Text.RenderQuestionText)
		api.GET("/exams", handlers.Catalog.ListExams)
		api.GET("/exams/:exam_id/questions", handlers.Catalog.ListExamQuestions)

		// Composition sessions.
		api.POST("/compose", handlers.Compose.OpenSession)
		api.GET("/compose/:session_id", handlers.Compose.GetSession)
		api.POST("/compose/:session_id/close", handlers.Compose.CloseSession)
		api.POST("/compose/:session_id/lecture", handlers.Compose.SelectLecture)
		api.POST("/compose/:session_id/skip-lecture", handlers.Compose.SkipLecture)
		api.POST("/compose/:session_id/action", handlers.Compose.ChooseAction)
		api.POST("/compose/:session_id/back", handlers.Compose.Back)
		api.POST("/compose/:session_id/questions", handlers.Compose.AuthorQuestion)
		api.GET("/compose/:session_id/pickable", handlers.Compose.ListPickable)
		api.POST("/compose/:session_id/toggle", handlers.Compose.ToggleQuestion)
		api.POST("/compose/:session_id/bulk-toggle", handlers.Compose.BulkToggle)
		api.POST("/compose/:session_id/preview", handlers.Compose.OpenExamPreview)
		api.DELETE("/compose/:session_id/preview", handlers.Compose.CloseExamPreview)
		api.POST("/compose/:session_id/confirm", handlers.Compose.ConfirmPicks)
		api.DELETE("/compose/:session_id/pool/:index", handlers.Compose.RemovePoolEntry)
		api.POST("/compose/:session_id/submit", handlers.Compose.Submit)
	}

	// ─── 2. WebSocket Group ────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireUpstreamToken())
	{
		ws.GET("/compose/:session_id/stream", handlers.WS.SessionStream)
	}

	return router
}
