package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/pagetone/pagetone-backend/internal/handlers"
	"github.com/pagetone/pagetone-backend/internal/middleware"
)

type RouterConfig struct {
	BookHandler    *handlers.BookHandler
	SectionHandler *handlers.SectionHandler
	SummaryHandler *handlers.SummaryHandler
	AssetHandler   *handlers.AssetHandler
	JobHandler     *handlers.JobHandler
	SyncHandler    *handlers.SyncHandler
	RateLimit      *middleware.RateLimit

	CORSOrigins string
	Production  bool
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	origins := strings.Split(cfg.CORSOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Request-ID"},
		AllowCredentials: true,
	}
	if len(origins) == 1 && origins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = origins
	}
	router.Use(cors.New(corsCfg))
	router.Use(middleware.RequestID())

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	// Limit only in production; local development hammers the API freely.
	if cfg.Production && cfg.RateLimit != nil {
		api.Use(cfg.RateLimit.Limit())
	}
	{
		// Books
		api.POST("/books", cfg.BookHandler.Upload)
		api.GET("/books", cfg.BookHandler.List)
		api.GET("/books/:id", cfg.BookHandler.Get)
		api.DELETE("/books/:id", cfg.BookHandler.Delete)
		api.GET("/books/:id/pdf", cfg.BookHandler.GetPDF)
		api.GET("/books/:id/sections", cfg.BookHandler.Sections)
		api.GET("/books/:id/sections/by_page", cfg.BookHandler.SectionByPage)
		api.GET("/books/:id/progress", cfg.BookHandler.GetProgress)
		api.PUT("/books/:id/progress", cfg.BookHandler.UpdateProgress)
		api.POST("/books/:id/qa", cfg.BookHandler.AskQuestion)
		api.POST("/books/:id/notes", cfg.BookHandler.CreateNote)
		api.GET("/books/:id/notes", cfg.BookHandler.ListNotes)

		// Sections
		api.GET("/sections/:id", cfg.SectionHandler.Get)
		api.POST("/sections/:id/summaries/generate", cfg.SectionHandler.GenerateSummary)
		api.GET("/sections/:id/summary_versions", cfg.SectionHandler.ListSummaryVersions)
		api.GET("/sections/:id/assets", cfg.SectionHandler.ListAssets)

		// Summary versions
		api.GET("/summary_versions/:id", cfg.SummaryHandler.GetVersion)
		api.DELETE("/summary_versions/:id", cfg.SummaryHandler.DeleteVersion)
		api.POST("/summary_versions/:id/tts", cfg.SummaryHandler.GenerateTTS)
		api.GET("/summary_versions/:id/audio", cfg.SummaryHandler.GetAudio)

		// Figure assets
		api.GET("/assets/:id", cfg.AssetHandler.Get)

		// Jobs
		api.GET("/jobs/:id", cfg.JobHandler.GetJob)

		// Cross-device page sync
		api.POST("/sync", cfg.SyncHandler.Push)
		api.GET("/sync/:code", cfg.SyncHandler.Pop)
	}

	return router
}
