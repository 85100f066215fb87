package api

import (
	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/world-intel/internal/logger"
	"github.com/jonesrussell/world-intel/internal/metrics"
)

// SetupRoutes registers the full API surface on the router.
func SetupRoutes(router *gin.Engine, h *Handler, m *metrics.Metrics, log logger.Logger) {
	// Internal failures answer with the standard envelope, never a trace.
	router.Use(gin.CustomRecovery(func(c *gin.Context, _ any) {
		c.AbortWithStatusJSON(500, gin.H{"ok": false, "error": "internal error"})
	}))
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(log))
	router.Use(CORSMiddleware())
	if m != nil {
		router.Use(m.Middleware())
		router.GET("/metrics", m.Handler())
	}

	api := router.Group("/api")
	api.GET("/health", h.HandleHealth)
	api.GET("/sources", h.HandleSources)
	api.GET("/topics", h.HandleTopics)
	api.GET("/feeds", h.HandleFeeds)
	api.GET("/clusters", h.HandleClusters)
	// Registered top-level: nesting it under the feeds/clusters dispatch
	// would make the route unreachable.
	api.GET("/enrich", h.HandleEnrich)
	api.GET("/clusters/enriched", h.HandleClustersEnriched)
	api.GET("/search", h.HandleSearch)
	api.GET("/stream", h.HandleStream)
}
