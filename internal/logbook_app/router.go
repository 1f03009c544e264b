package logbook_app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fahrtenbuch-logbook/internal/logbook_app/handler"
	"github.com/fahrtenbuch-logbook/internal/platform/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	entryHandler *handler.EntryHandler,
	syncHandler *handler.SyncHandler,
	cacheHandler *handler.CacheHandler,
) {
	r.Use(middleware.Recovery(logger, nil))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger, "/health"))

	v1 := r.Group("/api/v1")
	{
		entries := v1.Group("/entries")
		{
			entries.POST("", entryHandler.Create)
			entries.GET("", entryHandler.List)
			entries.GET("/:id", entryHandler.GetByID)
		}

		sync := v1.Group("/sync")
		{
			sync.GET("/status", syncHandler.Status)
			sync.POST("", syncHandler.SyncAll)
			sync.POST("/:id", syncHandler.SyncOne)
		}

		v1.GET("/connectivity", syncHandler.GetConnectivity)
		v1.PUT("/connectivity", syncHandler.SetConnectivity)

		cache := v1.Group("/cache")
		{
			cache.POST("/install", cacheHandler.Install)
			cache.POST("/activate", cacheHandler.Activate)
		}
	}

	// Application assets, served through the offline cache
	r.GET("/app/*path", cacheHandler.Asset)

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
