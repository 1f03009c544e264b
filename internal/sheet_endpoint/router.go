package sheet_endpoint

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fahrtenbuch-logbook/internal/platform/middleware"
	"github.com/fahrtenbuch-logbook/internal/sheet_endpoint/handler"
)

// setupRouter configures all routes and middleware
func setupRouter(logger *slog.Logger, r *gin.Engine, sheetHandler *handler.SheetHandler) {
	r.Use(middleware.Recovery(logger, func(c *gin.Context) {
		handler.RespondFailure(c, http.StatusInternalServerError, "internal error")
	}))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger, "/health"))

	r.POST("/exec", sheetHandler.Append)
	r.GET("/rows", sheetHandler.Rows)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
