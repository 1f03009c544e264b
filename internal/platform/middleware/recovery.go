package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// PanicResponder writes the error body after a recovered panic
type PanicResponder func(c *gin.Context)

// Recovery middleware catches panics, logs them with stack traces and answers 500 via
// respond. A nil respond writes the standard error envelope with the correlation ID.
func Recovery(logger *slog.Logger, respond PanicResponder) gin.HandlerFunc {
	if respond == nil {
		respond = envelopeResponder
	}

	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Panic recovered",
					"error", r,
					"stack", string(debug.Stack()),
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
					"correlation_id", GetCorrelationID(c),
				)
				respond(c)
			}
		}()

		c.Next()
	}
}

func envelopeResponder(c *gin.Context) {
	response := gin.H{
		"error": gin.H{
			"code":    "INTERNAL_SERVER_ERROR",
			"message": "An internal server error occurred",
		},
	}
	if correlationID := GetCorrelationID(c); correlationID != "" {
		response["correlation_id"] = correlationID
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, response)
}
