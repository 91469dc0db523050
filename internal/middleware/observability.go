package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"room-reservation-api/internal/dto"
)

const ctxCorrelationID = "correlationID"

// RequestLogger logs each request with a correlation id, method, path,
// status, and latency.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader("X-Correlation-Id")
		if correlationID == "" {
			correlationID = uuid.NewString()
		}
		c.Set(ctxCorrelationID, correlationID)
		c.Writer.Header().Set("X-Correlation-Id", correlationID)

		start := time.Now()
		c.Next()

		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"correlationId", correlationID,
		)
	}
}

// Recovery converts a panic into a 500 INTERNAL response carrying the
// correlation id, instead of a bare connection reset.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				id, _ := c.Get(ctxCorrelationID)
				logger.Error("panic recovered", "error", rec, "correlationId", id)
				c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{
					Code:    "INTERNAL",
					Message: "an unexpected error occurred",
					Details: map[string]any{"correlationId": id},
				})
			}
		}()
		c.Next()
	}
}

// CORS applies a configured origin allow-list.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if _, ok := allowed[origin]; ok {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
