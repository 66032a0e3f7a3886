package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/clausewise/internal/logger"
)

// requestLogger logs one structured line per request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.Infow("http request",
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"clientIP", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
		for _, e := range c.Errors {
			logger.Warn("%s %s: %v", c.Request.Method, c.Request.URL.Path, e.Err)
		}
	}
}
