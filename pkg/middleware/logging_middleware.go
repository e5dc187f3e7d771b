package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hugohenrick/chat-relay/pkg/logger"
)

// LoggingMiddleware registra cada requisição HTTP atendida
func LoggingMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start).String(),
			"client", c.ClientIP(),
		}

		switch {
		case status >= 500:
			log.Error("requisição falhou", fields...)
		case status >= 400:
			log.Warn("requisição inválida", fields...)
		default:
			log.Info("requisição atendida", fields...)
		}
	}
}
