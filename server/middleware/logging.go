// Package middleware holds the gin middleware of the health server.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/ledgerflow/logger"
)

// probePaths are polled by orchestrators and logged only on failure.
var probePaths = map[string]bool{
	"/health": true,
	"/livez":  true,
}

// RequestLogger logs each request at a level chosen by its status code.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	log = logger.OrNop(log)
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		if probePaths[c.Request.URL.Path] && status < 500 {
			return
		}

		fields := logger.Fields(
			"method", c.Request.Method,
			logger.FieldPath, c.Request.URL.Path,
			logger.FieldStatus, status,
			logger.FieldDuration, time.Since(start).Milliseconds(),
		)
		if id, ok := c.Get("request_id"); ok {
			fields["request_id"] = id
		}

		switch {
		case status >= 500:
			log.Error("Request completed", fields)
		case status >= 400:
			log.Warn("Request completed", fields)
		default:
			log.Debug("Request completed", fields)
		}
	}
}
