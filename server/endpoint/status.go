package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// StatusFunc returns a JSON-encodable snapshot of the current run.
type StatusFunc func(ctx context.Context) any

// Status returns a handler serving the run snapshot.
func Status(serviceName string, fn StatusFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":   serviceName,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"run":       fn(c.Request.Context()),
		})
	}
}
