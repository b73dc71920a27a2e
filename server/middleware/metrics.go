package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lifemap/memorymap/observability"
)

// Metrics records request count and latency per route template. Unmatched
// paths share one label.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Context(), c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
