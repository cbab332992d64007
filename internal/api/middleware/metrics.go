package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/timmy/analystai/internal/metrics"
)

// Metrics returns a middleware that records request latency by route template.
// Unmatched paths share one label so arbitrary URLs cannot grow the series count.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.ObserveHTTP(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
