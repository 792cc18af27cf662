package middleware

import (
	"strconv"
	"time"

	"github.com/HARIOM-JHA01/addmy-partner/monitoring"
	"github.com/gin-gonic/gin"
)

// Metrics records request counts and latency by route template so that ids in
// paths do not explode label cardinality.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		monitoring.HttpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		monitoring.ResponseTimeHistogram.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
