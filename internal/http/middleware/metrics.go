package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MuhammadMuneeb007/OpenGrammar/internal/observability"
)

// Metrics records request counts, latency and in-flight requests. Requests
// that match no route share the "unmatched" label.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		m.ApiInflightInc()
		defer m.ApiInflightDec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveAPI(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
