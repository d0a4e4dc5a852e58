package middleware

import (
	"time"

	"labelhub/internal/metrics"

	"github.com/gin-gonic/gin"
)

// MetricsMiddleware 记录请求数和耗时，路由标签使用注册的路由模板
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
