package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/temba/backend/internal/infrastructure/telemetry"
)

// Profiling labels the CPU samples taken while handling a request with its
// route pattern and method. Unmatched routes are not labelled.
func Profiling(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if !enabled || route == "" || route == "/health" {
			c.Next()
			return
		}

		labels := map[string]string{
			telemetry.ProfilingLabelRoute:  route,
			telemetry.ProfilingLabelMethod: c.Request.Method,
		}
		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
