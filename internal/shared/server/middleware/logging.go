package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/suiscode/ai-resume/internal/shared/telemetry"
)

// quietRoutes are logged at debug so health checks and scrapes do not flood the logs.
var quietRoutes = map[string]bool{
	"/api/health": true,
	"/metrics":    true,
}

// Logging writes one request.complete line per request, at a level that
// follows the status class.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"route":       c.FullPath(),
			"path":        c.Request.URL.Path,
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
			"bytes":       c.Writer.Size(),
			"user_id":     UserIDFromContext(c),
			"client_ip":   c.ClientIP(),
		}
		if id := c.GetString("resumeId"); id != "" {
			fields["resume_id"] = id
		}
		if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
			fields["errors"] = errs.Errors()
		}

		switch {
		case status >= http.StatusInternalServerError:
			telemetry.Error("request.complete", fields)
		case status >= http.StatusBadRequest:
			telemetry.Warn("request.complete", fields)
		case quietRoutes[c.FullPath()]:
			telemetry.Debug("request.complete", fields)
		default:
			telemetry.Info("request.complete", fields)
		}
	}
}
