package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/suiscode/ai-resume/internal/shared/telemetry"
)

// ErrorBody is the error object every failing endpoint returns.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse is the envelope {"error": {...}}.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error aborts the request with the error envelope.
func Error(c *gin.Context, status int, code, message string, details any) {
	fail(c, status, ErrorBody{Code: code, Message: message, Details: details}, nil)
}

// Internal aborts with 500 internal_error. cause is logged, never returned.
func Internal(c *gin.Context, message string, cause error) {
	fail(c, http.StatusInternalServerError, ErrorBody{Code: "internal_error", Message: message}, cause)
}

func fail(c *gin.Context, status int, body ErrorBody, cause error) {
	fields := map[string]any{
		"status":     status,
		"code":       body.Code,
		"path":       c.FullPath(),
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if fields["path"] == "" {
		fields["path"] = c.Request.URL.Path
	}
	if uid := c.GetString("userId"); uid != "" {
		fields["user_id"] = uid
	}
	if cause != nil {
		fields["error"] = cause.Error()
		_ = c.Error(cause)
	}

	log := telemetry.Warn
	if status >= http.StatusInternalServerError {
		log = telemetry.Error
	}
	log("http.error", fields)

	c.AbortWithStatusJSON(status, ErrorResponse{Error: body})
}
