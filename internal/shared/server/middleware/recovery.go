package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"resume-ingest/internal/shared/server/respond"
	"resume-ingest/internal/shared/telemetry"
)

// Recovery turns handler panics into a 500 error body. Pipeline panics are
// already recorded on the résumé by the service; this covers the HTTP layer.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			fields := map[string]any{
				"request_id": RequestIDFromContext(c),
				"error":      rec,
				"stack":      string(debug.Stack()),
				"path":       c.FullPath(),
				"method":     c.Request.Method,
			}
			if userID := UserIDFromContext(c); userID != "" {
				fields["user_id"] = userID
			}
			if resumeID := c.Param("id"); resumeID != "" {
				fields["resume_id"] = resumeID
			}
			telemetry.Error("http.panic", fields)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal_error", "unexpected server error", nil)
			c.Abort()
		}()
		c.Next()
	}
}
