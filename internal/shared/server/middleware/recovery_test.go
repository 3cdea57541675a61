package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"resume-ingest/internal/shared/telemetry"
)

func TestRecoveryWritesErrorBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	telemetry.SetOutput(&buf)
	t.Cleanup(func() { telemetry.SetOutput(os.Stdout) })

	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/api/v1/resumes/:id", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/resumes/r-9", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"internal_error"`) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
	logged := buf.String()
	if !strings.Contains(logged, "http.panic") || !strings.Contains(logged, `"resume_id":"r-9"`) {
		t.Fatalf("expected panic log with resume id, got %s", logged)
	}
}
