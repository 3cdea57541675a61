package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"resume-ingest/internal/shared/telemetry"
)

func TestLoggingIncludesRequiredFields(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	telemetry.SetOutput(&buf)
	t.Cleanup(func() { telemetry.SetOutput(os.Stdout) })

	router := gin.New()
	router.Use(RequestID(), Auth(AuthConfig{Env: "dev"}), Logging())
	router.GET("/api/v1/resumes/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/resumes/resume-1", nil)
	req.Header.Set("X-User-Id", "user1")
	req.Header.Set("X-Request-Id", "req-abc")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	last := lines[len(lines)-1]
	var payload map[string]any
	if err := json.Unmarshal([]byte(last), &payload); err != nil {
		t.Fatalf("decode log json %q: %v", last, err)
	}

	required := []string{"msg", "request_id", "user_id", "resume_id", "duration_ms", "status", "route"}
	for _, key := range required {
		if _, ok := payload[key]; !ok {
			t.Fatalf("missing log field: %s", key)
		}
	}
	if payload["msg"] != "request.complete" {
		t.Fatalf("unexpected msg: %v", payload["msg"])
	}
	if payload["user_id"] != "user1" {
		t.Fatalf("unexpected user_id: %v", payload["user_id"])
	}
	if payload["request_id"] != "req-abc" {
		t.Fatalf("unexpected request_id: %v", payload["request_id"])
	}
	if payload["resume_id"] != "resume-1" {
		t.Fatalf("unexpected resume_id: %v", payload["resume_id"])
	}
	if payload["route"] != "/api/v1/resumes/:id" {
		t.Fatalf("unexpected route: %v", payload["route"])
	}
}
