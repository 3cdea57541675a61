package respond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func TestErrorEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

	Error(c, http.StatusNotFound, "not_found", "resume not found", nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "not_found" || body.Error.Message != "resume not found" {
		t.Fatalf("unexpected body %+v", body)
	}
	if !c.IsAborted() {
		t.Fatalf("expected context to be aborted")
	}
}

func TestSuccessEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	Success(c, http.StatusAccepted, map[string]string{"id": "r-1"})

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Body.String(); got != `{"success":true,"data":{"id":"r-1"}}` {
		t.Fatalf("body = %s", got)
	}
}

func TestValidationDetails(t *testing.T) {
	type req struct {
		ResumeID string `validate:"required"`
	}
	err := validator.New().Struct(req{})
	details := ValidationDetails(err)
	if len(details) != 1 || details[0].Field != "ResumeID" || details[0].Issue != "required" {
		t.Fatalf("unexpected details %+v", details)
	}
	if ValidationDetails(nil) != nil {
		t.Fatalf("expected nil for non-validation error")
	}
}
