package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"resume-ingest/internal/shared/auth"
)

func authRouter(cfg AuthConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth(cfg))
	router.GET("/api/v1/resumes", func(c *gin.Context) {
		c.String(http.StatusOK, UserIDFromContext(c))
	})
	router.GET("/api/v1/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.OPTIONS("/api/v1/resumes", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func TestAuthAllowsOptionsWithoutIdentity(t *testing.T) {
	router := authRouter(AuthConfig{Env: "dev"})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/resumes", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
}

func TestAuthBearerToken(t *testing.T) {
	secret := []byte("test-secret")
	router := authRouter(AuthConfig{Env: "production", Secret: secret})

	token, err := auth.SignJWT(secret, "user-42", "", time.Hour)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/resumes", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK || resp.Body.String() != "user-42" {
		t.Fatalf("expected 200 user-42, got %d %q", resp.Code, resp.Body.String())
	}
}

func TestAuthRejectsMissingOrInvalidIdentity(t *testing.T) {
	router := authRouter(AuthConfig{Env: "production", Secret: []byte("test-secret")})

	cases := map[string]map[string]string{
		"no headers":         {},
		"bad scheme":         {"Authorization": "Basic abc"},
		"bad token":          {"Authorization": "Bearer nope"},
		"dev header in prod": {"X-User-Id": "user-1"},
	}
	for name, headers := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/resumes", nil)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, resp.Code)
		}
	}
}

func TestAuthDevHeaderAndPublicPaths(t *testing.T) {
	router := authRouter(AuthConfig{Env: "dev", PublicPaths: []string{"/api/v1/health"}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/resumes", nil)
	req.Header.Set("X-User-Id", "user-1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || resp.Body.String() != "user-1" {
		t.Fatalf("expected dev identity, got %d %q", resp.Code, resp.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected public path to pass, got %d", resp.Code)
	}
}
