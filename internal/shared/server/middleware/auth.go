package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-ingest/internal/shared/auth"
	"resume-ingest/internal/shared/server/respond"
)

const (
	userIDKey    = "userId"
	userEmailKey = "userEmail"
)

// AuthConfig configures bearer verification.
type AuthConfig struct {
	Env    string
	Secret []byte
	// PublicPaths skip authentication entirely.
	PublicPaths []string
}

// Auth validates bearer JWTs and stores the owner id in context. In the dev
// environment an X-User-Id header is accepted in place of a token.
func Auth(cfg AuthConfig) gin.HandlerFunc {
	secret := cfg.Secret
	if len(secret) == 0 {
		secret, _ = auth.SecretFor(cfg.Env, "")
	}
	devMode := strings.EqualFold(strings.TrimSpace(cfg.Env), "dev")

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}
		path := c.Request.URL.Path
		for _, p := range cfg.PublicPaths {
			if path == p {
				c.Next()
				return
			}
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader != "" {
			if !strings.HasPrefix(authHeader, "Bearer ") {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
			if token == "" || len(secret) == 0 {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			claims, err := auth.VerifyJWT(secret, token)
			if err != nil {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			c.Set(userIDKey, claims.Subject)
			if claims.Email != "" {
				c.Set(userEmailKey, claims.Email)
			}
			c.Next()
			return
		}

		if devMode {
			if userID := strings.TrimSpace(c.GetHeader("X-User-Id")); userID != "" {
				c.Set(userIDKey, userID)
				c.Next()
				return
			}
		}
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
	}
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

// UserEmailFromContext fetches the user email set by the auth middleware.
func UserEmailFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userEmailKey)
	if email, ok := val.(string); ok {
		return email
	}
	return ""
}
