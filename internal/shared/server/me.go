package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-ingest/internal/shared/server/middleware"
	"resume-ingest/internal/shared/server/respond"
)

// registerMeRoutes attaches the /me endpoint.
func registerMeRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", meHandler)
}

// meHandler echoes the authenticated principal.
func meHandler(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
		return
	}

	response := gin.H{"userId": userID}
	if email := middleware.UserEmailFromContext(c); email != "" {
		response["email"] = email
	}
	respond.Success(c, http.StatusOK, response)
}
