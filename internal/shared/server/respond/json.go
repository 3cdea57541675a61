package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the success body shape.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// OK writes a 200 OK JSON response.
func OK(c *gin.Context, payload interface{}) {
	JSON(c, http.StatusOK, payload)
}

// Success wraps data in a {"success": true, "data": ...} envelope.
func Success(c *gin.Context, status int, data interface{}) {
	JSON(c, status, Envelope{Success: true, Data: data})
}
