package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// envelope is the response shape every endpoint shares: {"result":
// true, ...} on success, {"result": false, "error": "..."} on failure.
type envelope struct {
	Result bool   `json:"result"`
	Error  string `json:"error,omitempty"`
}

func respondOK(c *gin.Context, code int, payload gin.H) {
	if payload == nil {
		payload = gin.H{}
	}
	payload["result"] = true
	c.JSON(code, payload)
}

func respondError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, envelope{Result: false, Error: message})
}

func respondBadRequest(c *gin.Context, message string) {
	respondError(c, http.StatusBadRequest, message)
}

func respondInternalError(c *gin.Context, message string) {
	respondError(c, http.StatusInternalServerError, message)
}
