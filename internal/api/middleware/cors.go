package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORS allows the configured origins (or "*") to call the API from a
// browser, answering preflight OPTIONS requests directly.
func CORS(allowOrigins []string) gin.HandlerFunc {
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"*"}
	}
	methods := strings.Join([]string{
		http.MethodGet, http.MethodPost, http.MethodOptions,
	}, ", ")
	headers := strings.Join([]string{
		"Origin", "Content-Type", "Accept", "X-Request-ID",
	}, ", ")

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		wildcard := len(allowOrigins) == 1 && allowOrigins[0] == "*"

		allowed := wildcard
		for _, o := range allowOrigins {
			if o == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if wildcard {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
			}
		}
		c.Header("Access-Control-Allow-Methods", methods)
		c.Header("Access-Control-Allow-Headers", headers)
		c.Header("Access-Control-Max-Age", strconv.Itoa(86400))

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
