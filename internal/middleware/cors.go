package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsMethods = "GET, POST, PUT, OPTIONS"
	corsHeaders = "Authorization, Content-Type, X-Request-Id"
)

// CORS answers preflight requests itself. An empty allowlist allows any origin;
// otherwise only listed origins get the allow headers.
func CORS(allowlist []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowlist))
	for _, origin := range allowlist {
		if origin = strings.TrimRight(strings.TrimSpace(origin), "/"); origin != "" {
			allowed[origin] = true
		}
	}
	return func(c *gin.Context) {
		h := c.Writer.Header()
		switch origin := c.GetHeader("Origin"); {
		case len(allowed) == 0:
			h.Set("Access-Control-Allow-Origin", "*")
			setCORSHeaders(h)
		case allowed[origin]:
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
			setCORSHeaders(h)
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func setCORSHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Methods", corsMethods)
	h.Set("Access-Control-Allow-Headers", corsHeaders)
	h.Set("Access-Control-Expose-Headers", "X-Request-Id")
}
