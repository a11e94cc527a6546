package demo

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Middleware blocks write operations when the server runs read-only, as a
// public demo does. GET, HEAD and OPTIONS always pass.
type Middleware struct {
	enabled bool
}

func NewMiddleware(enabled bool) *Middleware {
	return &Middleware{enabled: enabled}
}

func (m *Middleware) IsEnabled() bool {
	return m.enabled
}

// Handler returns a Gin middleware that blocks write operations.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.enabled {
			c.Next()
			return
		}

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "Server is in read-only mode",
			"code":  "READ_ONLY",
		})
	}
}

// ContextKeyReadOnly stores the read-only flag for handlers that report it.
const ContextKeyReadOnly = "read_only"

// InjectContext adds the read-only flag to the request context.
func (m *Middleware) InjectContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyReadOnly, m.enabled)
		c.Next()
	}
}
