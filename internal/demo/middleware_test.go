package demo

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(enabled bool) *gin.Engine {
	m := NewMiddleware(enabled)
	router := gin.New()
	router.Use(m.InjectContext(), m.Handler())
	handler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"read_only": c.GetBool(ContextKeyReadOnly)})
	}
	router.GET("/api/books", handler)
	router.POST("/api/books", handler)
	router.DELETE("/api/books/:id", handler)
	router.OPTIONS("/api/books", handler)
	return router
}

func TestMiddleware_IsEnabled(t *testing.T) {
	assert.True(t, NewMiddleware(true).IsEnabled())
	assert.False(t, NewMiddleware(false).IsEnabled())
}

func TestMiddleware_ReadOnly(t *testing.T) {
	router := newRouter(true)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/books", http.StatusOK},
		{http.MethodOptions, "/api/books", http.StatusOK},
		{http.MethodPost, "/api/books", http.StatusForbidden},
		{http.MethodDelete, "/api/books/1", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusForbidden {
				assert.JSONEq(t, `{"error":"Server is in read-only mode","code":"READ_ONLY"}`, w.Body.String())
			}
		})
	}
}

func TestMiddleware_Disabled(t *testing.T) {
	router := newRouter(false)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/books", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"read_only":false}`, w.Body.String())
}
