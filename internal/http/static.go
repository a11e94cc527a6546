package http

import (
	"os"
	"path"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

// serveSPA serves files from a pre-built single page app bundle, falling
// back to index.html so client-side routes resolve.
func serveSPA(root string) gin.HandlerFunc {
	index := filepath.Join(root, "index.html")
	return func(c *gin.Context) {
		name := filepath.Join(root, filepath.FromSlash(path.Clean("/"+c.Request.URL.Path)))
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			c.File(name)
			return
		}
		c.File(index)
	}
}
