package ginmw

import (
	"net/http"

	"github.com/gin-gonic/gin"

	sb "github.com/reoring/shapebind"
	"github.com/reoring/shapebind/middleware"
)

// ValidateJSON validates the incoming JSON against s with opt (or
// DefaultOptions when zero value), stores the document in the request context,
// and on failure aborts with 400 and the issues payload.
func ValidateJSON(s *sb.Schema, opt middleware.Options) gin.HandlerFunc {
	if opt == (middleware.Options{}) {
		opt = middleware.DefaultOptions()
	}
	return func(c *gin.Context) {
		doc, err := middleware.Decode(c.Request, s, opt)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, middleware.Body(err))
			return
		}
		c.Request = middleware.WithDocument(c.Request, doc)
		c.Next()
	}
}

// GetDocument fetches the validated document from gin.Context.
func GetDocument(c *gin.Context) (map[string]any, bool) {
	return middleware.DocumentFromContext(c.Request.Context())
}
