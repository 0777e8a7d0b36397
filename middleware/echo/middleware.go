package echomw

import (
	"net/http"

	"github.com/labstack/echo/v4"

	sb "github.com/reoring/shapebind"
	"github.com/reoring/shapebind/middleware"
)

// ValidateJSON validates the request JSON against s, stores the document in the
// request context on success, or returns 400 with the issues payload.
func ValidateJSON(s *sb.Schema, opt middleware.Options) echo.MiddlewareFunc {
	if opt == (middleware.Options{}) {
		opt = middleware.DefaultOptions()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			doc, err := middleware.Decode(c.Request(), s, opt)
			if err != nil {
				return c.JSON(http.StatusBadRequest, middleware.Body(err))
			}
			c.SetRequest(middleware.WithDocument(c.Request(), doc))
			return next(c)
		}
	}
}

// GetDocument fetches the validated document from echo.Context.
func GetDocument(c echo.Context) (map[string]any, bool) {
	return middleware.DocumentFromContext(c.Request().Context())
}
