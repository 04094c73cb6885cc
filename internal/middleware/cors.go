package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/labstack/echo/v4"
)

// CORS returns an Echo middleware that lets the listed origins submit the
// form from a browser. It returns nil when no origins are configured.
func CORS(allowedOrigins []string) echo.MiddlewareFunc {
	if len(allowedOrigins) == 0 {
		return nil
	}
	return echo.WrapMiddleware(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{echo.HeaderAccept, echo.HeaderContentType},
		MaxAge:         300,
	}))
}
