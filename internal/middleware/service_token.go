package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireServiceToken guards server-to-server routes (the order-completion
// earn hook) with a shared secret in the X-Service-Token header. An empty
// configured token disables the routes entirely rather than leaving them
// open.
func RequireServiceToken(token string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token == "" {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "service_token_not_configured"})
			}
			got := c.Request().Header.Get("X-Service-Token")
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			}
			return next(c)
		}
	}
}
