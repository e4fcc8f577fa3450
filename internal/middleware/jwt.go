package middleware // reusable HTTP middleware shared by the services

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/aminjonov/taskhub/internal/auth"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the caller's identity into the request context. Verification
// short-circuits with 401 before any handler or database work happens.
// Handlers read the identity back through UserID and Username.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			id, err := auth.VerifyAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			c.Set("user_id", id.UserID)
			c.Set("username", id.Username)
			return next(c)
		}
	}
}

// UserID returns the authenticated user's id stored by JWTAuth, or zero
// when the route is not protected.
func UserID(c echo.Context) uint64 {
	v, _ := c.Get("user_id").(uint64)
	return v
}

// Username returns the authenticated username stored by JWTAuth.
func Username(c echo.Context) string {
	v, _ := c.Get("username").(string)
	return v
}
