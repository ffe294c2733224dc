package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/juliovp13-web/SafeZone/internal/utils" // token parsing helpers
)

// JWTAuth returns an Echo middleware that validates a Bearer access
// token and injects the token's subject and admin claims into the
// request context. The provided secret must match the one used when
// issuing tokens. This middleware wraps every route except
// login/register so that handlers can access the authenticated user via
// `c.Get("user_id")` and `c.Get("is_admin")`.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// A valid header starts with "Bearer " followed by the JWT.
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			// Store the subject (user uuid) and admin flag in the
			// context for handlers and downstream middleware.
			c.Set("user_id", claims.UserID)
			c.Set("is_admin", claims.IsAdmin)
			return next(c)
		}
	}
}

// UserID extracts the authenticated user's uuid from the Echo context.
// It returns an empty string when JWTAuth did not run.
func UserID(c echo.Context) string {
	v, _ := c.Get("user_id").(string)
	return v
}
