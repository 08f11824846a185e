package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const uidContextKey = "auth.uid"

// TokenVerifier checks a bearer token with the auth provider and returns the
// stable user id behind it (anonymous identities included).
type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (uid string, err error)
}

// RequireUser rejects requests without a verifiable bearer token and stores
// the uid on the echo context for handlers.
func RequireUser(v TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Request().Header.Get(echo.HeaderAuthorization)
			token := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
			if h == "" || token == "" || token == h {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
			}
			uid, err := v.Verify(c.Request().Context(), token)
			if err != nil || uid == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			}
			c.Set(uidContextKey, uid)
			return next(c)
		}
	}
}

// UID returns the authenticated user id set by RequireUser, or "".
func UID(c echo.Context) string {
	uid, _ := c.Get(uidContextKey).(string)
	return uid
}
