// Package middleware holds the echo middleware shared by the admin API:
// authentication, role checks, rate limiting and request logging.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing-admin/internal/utils"
)

// Context keys set by JWTAuth.
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

// JWTAuth validates a Bearer access token and stores the caller's user id
// (uint64) and role in the echo context.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearer(c.Request())
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			uid, _ := claims.UserID()
			c.Set(CtxUserID, uid)
			c.Set(CtxRole, claims.Role)
			return next(c)
		}
	}
}

// bearer extracts the token from an "Authorization: Bearer ..." header.
func bearer(r *http.Request) (string, bool) {
	auth := r.Header.Get(echo.HeaderAuthorization)
	raw, ok := strings.CutPrefix(auth, "Bearer ")
	raw = strings.TrimSpace(raw)
	return raw, ok && raw != ""
}

// OptionalUserID reads a valid bearer token without requiring one. Used
// by public endpoints that behave differently for a signed-in caller.
func OptionalUserID(c echo.Context, secret string) (uint64, bool) {
	raw, ok := bearer(c.Request())
	if !ok {
		return 0, false
	}
	claims, err := utils.ParseAccessToken(secret, raw)
	if err != nil {
		return 0, false
	}
	uid, err := claims.UserID()
	return uid, err == nil
}
