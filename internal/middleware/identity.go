package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// CurrentUserID returns the authenticated user id set by JWTAuth.
func CurrentUserID(c echo.Context) (uint64, bool) {
	uid, ok := c.Get(CtxUserID).(uint64)
	return uid, ok && uid != 0
}

// CurrentRole returns the authenticated role, or "".
func CurrentRole(c echo.Context) string {
	role, _ := c.Get(CtxRole).(string)
	return role
}

// callerKey identifies the caller for rate limiting: the user id when
// authenticated, "anon" otherwise.
func callerKey(c echo.Context) string {
	if uid, ok := CurrentUserID(c); ok {
		return strconv.FormatUint(uid, 10)
	}
	return "anon"
}
