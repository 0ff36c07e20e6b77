package middleware

// identity.go reads back what JWTAuth stored in the echo context.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// UserID returns the authenticated user's id, or false for guests.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(ctxUserID).(uint64)
	return id, ok && id != 0
}

// Role returns the authenticated user's role, or "" for guests.
func Role(c echo.Context) string {
	r, _ := c.Get(ctxRole).(string)
	return r
}

// userKey identifies the caller in rate limit keys.
func userKey(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
