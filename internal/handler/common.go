package handler // handler defines the HTTP handlers of the venue calendar API

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-calendar/internal/validation"
)

// dbTimeout bounds the database work of one request.
const dbTimeout = 5 * time.Second

// errorJSON writes the {"error": msg} body every failing endpoint returns.
func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"error": msg})
}

// dataJSON wraps payload in the {"data": ...} envelope read endpoints use.
func dataJSON(c echo.Context, status int, payload any) error {
	return c.JSON(status, echo.Map{"data": payload})
}

// bindValid binds the request body into dst and validates it. It returns
// the message for a 400 response, or "" when dst is good.
func bindValid(c echo.Context, dst any) string {
	if err := c.Bind(dst); err != nil {
		return "invalid body"
	}
	if err := c.Validate(dst); err != nil {
		return validation.Message(err)
	}
	return ""
}

// parseVenueID parses a positive venue id.
func parseVenueID(raw string) (uint64, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	return id, err == nil && id > 0
}

func requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}
