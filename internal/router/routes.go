package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/venue-calendar/internal/handler"
	"github.com/iliyamo/venue-calendar/internal/middleware"
	"github.com/iliyamo/venue-calendar/internal/model"
	"github.com/iliyamo/venue-calendar/internal/validation"
)

// Deps are the handlers and shared middleware the routes are built from.
// RateLimit and Cache may be nil.
type Deps struct {
	JWTSecret    string
	Auth         *handler.AuthHandler
	Availability *handler.AvailabilityHandler
	Health       echo.HandlerFunc
	RateLimit    echo.MiddlewareFunc
	Cache        *middleware.ResponseCache
}

// New returns an Echo instance with the common middleware installed and
// every route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.EchoValidator{}
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.LoggerWithConfig(echomw.LoggerConfig{
		Format: `${time_rfc3339} ${id} ${method} ${uri} ${status} ${latency_human}` + "\n",
	}))
	e.Use(echomw.Recover())

	RegisterRoutes(e, d.Health)
	RegisterAuth(e, d.Auth, d.JWTSecret, d.RateLimit)
	RegisterAvailability(e, d.Availability, d.JWTSecret, d.RateLimit, d.Cache)
	return e
}

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo, health echo.HandlerFunc) {
	if health == nil {
		health = handler.Health(nil)
	}
	e.GET("/healthz", health)
}

// RegisterAuth registers the session endpoints under /api/auth and the
// protected /api/me. Register, login and the refresh calls are rate limited.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, rl echo.MiddlewareFunc) {
	g := e.Group("/api/auth", optional(rl)...)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// rotates the refresh token
	g.POST("/refresh", a.Refresh)
	// new access token only; the API client uses this on 401
	g.POST("/refresh-access", a.RefreshAccess)
	// accepts either a refresh_token body or a bearer token, so no JWTAuth here
	g.POST("/logout", a.Logout)

	e.GET("/api/me", a.Me,
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleStaff, model.RoleClient))
}

// RegisterAvailability registers the calendar endpoints. Every role can
// read; only ADMIN and STAFF can write. Reads go through the response cache,
// which the write handlers invalidate per venue.
func RegisterAvailability(e *echo.Echo, h *handler.AvailabilityHandler, jwtSecret string, rl echo.MiddlewareFunc, cache *middleware.ResponseCache) {
	g := e.Group("/api", middleware.JWTAuth(jwtSecret))
	if rl != nil {
		// after JWTAuth so buckets can be keyed per user
		g.Use(rl)
	}

	read := middleware.RequireRole(model.RoleAdmin, model.RoleStaff, model.RoleClient)
	write := middleware.RequireRole(model.RoleAdmin, model.RoleStaff)
	cached := cache.Middleware()

	g.GET("/venue-availability", h.List, read, cached)
	g.GET("/venues/:id/calendar", h.Month, read, cached)
	g.POST("/venue-availability", h.Set, write)
	g.POST("/venue-availability/bulk", h.SetBulk, write)
}

func optional(mw echo.MiddlewareFunc) []echo.MiddlewareFunc {
	if mw == nil {
		return nil
	}
	return []echo.MiddlewareFunc{mw}
}
