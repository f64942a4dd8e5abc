package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/hospitality-reservation/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/hospitality-reservation/internal/middleware" // import middleware for JWT authentication and role enforcement
	"github.com/iliyamo/hospitality-reservation/internal/model"
)

// Auth bundles the middleware shared by every authenticated group: the
// bearer token check and the per-caller rate limiter.
type Auth struct {
	JWTSecret string
	Limiter   echo.MiddlewareFunc
}

// group opens an authenticated /v1 group restricted to roles.  The limiter
// runs after JWTAuth so buckets can be keyed by the caller.
func (a Auth) group(e *echo.Echo, prefix string, roles ...model.Role) *echo.Group {
	m := []echo.MiddlewareFunc{middleware.JWTAuth(a.JWTSecret), middleware.RequireRole(roles...)}
	if a.Limiter != nil {
		m = append(m, a.Limiter)
	}
	return e.Group(prefix, m...)
}

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	// This endpoint can be used by load balancers or monitoring systems to
	// verify that the service and its database are up.
	e.GET("/healthz", h.Health)
}

// RegisterPublic registers the unauthenticated browse endpoints.  cache
// fronts the quote route and may be nil.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	var quoteMW []echo.MiddlewareFunc
	if cache != nil {
		quoteMW = append(quoteMW, cache)
	}
	// Price preview for a stay; identical queries are served from Redis.
	e.GET("/v1/room-types/:id/quote", p.Quote, quoteMW...)
	// Detailed availability with one reason per failed rule.
	e.GET("/v1/room-types/:id/availability", p.Availability)
}
