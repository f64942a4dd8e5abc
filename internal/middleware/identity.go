package middleware

// identity.go holds the accessors for the caller identity JWTAuth stores in
// the Echo context.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hospitality-reservation/internal/model"
)

// ActorFrom returns the authenticated actor, if any.
func ActorFrom(c echo.Context) (model.Actor, bool) {
	a, ok := c.Get(ctxActor).(model.Actor)
	return a, ok
}

// userID returns the authenticated subject or "anon" for unauthenticated
// requests.  It keys rate-limit buckets.
func userID(c echo.Context) string {
	if s, ok := c.Get(ctxUserID).(string); ok && s != "" {
		return s
	}
	return "anon"
}
