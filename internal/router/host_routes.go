package router

// This file registers host-specific routes.  Hosts run the front desk side
// of the lifecycle for bookings on properties they own; the service checks
// ownership per booking.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hospitality-reservation/internal/handler"
	"github.com/iliyamo/hospitality-reservation/internal/model"
)

// RegisterHost registers HOST-scoped endpoints under /v1/host.
func RegisterHost(e *echo.Echo, b *handler.BookingHandler, auth Auth) {
	g := auth.group(e, "/v1/host", model.RoleHost)

	g.POST("/bookings/:id/check-in", b.CheckIn)
	g.POST("/bookings/:id/check-out", b.CheckOut)
	// Host cancellation skips the payment and notice rules.
	g.POST("/bookings/:id/cancel", b.Cancel)
}
