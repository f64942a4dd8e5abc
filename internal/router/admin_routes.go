package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hospitality-reservation/internal/handler"
	"github.com/iliyamo/hospitality-reservation/internal/model"
)

// RegisterAdmin registers the operator overrides under /v1/admin.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, auth Auth) {
	g := auth.group(e, "/v1/admin", model.RoleAdmin)

	g.PATCH("/bookings/:id/status", a.SetStatus)
	g.PATCH("/bookings/:id/payment-status", a.SetPaymentStatus)
}
