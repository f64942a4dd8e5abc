package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hospitality-reservation/internal/handler"
	"github.com/iliyamo/hospitality-reservation/internal/model"
)

// RegisterCustomer registers customer-scoped endpoints under /v1.  All
// routes require a valid JWT and the CUSTOMER role.  Customers create,
// confirm and cancel their own bookings and manage coupons on them.
func RegisterCustomer(e *echo.Echo, b *handler.BookingHandler, cp *handler.CouponHandler, auth Auth) {
	g := auth.group(e, "/v1", model.RoleCustomer)

	g.POST("/bookings", b.Create)
	g.GET("/my-bookings", b.ListMine)
	g.POST("/bookings/:id/confirm", b.Confirm)
	g.POST("/bookings/:id/cancel", b.Cancel)

	// Coupons on a booking the customer owns.
	g.POST("/bookings/:id/coupon", cp.Apply)
	g.DELETE("/bookings/:id/coupon", cp.Remove)
	g.GET("/bookings/:id/coupons", cp.ListApplicable)
	g.POST("/coupons/validate", cp.Validate)
}

// RegisterBookingRead registers the booking detail endpoint shared by the
// booking's customer, the property host and admins.  Ownership is checked
// by the service.
func RegisterBookingRead(e *echo.Echo, b *handler.BookingHandler, auth Auth) {
	g := auth.group(e, "/v1", model.RoleCustomer, model.RoleHost, model.RoleAdmin)
	g.GET("/bookings/:id", b.Get)
}
