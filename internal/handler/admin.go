package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/hospitality-reservation/internal/booking"
)

// AdminHandler carries the operator overrides.  Routes are mounted behind
// RequireRole(ADMIN); the service checks the role again.
type AdminHandler struct {
	Bookings *booking.Service
	Log      *zap.Logger
}

// NewAdminHandler constructs an AdminHandler and panics on a nil service.
func NewAdminHandler(svc *booking.Service, log *zap.Logger) *AdminHandler {
	if svc == nil {
		panic("nil booking service passed to NewAdminHandler")
	}
	return &AdminHandler{Bookings: svc, Log: log}
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

type paymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required"`
}

// SetStatus handles PATCH /v1/admin/bookings/:id/status.
func (h *AdminHandler) SetStatus(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	var body statusRequest
	if err := bindValid(c, &body); err != nil {
		return respondError(c, h.Log, err)
	}
	b, err := h.Bookings.SetStatus(c.Request().Context(), actor, id, body.Status)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

// SetPaymentStatus handles PATCH /v1/admin/bookings/:id/payment-status.
func (h *AdminHandler) SetPaymentStatus(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	var body paymentStatusRequest
	if err := bindValid(c, &body); err != nil {
		return respondError(c, h.Log, err)
	}
	b, err := h.Bookings.SetPaymentStatus(c.Request().Context(), actor, id, body.PaymentStatus)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}
