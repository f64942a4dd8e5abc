package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/hospitality-reservation/internal/coupon"
)

// CouponHandler lets customers validate, apply and remove coupons on their
// own bookings.
type CouponHandler struct {
	Coupons *coupon.Engine
	Log     *zap.Logger
}

// NewCouponHandler constructs a CouponHandler and panics on a nil engine.
func NewCouponHandler(engine *coupon.Engine, log *zap.Logger) *CouponHandler {
	if engine == nil {
		panic("nil coupon engine passed to NewCouponHandler")
	}
	return &CouponHandler{Coupons: engine, Log: log}
}

type applyCouponRequest struct {
	Code string `json:"code" validate:"required"`
}

type validateCouponRequest struct {
	Code      string `json:"code" validate:"required"`
	BookingID string `json:"booking_id" validate:"required,uuid"`
}

// Apply handles POST /v1/bookings/:id/coupon.
func (h *CouponHandler) Apply(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	var body applyCouponRequest
	if err := bindValid(c, &body); err != nil {
		return respondError(c, h.Log, err)
	}
	res, err := h.Coupons.Apply(c.Request().Context(), body.Code, actor.UserID, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Remove handles DELETE /v1/bookings/:id/coupon and returns the booking with
// its total restored.
func (h *CouponHandler) Remove(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	b, err := h.Coupons.Cancel(c.Request().Context(), id, actor.UserID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Validate handles POST /v1/coupons/validate.  A coupon that fails a rule
// still answers 200 with valid=false and the reason.
func (h *CouponHandler) Validate(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	var body validateCouponRequest
	if err := bindValid(c, &body); err != nil {
		return respondError(c, h.Log, err)
	}
	v, err := h.Coupons.Validate(c.Request().Context(), body.Code, actor.UserID, uuid.MustParse(body.BookingID))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, v)
}

// ListApplicable handles GET /v1/bookings/:id/coupons.
func (h *CouponHandler) ListApplicable(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	offers, err := h.Coupons.ListApplicable(c.Request().Context(), actor.UserID, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": offers})
}
