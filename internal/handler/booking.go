package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/hospitality-reservation/internal/booking"
	"github.com/iliyamo/hospitality-reservation/internal/model"
)

// BookingHandler exposes the booking lifecycle to customers and hosts.  All
// methods assume JWTAuth and RequireRole already ran.
type BookingHandler struct {
	Bookings *booking.Service
	Log      *zap.Logger
}

// NewBookingHandler constructs a BookingHandler and panics on a nil service.
func NewBookingHandler(svc *booking.Service, log *zap.Logger) *BookingHandler {
	if svc == nil {
		panic("nil booking service passed to NewBookingHandler")
	}
	return &BookingHandler{Bookings: svc, Log: log}
}

type createBookingRequest struct {
	RoomTypeID      string `json:"room_type_id" validate:"required,uuid"`
	CheckIn         string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut        string `json:"check_out" validate:"required,datetime=2006-01-02"`
	Adults          int    `json:"adults" validate:"gte=0"`
	Children        int    `json:"children" validate:"gte=0"`
	Rooms           int    `json:"rooms" validate:"omitempty,gte=1"`
	GuestName       string `json:"guest_name" validate:"required,max=255"`
	GuestEmail      string `json:"guest_email" validate:"required,email"`
	GuestPhone      string `json:"guest_phone" validate:"omitempty,max=32"`
	SpecialRequests string `json:"special_requests" validate:"omitempty,max=2000"`
}

type cancelRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// Create handles POST /v1/bookings.  rooms defaults to 1.  It returns 201
// with the pending booking.
func (h *BookingHandler) Create(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	var body createBookingRequest
	if err := bindValid(c, &body); err != nil {
		return respondError(c, h.Log, err)
	}
	checkIn, err := dateValue("check_in", body.CheckIn)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	checkOut, err := dateValue("check_out", body.CheckOut)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if body.Rooms == 0 {
		body.Rooms = 1
	}

	b, err := h.Bookings.Create(c.Request().Context(), actor, booking.CreateRequest{
		RoomTypeID:      uuid.MustParse(body.RoomTypeID),
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		Adults:          body.Adults,
		Children:        body.Children,
		Rooms:           body.Rooms,
		GuestName:       body.GuestName,
		GuestEmail:      body.GuestEmail,
		GuestPhone:      body.GuestPhone,
		SpecialRequests: body.SpecialRequests,
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// ListMine handles GET /v1/my-bookings.
func (h *BookingHandler) ListMine(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	items, err := h.Bookings.ListForCustomer(c.Request().Context(), actor)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/bookings/:id for the booking's customer or host.
func (h *BookingHandler) Get(c echo.Context) error {
	return h.transition(c, h.Bookings.Get)
}

// Confirm handles POST /v1/bookings/:id/confirm.
func (h *BookingHandler) Confirm(c echo.Context) error {
	return h.transition(c, h.Bookings.Confirm)
}

// CheckIn handles POST /v1/host/bookings/:id/check-in.
func (h *BookingHandler) CheckIn(c echo.Context) error {
	return h.transition(c, h.Bookings.CheckIn)
}

// CheckOut handles POST /v1/host/bookings/:id/check-out.
func (h *BookingHandler) CheckOut(c echo.Context) error {
	return h.transition(c, h.Bookings.CheckOut)
}

// Cancel handles POST /v1/bookings/:id/cancel and its host twin.  The body
// is optional and may carry a reason.
func (h *BookingHandler) Cancel(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	var body cancelRequest
	if err := bindValid(c, &body); err != nil {
		return respondError(c, h.Log, err)
	}
	res, err := h.Bookings.Cancel(c.Request().Context(), actor, id, body.Reason)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, res)
}

type bookingOp func(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Booking, error)

// transition runs a single-booking operation addressed by the :id parameter.
func (h *BookingHandler) transition(c echo.Context, op bookingOp) error {
	actor, err := actorOf(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	b, err := op(c.Request().Context(), actor, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}
