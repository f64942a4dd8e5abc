package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/hospitality-reservation/internal/apperr"
	"github.com/iliyamo/hospitality-reservation/internal/availability"
	"github.com/iliyamo/hospitality-reservation/internal/booking"
)

// PublicHandler serves the unauthenticated browse endpoints: price quotes
// and availability for a room type.
type PublicHandler struct {
	Bookings *booking.Service
	Log      *zap.Logger
}

// NewPublicHandler constructs a PublicHandler and panics on a nil service.
func NewPublicHandler(svc *booking.Service, log *zap.Logger) *PublicHandler {
	if svc == nil {
		panic("nil booking service passed to NewPublicHandler")
	}
	return &PublicHandler{Bookings: svc, Log: log}
}

// Quote handles GET /v1/room-types/:id/quote?check_in&check_out&rooms.
func (h *PublicHandler) Quote(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	checkIn, checkOut, err := stayQuery(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	rooms, err := intQuery(c, "rooms", 1)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	q, err := h.Bookings.Quote(c.Request().Context(), id, checkIn, checkOut, rooms)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, q)
}

// Availability handles GET
// /v1/room-types/:id/availability?check_in&check_out&rooms&adults&children.
// Rule failures are listed in the body's reasons; the status is 200 either
// way.
func (h *PublicHandler) Availability(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	checkIn, checkOut, err := stayQuery(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	req := availability.Request{RoomTypeID: id, CheckIn: checkIn, CheckOut: checkOut}
	if req.Rooms, err = intQuery(c, "rooms", 1); err != nil {
		return respondError(c, h.Log, err)
	}
	if req.Adults, err = intQuery(c, "adults", 1); err != nil {
		return respondError(c, h.Log, err)
	}
	if req.Children, err = intQuery(c, "children", 0); err != nil {
		return respondError(c, h.Log, err)
	}
	res, err := h.Bookings.Availability(c.Request().Context(), req)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, res)
}

func stayQuery(c echo.Context) (checkIn, checkOut time.Time, err error) {
	if checkIn, err = dateValue("check_in", c.QueryParam("check_in")); err != nil {
		return
	}
	checkOut, err = dateValue("check_out", c.QueryParam("check_out"))
	return
}

// intQuery reads an integer query parameter, returning def when absent.
func intQuery(c echo.Context, name string, def int) (int, error) {
	s := c.QueryParam(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperr.Validation("request", "%s must be an integer", name)
	}
	return n, nil
}
