package handler // handler defines http handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/hospitality-reservation/internal/apperr"
	"github.com/iliyamo/hospitality-reservation/internal/middleware"
	"github.com/iliyamo/hospitality-reservation/internal/model"
)

// statusOf maps a domain failure kind to its HTTP status.
func statusOf(k apperr.Kind) int {
	switch k {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindPrecondition:
		return http.StatusUnprocessableEntity
	case apperr.KindAuthorization:
		return http.StatusForbidden
	case apperr.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError writes err as {"error", "code"}.  Domain failures carry their
// own message; anything else is logged and hidden behind a 500.
func respondError(c echo.Context, log *zap.Logger, err error) error {
	kind := apperr.KindOf(err)
	if kind == 0 {
		log.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("route", c.Path()),
			zap.Error(err),
		)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error", "code": "internal_error"})
	}
	return c.JSON(statusOf(kind), echo.Map{"error": apperr.MessageOf(err), "code": kind.String()})
}

// actorOf returns the caller set by the JWT middleware.
func actorOf(c echo.Context) (model.Actor, error) {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		return model.Actor{}, apperr.Authorization("request", "unauthorized")
	}
	return a, nil
}

// idParam parses a UUID path parameter.
func idParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperr.Validation("request", "invalid %s", name)
	}
	return id, nil
}

// dateValue parses a YYYY-MM-DD request value.
func dateValue(field, s string) (time.Time, error) {
	d, err := model.ParseDate(s)
	if err != nil {
		return time.Time{}, apperr.Validation("request", "%s must be a date (YYYY-MM-DD)", field)
	}
	return d, nil
}

// bindValid binds the request body into dst and runs the struct validator.
func bindValid(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return apperr.Validation("request", "invalid request body")
	}
	return c.Validate(dst)
}
