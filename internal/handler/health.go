package handler // declare the package name; contains HTTP handlers

import (
	"context"
	"database/sql"
	"net/http" // net/http provides status codes and response helpers
	"time"

	"github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// HealthHandler answers load balancer probes.  DB is nil when the service
// runs on the in-memory store.
type HealthHandler struct {
	DB *sql.DB
}

// Health returns "ok" with 200 when the service, and its database if any,
// is reachable.  A failed ping answers 503.
func (h *HealthHandler) Health(c echo.Context) error {
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.PingContext(ctx); err != nil {
			return c.String(http.StatusServiceUnavailable, "database unavailable")
		}
	}
	return c.String(http.StatusOK, "ok") // write "ok" with a 200 OK status; String writes plain text
}
