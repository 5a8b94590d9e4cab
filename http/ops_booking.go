package http

import (
	"errors"
	"fmt"
	"net/http"
	"tourbook/db"

	"github.com/labstack/echo/v4"
)

func (h *Handler) GetOpsBookings(c echo.Context) error {
	resp, err := h.opsBookingRepo.GetAll(c.Request().Context())
	if err != nil {
		return fmt.Errorf("failed getting ops bookings: %w", err)
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetOpsBookingByID(c echo.Context) error {
	bookingID := c.Param("id")

	resp, err := h.opsBookingRepo.GetByID(c.Request().Context(), bookingID)
	if errors.Is(err, db.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "booking not found")
	}
	if err != nil {
		return fmt.Errorf("failed getting ops booking: %w", err)
	}

	return c.JSON(http.StatusOK, resp)
}
