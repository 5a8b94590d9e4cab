package http

import (
	"errors"
	"net/http"
	"tourbook/booking"
	"tourbook/db"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type createBookingRequest struct {
	UserID   uuid.UUID `json:"user_id"`
	EventID  uuid.UUID `json:"event_id"`
	Quantity int       `json:"quantity"`
}

func (h *Handler) PostBookings(c echo.Context) error {
	var req createBookingRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	bookingEntity, err := h.bookingManager.Create(c.Request().Context(), req.UserID, req.EventID, req.Quantity)
	switch {
	case errors.Is(err, booking.ErrInvalidQuantity), errors.Is(err, booking.ErrEventNotPriced):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, db.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "event not found")
	case err != nil:
		return err
	}

	return c.JSON(http.StatusCreated, bookingEntity)
}

func (h *Handler) GetBookingByID(c echo.Context) error {
	bookingID, err := uuid.Parse(c.Param("booking_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking id")
	}

	bookingEntity, err := h.bookingRepo.GetByID(c.Request().Context(), bookingID)
	if errors.Is(err, db.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "booking not found")
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, bookingEntity)
}

func (h *Handler) PostBookingCancel(c echo.Context) error {
	bookingID, err := uuid.Parse(c.Param("booking_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking id")
	}

	err = h.bookingManager.Cancel(c.Request().Context(), bookingID)
	if errors.Is(err, db.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "booking not found")
	}
	if err != nil {
		return err
	}

	return c.NoContent(http.StatusOK)
}
