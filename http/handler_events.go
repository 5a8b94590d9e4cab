package http

import (
	"errors"
	"net/http"
	"tourbook/db"
	"tourbook/entities"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func (h *Handler) PostEvents(c echo.Context) error {
	var event entities.TourEvent
	if err := c.Bind(&event); err != nil {
		return err
	}

	if event.Capacity < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "capacity must be greater than 0")
	}
	if event.Price <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "price must be greater than 0")
	}

	event.EventID = uuid.New()

	resp, err := h.eventRepo.Create(c.Request().Context(), event)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, resp)
}

func (h *Handler) GetEventByID(c echo.Context) error {
	eventID, err := uuid.Parse(c.Param("event_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid event id")
	}

	event, err := h.eventRepo.GetByID(c.Request().Context(), eventID)
	if errors.Is(err, db.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "event not found")
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, event)
}
