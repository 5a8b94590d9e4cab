package http

import (
	"net/http"
	"tourbook/entities"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func (h *Handler) PostUsers(c echo.Context) error {
	var user entities.User
	if err := c.Bind(&user); err != nil {
		return err
	}
	if user.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}

	if user.UserID == uuid.Nil {
		user.UserID = uuid.New()
	}

	if err := h.userRepo.Create(c.Request().Context(), user); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, user)
}
