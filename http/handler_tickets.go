package http

import (
	"errors"
	"net/http"
	"tourbook/ticket"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type validateTicketRequest struct {
	Token string `json:"token"`
}

func (h *Handler) PostTicketsValidate(c echo.Context) error {
	var req validateTicketRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.Token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing token")
	}

	redeemed, err := h.issuer.ValidateAndRedeem(c.Request().Context(), req.Token)
	switch {
	case errors.Is(err, ticket.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "ticket not found")
	case errors.Is(err, ticket.ErrAlreadyUsed):
		return echo.NewHTTPError(http.StatusConflict, "ticket already used")
	case err != nil:
		return err
	}

	return c.JSON(http.StatusOK, redeemed)
}

func (h *Handler) GetTickets(c echo.Context) error {
	bookingID, err := uuid.Parse(c.QueryParam("booking_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking_id")
	}

	tickets, err := h.ticketRepo.ListByBooking(c.Request().Context(), bookingID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tickets)
}
