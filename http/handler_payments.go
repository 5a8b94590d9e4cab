package http

import (
	"errors"
	"io"
	"net/http"
	"tourbook/db"
	"tourbook/payment"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type initializePaymentRequest struct {
	ReturnURL string `json:"return_url"`
}

type initializePaymentResponse struct {
	PaymentID   uuid.UUID `json:"payment_id"`
	Reference   string    `json:"reference"`
	CheckoutURL string    `json:"checkout_url,omitempty"`
	Status      string    `json:"status"`
}

func (h *Handler) PostBookingPayment(c echo.Context) error {
	bookingID, err := uuid.Parse(c.Param("booking_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking id")
	}

	var req initializePaymentRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	paymentEntity, err := h.reconciler.Initialize(c.Request().Context(), bookingID, req.ReturnURL)
	switch {
	case errors.Is(err, db.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "booking not found")
	case errors.Is(err, payment.ErrNotPayable):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case err != nil:
		// gateway failures are retryable for the caller
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	resp := initializePaymentResponse{
		PaymentID: paymentEntity.PaymentID,
		Reference: paymentEntity.Metadata.Reference,
		Status:    string(paymentEntity.Status),
	}
	if paymentEntity.CheckoutURL != nil {
		resp.CheckoutURL = *paymentEntity.CheckoutURL
	}

	return c.JSON(http.StatusOK, resp)
}

// PostPaymentsWebhook receives provider callbacks. Only a bad signature or a
// malformed body earn a non-200: everything else is acknowledged so the
// provider stops retrying, with internal failures logged for replay.
func (h *Handler) PostPaymentsWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not read body")
	}
	signature := c.Request().Header.Get(h.signatureHeader)

	resolution, err := h.reconciler.ResolveSignal(c.Request().Context(), payment.SourceWebhook, body, signature)
	switch {
	case errors.Is(err, payment.ErrBadSignature):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid signature")
	case errors.Is(err, payment.ErrMalformedSignal):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case err != nil:
		log.FromContext(c.Request().Context()).
			WithError(err).
			Error("Webhook resolution failed, acknowledging anyway")
		return c.JSON(http.StatusOK, map[string]string{"status": "received"})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": string(resolution.Outcome)})
}

type verifyPaymentResponse struct {
	Outcome   string    `json:"outcome"`
	Status    string    `json:"status,omitempty"`
	PaymentID uuid.UUID `json:"payment_id,omitempty"`
	BookingID uuid.UUID `json:"booking_id,omitempty"`
}

func (h *Handler) PostPaymentVerify(c echo.Context) error {
	reference := c.Param("reference")
	if reference == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing reference")
	}

	resolution, err := h.reconciler.Verify(c.Request().Context(), reference)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	if resolution.Outcome == payment.OutcomeNotFound {
		return echo.NewHTTPError(http.StatusNotFound, "no payment for reference")
	}

	return c.JSON(http.StatusOK, verifyPaymentResponse{
		Outcome:   string(resolution.Outcome),
		Status:    string(resolution.Status),
		PaymentID: resolution.PaymentID,
		BookingID: resolution.BookingID,
	})
}
