package http

import (
	"net/http"

	libHttp "github.com/ThreeDotsLabs/go-event-driven/common/http"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
)

func NewHttpRouter(
	bookingManager BookingManager,
	reconciler PaymentReconciler,
	issuer TicketIssuer,
	ticketRepo TicketRepository,
	bookingRepo BookingRepository,
	eventRepo TourEventRepository,
	userRepo UserRepository,
	opsBookingRepo OpsBookingRepository,
	signatureHeader string,
) *echo.Echo {
	e := libHttp.NewEcho()
	e.Use(otelecho.Middleware("bookings"))

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	handler := Handler{
		bookingManager:  bookingManager,
		reconciler:      reconciler,
		issuer:          issuer,
		ticketRepo:      ticketRepo,
		bookingRepo:     bookingRepo,
		eventRepo:       eventRepo,
		userRepo:        userRepo,
		opsBookingRepo:  opsBookingRepo,
		signatureHeader: signatureHeader,
	}

	e.POST("/users", handler.PostUsers)
	e.POST("/events", handler.PostEvents)
	e.GET("/events/:event_id", handler.GetEventByID)

	e.POST("/bookings", handler.PostBookings)
	e.GET("/bookings/:booking_id", handler.GetBookingByID)
	e.POST("/bookings/:booking_id/cancel", handler.PostBookingCancel)
	e.POST("/bookings/:booking_id/payment", handler.PostBookingPayment)

	e.POST("/payments/webhook", handler.PostPaymentsWebhook)
	e.POST("/payments/:reference/verify", handler.PostPaymentVerify)

	e.POST("/tickets/validate", handler.PostTicketsValidate)
	e.GET("/tickets", handler.GetTickets)

	e.GET("/ops/bookings", handler.GetOpsBookings)
	e.GET("/ops/bookings/:id", handler.GetOpsBookingByID)

	return e
}
