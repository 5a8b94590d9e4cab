package http

import (
	"context"
	"tourbook/entities"
	"tourbook/payment"

	"github.com/google/uuid"
)

type Handler struct {
	bookingManager  BookingManager
	reconciler      PaymentReconciler
	issuer          TicketIssuer
	ticketRepo      TicketRepository
	bookingRepo     BookingRepository
	eventRepo       TourEventRepository
	userRepo        UserRepository
	opsBookingRepo  OpsBookingRepository
	signatureHeader string
}

type BookingManager interface {
	Create(ctx context.Context, userID uuid.UUID, eventID uuid.UUID, quantity int) (entities.Booking, error)
	Cancel(ctx context.Context, bookingID uuid.UUID) error
}

type PaymentReconciler interface {
	Initialize(ctx context.Context, bookingID uuid.UUID, returnURL string) (entities.Payment, error)
	ResolveSignal(ctx context.Context, source payment.Source, rawPayload []byte, signature string) (payment.Resolution, error)
	Verify(ctx context.Context, reference string) (payment.Resolution, error)
}

type TicketIssuer interface {
	ValidateAndRedeem(ctx context.Context, token string) (entities.Ticket, error)
}

type TicketRepository interface {
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]entities.Ticket, error)
}

type BookingRepository interface {
	GetByID(ctx context.Context, bookingID uuid.UUID) (entities.Booking, error)
}

type TourEventRepository interface {
	Create(ctx context.Context, event entities.TourEvent) (entities.TourEventCreateResponse, error)
	GetByID(ctx context.Context, eventID uuid.UUID) (entities.TourEvent, error)
}

type UserRepository interface {
	Create(ctx context.Context, user entities.User) error
}

type OpsBookingRepository interface {
	GetAll(ctx context.Context) ([]entities.OpsBooking, error)
	GetByID(ctx context.Context, bookingID string) (entities.OpsBooking, error)
}
