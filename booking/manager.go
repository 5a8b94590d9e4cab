package booking

import (
	"context"
	"errors"
	"fmt"
	"time"
	"tourbook/entities"

	"github.com/google/uuid"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	ErrEventNotPriced  = errors.New("event has no price")
)

type Repository interface {
	Create(ctx context.Context, booking entities.Booking) (entities.BookingCreateResponse, error)
	GetByID(ctx context.Context, bookingID uuid.UUID) (entities.Booking, error)
	Cancel(ctx context.Context, bookingID uuid.UUID) error
	ConfirmWithTickets(ctx context.Context, bookingID uuid.UUID, paymentID uuid.UUID, tokens []string) (entities.Booking, []entities.Ticket, error)
}

type EventRepository interface {
	GetByID(ctx context.Context, eventID uuid.UUID) (entities.TourEvent, error)
}

type TicketRepository interface {
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]entities.Ticket, error)
}

type TokenSource interface {
	NewToken() string
}

// Manager owns the booking state machine: pending on creation, confirmed only
// through a verified payment, cancelled by user action.
type Manager struct {
	bookings Repository
	events   EventRepository
	tickets  TicketRepository
	tokens   TokenSource
}

func NewManager(bookings Repository, events EventRepository, tickets TicketRepository, tokens TokenSource) Manager {
	if bookings == nil {
		panic("bookings repository is required")
	}
	if events == nil {
		panic("events repository is required")
	}
	if tokens == nil {
		panic("token source is required")
	}
	return Manager{
		bookings: bookings,
		events:   events,
		tickets:  tickets,
		tokens:   tokens,
	}
}

func (m Manager) Create(ctx context.Context, userID uuid.UUID, eventID uuid.UUID, quantity int) (entities.Booking, error) {
	if quantity < 1 {
		return entities.Booking{}, ErrInvalidQuantity
	}

	event, err := m.events.GetByID(ctx, eventID)
	if err != nil {
		return entities.Booking{}, fmt.Errorf("could not load event: %w", err)
	}
	if event.Price <= 0 {
		return entities.Booking{}, ErrEventNotPriced
	}

	subTotal := event.Price * int64(quantity)
	var tax, fees int64

	now := time.Now().UTC()
	booking := entities.Booking{
		BookingID: uuid.New(),
		UserID:    userID,
		EventID:   eventID,
		Quantity:  quantity,
		SubTotal:  subTotal,
		Tax:       tax,
		Fees:      fees,
		Total:     subTotal + tax + fees,
		Currency:  event.Currency,
		Status:    entities.BookingStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := m.bookings.Create(ctx, booking); err != nil {
		return entities.Booking{}, err
	}

	return booking, nil
}

func (m Manager) Cancel(ctx context.Context, bookingID uuid.UUID) error {
	return m.bookings.Cancel(ctx, bookingID)
}

// Confirm is invoked by the payment reconciler once a payment reaches SUCCESS.
// It is idempotent: a booking that is already confirmed is returned unchanged
// together with its tickets, without any further mutation.
func (m Manager) Confirm(ctx context.Context, bookingID uuid.UUID, paymentID uuid.UUID) (entities.Booking, []entities.Ticket, error) {
	booking, err := m.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return entities.Booking{}, nil, err
	}

	if booking.Status == entities.BookingStatusConfirmed {
		tickets, err := m.tickets.ListByBooking(ctx, bookingID)
		if err != nil {
			return entities.Booking{}, nil, err
		}
		return booking, tickets, nil
	}
	if booking.Status == entities.BookingStatusCancelled {
		return entities.Booking{}, nil, fmt.Errorf("cannot confirm cancelled booking %s", bookingID)
	}

	tokens := make([]string, 0, booking.Quantity)
	for i := 0; i < booking.Quantity; i++ {
		tokens = append(tokens, m.tokens.NewToken())
	}

	// minting is a per-ticket operation, so the transaction deadline scales
	// with quantity
	ctx, cancel := context.WithTimeout(ctx, confirmTimeout(booking.Quantity))
	defer cancel()

	return m.bookings.ConfirmWithTickets(ctx, bookingID, paymentID, tokens)
}

func confirmTimeout(quantity int) time.Duration {
	return 5*time.Second + time.Duration(quantity)*500*time.Millisecond
}
