package booking

import (
	"context"
	"fmt"
	"testing"
	"tourbook/db"
	"tourbook/entities"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bookingStoreFake struct {
	bookings map[uuid.UUID]entities.Booking
	tickets  map[uuid.UUID][]entities.Ticket
}

func newBookingStoreFake() *bookingStoreFake {
	return &bookingStoreFake{
		bookings: map[uuid.UUID]entities.Booking{},
		tickets:  map[uuid.UUID][]entities.Ticket{},
	}
}

func (f *bookingStoreFake) Create(ctx context.Context, booking entities.Booking) (entities.BookingCreateResponse, error) {
	f.bookings[booking.BookingID] = booking
	return entities.BookingCreateResponse{BookingID: booking.BookingID}, nil
}

func (f *bookingStoreFake) GetByID(ctx context.Context, bookingID uuid.UUID) (entities.Booking, error) {
	booking, ok := f.bookings[bookingID]
	if !ok {
		return entities.Booking{}, db.ErrNotFound
	}
	return booking, nil
}

func (f *bookingStoreFake) Cancel(ctx context.Context, bookingID uuid.UUID) error {
	booking, ok := f.bookings[bookingID]
	if !ok {
		return db.ErrNotFound
	}
	booking.Status = entities.BookingStatusCancelled
	f.bookings[bookingID] = booking
	return nil
}

func (f *bookingStoreFake) ConfirmWithTickets(ctx context.Context, bookingID uuid.UUID, paymentID uuid.UUID, tokens []string) (entities.Booking, []entities.Ticket, error) {
	booking, ok := f.bookings[bookingID]
	if !ok {
		return entities.Booking{}, nil, db.ErrNotFound
	}
	if booking.Status != entities.BookingStatusPending {
		return entities.Booking{}, nil, fmt.Errorf("booking %s is %s", bookingID, booking.Status)
	}

	booking.Status = entities.BookingStatusConfirmed
	booking.TransactionID = &paymentID
	f.bookings[bookingID] = booking

	tickets := make([]entities.Ticket, 0, len(tokens))
	for _, token := range tokens {
		tickets = append(tickets, entities.Ticket{
			TicketID:  uuid.New(),
			BookingID: bookingID,
			EventID:   booking.EventID,
			UserID:    booking.UserID,
			Status:    entities.TicketStatusConfirmed,
			QRToken:   token,
		})
	}
	f.tickets[bookingID] = tickets

	return booking, tickets, nil
}

func (f *bookingStoreFake) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]entities.Ticket, error) {
	return f.tickets[bookingID], nil
}

type eventStoreFake struct {
	events map[uuid.UUID]entities.TourEvent
}

func (f eventStoreFake) GetByID(ctx context.Context, eventID uuid.UUID) (entities.TourEvent, error) {
	event, ok := f.events[eventID]
	if !ok {
		return entities.TourEvent{}, db.ErrNotFound
	}
	return event, nil
}

type tokenSourceFake struct {
	next int
}

func (f *tokenSourceFake) NewToken() string {
	f.next++
	return fmt.Sprintf("token-%d", f.next)
}

func newManagerFixture(price int64) (Manager, *bookingStoreFake, uuid.UUID) {
	store := newBookingStoreFake()
	eventID := uuid.New()
	events := eventStoreFake{events: map[uuid.UUID]entities.TourEvent{
		eventID: {EventID: eventID, Title: "City walking tour", Price: price, Currency: "USD", Capacity: 20},
	}}

	return NewManager(store, events, store, &tokenSourceFake{}), store, eventID
}

func TestCreate_ComputesTotals(t *testing.T) {
	manager, store, eventID := newManagerFixture(10000)

	booking, err := manager.Create(context.Background(), uuid.New(), eventID, 2)
	require.NoError(t, err)

	assert.Equal(t, entities.BookingStatusPending, booking.Status)
	assert.Equal(t, int64(20000), booking.SubTotal)
	assert.Equal(t, int64(0), booking.Tax)
	assert.Equal(t, int64(0), booking.Fees)
	assert.Equal(t, int64(20000), booking.Total)
	assert.Equal(t, "USD", booking.Currency)

	stored, err := store.GetByID(context.Background(), booking.BookingID)
	require.NoError(t, err)
	assert.Equal(t, booking.Total, stored.Total)
}

func TestCreate_Validation(t *testing.T) {
	manager, _, eventID := newManagerFixture(10000)

	_, err := manager.Create(context.Background(), uuid.New(), eventID, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = manager.Create(context.Background(), uuid.New(), uuid.New(), 1)
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestCreate_UnpricedEvent(t *testing.T) {
	manager, _, eventID := newManagerFixture(0)

	_, err := manager.Create(context.Background(), uuid.New(), eventID, 1)
	assert.ErrorIs(t, err, ErrEventNotPriced)
}

func TestConfirm_MintsOneTicketPerSeat(t *testing.T) {
	manager, _, eventID := newManagerFixture(10000)

	booking, err := manager.Create(context.Background(), uuid.New(), eventID, 3)
	require.NoError(t, err)

	paymentID := uuid.New()
	confirmed, tickets, err := manager.Confirm(context.Background(), booking.BookingID, paymentID)
	require.NoError(t, err)

	assert.Equal(t, entities.BookingStatusConfirmed, confirmed.Status)
	require.Len(t, tickets, 3)

	tokens := map[string]bool{}
	for _, ticket := range tickets {
		assert.Equal(t, entities.TicketStatusConfirmed, ticket.Status)
		tokens[ticket.QRToken] = true
	}
	assert.Len(t, tokens, 3, "tokens must be unique")
}

func TestConfirm_Idempotent(t *testing.T) {
	manager, _, eventID := newManagerFixture(10000)

	booking, err := manager.Create(context.Background(), uuid.New(), eventID, 2)
	require.NoError(t, err)

	paymentID := uuid.New()
	_, first, err := manager.Confirm(context.Background(), booking.BookingID, paymentID)
	require.NoError(t, err)

	confirmed, second, err := manager.Confirm(context.Background(), booking.BookingID, paymentID)
	require.NoError(t, err)

	assert.Equal(t, entities.BookingStatusConfirmed, confirmed.Status)
	assert.Equal(t, first, second, "a second confirmation returns the same tickets")
}

func TestConfirm_CancelledBooking(t *testing.T) {
	manager, _, eventID := newManagerFixture(10000)

	booking, err := manager.Create(context.Background(), uuid.New(), eventID, 1)
	require.NoError(t, err)
	require.NoError(t, manager.Cancel(context.Background(), booking.BookingID))

	_, _, err = manager.Confirm(context.Background(), booking.BookingID, uuid.New())
	assert.Error(t, err)
}
