package db

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"
	"tourbook/entities"
	"tourbook/message/outbox"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDb DB
var getDbOnce sync.Once

func getDb(t *testing.T) DB {
	t.Helper()
	if os.Getenv("POSTGRES_URL") == "" {
		t.Skip("POSTGRES_URL is required")
	}
	getDbOnce.Do(func() {
		var err error
		testDb, err = NewDBConn(os.Getenv("POSTGRES_URL"))
		if err != nil {
			panic(err)
		}
		testDb.MigrateSchema()
		// repositories publish through the transactional outbox; its table
		// has to exist before the first write
		outbox.SubscribeForPGMessages(testDb.Conn, watermill.NopLogger{})
	})
	return testDb
}

func seedPendingBooking(t *testing.T, db DB, quantity int) entities.Booking {
	t.Helper()
	ctx := context.Background()

	user := entities.User{
		UserID: uuid.New(),
		Email:  "pepe@gmail.com",
		Name:   "Pepe",
		Phone:  "+10000000001",
	}
	require.NoError(t, NewUserRepository(&db).Create(ctx, user))

	created, err := NewTourEventRepository(&db).Create(ctx, entities.TourEvent{
		Title:     "Harbour kayak tour",
		Venue:     "Pier 4",
		StartTime: time.Now().Add(72 * time.Hour),
		Price:     2500,
		Currency:  "USD",
		Capacity:  50,
	})
	require.NoError(t, err)

	booking := entities.Booking{
		BookingID: uuid.New(),
		UserID:    user.UserID,
		EventID:   created.EventID,
		Quantity:  quantity,
		SubTotal:  int64(quantity) * 2500,
		Total:     int64(quantity) * 2500,
		Currency:  "USD",
		Status:    entities.BookingStatusPending,
	}
	_, err = NewBookingRepository(&db).Create(ctx, booking)
	require.NoError(t, err)

	return booking
}

func TestConfirmWithTickets_TokenCollisionRollsBack(t *testing.T) {
	db := getDb(t)
	ctx := context.Background()
	bookingRepo := NewBookingRepository(&db)

	booking := seedPendingBooking(t, db, 2)

	// the second insert hits the qr_token unique constraint mid-transaction
	token := uuid.NewString()
	_, _, err := bookingRepo.ConfirmWithTickets(ctx, booking.BookingID, uuid.New(), []string{token, token})
	require.Error(t, err)

	after, err := bookingRepo.GetByID(ctx, booking.BookingID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusPending, after.Status, "failed confirmation leaves the booking pending")
	assert.Nil(t, after.TransactionID)

	tickets, err := NewTicketRepository(&db).ListByBooking(ctx, booking.BookingID)
	require.NoError(t, err)
	assert.Empty(t, tickets, "no tickets survive the rollback")

	event, err := NewTourEventRepository(&db).GetByID(ctx, booking.EventID)
	require.NoError(t, err)
	assert.Zero(t, event.BookingCount, "booking counter untouched by the rollback")
}

func TestConfirmWithTickets_SecondCallReturnsCommittedState(t *testing.T) {
	db := getDb(t)
	ctx := context.Background()
	bookingRepo := NewBookingRepository(&db)

	booking := seedPendingBooking(t, db, 2)
	paymentID := uuid.New()
	tokens := []string{uuid.NewString(), uuid.NewString()}

	_, minted, err := bookingRepo.ConfirmWithTickets(ctx, booking.BookingID, paymentID, tokens)
	require.NoError(t, err)
	require.Len(t, minted, 2)

	// replay with fresh tokens: no new tickets, the first result comes back
	again, tickets, err := bookingRepo.ConfirmWithTickets(ctx, booking.BookingID, paymentID, []string{uuid.NewString(), uuid.NewString()})
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusConfirmed, again.Status)
	require.Len(t, tickets, 2)
	assert.ElementsMatch(t,
		[]string{minted[0].QRToken, minted[1].QRToken},
		[]string{tickets[0].QRToken, tickets[1].QRToken},
	)

	event, err := NewTourEventRepository(&db).GetByID(ctx, booking.EventID)
	require.NoError(t, err)
	assert.Equal(t, 2, event.BookingCount, "counter bumped exactly once")
}
