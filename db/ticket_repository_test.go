package db

import (
	"context"
	"errors"
	"sync"
	"testing"
	"tourbook/entities"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedeem_ConcurrentScans(t *testing.T) {
	db := getDb(t)
	ctx := context.Background()

	booking := seedPendingBooking(t, db, 1)
	token := uuid.NewString()
	_, minted, err := NewBookingRepository(&db).ConfirmWithTickets(ctx, booking.BookingID, uuid.New(), []string{token})
	require.NoError(t, err)
	require.Len(t, minted, 1)

	ticketRepo := NewTicketRepository(&db)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	for i := 0; i < 2; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = ticketRepo.Redeem(ctx, token)
		}(i)
	}
	wg.Wait()

	redeemed := 0
	rejected := 0
	for _, err := range errs {
		switch {
		case err == nil:
			redeemed++
		case errors.Is(err, ErrTicketAlreadyUsed):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, redeemed, "exactly one scan gets the row")
	assert.Equal(t, 1, rejected)

	used, err := ticketRepo.GetByToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, entities.TicketStatusUsed, used.Status)
	require.NotNil(t, used.UsedAt)
}

func TestRedeem_UnknownToken(t *testing.T) {
	db := getDb(t)

	_, err := NewTicketRepository(&db).Redeem(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}
