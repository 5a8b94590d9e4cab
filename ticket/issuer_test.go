package ticket

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
	"tourbook/db"
	"tourbook/entities"
	"tourbook/message/event"

	watermillMessage "github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ticketStoreFake struct {
	lock    sync.Mutex
	tickets map[uuid.UUID]entities.Ticket
}

func newTicketStoreFake() *ticketStoreFake {
	return &ticketStoreFake{tickets: map[uuid.UUID]entities.Ticket{}}
}

func (f *ticketStoreFake) add(ticket entities.Ticket) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.tickets[ticket.TicketID] = ticket
}

func (f *ticketStoreFake) GetByID(ctx context.Context, ticketID uuid.UUID) (entities.Ticket, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	ticket, ok := f.tickets[ticketID]
	if !ok {
		return entities.Ticket{}, db.ErrNotFound
	}
	return ticket, nil
}

func (f *ticketStoreFake) Redeem(ctx context.Context, token string) (entities.Ticket, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	for id, ticket := range f.tickets {
		if ticket.QRToken != token {
			continue
		}
		if ticket.Status == entities.TicketStatusUsed {
			return entities.Ticket{}, db.ErrTicketAlreadyUsed
		}
		now := time.Now().UTC()
		ticket.Status = entities.TicketStatusUsed
		ticket.UsedAt = &now
		f.tickets[id] = ticket
		return ticket, nil
	}
	return entities.Ticket{}, db.ErrNotFound
}

func (f *ticketStoreFake) AttachImage(ctx context.Context, ticketID uuid.UUID, image []byte) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	ticket, ok := f.tickets[ticketID]
	if !ok {
		return db.ErrNotFound
	}
	ticket.QRImage = image
	f.tickets[ticketID] = ticket
	return nil
}

type publisherFake struct {
	lock     sync.Mutex
	messages []*watermillMessage.Message
}

func (f *publisherFake) Publish(topic string, messages ...*watermillMessage.Message) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.messages = append(f.messages, messages...)
	return nil
}

func (f *publisherFake) Close() error { return nil }

func newIssuerFixture() (Issuer, *ticketStoreFake, *publisherFake) {
	store := newTicketStoreFake()
	publisher := &publisherFake{}
	return NewIssuer(store, event.NewBus(publisher)), store, publisher
}

func TestNewToken_Unique(t *testing.T) {
	issuer, _, _ := newIssuerFixture()

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		token := issuer.NewToken()
		require.NotEmpty(t, token)
		require.False(t, seen[token])
		seen[token] = true
	}
}

func TestValidateAndRedeem(t *testing.T) {
	issuer, store, publisher := newIssuerFixture()

	issued := entities.Ticket{
		TicketID:  uuid.New(),
		BookingID: uuid.New(),
		Status:    entities.TicketStatusConfirmed,
		QRToken:   issuer.NewToken(),
	}
	store.add(issued)

	redeemed, err := issuer.ValidateAndRedeem(context.Background(), issued.QRToken)
	require.NoError(t, err)

	assert.Equal(t, issued.TicketID, redeemed.TicketID)
	assert.Equal(t, entities.TicketStatusUsed, redeemed.Status)
	require.NotNil(t, redeemed.UsedAt)

	assert.Len(t, publisher.messages, 1, "redemption event published")
}

func TestValidateAndRedeem_SecondScanRejected(t *testing.T) {
	issuer, store, _ := newIssuerFixture()

	issued := entities.Ticket{
		TicketID: uuid.New(),
		Status:   entities.TicketStatusConfirmed,
		QRToken:  issuer.NewToken(),
	}
	store.add(issued)

	_, err := issuer.ValidateAndRedeem(context.Background(), issued.QRToken)
	require.NoError(t, err)

	_, err = issuer.ValidateAndRedeem(context.Background(), issued.QRToken)
	assert.ErrorIs(t, err, ErrAlreadyUsed)
}

func TestValidateAndRedeem_ConcurrentScans(t *testing.T) {
	issuer, store, publisher := newIssuerFixture()

	issued := entities.Ticket{
		TicketID: uuid.New(),
		Status:   entities.TicketStatusConfirmed,
		QRToken:  issuer.NewToken(),
	}
	store.add(issued)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	for i := 0; i < 2; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = issuer.ValidateAndRedeem(context.Background(), issued.QRToken)
		}(i)
	}
	wg.Wait()

	redeemed := 0
	rejected := 0
	for _, err := range errs {
		switch {
		case err == nil:
			redeemed++
		case errors.Is(err, ErrAlreadyUsed):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, redeemed, "exactly one scan wins")
	assert.Equal(t, 1, rejected, "the loser sees already-used, never a silent success")

	assert.Len(t, publisher.messages, 1, "one redemption event published")
}

func TestValidateAndRedeem_UnknownToken(t *testing.T) {
	issuer, _, publisher := newIssuerFixture()

	_, err := issuer.ValidateAndRedeem(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, publisher.messages)
}

func TestRenderRedemptionImage(t *testing.T) {
	issuer, store, _ := newIssuerFixture()

	issued := entities.Ticket{
		TicketID: uuid.New(),
		Status:   entities.TicketStatusConfirmed,
		QRToken:  issuer.NewToken(),
	}
	store.add(issued)

	require.NoError(t, issuer.RenderRedemptionImage(context.Background(), issued.TicketID))

	rendered, err := store.GetByID(context.Background(), issued.TicketID)
	require.NoError(t, err)
	assert.NotEmpty(t, rendered.QRImage)

	// PNG magic bytes
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, rendered.QRImage[:4])
}

func TestRenderRedemptionImage_UnknownTicket(t *testing.T) {
	issuer, _, _ := newIssuerFixture()

	err := issuer.RenderRedemptionImage(context.Background(), uuid.New())
	assert.ErrorIs(t, err, db.ErrNotFound)
}
