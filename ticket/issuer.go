package ticket

import (
	"context"
	"errors"
	"fmt"
	"time"
	"tourbook/db"
	"tourbook/entities"
	"tourbook/metrics"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
)

var (
	ErrNotFound    = errors.New("ticket not found")
	ErrAlreadyUsed = errors.New("ticket already used")
)

const qrImageSize = 256

type Repository interface {
	GetByID(ctx context.Context, ticketID uuid.UUID) (entities.Ticket, error)
	Redeem(ctx context.Context, token string) (entities.Ticket, error)
	AttachImage(ctx context.Context, ticketID uuid.UUID, image []byte) error
}

// Issuer mints redemption tokens for confirmed bookings and is the single
// authority on turning a token into a used ticket.
type Issuer struct {
	tickets  Repository
	eventBus *cqrs.EventBus
}

func NewIssuer(tickets Repository, eventBus *cqrs.EventBus) Issuer {
	if tickets == nil {
		panic("tickets repository is required")
	}
	if eventBus == nil {
		panic("event bus is required")
	}
	return Issuer{
		tickets:  tickets,
		eventBus: eventBus,
	}
}

// NewToken returns an unguessable redemption token. Tokens are minted inside
// the booking confirmation transaction; uniqueness is enforced by the store.
func (i Issuer) NewToken() string {
	return uuid.NewString()
}

// ValidateAndRedeem flips a ticket to used exactly once. A second redemption
// of the same token reports ErrAlreadyUsed, an unknown token ErrNotFound.
func (i Issuer) ValidateAndRedeem(ctx context.Context, token string) (entities.Ticket, error) {
	ticket, err := i.tickets.Redeem(ctx, token)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrNotFound):
			metrics.TicketsRedeemed.WithLabelValues("not_found").Inc()
			return entities.Ticket{}, ErrNotFound
		case errors.Is(err, db.ErrTicketAlreadyUsed):
			metrics.TicketsRedeemed.WithLabelValues("already_used").Inc()
			return entities.Ticket{}, ErrAlreadyUsed
		default:
			return entities.Ticket{}, err
		}
	}

	metrics.TicketsRedeemed.WithLabelValues("redeemed").Inc()

	usedAt := time.Now().UTC()
	if ticket.UsedAt != nil {
		usedAt = *ticket.UsedAt
	}

	// the redemption is already durable, a lost event must not undo it
	err = i.eventBus.Publish(ctx, entities.TicketRedeemed_v1{
		Header:    entities.NewEventHeader(),
		TicketID:  ticket.TicketID,
		BookingID: ticket.BookingID,
		UsedAt:    usedAt,
	})
	if err != nil {
		log.FromContext(ctx).
			WithField("ticket_id", ticket.TicketID).
			WithError(err).
			Error("Failed to publish ticket redeemed event")
	}

	return ticket, nil
}

// RenderRedemptionImage generates the QR image for an issued ticket. It runs
// asynchronously after confirmation, so a rendering failure never blocks the
// booking from being confirmed.
func (i Issuer) RenderRedemptionImage(ctx context.Context, ticketID uuid.UUID) error {
	ticket, err := i.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return fmt.Errorf("could not load ticket %s: %w", ticketID, err)
	}

	image, err := qrcode.Encode(ticket.QRToken, qrcode.Medium, qrImageSize)
	if err != nil {
		return fmt.Errorf("could not render QR image for ticket %s: %w", ticketID, err)
	}

	return i.tickets.AttachImage(ctx, ticketID, image)
}
